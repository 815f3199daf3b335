/*
Package templating expands a node's template into a page.

A ContentParser reads the node's content file through the markup pipeline and
adds computed variables such as @Page_Number, @Year and @Site_Root. The
Engine then substitutes those variables, together with structural variables
like @Navigation and @Category_Lists, into templates/<type>.html.

Structural variables are rendered from partials in templates/partials. A
partial holds at most one loop region:

	<ul>
	foreach $pages as $page:
		<li><a href="@url" class="@css_class">@name</a></li>
	endforeach;
	</ul>

The text before and after the region is emitted once, the loop body once per
item with that item's variables substituted. Substitution is a single pass in
which the longest matching key wins.
*/
package templating

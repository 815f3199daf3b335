/*
Package content maps a request path onto a node of the on-disk content tree.

The tree lives under a site's content directory. Every addressable directory
carries a numeric ordering prefix ("2.about", "10.blog") which controls sibling
order and is stripped from every public URL and display name. A directory with
subdirectories of its own is a category; its children are pages within that
category. Nodes are rebuilt from the filesystem on every request and are never
mutated after construction.
*/
package content

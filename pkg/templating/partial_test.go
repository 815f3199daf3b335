package templating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPartial(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Partial
	}{
		{
			name: "loop region",
			in:   "<ul>\nforeach $pages as $page:\n<li>@name</li>\nendforeach;\n</ul>",
			want: Partial{Prefix: "<ul>\n", Loop: "\n<li>@name</li>\n", Suffix: "\n</ul>"},
		},
		{
			name: "no loop",
			in:   "<p>@url</p>",
			want: Partial{Loop: "<p>@url</p>"},
		},
		{
			name: "colon inside loop body",
			in:   `foreach $i:<a style="color:red">@name</a>endforeach;`,
			want: Partial{Loop: `<a style="color:red">@name</a>`},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, SplitPartial(c.in))
		})
	}
}

func TestCategoryVariable(t *testing.T) {
	cases := map[string]string{
		"blog":            "Blog",
		"projects-folder": "Projects_Folder",
		"a-b-c":           "A_B_C",
		"über-uns":        "Über_Uns",
		"café-été":        "Café_Été",
	}
	for in, want := range cases {
		assert.Equal(t, want, CategoryVariable(in), in)
	}
}

func TestPartialTypesAreRegistered(t *testing.T) {
	for _, pt := range PartialTypes() {
		assert.Contains(t, loopHandlers, pt)
	}
	assert.Len(t, loopHandlers, len(PartialTypes()))
}

func TestUnknownPartialType(t *testing.T) {
	e := setupTestEngine(t, testSite)
	_, err := e.parser.partials.Render("gallery", "", LoopContext{})
	assert.Error(t, err)
}

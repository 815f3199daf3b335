package templating

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CTAG07/Pitcher/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSite = map[string]string{
	"content/_shared.txt":                    "title: Untitled\n\nfooter: Shared footer",
	"content/1.index/content.txt":            "title: Home",
	"content/2.about/content.txt":            "title: About us",
	"content/3.projects/category.txt":        "title: Projects",
	"content/3.projects/1.alpha/project.txt": "title: Alpha",
	"content/3.projects/2.beta/project.txt":  "title: Beta",
	"content/3.projects/2.beta/1.png":        "x",
	"content/3.projects/2.beta/2.png":        "x",
	"content/3.projects/2.beta/3.jpg":        "x",
	"content/3.projects/2.beta/thumb.png":    "x",

	"templates/content.html":  "<h1>@title</h1>@Navigation",
	"templates/category.html": "<h1>@title</h1>@Category_List",
	"templates/project.html":  "<h1>@title</h1>@Images_Count|@Page_Number/@Pages_Count|@Previous_Page|@Next_Page",

	"templates/partials/navigation.html":    `<ul>foreach $pages as $page:<li class="@css_class"><a href="@url">@name</a></li>endforeach;</ul>`,
	"templates/partials/category-list.html": `foreach $items as $item:<a href="@url"><img src="@thumb">@title (@Images_Count)</a>endforeach;`,
	"templates/partials/previous-page.html": `foreach $p:<a href="@url">@title</a>endforeach;`,
	"templates/partials/next-page.html":     `foreach $p:<a href="@url">@title</a>endforeach;`,
}

// writeSite creates files under root; a trailing slash creates an empty directory.
func writeSite(tb testing.TB, root string, files map[string]string) {
	tb.Helper()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if name[len(name)-1] == '/' {
			require.NoError(tb, os.MkdirAll(p, 0755))
			continue
		}
		require.NoError(tb, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(tb, os.WriteFile(p, []byte(body), 0644))
	}
}

// setupTestEngine creates an Engine over a fresh copy of files with a fixed clock.
func setupTestEngine(tb testing.TB, files map[string]string) *Engine {
	tb.Helper()
	root := tb.TempDir()
	writeSite(tb, root, files)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := NewEngine(logger, content.NewResolver(content.DefaultLayout(root)), DefaultConfig())
	require.NoError(tb, err)
	e.parser.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func renderPath(tb testing.TB, e *Engine, path string) string {
	tb.Helper()
	node, err := e.resolver.Resolve(path)
	require.NoError(tb, err, path)
	out, err := e.Page(node, NewRequestContext(path))
	require.NoError(tb, err, path)
	return string(out)
}

func TestNewEngine(t *testing.T) {
	e := setupTestEngine(t, testSite)
	assert.Len(t, e.TemplateNames(), 3)
	assert.Len(t, e.PartialNames(), 4)
}

func TestRenderNavigation(t *testing.T) {
	e := setupTestEngine(t, testSite)
	want := `<h1>About us</h1><ul>` +
		`<li class=""><a href="../projects/">Projects</a></li>` +
		`<li class="active"><a href="../about/">About</a></li></ul>`
	assert.Equal(t, want, renderPath(t, e, "about"))
}

func TestRenderCategoryList(t *testing.T) {
	e := setupTestEngine(t, testSite)
	want := `<h1>Projects</h1>` +
		`<a href="../projects/beta/"><img src="../content/3.projects/2.beta/thumb.png">Beta (3)</a>` +
		`<a href="../projects/alpha/"><img src="">Alpha (0)</a>`
	assert.Equal(t, want, renderPath(t, e, "projects"))
}

func TestRenderSiblings(t *testing.T) {
	e := setupTestEngine(t, testSite)
	want := `<h1>Alpha</h1>0|2/2|<a href="../beta">Beta</a>|<a href="../beta">Beta</a>`
	assert.Equal(t, want, renderPath(t, e, "projects/alpha"))
}

func TestRenderTopLevelSiblings(t *testing.T) {
	files := map[string]string{
		"content/1.index/content.txt":           "title: Home",
		"content/2.about/content.txt":           "title: About",
		"templates/content.html":                "@Page_Number/@Pages_Count [@Previous_Page][@Next_Page]",
		"templates/partials/previous-page.html": `foreach $p:@url endforeach;`,
		"templates/partials/next-page.html":     `foreach $p:@url endforeach;`,
	}
	e := setupTestEngine(t, files)

	node, err := e.resolver.Resolve("about")
	require.NoError(t, err)
	assert.Equal(t, content.KindPage, node.Kind)
	assert.Equal(t, 0, node.Position)

	vars, err := e.Parse(node, NewRequestContext("about"))
	require.NoError(t, err)
	prev, _ := vars.Get("@Previous_Page")
	next, _ := vars.Get("@Next_Page")
	assert.Equal(t, "../index ", prev)
	assert.Equal(t, "../index ", next)

	assert.Equal(t, "1/2 [../index ][../index ]", renderPath(t, e, "about"))
}

func TestRenderSingleSiblingHasNoLinks(t *testing.T) {
	files := map[string]string{
		"content/1.solo/1.only/project.txt": "title: Only",
		"templates/project.html":            "[@Previous_Page][@Next_Page]",
		"templates/partials/next-page.html": `<nav>foreach $p:@url endforeach;</nav>`,
	}
	e := setupTestEngine(t, files)
	// The wrapper stays, the missing previous-page partial shows a warning.
	want := "[<p>! templates/partials/previous-page.html not found.</p>][<nav></nav>]"
	assert.Equal(t, want, renderPath(t, e, "solo/only"))
}

func TestRenderMissingPartial(t *testing.T) {
	files := map[string]string{
		"content/1.about/content.txt": "title: About",
		"templates/content.html":      "x@Pages",
	}
	e := setupTestEngine(t, files)
	assert.Equal(t, "x<p>! templates/partials/pages.html not found.</p>", renderPath(t, e, "about"))
}

func TestRenderNoTemplate(t *testing.T) {
	files := map[string]string{
		"content/1.about/content.txt": "title: About",
	}
	e := setupTestEngine(t, files)
	node, err := e.resolver.Resolve("about")
	require.NoError(t, err)
	_, err = e.Page(node, RequestContext{})
	assert.ErrorIs(t, err, ErrNoTemplate)
}

func TestRenderIsIdempotent(t *testing.T) {
	e := setupTestEngine(t, testSite)
	first := renderPath(t, e, "projects")
	second := renderPath(t, e, "projects")
	assert.Equal(t, first, second)
}

func TestStructuralVariables(t *testing.T) {
	files := map[string]string{
		"content/1.about/content.txt":                  "title: About",
		"content/2.home-projects/1.a/page.txt":         "title: A",
		"content/2.home-projects/1.a/clip_640x480.mp4": "x",
		"templates/partials/home-projects.html":        `foreach $i:[@title]endforeach;`,
		"templates/partials/pages.html":                `foreach $i:(@name)endforeach;`,
		"templates/partials/video.html":                `foreach $v:@url @width @height;endforeach;`,
	}
	e := setupTestEngine(t, files)
	node, err := e.resolver.Resolve("home-projects/a")
	require.NoError(t, err)
	vars, err := e.Parse(node, RequestContext{})
	require.NoError(t, err)
	out, err := e.RenderText(node, vars, RequestContext{}, "@Home_Projects|@Category_Lists|@Pages|@Video|@Media")
	require.NoError(t, err)
	video := "../../content/2.home-projects/1.a/clip_640x480.mp4 640 480;"
	want := "[A]|[A]|(About)|" + video + "|" +
		"<p>! templates/partials/images.html not found.</p>" + video +
		"<p>! templates/partials/swf.html not found.</p>"
	assert.Equal(t, want, out)
}

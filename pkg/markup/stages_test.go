package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stageCase struct {
	name string
	in   string
	want string
}

func runStageCases(t *testing.T, fn func(string) string, cases []stageCase) {
	t.Helper()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, fn(c.in))
		})
	}
}

func TestEscapePunctuation(t *testing.T) {
	runStageCases(t, EscapePunctuation, []stageCase{
		{"key colon is structural", "\ntitle: Hi\n", "\ntitle\x01 Hi\n"},
		{"inline colon escaped", "\nat 10:30\n", "\nat 10&#58;30\n"},
		{"url at line start is not a key", "\nhttp://a.com\n", "\nhttp&#58;//a.com\n"},
		{"uppercase key is literal", "\nNote: x\n", "\nNote&#58; x\n"},
		{"list dash is structural", "\n-item one\n", "\n\x02item one\n"},
		{"inline dash escaped", "\nwell-known\n", "\nwell&#45;known\n"},
		{"dashed key", "\npage-title: x\n", "\npage&#45;title\x01 x\n"},
		{"stray markers removed", "\na\x01b\x02\n", "\nab\n"},
	})
}

func TestRestoreMarkers(t *testing.T) {
	runStageCases(t, RestoreMarkers, []stageCase{
		{"both markers", "\ntitle\x01 x\n\x02item\n", "\ntitle: x\n-item\n"},
		{"entities untouched", "a&#58;b&#45;c", "a&#58;b&#45;c"},
	})
}

func TestAutolinkURLs(t *testing.T) {
	runStageCases(t, AutolinkURLs, []stageCase{
		{"bare url", "see http&#58;//example.com/a&#45;b now",
			`see <a href="http&#58;//example.com/a&#45;b">http&#58;//example.com/a&#45;b</a> now`},
		{"https and trailing period", "at https&#58;//example.com.",
			`at <a href="https&#58;//example.com">https&#58;//example.com</a>.`},
		{"already an attribute", `<a href="http&#58;//example.com">x</a>`,
			`<a href="http&#58;//example.com">x</a>`},
		{"already link text", `<a>http&#58;//example.com</a>`, `<a>http&#58;//example.com</a>`},
		{"no host dot", "http&#58;//localhost", "http&#58;//localhost"},
	})
}

func TestAutolinkEmails(t *testing.T) {
	runStageCases(t, AutolinkEmails, []stageCase{
		{"bare address", "mail me@example.com",
			`mail <a href="mailto&#58;me&#64;example.com">me&#64;example.com</a>`},
		{"dashed local part", "a&#45;b@example.org",
			`<a href="mailto&#58;a&#45;b&#64;example.org">a&#45;b&#64;example.org</a>`},
		{"inside tag text", "<b>x@example.com", "<b>x@example.com"},
	})
}

func TestLists(t *testing.T) {
	runStageCases(t, Lists, []stageCase{
		{"run of items joins one list", "\nintro\n-one\n-two\n\n",
			"\nintro<ul><li>one</li><li>two</li></ul>\n\n"},
		{"list after key", "\ncontent:\n-a\n\n", "\ncontent:<ul><li>a</li></ul>\n\n"},
		{"empty item is text", "\n-\n", "\n-\n"},
	})
}

func TestCollapseListItems(t *testing.T) {
	runStageCases(t, CollapseListItems, []stageCase{
		{"doubled close", "<li>a</li></li>", "<li>a</li>"},
	})
}

func TestHeadings(t *testing.T) {
	runStageCases(t, Headings, []stageCase{
		{"h1", "\nh1. Title\n", "\n<h1>Title</h1>\n"},
		{"h0 no space", "\nh0.Zero\n", "\n<h0>Zero</h0>\n"},
		{"h6 is text", "\nh6. Six\n", "\nh6. Six\n"},
		{"mid-line is text", "\nsee path3. here\n", "\nsee path3. here\n"},
	})
}

func TestParagraphs(t *testing.T) {
	runStageCases(t, Paragraphs, []stageCase{
		{"plain lines", "\n\none\ntwo\n\n", "\n\n<p>one</p>\n<p>two</p>\n\n"},
		{"blocks stay", "\n<ul><li>a</li></ul>\n<h2>b</h2>\n", "\n<ul><li>a</li></ul>\n<h2>b</h2>\n"},
		{"whitespace line is blank", "\na\n  \nb\n", "\n<p>a</p>\n\n<p>b</p>\n"},
		{"last line without newline", "a", "a"},
	})
}

func TestRepairParagraphs(t *testing.T) {
	runStageCases(t, RepairParagraphs, []stageCase{
		{"key value line", "<p>title: Hi</p>", "title: Hi"},
		{"bare key line", "<p>content:</p>", "content:"},
		{"dashed bare key", "<p>page&#45;body:</p>", "page&#45;body:"},
		{"multi-line value", "<p>intro: one</p>\n<p>two</p>", "intro:<p>one</p>\n<p>two</p>"},
		{"heading", "<p><h2>x</h2></p>", "<h2>x</h2>"},
	})
}

func TestDefaultPipelineOrder(t *testing.T) {
	want := []string{
		"escape-punctuation", "restore-markers", "autolink-urls", "autolink-emails",
		"lists", "collapse-list-items", "headings", "paragraphs", "repair-paragraphs",
	}
	assert.Equal(t, want, DefaultPipeline().Names())
}

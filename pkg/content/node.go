package content

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies a node. It decides the fallback template.
type Kind int

const (
	KindPage Kind = iota
	KindCategory
	KindPageInCategory
)

func (k Kind) String() string {
	switch k {
	case KindCategory:
		return "category"
	case KindPageInCategory:
		return "page-in-category"
	default:
		return "page"
	}
}

// DefaultTemplate is the template name used when templates/<pageType>.html is absent.
func (k Kind) DefaultTemplate() string {
	switch k {
	case KindCategory:
		return "category"
	case KindPageInCategory:
		return "page-in-category"
	default:
		return "content"
	}
}

// Node is one addressable page or category.
type Node struct {
	// Name is the clean last URL segment, ParentURL everything before it.
	Name      string
	ParentURL string
	URL       string
	Kind      Kind
	// StandIn nodes are built to expose another page's variables (sibling
	// links, category items). They skip sibling and category-list expansion.
	StandIn bool

	Dir string
	// RelDir is Dir relative to the site root in slash form.
	RelDir       string
	PageType     string
	ContentFile  string
	TemplateFile string

	Siblings []string
	Position int
	Children []string

	Images  []string
	Videos  []string
	HTML    []string
	Objects []string

	// LinkPath leads from the node's URL back to the site root.
	LinkPath string
}

// HasContent reports whether the node's content file exists.
func (n *Node) HasContent() bool {
	info, err := os.Stat(n.ContentFile)
	return err == nil && !info.IsDir()
}

// HasTemplate reports whether a template was selected for the node.
func (n *Node) HasTemplate() bool {
	return n.TemplateFile != ""
}

// MediaCount is the number of assets of every type.
func (n *Node) MediaCount() int {
	return len(n.Images) + len(n.Videos) + len(n.HTML) + len(n.Objects)
}

// AssetURL returns the site-relative URL of a file in the node directory.
func (n *Node) AssetURL(file string) string {
	return n.LinkPath + n.RelDir + "/" + file
}

// Thumb returns the URL of the node's thumbnail image, or "" when there is none.
func (n *Node) Thumb() string {
	thumbs, err := ListFiles(n.Dir, isThumb)
	if err != nil || len(thumbs) == 0 {
		return ""
	}
	return n.AssetURL(thumbs[0])
}

// IsCurrent reports whether the node is the one addressed by the request path.
func (n *Node) IsCurrent(current string) bool {
	return strings.Trim(current, "/") == n.URL
}

// Debug renders the node's fields as HTML for the @Debug variable.
func (n *Node) Debug() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Type: %s</p>", n.Kind)
	fmt.Fprintf(&b, "<p>Path: %s | %s</p>", html.EscapeString(n.RelDir), n.LinkPath)
	fmt.Fprintf(&b, "<p>Template: %s</p>", html.EscapeString(filepath.Base(n.TemplateFile)))
	fmt.Fprintf(&b, "<p>Name: %s</p>", html.EscapeString(n.Name))
	fmt.Fprintf(&b, `<p>Parent: <a href="%s%s">%s</a></p>`, n.LinkPath, n.ParentURL, html.EscapeString(n.ParentURL))
	fmt.Fprintf(&b, "<p>URL: %s</p>", html.EscapeString(n.URL))
	for _, c := range n.Children {
		fmt.Fprintf(&b, "<p>C: %s</p>", html.EscapeString(c))
	}
	for _, s := range n.Siblings {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(s))
	}
	return b.String()
}

func isThumb(name string) bool {
	lower := strings.ToLower(name)
	if !strings.Contains(lower, "thumb.") {
		return false
	}
	return extMatcher([]string{"gif", "jpg", "jpeg", "png"})(name)
}

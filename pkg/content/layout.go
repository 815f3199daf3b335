package content

import (
	"path/filepath"
	"strings"
)

// Layout describes where a site keeps its content, templates, cache and static
// files. All directory fields are relative to Root.
type Layout struct {
	Root         string
	ContentDir   string
	TemplatesDir string
	PartialsDir  string
	PublicDir    string
	CacheDir     string

	// SharedFile is merged into every page's variables. Relative to ContentDir.
	SharedFile string
	// IndexName is the node served for the empty path.
	IndexName string

	ImageExts  []string
	VideoExts  []string
	HTMLExts   []string
	ObjectExts []string
}

// DefaultLayout returns the conventional layout rooted at root.
func DefaultLayout(root string) Layout {
	return Layout{
		Root:         root,
		ContentDir:   "content",
		TemplatesDir: "templates",
		PartialsDir:  "templates/partials",
		PublicDir:    "public",
		CacheDir:     "cache",
		SharedFile:   "_shared.txt",
		IndexName:    "index",
		ImageExts:    []string{"gif", "jpg", "jpeg", "png"},
		VideoExts:    []string{"mov", "mp4"},
		HTMLExts:     []string{"html", "htm"},
		ObjectExts:   []string{"swf"},
	}
}

func (l Layout) ContentPath() string   { return filepath.Join(l.Root, l.ContentDir) }
func (l Layout) TemplatesPath() string { return filepath.Join(l.Root, l.TemplatesDir) }
func (l Layout) PartialsPath() string  { return filepath.Join(l.Root, l.PartialsDir) }
func (l Layout) PublicPath() string    { return filepath.Join(l.Root, l.PublicDir) }
func (l Layout) CachePath() string     { return filepath.Join(l.Root, l.CacheDir) }
func (l Layout) SharedPath() string    { return filepath.Join(l.ContentPath(), l.SharedFile) }

// TemplateFile returns the path of templates/<name>.html.
func (l Layout) TemplateFile(name string) string {
	return filepath.Join(l.TemplatesPath(), name+".html")
}

// PartialFile returns the path of templates/partials/<name>.html.
func (l Layout) PartialFile(name string) string {
	return filepath.Join(l.PartialsPath(), name+".html")
}

// Rel returns path relative to Root in slash form, which is how paths appear
// in URLs, cache keys and fingerprints. Paths outside Root are returned as-is.
func (l Layout) Rel(path string) string {
	rel, err := filepath.Rel(l.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

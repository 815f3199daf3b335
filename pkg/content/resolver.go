package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a path does not address any node.
var ErrNotFound = errors.New("content: node not found")

// ResolveError reports the path segment that failed to match a directory.
type ResolveError struct {
	Path    string
	Segment string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("content: no directory for segment %q of %q", e.Segment, e.Path)
}

func (e *ResolveError) Unwrap() error { return ErrNotFound }

// Resolver builds nodes from a site layout. It holds no state beyond the
// layout, so one Resolver may serve concurrent requests.
type Resolver struct {
	layout Layout
}

func NewResolver(layout Layout) *Resolver {
	return &Resolver{layout: layout}
}

func (r *Resolver) Layout() Layout { return r.layout }

// Resolve turns a request path into a node. The empty path addresses the
// index node. Paths with a slash are pages within a category; single
// segments are categories when their directory has subdirectories.
func (r *Resolver) Resolve(path string) (*Node, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		path = r.layout.IndexName
	}
	if strings.Contains(path, "/") {
		return r.build(path, KindPageInCategory, false)
	}
	dir, ok := r.lookup(r.layout.ContentPath(), path)
	if !ok {
		return nil, &ResolveError{Path: path, Segment: path}
	}
	kind := KindPage
	if HasSubdirs(filepath.Join(r.layout.ContentPath(), dir)) {
		kind = KindCategory
	}
	return r.build(path, kind, false)
}

// StandIn resolves url as a lightweight page whose own siblings and category
// listing are not computed.
func (r *Resolver) StandIn(url string) (*Node, error) {
	return r.build(strings.Trim(url, "/"), KindPageInCategory, true)
}

// PublicFile returns public/<name>.html when it exists.
func (r *Resolver) PublicFile(name string) (string, bool) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	p := filepath.Join(r.layout.PublicPath(), name+".html")
	if info, err := os.Stat(p); err == nil && !info.IsDir() {
		return p, true
	}
	return "", false
}

// Categories returns the raw names of top-level directories that are categories.
func (r *Resolver) Categories() ([]string, error) {
	dirs, err := ListPrefixedDirs(r.layout.ContentPath())
	if err != nil {
		return nil, err
	}
	var cats []string
	for _, d := range dirs {
		if HasSubdirs(filepath.Join(r.layout.ContentPath(), d)) {
			cats = append(cats, d)
		}
	}
	return cats, nil
}

// URLs lists the clean path of every addressable node, depth first in listing
// order. The index node is reported as "".
func (r *Resolver) URLs() ([]string, error) {
	var urls []string
	var walk func(dir, prefix string) error
	walk = func(dir, prefix string) error {
		dirs, err := ListPrefixedDirs(dir)
		if err != nil {
			return err
		}
		for _, d := range dirs {
			url := prefix + CleanName(d)
			if url == r.layout.IndexName {
				urls = append(urls, "")
			} else {
				urls = append(urls, url)
			}
			if err := walk(filepath.Join(dir, d), url+"/"); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(r.layout.ContentPath(), ""); err != nil {
		return nil, err
	}
	return urls, nil
}

func (r *Resolver) build(url string, kind Kind, standIn bool) (*Node, error) {
	n := &Node{URL: url, Kind: kind, StandIn: standIn}
	if i := strings.LastIndex(url, "/"); i >= 0 {
		n.ParentURL, n.Name = url[:i], url[i+1:]
	} else {
		n.Name = url
	}

	dir := r.layout.ContentPath()
	if n.ParentURL != "" {
		for _, seg := range strings.Split(n.ParentURL, "/") {
			raw, ok := r.lookup(dir, seg)
			if !ok {
				return nil, &ResolveError{Path: url, Segment: seg}
			}
			dir = filepath.Join(dir, raw)
		}
	}
	raw, ok := r.lookup(dir, n.Name)
	if !ok {
		return nil, &ResolveError{Path: url, Segment: n.Name}
	}
	n.Dir = filepath.Join(dir, raw)
	n.RelDir = r.layout.Rel(n.Dir)

	if url == r.layout.IndexName {
		n.LinkPath = ""
	} else {
		n.LinkPath = strings.Repeat("../", strings.Count(url, "/")+1)
	}

	txts, err := ListFiles(n.Dir, func(name string) bool { return strings.HasSuffix(name, ".txt") })
	if err != nil {
		return nil, fmt.Errorf("list content files in %s: %w", n.Dir, err)
	}
	if len(txts) > 0 {
		n.PageType = strings.TrimSuffix(txts[0], ".txt")
		n.ContentFile = filepath.Join(n.Dir, txts[0])
	} else {
		n.ContentFile = filepath.Join(n.Dir, "none")
	}
	n.TemplateFile = r.selectTemplate(n)

	if n.Images, err = r.assets(n.Dir, r.layout.ImageExts); err != nil {
		return nil, err
	}
	if n.Videos, err = r.assets(n.Dir, r.layout.VideoExts); err != nil {
		return nil, err
	}
	if n.HTML, err = r.assets(n.Dir, r.layout.HTMLExts); err != nil {
		return nil, err
	}
	if n.Objects, err = r.assets(n.Dir, r.layout.ObjectExts); err != nil {
		return nil, err
	}

	if n.Siblings, err = ListPrefixedDirs(filepath.Dir(n.Dir)); err != nil {
		return nil, fmt.Errorf("list siblings of %s: %w", n.Dir, err)
	}
	for i, s := range n.Siblings {
		if s == raw {
			n.Position = i
			break
		}
	}
	if n.Children, err = ListDirs(n.Dir); err != nil {
		return nil, fmt.Errorf("list children of %s: %w", n.Dir, err)
	}
	return n, nil
}

// lookup finds the prefixed directory in dir whose clean name is name.
func (r *Resolver) lookup(dir, name string) (string, bool) {
	if name == "" || name == "." || name == ".." {
		return "", false
	}
	dirs, err := ListPrefixedDirs(dir)
	if err != nil {
		return "", false
	}
	for _, d := range dirs {
		if CleanName(d) == name {
			return d, true
		}
	}
	return "", false
}

func (r *Resolver) selectTemplate(n *Node) string {
	var candidates []string
	if n.PageType != "" {
		candidates = append(candidates, n.PageType)
	}
	candidates = append(candidates, n.Kind.DefaultTemplate())
	for _, name := range candidates {
		p := r.layout.TemplateFile(name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func (r *Resolver) assets(dir string, exts []string) ([]string, error) {
	match := extMatcher(exts)
	files, err := ListFiles(dir, func(name string) bool {
		return match(name) && !strings.Contains(strings.ToLower(name), "thumb.")
	})
	if err != nil {
		return nil, fmt.Errorf("list assets in %s: %w", dir, err)
	}
	return files, nil
}

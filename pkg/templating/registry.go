package templating

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/CTAG07/Pitcher/pkg/content"
)

// PartialType selects the loop handler of a partial.
type PartialType string

const (
	PartialCategoryList PartialType = "category-list"
	PartialNavigation   PartialType = "navigation"
	PartialPages        PartialType = "pages"
	PartialImages       PartialType = "images"
	PartialVideo        PartialType = "video"
	PartialSwf          PartialType = "swf"
	PartialHTML         PartialType = "html"
	PartialPreviousPage PartialType = "previous-page"
	PartialNextPage     PartialType = "next-page"
)

// LoopContext is the input of one loop handler call.
type LoopContext struct {
	// Node is the page being rendered.
	Node *content.Node
	// Dir is the directory a listing iterates and URL its clean path.
	// Handlers that work on the node's own assets ignore both.
	Dir string
	URL string
	// Loop is the partial's loop body.
	Loop    string
	Request RequestContext
}

// LoopFunc expands a loop body once per item and returns the concatenation.
type LoopFunc func(p *PartialRenderer, lc LoopContext) (string, error)

// loopHandlers is filled in init: the category-list handler parses stand-in
// nodes, which renders partials again.
var loopHandlers map[PartialType]LoopFunc

func init() {
	loopHandlers = map[PartialType]LoopFunc{
		PartialCategoryList: categoryListLoop,
		PartialNavigation:   navigationLoop,
		PartialPages:        pagesLoop,
		PartialImages:       imagesLoop,
		PartialVideo:        videoLoop,
		PartialSwf:          swfLoop,
		PartialHTML:         htmlLoop,
		PartialPreviousPage: previousPageLoop,
		PartialNextPage:     nextPageLoop,
	}
}

// PartialTypes lists every registered partial type.
func PartialTypes() []PartialType {
	return []PartialType{
		PartialCategoryList, PartialNavigation, PartialPages,
		PartialImages, PartialVideo, PartialSwf, PartialHTML,
		PartialPreviousPage, PartialNextPage,
	}
}

// PartialRenderer loads partial files and runs their loops.
// All methods are concurrent-safe.
type PartialRenderer struct {
	logger   *slog.Logger
	resolver *content.Resolver
	parser   *ContentParser

	mu     sync.RWMutex
	config TemplateConfig
}

// Config returns a copy of the current configuration.
func (p *PartialRenderer) Config() TemplateConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config
}

// SetConfig replaces the configuration used by later renders.
func (p *PartialRenderer) SetConfig(config TemplateConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config = config
}

// Render renders the partial file named file (relative to the partials
// directory, without extension) with the handler of t. An empty file name
// runs the handler on an empty loop body. A missing file renders as an
// inline warning.
func (p *PartialRenderer) Render(t PartialType, file string, lc LoopContext) (string, error) {
	fn, ok := loopHandlers[t]
	if !ok {
		return "", fmt.Errorf("templating: unknown partial type %q", t)
	}
	var part Partial
	if file != "" {
		path := p.resolver.Layout().PartialFile(file)
		loaded, found, err := LoadPartial(path)
		if err != nil {
			return "", err
		}
		if !found {
			rel := p.resolver.Layout().Rel(path)
			p.logger.Debug("Partial not found", "file", rel, "type", t)
			return missingPartial(rel), nil
		}
		part = loaded
	}
	lc.Loop = part.Loop
	body, err := fn(p, lc)
	if err != nil {
		return "", fmt.Errorf("render %s partial: %w", t, err)
	}
	return part.Prefix + body + part.Suffix, nil
}

// RenderType renders the configured partial file of t.
func (p *PartialRenderer) RenderType(t PartialType, lc LoopContext) (string, error) {
	return p.Render(t, p.Config().partialFile(t), lc)
}

// RenderCategory renders the listing of a category directory. A partial
// named after the category takes precedence over the category-list partial.
func (p *PartialRenderer) RenderCategory(node *content.Node, dir, url string, rc RequestContext) (string, error) {
	name := url
	if i := strings.LastIndex(url, "/"); i >= 0 {
		name = url[i+1:]
	}
	file := p.Config().partialFile(PartialCategoryList)
	if info, err := os.Stat(p.resolver.Layout().PartialFile(name)); err == nil && !info.IsDir() {
		file = name
	}
	return p.Render(PartialCategoryList, file, LoopContext{Node: node, Dir: dir, URL: url, Request: rc})
}

// Structural renders the site-wide variables of a template: every category
// listing, navigation, pages and the node's media.
func (p *PartialRenderer) Structural(node *content.Node, rc RequestContext) (*VariableSet, error) {
	layout := p.resolver.Layout()
	vars := NewVariableSet()
	vars.Set("@Category_Lists", "")

	cats, err := p.resolver.Categories()
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	var all strings.Builder
	for _, raw := range cats {
		clean := content.CleanName(raw)
		list, err := p.RenderCategory(node, filepath.Join(layout.ContentPath(), raw), clean, rc)
		if err != nil {
			return nil, err
		}
		vars.Set("@"+CategoryVariable(clean), list)
		all.WriteString(list)
	}
	vars.Set("@Category_Lists", all.String())

	root := LoopContext{Node: node, Dir: layout.ContentPath(), Request: rc}
	for _, v := range []struct {
		key string
		t   PartialType
	}{
		{"@Navigation", PartialNavigation},
		{"@Pages", PartialPages},
		{"@Images", PartialImages},
		{"@Video", PartialVideo},
		{"@Html", PartialHTML},
		{"@Swfs", PartialSwf},
	} {
		out, err := p.RenderType(v.t, root)
		if err != nil {
			return nil, err
		}
		vars.Set(v.key, out)
	}

	media := ""
	for _, k := range []string{"@Images", "@Video", "@Swfs", "@Html"} {
		s, _ := vars.Get(k)
		media += s
	}
	vars.Set("@Media", media)
	return vars, nil
}

var dashedLetter = regexp.MustCompile(`-(.)`)

// CategoryVariable turns a clean category name into its variable name:
// "projects-folder" becomes "Projects_Folder".
func CategoryVariable(clean string) string {
	s := dashedLetter.ReplaceAllStringFunc(clean, func(m string) string {
		return "_" + strings.ToUpper(m[1:])
	})
	return content.UpperFirst(s)
}

func activeClass(active bool) string {
	if active {
		return "active"
	}
	return ""
}

// joinURL appends a clean name to a clean URL prefix.
func joinURL(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

package templating

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/CTAG07/Pitcher/pkg/content"
	"github.com/CTAG07/Pitcher/pkg/markup"
)

// RequestContext carries the request being served through a render.
type RequestContext struct {
	// CurrentPath is the request path, used to mark active items.
	CurrentPath string
}

// NewRequestContext returns the context for a request of path, normalized to
// "/a/b/" form. The empty path becomes "/".
func NewRequestContext(path string) RequestContext {
	path = strings.Trim(path, "/")
	if path == "" {
		return RequestContext{CurrentPath: "/"}
	}
	return RequestContext{CurrentPath: "/" + path + "/"}
}

// ContentParser turns a node's content file into its variable set.
type ContentParser struct {
	resolver *content.Resolver
	pipeline markup.Pipeline
	partials *PartialRenderer
	now      func() time.Time
}

// NewContentParser returns a parser using the default markup pipeline.
func NewContentParser(logger *slog.Logger, resolver *content.Resolver, config TemplateConfig) *ContentParser {
	c := &ContentParser{
		resolver: resolver,
		pipeline: markup.DefaultPipeline(),
		now:      time.Now,
	}
	c.partials = &PartialRenderer{
		logger:   logger,
		resolver: resolver,
		parser:   c,
		config:   config,
	}
	return c
}

// Partials returns the partial renderer bound to this parser.
func (c *ContentParser) Partials() *PartialRenderer {
	return c.partials
}

// Parse reads the node's content file followed by the shared file, runs
// them through the markup pipeline and returns the computed variables
// overlaid with the extracted fields. A key defined in the content file
// wins over the same key in the shared file.
func (c *ContentParser) Parse(node *content.Node, rc RequestContext) (*VariableSet, error) {
	text, err := readOptional(node.ContentFile)
	if err != nil {
		return nil, err
	}
	shared, err := readOptional(c.resolver.Layout().SharedPath())
	if err != nil {
		return nil, err
	}

	vars, err := c.computed(node, rc)
	if err != nil {
		return nil, err
	}
	fields := markup.ExtractFields(c.pipeline.Run("\n\n" + text + "\n\n" + shared + "\n\n"))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f.Key]; ok {
			continue
		}
		seen[f.Key] = struct{}{}
		vars.Set("@"+f.Key, f.Value)
	}
	return vars, nil
}

func (c *ContentParser) computed(node *content.Node, rc RequestContext) (*VariableSet, error) {
	vars := NewVariableSet()
	vars.Set("@Images_Count", strconv.Itoa(len(node.Images)))
	vars.Set("@Video_Count", strconv.Itoa(len(node.Videos)))
	vars.Set("@Html_Count", strconv.Itoa(len(node.HTML)))
	vars.Set("@Swfs_Count", strconv.Itoa(len(node.Objects)))
	vars.Set("@Media_Count", strconv.Itoa(node.MediaCount()))
	vars.Set("@Pages_Count", strconv.Itoa(len(node.Siblings)))
	vars.Set("@Page_Number", strconv.Itoa(node.Position+1))
	vars.Set("@Year", c.now().Format("2006"))
	vars.Set("@Site_Root/", node.LinkPath)
	vars.Set("@Site_Root", node.LinkPath)

	debug := ""
	if c.partials.Config().DebugEnabled {
		debug = node.Debug()
	}
	vars.Set("@Debug", debug)

	lc := LoopContext{Node: node, Request: rc}
	prev, err := c.partials.RenderType(PartialPreviousPage, lc)
	if err != nil {
		return nil, err
	}
	vars.Set("@Previous_Page", prev)
	next, err := c.partials.RenderType(PartialNextPage, lc)
	if err != nil {
		return nil, err
	}
	vars.Set("@Next_Page", next)

	if node.StandIn {
		return vars, nil
	}
	var list string
	switch node.Kind {
	case content.KindCategory:
		list, err = c.partials.RenderCategory(node, node.Dir, node.URL, rc)
	case content.KindPageInCategory:
		list, err = c.partials.RenderCategory(node, filepath.Dir(node.Dir), node.ParentURL, rc)
	default:
		return vars, nil
	}
	if err != nil {
		return nil, err
	}
	vars.Set("@Category_List", list)
	return vars, nil
}

// readOptional returns the file's text, or "" when it does not exist.
func readOptional(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return normalizeNewlines(string(b)), nil
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

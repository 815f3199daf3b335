package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/CTAG07/Pitcher/pkg/cache"
	"github.com/CTAG07/Pitcher/pkg/content"
	"github.com/CTAG07/Pitcher/pkg/metrics"
	"github.com/CTAG07/Pitcher/pkg/templating"
)

// Outcome is how a request was answered.
type Outcome int

const (
	NotFound Outcome = iota
	NoTemplate
	NotModified
	CacheHit
	Fresh
	FreshUncached
)

func (o Outcome) String() string {
	switch o {
	case NotFound:
		return "not_found"
	case NoTemplate:
		return "no_template"
	case NotModified:
		return "not_modified"
	case CacheHit:
		return "cache_hit"
	case Fresh:
		return "fresh"
	case FreshUncached:
		return "fresh_uncached"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Resolver maps request paths to nodes.
type Resolver interface {
	Resolve(path string) (*content.Node, error)
}

// Parser produces a node's content variables.
type Parser interface {
	Parse(node *content.Node, rc templating.RequestContext) (*templating.VariableSet, error)
}

// TemplateRenderer expands a node's template.
type TemplateRenderer interface {
	Render(node *content.Node, vars *templating.VariableSet, rc templating.RequestContext) ([]byte, error)
}

// Cache stores rendered pages keyed by node and fingerprint.
type Cache interface {
	Version() string
	Fingerprint() (string, error)
	IsValid(node *content.Node, fingerprint string) bool
	Read(node *content.Node) ([]byte, error)
	Write(node *content.Node, fingerprint string, body []byte) ([]byte, error)
}

// Request is one page request.
type Request struct {
	Path        string
	IfNoneMatch string
}

// Result is the answer to a Request. Body is empty for NotFound, NoTemplate
// and NotModified; Node is nil for NotFound.
type Result struct {
	Outcome     Outcome
	Body        []byte
	ETag        string
	Fingerprint string
	Node        *content.Node
}

// Renderer answers page requests. All methods are concurrent-safe.
type Renderer struct {
	logger    *slog.Logger
	resolver  Resolver
	parser    Parser
	templates TemplateRenderer
	cache     Cache
	recorder  metrics.Recorder
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) { r.logger = logger }
}

// WithRecorder sets the metrics recorder. The default is metrics.NoopRecorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Renderer) { r.recorder = rec }
}

// New returns a Renderer wired to its collaborators.
func New(resolver Resolver, parser Parser, templates TemplateRenderer, c Cache, opts ...Option) *Renderer {
	r := &Renderer{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		resolver:  resolver,
		parser:    parser,
		templates: templates,
		cache:     c,
		recorder:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render answers req. Expected misses are reported as outcomes; errors are
// reserved for I/O and rendering failures.
func (r *Renderer) Render(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	defer func() {
		if err == nil {
			r.recorder.ObserveRender(res.Outcome.String(), time.Since(start))
		}
	}()

	node, err := r.resolver.Resolve(req.Path)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return &Result{Outcome: NotFound}, nil
		}
		return nil, fmt.Errorf("resolve %q: %w", req.Path, err)
	}
	if !node.HasTemplate() {
		return &Result{Outcome: NoTemplate, Node: node}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fpStart := time.Now()
	fp, err := r.cache.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprint site: %w", err)
	}
	r.recorder.ObserveFingerprintDuration(time.Since(fpStart))
	res = &Result{ETag: `"` + fp + `"`, Fingerprint: fp, Node: node}

	if ETagMatches(req.IfNoneMatch, res.ETag) {
		res.Outcome = NotModified
		return res, nil
	}

	if r.cache.IsValid(node, fp) {
		stored, err := r.cache.Read(node)
		if err == nil {
			res.Outcome = CacheHit
			res.Body = append(stored, cache.CachedTrailer...)
			return res, nil
		}
		r.logger.Warn("Cache entry vanished, rendering", "path", req.Path, "error", err)
	}

	rc := templating.NewRequestContext(req.Path)
	vars, err := r.parser.Parse(node, rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", node.ContentFile, err)
	}
	body, err := r.templates.Render(node, vars, rc)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", node.TemplateFile, err)
	}

	stored, err := r.cache.Write(node, fp, body)
	if err != nil {
		r.logger.Warn("Failed to write cache entry", "path", req.Path, "error", err)
		r.recorder.IncCacheWriteFailure()
		res.Outcome = FreshUncached
		res.Body = append(body, "\n"+cache.UncachedMarker(r.cache.Version())...)
		return res, nil
	}
	res.Outcome = Fresh
	res.Body = stored
	return res, nil
}

// ETagMatches reports whether an If-None-Match header value matches etag.
// Weak validators and lists are accepted; "*" matches anything.
func ETagMatches(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag {
			return true
		}
	}
	return false
}

package templating

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/CTAG07/Pitcher/pkg/content"
)

// ErrNoTemplate is returned when a node has no template to render with.
var ErrNoTemplate = errors.New("templating: no template for node")

// Engine is the central controller for the templating engine.
// It owns the content parser and partial renderer, and expands templates
// against a node's variables. All methods are concurrent-safe.
type Engine struct {
	logger   *slog.Logger
	resolver *content.Resolver
	parser   *ContentParser

	templateNames []string
	partialNames  []string
	mu            sync.RWMutex
}

// NewEngine creates, initializes, and returns a new Engine for the site
// described by resolver's layout. It performs an initial Refresh to list
// the available templates and partials.
func NewEngine(logger *slog.Logger, resolver *content.Resolver, config TemplateConfig) (*Engine, error) {
	e := &Engine{
		logger:   logger,
		resolver: resolver,
		parser:   NewContentParser(logger, resolver, config),
	}
	if err := e.Refresh(); err != nil {
		return nil, err
	}
	logger.Info("Template engine initialized")
	return e, nil
}

// Parser returns the engine's content parser.
func (e *Engine) Parser() *ContentParser {
	return e.parser
}

// SetConfig applies a new configuration. Later renders use it.
func (e *Engine) SetConfig(config TemplateConfig) {
	e.parser.partials.SetConfig(config)
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() TemplateConfig {
	return e.parser.partials.Config()
}

// Refresh rescans the templates and partials directories. Templates are
// read from disk on every render, so Refresh only updates the listings
// reported by TemplateNames and PartialNames.
func (e *Engine) Refresh() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	layout := e.resolver.Layout()
	isHTML := func(name string) bool { return strings.HasSuffix(name, ".html") }

	e.logger.Info("Loading template files...")
	names, err := content.ListFiles(layout.TemplatesPath(), isHTML)
	if err != nil {
		e.logger.Error("failed to list template files", "error", err)
		return err
	}
	if len(names) == 0 {
		e.logger.Warn("No template files found", "dir", layout.TemplatesPath())
	}

	e.logger.Info("Loading partial files...")
	partials, err := content.ListFiles(layout.PartialsPath(), isHTML)
	if err != nil {
		e.logger.Error("failed to list partial files", "error", err)
		return err
	}

	e.templateNames = names
	e.partialNames = partials
	e.logger.Info("Loaded template and partial files", "templates", len(names), "partials", len(partials))
	return nil
}

// TemplateNames returns the file names of the templates found by the last Refresh.
func (e *Engine) TemplateNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.templateNames...)
}

// PartialNames returns the file names of the partials found by the last Refresh.
func (e *Engine) PartialNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.partialNames...)
}

// Parse returns the node's content variables.
func (e *Engine) Parse(node *content.Node, rc RequestContext) (*VariableSet, error) {
	return e.parser.Parse(node, rc)
}

// Render expands the node's template with vars and the structural
// variables. It returns ErrNoTemplate when the node has no template.
func (e *Engine) Render(node *content.Node, vars *VariableSet, rc RequestContext) ([]byte, error) {
	if !node.HasTemplate() {
		return nil, ErrNoTemplate
	}
	b, err := os.ReadFile(node.TemplateFile)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", node.TemplateFile, err)
	}
	out, err := e.RenderText(node, vars, rc, normalizeNewlines(string(b)))
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// RenderText expands an arbitrary template text for node. This is ideal for
// previewing templates without saving them to disk.
func (e *Engine) RenderText(node *content.Node, vars *VariableSet, rc RequestContext, text string) (string, error) {
	structural, err := e.parser.partials.Structural(node, rc)
	if err != nil {
		return "", err
	}
	all := NewVariableSet()
	all.Merge(vars)
	all.Merge(structural)
	return all.Apply(text), nil
}

// Page parses and renders node in one step.
func (e *Engine) Page(node *content.Node, rc RequestContext) ([]byte, error) {
	if !node.HasTemplate() {
		return nil, ErrNoTemplate
	}
	vars, err := e.Parse(node, rc)
	if err != nil {
		return nil, err
	}
	return e.Render(node, vars, rc)
}

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/Pitcher/pkg/content"
	"github.com/CTAG07/Pitcher/pkg/templating"
	"github.com/natefinch/atomic"
)

// TemplateAPI holds the dependencies for the template API handlers.
type TemplateAPI struct {
	engine   *templating.Engine
	resolver *content.Resolver
	logger   *slog.Logger
}

// TemplateListing is the response of the template list endpoint.
type TemplateListing struct {
	Templates []string `json:"templates"`
	Partials  []string `json:"partials"`
}

// NewTemplateAPI creates a new instance of the TemplateAPI.
func NewTemplateAPI(engine *templating.Engine, resolver *content.Resolver, logger *slog.Logger) *TemplateAPI {
	return &TemplateAPI{
		engine:   engine,
		resolver: resolver,
		logger:   logger,
	}
}

// RegisterRoutes sets up the routing for all /api/templates endpoints.
func (t *TemplateAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/templates/refresh", t.handleRefresh)
	mux.HandleFunc("/api/templates/test", t.handleTest)
	mux.HandleFunc("/api/templates/preview", t.handlePreview)
	mux.HandleFunc("/api/templates", t.handleList)
	mux.HandleFunc("/api/templates/", t.handleFile)
}

// handleRefresh triggers a manual rescan of the templates directory.
func (t *TemplateAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if err := t.engine.Refresh(); err != nil {
		t.logger.Error("API triggered refresh failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to refresh templates: %v", err))
		return
	}
	t.logger.Info("Templates refreshed via API")
	w.WriteHeader(http.StatusNoContent)
}

// handleList returns the template and partial file names.
func (t *TemplateAPI) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	respondWithJSON(w, http.StatusOK, TemplateListing{
		Templates: t.engine.TemplateNames(),
		Partials:  t.engine.PartialNames(),
	})
}

// resolveForPreview resolves the page named by the "path" query parameter
// and writes an error response when it cannot.
func (t *TemplateAPI) resolveForPreview(w http.ResponseWriter, r *http.Request) (*content.Node, templating.RequestContext, bool) {
	path := strings.Trim(r.URL.Query().Get("path"), "/")
	rc := templating.NewRequestContext(path)
	node, err := t.resolver.Resolve(path)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, fmt.Sprintf("Page '/%s' not found", path))
			return nil, rc, false
		}
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to resolve page: %v", err))
		return nil, rc, false
	}
	return node, rc, true
}

// handleTest renders the request body as a template against a page without
// saving it, so template edits can be tried before they are written.
func (t *TemplateAPI) handleTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read request body: %v", err))
		return
	}

	node, rc, ok := t.resolveForPreview(w, r)
	if !ok {
		return
	}
	vars, err := t.engine.Parse(node, rc)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to parse content: %v", err))
		return
	}
	out, err := t.engine.RenderText(node, vars, rc, string(body))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Template execution failed: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, out)
}

// handlePreview renders a page fresh, bypassing the cache.
func (t *TemplateAPI) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	node, rc, ok := t.resolveForPreview(w, r)
	if !ok {
		return
	}
	out, err := t.engine.Page(node, rc)
	if err != nil {
		if errors.Is(err, templating.ErrNoTemplate) {
			respondWithError(w, http.StatusNotFound, fmt.Sprintf("Page '/%s' has no template", node.URL))
			return
		}
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to render preview: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(out)
}

// handleFile manages CRUD operations for a single template or partial file.
// Names are relative to the templates directory, e.g. "page.html" or
// "partials/navigation.html".
func (t *TemplateAPI) handleFile(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/templates/")
	if name == "" || strings.HasSuffix(name, "/") {
		respondWithError(w, http.StatusNotFound, "Not Found")
		return
	}

	if strings.Contains(name, "..") || !strings.HasSuffix(name, ".html") {
		respondWithError(w, http.StatusBadRequest, "Invalid template name format")
		return
	}

	templateDir, err := filepath.Abs(t.resolver.Layout().TemplatesPath())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve template directory")
		return
	}

	path, err := filepath.Abs(filepath.Join(templateDir, filepath.FromSlash(name)))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid path")
		return
	}

	if !strings.HasPrefix(path, templateDir+string(filepath.Separator)) {
		respondWithError(w, http.StatusForbidden, "Access denied: Path outside template directory")
		return
	}

	switch r.Method {
	case http.MethodGet:
		data, err := os.ReadFile(path)
		if err != nil {
			respondWithError(w, http.StatusNotFound, "Template not found")
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write(data)

	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read request body: %v", err))
			return
		}
		if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create template directory: %v", err))
			return
		}
		if err = atomic.WriteFile(path, bytes.NewReader(body)); err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to write template file: %v", err))
			return
		}
		_ = t.engine.Refresh()
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				respondWithError(w, http.StatusNotFound, "Template not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to delete template file: %v", err))
			return
		}
		_ = t.engine.Refresh()
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

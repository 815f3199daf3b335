package main

import (
	"database/sql"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/Pitcher/pkg/metrics"
	"github.com/CTAG07/Pitcher/pkg/render"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"
)

// defaultNotFound is served when public/404.html does not exist.
const defaultNotFound = `<h1>404</h1><h2>Page could not be found.</h2><p>Unfortunately, the page you were looking for does not exist here.</p>`

type Server struct {
	cm          *ConfigManager
	db          *sql.DB
	logger      *slog.Logger
	site        *Site
	registry    *prom.Registry
	templateAPI *TemplateAPI
	statsAPI    *StatsAPI
	serverAPI   *ServerAPI
	cacheAPI    *CacheAPI
	siteMux     *http.ServeMux
	apiMux      *http.ServeMux
}

func NewServer(cm *ConfigManager, logger *slog.Logger, db *sql.DB, actionChan chan string) (*Server, error) {
	config := cm.Get()

	registry := prom.NewRegistry()
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if config.Server.MetricsEnabled {
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	site, err := NewSite(config, logger, recorder)
	if err != nil {
		return nil, err
	}
	cm.SetEngine(site.Engine)

	// create object, register routes to the mux, and return it
	server := &Server{
		cm:          cm,
		db:          db,
		logger:      logger,
		site:        site,
		registry:    registry,
		templateAPI: NewTemplateAPI(site.Engine, site.Resolver, logger),
		statsAPI:    NewStatsAPI(db, logger),
		serverAPI:   NewServerAPI(cm, actionChan, logger),
		cacheAPI:    NewCacheAPI(site.Store, site.Warmer, logger),
		siteMux:     http.NewServeMux(),
		apiMux:      http.NewServeMux(),
	}

	server.templateAPI.RegisterRoutes(server.apiMux)
	server.statsAPI.RegisterRoutes(server.apiMux)
	server.serverAPI.RegisterRoutes(server.apiMux)
	server.cacheAPI.RegisterRoutes(server.apiMux)
	if config.Server.MetricsEnabled {
		server.apiMux.Handle("/metrics", metrics.HTTPHandler(registry))
	}

	contentFs := http.FileServer(http.Dir(site.Layout.ContentPath()))
	publicFs := http.FileServer(http.Dir(site.Layout.PublicPath()))
	server.siteMux.Handle("/"+site.Layout.ContentDir+"/", http.StripPrefix("/"+site.Layout.ContentDir+"/", contentFs))
	server.siteMux.Handle("/"+site.Layout.PublicDir+"/", http.StripPrefix("/"+site.Layout.PublicDir+"/", publicFs))
	server.siteMux.HandleFunc("/favicon.ico", server.handleFavicon)
	server.siteMux.HandleFunc("/", server.handleSite)

	return server, nil
}

// handleSite renders the page addressed by the request path.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	logger := s.logger.With("request_id", requestID)
	w.Header().Set("X-Request-Id", requestID)

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if target, ok := redirectTarget(r.URL, s.site.Layout.IndexName); ok {
		logger.Debug("Redirecting request", "from", r.URL.Path, "to", target)
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}

	path := strings.Trim(r.URL.Path, "/")
	res, err := s.site.Renderer.Render(r.Context(), render.Request{
		Path:        path,
		IfNoneMatch: r.Header.Get("If-None-Match"),
	})
	if err != nil {
		logger.Error("Failed to render page", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err = s.statsAPI.LogRender(r.Context(), "/"+path, res.Outcome.String()); err != nil {
		logger.Warn("Failed to record request stats", "error", err)
	}
	logger.Info("Serving page",
		"path", r.URL.Path,
		"outcome", res.Outcome.String(),
		"remote_addr", getClientIP(r))

	switch res.Outcome {
	case render.NotFound, render.NoTemplate:
		s.serveMissing(w, logger, path)
	case render.NotModified:
		w.Header().Set("ETag", res.ETag)
		w.WriteHeader(http.StatusNotModified)
	default:
		w.Header().Set("ETag", res.ETag)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(res.Body)
	}
}

// serveMissing answers a request for a page that cannot be rendered: the
// public/<name>.html named after the last path segment if there is one,
// otherwise a 404.
func (s *Server) serveMissing(w http.ResponseWriter, logger *slog.Logger, path string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if file, ok := s.site.Resolver.PublicFile(publicName(path, s.site.Layout.IndexName)); ok {
		data, err := os.ReadFile(file)
		if err == nil {
			_, _ = w.Write(data)
			return
		}
		logger.Warn("Failed to read public page", "file", file, "error", err)
	}

	w.WriteHeader(http.StatusNotFound)
	if file, ok := s.site.Resolver.PublicFile("404"); ok {
		if data, err := os.ReadFile(file); err == nil {
			_, _ = w.Write(data)
			return
		}
	}
	_, _ = io.WriteString(w, defaultNotFound)
}

// publicName is the public page name of a trimmed request path: its last
// segment, or the index name for the site root.
func publicName(path, indexName string) string {
	if path == "" {
		return indexName
	}
	return path[strings.LastIndex(path, "/")+1:]
}

// redirectTarget sends /index to the site root and adds the trailing slash
// page URLs are expected to have.
func redirectTarget(u *url.URL, indexName string) (string, bool) {
	p := u.Path
	if p == "/"+indexName || p == "/"+indexName+"/" {
		return "/", true
	}
	if strings.HasSuffix(p, "/") {
		return "", false
	}
	target := p + "/"
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target, true
}

func getClientIP(r *http.Request) string {
	// The X-Real-Ip header contains the forwarded IP in some cases (like from nginx)
	if realIP := r.Header.Get("X-Real-Ip"); realIP != "" {
		return realIP
	}
	// The first address in X-Forwarded-For is the original client.
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		ips := strings.Split(forwardedFor, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// handleFavicon serves public/favicon.ico when present and no content
// otherwise, so browsers asking for it do not show up as missing pages.
func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	file := filepath.Join(s.site.Layout.PublicPath(), "favicon.ico")
	if info, err := os.Stat(file); err == nil && !info.IsDir() {
		http.ServeFile(w, r, file)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

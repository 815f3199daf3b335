package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CTAG07/Pitcher/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSiteFiles = map[string]string{
	"content/_shared.txt":                    "footer: Shared",
	"content/1.index/content.txt":            "title: Home",
	"content/2.about/content.txt":            "title: About",
	"content/3.projects/category.txt":        "title: Projects",
	"content/3.projects/1.alpha/project.txt": "title: Alpha",
	"content/3.projects/2.beta/project.txt":  "title: Beta",

	"templates/content.html":  "<h1>@title</h1>@Navigation<p>@footer</p>",
	"templates/category.html": "<h1>@title</h1>@Category_List",
	"templates/project.html":  "<h1>@title</h1>",

	"templates/partials/navigation.html":    `<ul>foreach $pages as $page:<li><a href="@url">@name</a></li>endforeach;</ul>`,
	"templates/partials/category-list.html": `foreach $items as $item:<a href="@url">@title</a>endforeach;`,
}

func writeFiles(tb testing.TB, root string, files map[string]string) {
	tb.Helper()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(tb, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(tb, os.WriteFile(p, []byte(body), 0o644))
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeTestConfig writes a JSON config for a site rooted at root and returns its path.
func writeTestConfig(tb testing.TB, root string) string {
	tb.Helper()
	cfg := DefaultConfig()
	cfg.Server.SiteRoot = root
	cfg.Server.StatsDatabasePath = filepath.Join(root, "stats.db")
	data, err := json.MarshalIndent(cfg, "", "  ")
	require.NoError(tb, err)
	path := filepath.Join(root, "config.json")
	require.NoError(tb, os.WriteFile(path, data, 0o644))
	return path
}

// setupTestServer builds a Server over a fresh copy of files, with its stats
// database in the same temporary directory.
func setupTestServer(tb testing.TB, files map[string]string) (*Server, string) {
	tb.Helper()
	root := tb.TempDir()
	writeFiles(tb, root, files)

	cm, err := NewConfigManager(writeTestConfig(tb, root))
	require.NoError(tb, err)
	logger := discardLogger()
	cm.SetLogger(logger)

	db, err := initDB(cm.Get().Server.StatsDatabasePath)
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = db.Close() })
	require.NoError(tb, setupStatsSchema(db))

	s, err := NewServer(cm, logger, db, make(chan string, 1))
	require.NoError(tb, err)
	return s, root
}

func doRequest(h http.Handler, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSiteRendersAndCaches(t *testing.T) {
	s, _ := setupTestServer(t, testSiteFiles)

	first := doRequest(s.siteMux, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), "<h1>Home</h1>")
	assert.Contains(t, first.Body.String(), "<p>Shared</p>")
	assert.NotContains(t, first.Body.String(), strings.TrimSpace(cache.CachedTrailer))
	assert.NotEmpty(t, first.Header().Get("ETag"))
	assert.NotEmpty(t, first.Header().Get("X-Request-Id"))
	assert.Equal(t, "text/html; charset=utf-8", first.Header().Get("Content-Type"))

	second := doRequest(s.siteMux, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.True(t, strings.HasSuffix(second.Body.String(), cache.CachedTrailer))
	assert.Equal(t, first.Header().Get("ETag"), second.Header().Get("ETag"))
}

func TestSiteNotModified(t *testing.T) {
	s, _ := setupTestServer(t, testSiteFiles)

	first := doRequest(s.siteMux, http.MethodGet, "/about/", nil)
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")

	rec := doRequest(s.siteMux, http.MethodGet, "/about/", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, etag, rec.Header().Get("ETag"))

	rec = doRequest(s.siteMux, http.MethodGet, "/about/", map[string]string{"If-None-Match": `"stale"`})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSiteRedirects(t *testing.T) {
	s, _ := setupTestServer(t, testSiteFiles)

	tests := []struct {
		target   string
		location string
	}{
		{"/about", "/about/"},
		{"/projects/alpha", "/projects/alpha/"},
		{"/about?x=1", "/about/?x=1"},
		{"/index", "/"},
		{"/index/", "/"},
	}
	for _, tt := range tests {
		rec := doRequest(s.siteMux, http.MethodGet, tt.target, nil)
		assert.Equal(t, http.StatusMovedPermanently, rec.Code, tt.target)
		assert.Equal(t, tt.location, rec.Header().Get("Location"), tt.target)
	}
}

func TestSiteNotFound(t *testing.T) {
	s, _ := setupTestServer(t, testSiteFiles)

	rec := doRequest(s.siteMux, http.MethodGet, "/missing/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, defaultNotFound, rec.Body.String())
	assert.Empty(t, rec.Header().Get("ETag"))
}

func TestSiteCustomNotFoundPage(t *testing.T) {
	files := map[string]string{"public/404.html": "<p>gone</p>"}
	for k, v := range testSiteFiles {
		files[k] = v
	}
	s, _ := setupTestServer(t, files)

	rec := doRequest(s.siteMux, http.MethodGet, "/missing/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "<p>gone</p>", rec.Body.String())
}

func TestSitePublicOverride(t *testing.T) {
	files := map[string]string{
		"public/contact.html":                    "<p>static contact</p>",
		"content/3.projects/3.gamma/gallery.txt": "title: Gamma",
	}
	for k, v := range testSiteFiles {
		files[k] = v
	}
	s, _ := setupTestServer(t, files)

	rec := doRequest(s.siteMux, http.MethodGet, "/contact/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>static contact</p>", rec.Body.String())

	// A node without a template falls through to the 404 the same way.
	rec = doRequest(s.siteMux, http.MethodGet, "/projects/gamma/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Nested paths fall back to the page named after their last segment.
	rec = doRequest(s.siteMux, http.MethodGet, "/blog/contact/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>static contact</p>", rec.Body.String())
}

func TestSitePublicIndex(t *testing.T) {
	files := map[string]string{
		"content/1.index/content.txt": "title: Home",
		"public/index.html":           "<p>static home</p>",
	}
	s, _ := setupTestServer(t, files)

	rec := doRequest(s.siteMux, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>static home</p>", rec.Body.String())
}

func TestPublicName(t *testing.T) {
	tests := map[string]string{
		"":               "index",
		"about":          "about",
		"blog/x":         "x",
		"projects/alpha": "alpha",
		"a/b/c":          "c",
	}
	for in, want := range tests {
		assert.Equal(t, want, publicName(in, "index"), in)
	}
}

func TestSiteStaticFiles(t *testing.T) {
	files := map[string]string{"public/style.css": "body{}"}
	for k, v := range testSiteFiles {
		files[k] = v
	}
	s, _ := setupTestServer(t, files)

	rec := doRequest(s.siteMux, http.MethodGet, "/public/style.css", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())

	rec = doRequest(s.siteMux, http.MethodGet, "/content/2.about/content.txt", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "title: About", rec.Body.String())

	rec = doRequest(s.siteMux, http.MethodGet, "/favicon.ico", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSiteMethodNotAllowed(t *testing.T) {
	s, _ := setupTestServer(t, testSiteFiles)
	rec := doRequest(s.siteMux, http.MethodPost, "/about/", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, HEAD", rec.Header().Get("Allow"))
}

func TestSiteRecordsStats(t *testing.T) {
	s, _ := setupTestServer(t, testSiteFiles)
	doRequest(s.siteMux, http.MethodGet, "/about/", nil)
	doRequest(s.siteMux, http.MethodGet, "/about/", nil)
	doRequest(s.siteMux, http.MethodGet, "/missing/", nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	summary, err := s.statsAPI.Summary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, summary.TotalRequests)
	assert.EqualValues(t, 2, summary.UniquePaths)
	assert.EqualValues(t, 1, summary.Outcomes["fresh"])
	assert.EqualValues(t, 1, summary.Outcomes["cache_hit"])
	assert.EqualValues(t, 1, summary.Outcomes["not_found"])
}

func TestRedirectTarget(t *testing.T) {
	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{"/", "", false},
		{"/about/", "", false},
		{"/about", "/about/", true},
		{"/index", "/", true},
		{"/indexes/", "", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		got, ok := redirectTarget(req.URL, "index")
		assert.Equal(t, tt.wantOK, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	assert.Equal(t, "1.2.3.4", getClientIP(req))

	req.Header.Set("X-Real-Ip", "5.6.7.8")
	assert.Equal(t, "5.6.7.8", getClientIP(req))
}

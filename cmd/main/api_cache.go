package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/CTAG07/Pitcher/pkg/cache"
)

// CacheAPI holds the dependencies for the render cache handlers.
type CacheAPI struct {
	store  *cache.Store
	warmer *Warmer
	logger *slog.Logger
}

// FingerprintInfo is the response of the fingerprint endpoint.
type FingerprintInfo struct {
	Fingerprint string `json:"fingerprint"`
	Version     string `json:"version"`
	ETag        string `json:"etag"`
}

// NewCacheAPI creates a new instance of the CacheAPI.
func NewCacheAPI(store *cache.Store, warmer *Warmer, logger *slog.Logger) *CacheAPI {
	return &CacheAPI{
		store:  store,
		warmer: warmer,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/cache endpoints.
func (c *CacheAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/cache/fingerprint", c.handleFingerprint)
	mux.HandleFunc("/api/cache/entries", c.handleEntries)
	mux.HandleFunc("/api/cache/warm", c.handleWarm)
}

// handleFingerprint reports the current site fingerprint.
func (c *CacheAPI) handleFingerprint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	fp, err := c.store.Fingerprint()
	if err != nil {
		c.logger.Error("Failed to compute fingerprint", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to compute fingerprint: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, FingerprintInfo{
		Fingerprint: fp,
		Version:     c.store.Version(),
		ETag:        `"` + fp + `"`,
	})
}

// handleEntries lists the cache entries, or purges them on DELETE.
func (c *CacheAPI) handleEntries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries, err := c.store.Entries()
		if err != nil {
			c.logger.Error("Failed to list cache entries", "error", err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list cache entries: %v", err))
			return
		}
		if entries == nil {
			entries = []cache.Entry{}
		}
		respondWithJSON(w, http.StatusOK, entries)
	case http.MethodDelete:
		n, err := c.store.Purge()
		if err != nil {
			c.logger.Error("Failed to purge cache", "error", err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to purge cache: %v", err))
			return
		}
		c.logger.Info("Cache purged via API", "removed", n)
		respondWithJSON(w, http.StatusOK, map[string]int{"removed": n})
	default:
		w.Header().Set("Allow", "GET, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleWarm runs a warm pass on POST and returns the last report on GET.
func (c *CacheAPI) handleWarm(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		report := c.warmer.LastReport()
		if report == nil {
			respondWithError(w, http.StatusNotFound, "No warm run yet")
			return
		}
		respondWithJSON(w, http.StatusOK, report)
	case http.MethodPost:
		report, err := c.warmer.Warm(r.Context())
		if err != nil {
			c.logger.Error("Cache warm via API failed", "error", err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Cache warm failed: %v", err))
			return
		}
		respondWithJSON(w, http.StatusOK, report)
	default:
		w.Header().Set("Allow", "GET, POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const statsSchema = `
CREATE TABLE IF NOT EXISTS stats_path (
    path          TEXT PRIMARY KEY,
    total_hits    INTEGER NOT NULL DEFAULT 1,
    last_outcome  TEXT NOT NULL,
    first_seen    DATETIME NOT NULL,
    last_seen     DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS stats_outcome (
    outcome       TEXT PRIMARY KEY,
    total_hits    INTEGER NOT NULL DEFAULT 1
);
`

// PathStats is the per-path row returned by the top paths endpoint.
type PathStats struct {
	Path        string    `json:"path"`
	TotalHits   int64     `json:"total_hits"`
	LastOutcome string    `json:"last_outcome"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
}

// GlobalStatsSummary provides a high-level overview of all collected stats.
type GlobalStatsSummary struct {
	TotalRequests int64            `json:"total_requests"`
	UniquePaths   int64            `json:"unique_paths"`
	Outcomes      map[string]int64 `json:"outcomes"`
}

// StatsAPI records page requests and serves the statistics handlers.
type StatsAPI struct {
	db     *sql.DB
	logger *slog.Logger
}

func setupStatsSchema(db *sql.DB) error {
	_, err := db.Exec(statsSchema)
	return err
}

func NewStatsAPI(db *sql.DB, logger *slog.Logger) *StatsAPI {
	return &StatsAPI{
		db:     db,
		logger: logger,
	}
}

func (s *StatsAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stats/summary", s.handleSummary)
	mux.HandleFunc("/api/stats/top_paths", s.handleTopPaths)
}

// LogRender counts one request for path with the given outcome in a single transaction.
func (s *StatsAPI) LogRender(ctx context.Context, path, outcome string) error {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	_, err = tx.ExecContext(ctx, `
        INSERT INTO stats_path (path, last_outcome, first_seen, last_seen) VALUES (?, ?, ?, ?)
        ON CONFLICT(path) DO UPDATE SET total_hits = total_hits + 1, last_outcome = ?, last_seen = ?
    `, path, outcome, now, now, outcome, now)
	if err != nil {
		return fmt.Errorf("failed to upsert stats_path: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO stats_outcome (outcome) VALUES (?)
        ON CONFLICT(outcome) DO UPDATE SET total_hits = total_hits + 1
    `, outcome)
	if err != nil {
		return fmt.Errorf("failed to upsert stats_outcome: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stats transaction: %w", err)
	}
	return nil
}

// Summary totals every recorded request.
func (s *StatsAPI) Summary(ctx context.Context) (*GlobalStatsSummary, error) {
	summary := &GlobalStatsSummary{Outcomes: map[string]int64{}}
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(total_hits), 0), COUNT(*) FROM stats_path").
		Scan(&summary.TotalRequests, &summary.UniquePaths); err != nil {
		return nil, fmt.Errorf("failed to query path totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT outcome, total_hits FROM stats_outcome")
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	for rows.Next() {
		var outcome string
		var hits int64
		if err = rows.Scan(&outcome, &hits); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		summary.Outcomes[outcome] = hits
	}
	return summary, rows.Err()
}

// TopPaths returns the most requested paths, busiest first.
func (s *StatsAPI) TopPaths(ctx context.Context, limit int) ([]PathStats, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT path, total_hits, last_outcome, first_seen, last_seen FROM stats_path ORDER BY total_hits DESC, path ASC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top paths: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	results := []PathStats{}
	for rows.Next() {
		var ps PathStats
		if err = rows.Scan(&ps.Path, &ps.TotalHits, &ps.LastOutcome, &ps.FirstSeen, &ps.LastSeen); err != nil {
			s.logger.Error("Failed to scan top paths", "error", err)
			continue
		}
		results = append(results, ps)
	}
	return results, rows.Err()
}

func (s *StatsAPI) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	summary, err := s.Summary(r.Context())
	if err != nil {
		s.logger.Error("Failed to query stats summary", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func (s *StatsAPI) handleTopPaths(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	results, err := s.TopPaths(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to query top paths", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, results)
}

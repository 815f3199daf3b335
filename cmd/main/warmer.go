package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/CTAG07/Pitcher/pkg/metrics"
	"github.com/CTAG07/Pitcher/pkg/render"
	"github.com/go-co-op/gocron/v2"
)

// URLLister enumerates every addressable page.
type URLLister interface {
	URLs() ([]string, error)
}

// PageRenderer answers a single page request.
type PageRenderer interface {
	Render(ctx context.Context, req render.Request) (*render.Result, error)
}

// WarmReport summarizes one warm run.
type WarmReport struct {
	Pages    int               `json:"pages"`
	Failures int               `json:"failures"`
	Outcomes map[string]int    `json:"outcomes"`
	Errors   map[string]string `json:"errors,omitempty"`
	Duration time.Duration     `json:"duration_ns"`
	Finished time.Time         `json:"finished"`
}

// Warmer renders every page so later requests are cache hits. Runs are
// serialized; a run requested while another is in progress waits for it.
type Warmer struct {
	lister    URLLister
	renderer  PageRenderer
	recorder  metrics.Recorder
	logger    *slog.Logger
	scheduler gocron.Scheduler

	mu   sync.Mutex
	last *WarmReport
}

// NewWarmer creates a warmer. The scheduler is created lazily by Schedule.
func NewWarmer(lister URLLister, renderer PageRenderer, recorder metrics.Recorder, logger *slog.Logger) *Warmer {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Warmer{
		lister:   lister,
		renderer: renderer,
		recorder: recorder,
		logger:   logger,
	}
}

// Warm renders every page once, sequentially.
func (w *Warmer) Warm(ctx context.Context) (*WarmReport, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	urls, err := w.lister.URLs()
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	report := &WarmReport{Outcomes: map[string]int{}}
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := w.renderer.Render(ctx, render.Request{Path: url})
		if err != nil {
			report.Failures++
			if report.Errors == nil {
				report.Errors = map[string]string{}
			}
			report.Errors["/"+url] = err.Error()
			w.logger.Warn("Failed to warm page", "path", "/"+url, "error", err)
			continue
		}
		report.Pages++
		report.Outcomes[res.Outcome.String()]++
	}
	report.Duration = time.Since(start)
	report.Finished = time.Now()

	w.recorder.ObserveWarm(report.Pages, report.Failures, report.Duration)
	w.logger.Info("Cache warm finished",
		"pages", report.Pages,
		"failures", report.Failures,
		"duration", report.Duration)
	w.last = report
	return report, nil
}

// LastReport returns the report of the most recent run, or nil.
func (w *Warmer) LastReport() *WarmReport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Schedule starts a gocron job that warms the cache every interval.
func (w *Warmer) Schedule(interval time.Duration, runNow bool) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	opts := []gocron.JobOption{gocron.WithName("cache-warm")}
	if runNow {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	job, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(w.scheduledWarm),
		opts...,
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to create cache warm job: %w", err)
	}

	w.scheduler = s
	s.Start()
	w.logger.Info("Scheduled cache warming", "interval", interval, "job_id", job.ID().String())
	return nil
}

func (w *Warmer) scheduledWarm() {
	if _, err := w.Warm(context.Background()); err != nil {
		w.logger.Error("Scheduled cache warm failed", "error", err)
	}
}

// Stop shuts the scheduler down, waiting for a running job to finish.
func (w *Warmer) Stop() error {
	if w.scheduler == nil {
		return nil
	}
	return w.scheduler.Shutdown()
}

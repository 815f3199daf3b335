package metrics

import "time"

// Recorder defines observability hooks for page renders and the cache.
type Recorder interface {
	// ObserveRender records one request and its outcome (not_found,
	// no_template, not_modified, cache_hit, fresh, fresh_uncached).
	ObserveRender(outcome string, d time.Duration)
	ObserveFingerprintDuration(d time.Duration)
	IncCacheWriteFailure()
	// ObserveWarm records one warm-up run: pages rendered successfully and
	// pages that failed.
	ObserveWarm(pages int, failures int, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRender(string, time.Duration)      {}
func (NoopRecorder) ObserveFingerprintDuration(time.Duration) {}
func (NoopRecorder) IncCacheWriteFailure()                    {}
func (NoopRecorder) ObserveWarm(int, int, time.Duration)      {}

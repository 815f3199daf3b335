// Package metrics provides render metrics for Pitcher.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default and does nothing; PrometheusRecorder registers its collectors
// on a registry that HTTPHandler exposes:
//
//	reg := prom.NewRegistry()
//	renderer := render.New(..., render.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics

// Package metrics records rewrite metrics.
//
// Components receive a Recorder and default to NoopRecorder, so callers never
// check for nil:
//
//	processor, err := docs.NewProcessor(rewriter, docs.WithRecorder(metrics.NoopRecorder{}))
//
// When the server or watcher is started with metrics enabled, a
// PrometheusRecorder registered on a dedicated registry is injected instead
// and HTTPHandler exposes that registry.
package metrics

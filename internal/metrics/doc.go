// Package metrics records build and stage metrics.
//
// Components receive a Recorder and default to NoopRecorder, so call sites
// never check for nil:
//
//	recorder := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
//	pub := publish.New(cfg, publish.WithRecorder(recorder))
//
// A single-shot generator has no scrape endpoint; WriteTextfile exports the
// registry in the node_exporter textfile format instead.
package metrics

// Package metrics defines the Recorder interface used by the build pipeline
// and the development server, plus a no-op implementation for one-shot builds
// and a Prometheus-backed implementation for serve mode.
package metrics

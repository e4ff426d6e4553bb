package metrics

import "time"

// OutcomeLabel enumerates final build outcomes for counters.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for build and server metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. The
// NoopRecorder makes injection optional.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome OutcomeLabel)
	SetPagesRendered(n int)
	SetAssetsCopied(n int)
	SetReloadClients(n int)
}

// NoopRecorder is a Recorder that does nothing (default for one-shot builds).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(OutcomeLabel)               {}
func (NoopRecorder) SetPagesRendered(int)                       {}
func (NoopRecorder) SetAssetsCopied(int)                        {}
func (NoopRecorder) SetReloadClients(int)                       {}

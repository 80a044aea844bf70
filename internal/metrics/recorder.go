package metrics

import "time"

// PageResult enumerates per-page outcome categories for counters.
type PageResult string

const (
	ResultComposed PageResult = "composed"
	ResultCopied   PageResult = "copied"
	ResultCached   PageResult = "cached"
	ResultSkipped  PageResult = "skipped"
	ResultFailed   PageResult = "failed"
)

// Recorder defines observability hooks for build and page metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. The
// NoopRecorder allows optional injection.
type Recorder interface {
	ObservePageDuration(result PageResult, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncPageResult(result PageResult)
	IncBuildOutcome(outcome string) // outcome: success|failed|canceled
	IncScanFinding(severity string)
	SetWatchQueueDepth(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics
// are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePageDuration(PageResult, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)            {}
func (NoopRecorder) IncPageResult(PageResult)                      {}
func (NoopRecorder) IncBuildOutcome(string)                        {}
func (NoopRecorder) IncScanFinding(string)                         {}
func (NoopRecorder) SetWatchQueueDepth(int)                        {}

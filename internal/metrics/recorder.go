// Package metrics exposes observability hooks for page loading and rendering.
package metrics

import "time"

// LoadResult enumerates page load outcomes for counters.
type LoadResult string

const (
	LoadPage     LoadResult = "page"
	LoadFallback LoadResult = "fallback"
	LoadError    LoadResult = "error"
)

// Recorder defines observability hooks. Implementations must be safe for
// concurrent use; NoopRecorder is the default when metrics are not configured.
type Recorder interface {
	IncPageLoad(result LoadResult)
	IncScopeLookup(hit bool)
	ObserveRenderDuration(d time.Duration)
	ObserveSyncDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncPageLoad(LoadResult)              {}
func (NoopRecorder) IncScopeLookup(bool)                 {}
func (NoopRecorder) ObserveRenderDuration(time.Duration) {}
func (NoopRecorder) ObserveSyncDuration(time.Duration)   {}

package dircache

import (
	"time"

	"github.com/starford/folio/internal/apperr"
)

// Metrics receives cache events. Implementations must be safe for
// concurrent use across caches.
type Metrics interface {
	// Hit is called when a cached value is served without reading the file.
	Hit()
	// Miss is called when a file is parsed for the first time.
	Miss()
	// Refresh is called when a stale entry is re-parsed.
	Refresh()
	// Failure is called once per aborted All call.
	Failure(kind apperr.Kind)
	// ObserveScan records the duration of a completed All call.
	ObserveScan(d time.Duration, files int)
	// SetEntries reports the number of cached entries after a scan.
	SetEntries(n int)
}

// NoopMetrics discards every event.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                           {}
func (NoopMetrics) Miss()                          {}
func (NoopMetrics) Refresh()                       {}
func (NoopMetrics) Failure(apperr.Kind)            {}
func (NoopMetrics) ObserveScan(time.Duration, int) {}
func (NoopMetrics) SetEntries(int)                 {}

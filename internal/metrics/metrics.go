// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Authorization metrics
	IncAuthAllowed()
	IncAuthDenied()
	IncKeyCacheHit()
	IncKeyCacheMiss()
	ObserveVerifyDuration(duration time.Duration)

	// Recipe management metrics
	IncRecipeCreated()
	IncRecipeUpdated()
	IncRecipeDeleted()
	IncAttachmentAssigned()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

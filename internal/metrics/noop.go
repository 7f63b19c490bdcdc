package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncAuthAllowed is a no-op.
func (n *NoopRecorder) IncAuthAllowed() {}

// IncAuthDenied is a no-op.
func (n *NoopRecorder) IncAuthDenied() {}

// IncKeyCacheHit is a no-op.
func (n *NoopRecorder) IncKeyCacheHit() {}

// IncKeyCacheMiss is a no-op.
func (n *NoopRecorder) IncKeyCacheMiss() {}

// ObserveVerifyDuration is a no-op.
func (n *NoopRecorder) ObserveVerifyDuration(duration time.Duration) {}

// IncRecipeCreated is a no-op.
func (n *NoopRecorder) IncRecipeCreated() {}

// IncRecipeUpdated is a no-op.
func (n *NoopRecorder) IncRecipeUpdated() {}

// IncRecipeDeleted is a no-op.
func (n *NoopRecorder) IncRecipeDeleted() {}

// IncAttachmentAssigned is a no-op.
func (n *NoopRecorder) IncAttachmentAssigned() {}

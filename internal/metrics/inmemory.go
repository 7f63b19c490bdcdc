package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	AuthAllowed           uint64
	AuthDenied            uint64
	KeyCacheHits          uint64
	KeyCacheMisses        uint64
	VerifyDurationCount   uint64
	VerifyDurationTotalNs int64
	RecipesCreated        uint64
	RecipesUpdated        uint64
	RecipesDeleted        uint64
	AttachmentsAssigned   uint64
}

// InMemoryRecorder stores counters in memory, backing the metrics
// exposition endpoint.
type InMemoryRecorder struct {
	authAllowed           uint64
	authDenied            uint64
	keyCacheHits          uint64
	keyCacheMisses        uint64
	verifyDurationCount   uint64
	verifyDurationTotalNs int64
	recipesCreated        uint64
	recipesUpdated        uint64
	recipesDeleted        uint64
	attachmentsAssigned   uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		AuthAllowed:           atomic.LoadUint64(&m.authAllowed),
		AuthDenied:            atomic.LoadUint64(&m.authDenied),
		KeyCacheHits:          atomic.LoadUint64(&m.keyCacheHits),
		KeyCacheMisses:        atomic.LoadUint64(&m.keyCacheMisses),
		VerifyDurationCount:   atomic.LoadUint64(&m.verifyDurationCount),
		VerifyDurationTotalNs: atomic.LoadInt64(&m.verifyDurationTotalNs),
		RecipesCreated:        atomic.LoadUint64(&m.recipesCreated),
		RecipesUpdated:        atomic.LoadUint64(&m.recipesUpdated),
		RecipesDeleted:        atomic.LoadUint64(&m.recipesDeleted),
		AttachmentsAssigned:   atomic.LoadUint64(&m.attachmentsAssigned),
	}
}

// IncAuthAllowed increments the allowed-decision counter.
func (m *InMemoryRecorder) IncAuthAllowed() {
	atomic.AddUint64(&m.authAllowed, 1)
}

// IncAuthDenied increments the denied-decision counter.
func (m *InMemoryRecorder) IncAuthDenied() {
	atomic.AddUint64(&m.authDenied, 1)
}

// IncKeyCacheHit increments the key-cache hit counter.
func (m *InMemoryRecorder) IncKeyCacheHit() {
	atomic.AddUint64(&m.keyCacheHits, 1)
}

// IncKeyCacheMiss increments the key-cache miss counter.
func (m *InMemoryRecorder) IncKeyCacheMiss() {
	atomic.AddUint64(&m.keyCacheMisses, 1)
}

// ObserveVerifyDuration records one token verification duration.
func (m *InMemoryRecorder) ObserveVerifyDuration(duration time.Duration) {
	atomic.AddUint64(&m.verifyDurationCount, 1)
	atomic.AddInt64(&m.verifyDurationTotalNs, duration.Nanoseconds())
}

// IncRecipeCreated increments the created-recipe counter.
func (m *InMemoryRecorder) IncRecipeCreated() {
	atomic.AddUint64(&m.recipesCreated, 1)
}

// IncRecipeUpdated increments the updated-recipe counter.
func (m *InMemoryRecorder) IncRecipeUpdated() {
	atomic.AddUint64(&m.recipesUpdated, 1)
}

// IncRecipeDeleted increments the deleted-recipe counter.
func (m *InMemoryRecorder) IncRecipeDeleted() {
	atomic.AddUint64(&m.recipesDeleted, 1)
}

// IncAttachmentAssigned increments the attachment-assignment counter.
func (m *InMemoryRecorder) IncAttachmentAssigned() {
	atomic.AddUint64(&m.attachmentsAssigned, 1)
}

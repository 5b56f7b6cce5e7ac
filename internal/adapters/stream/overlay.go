package stream

import (
	"sync"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/metrics"
)

// Overlay is the live, continuously overwritten classification snapshot
// shown during real-time streaming. Each slot (left hand, right hand,
// body) is last-write-wins and updated independently; only the streaming
// client's message handler writes, so readers just take snapshots.
type Overlay struct {
	mu   sync.RWMutex
	snap Snapshot
}

// Snapshot is a point-in-time copy of the overlay slots. Nil slots mean
// no classification has arrived yet (or the session was reset).
type Snapshot struct {
	LeftHand  *model.HandRecord
	RightHand *model.HandRecord
	Body      *model.BodyRecord
}

// NewOverlay returns an empty overlay.
func NewOverlay() *Overlay { return &Overlay{} }

// SetHand replaces the slot matching the record's handedness.
func (o *Overlay) SetHand(rec model.HandRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if rec.Handedness == model.LeftHand {
		o.snap.LeftHand = &rec
		metrics.RecordOverlayUpdate("left_hand")
		return
	}
	o.snap.RightHand = &rec
	metrics.RecordOverlayUpdate("right_hand")
}

// SetBody replaces the body slot.
func (o *Overlay) SetBody(rec model.BodyRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snap.Body = &rec
	metrics.RecordOverlayUpdate("body")
}

// Snapshot returns a copy of the current slots.
func (o *Overlay) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snap
}

// Reset clears all slots back to their empty defaults.
func (o *Overlay) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snap = Snapshot{}
}

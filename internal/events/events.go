// Package events carries stock change notifications out of the process.
package events

import (
	"context"
	"time"
)

// StockChanged is emitted after a committed stock level change
type StockChanged struct {
	ItemID   string    `json:"itemId"`
	ItemName string    `json:"itemName"`
	OldLevel int       `json:"oldLevel"`
	NewLevel int       `json:"newLevel"`
	Status   string    `json:"status"`
	Reason   string    `json:"reason"`
	ActorID  string    `json:"actorId"`
	Note     string    `json:"note,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher delivers stock events. Implementations must not block callers
// for long and must not fail the operation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, ev StockChanged)
}

// Multi fans an event out to several publishers
type Multi []Publisher

// Publish forwards ev to every publisher in order
func (m Multi) Publish(ctx context.Context, ev StockChanged) {
	for _, p := range m {
		p.Publish(ctx, ev)
	}
}

// Nop discards events
type Nop struct{}

// Publish does nothing
func (Nop) Publish(context.Context, StockChanged) {}

// Recorder keeps published events in memory
type Recorder struct {
	Events []StockChanged
}

// Publish appends ev
func (r *Recorder) Publish(_ context.Context, ev StockChanged) {
	r.Events = append(r.Events, ev)
}

// Package audit defines the domain contract for the action audit trail.
// The postgres implementation compresses payloads and stores them
// append-only; services only ever add entries.
package audit

import (
	"context"
	"time"

	"aurum/internal/core/id"
)

// Action is one recorded business action.
type Action struct {
	// Actor is the user who performed the action (empty for workers).
	Actor string `json:"actor,omitempty"`

	// Verb is what happened: "confirm", "cancel", "payment", "reconcile".
	Verb string `json:"verb"`

	// EntityType and EntityID locate the affected aggregate.
	EntityType string `json:"entityType"`
	EntityID   id.ID  `json:"entityId"`

	// Payload is the action-specific detail, stored compressed.
	Payload any `json:"payload,omitempty"`

	// OccurredAt defaults to now when zero.
	OccurredAt time.Time `json:"occurredAt"`
}

// Recorder appends actions to the audit trail. Implementations must be
// safe to call from within a transaction; a failed audit write fails
// the surrounding operation.
type Recorder interface {
	Record(ctx context.Context, action Action) error
}

// Nop discards all actions. Tests and tooling only.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Action) error { return nil }

var _ Recorder = Nop{}

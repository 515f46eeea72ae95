// Package events defines the domain-event contract between document
// services (producers) and the reconciliation pipeline (consumer).
// Events are published transactionally through an outbox and delivered
// at least once, so every consumer must be idempotent.
package events

import (
	"context"
	"encoding/json"

	"aurum/internal/core/id"
)

// Event types carried through the outbox.
const (
	TypeBillConfirmed     = "bill.confirmed"
	TypeBillCancelled     = "bill.cancelled"
	TypePurchaseConfirmed = "purchase_invoice.confirmed"
	TypePurchaseCancelled = "purchase_invoice.cancelled"
)

// Aggregate types, used for outbox routing and tracing.
const (
	AggregateBill     = "bill"
	AggregatePurchase = "purchase_invoice"
)

// DomainEvent is what a producer hands to the Publisher. Payload is the
// marshalled event struct; consumers unmarshal by EventType.
type DomainEvent struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       json.RawMessage
}

// NewDomainEvent marshals payload and wraps it for publishing.
func NewDomainEvent(aggregateType string, aggregateID id.ID, eventType string, payload any) (DomainEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return DomainEvent{}, err
	}
	return DomainEvent{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       data,
	}, nil
}

// Publisher stores an event in the same transaction as the state change
// that produced it. Implemented by the postgres outbox.
type Publisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

package counterparty

import (
	"context"

	"aurum/internal/domain"
)

// Repository defines the interface for Counterparty persistence.
type Repository interface {
	domain.CatalogRepository[*Counterparty]

	// FindByGSTIN retrieves a counterparty by GST registration number.
	FindByGSTIN(ctx context.Context, gstin string) (*Counterparty, error)

	// FindByPhone retrieves a counterparty by phone (walk-in customer lookup).
	FindByPhone(ctx context.Context, phone string) (*Counterparty, error)
}

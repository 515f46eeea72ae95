// Package counterparty provides the Counterparty catalog.
// Counterparties represent business partners: customers and suppliers.
package counterparty

import (
	"context"
	"regexp"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
)

// Pre-compiled regex patterns for validation
var (
	gstinRE = regexp.MustCompile(`^\d{2}[A-Z]{5}\d{4}[A-Z]\d[A-Z\d]Z[A-Z\d]$`)
	panRE   = regexp.MustCompile(`^[A-Z]{5}\d{4}[A-Z]$`)
	phoneRE = regexp.MustCompile(`^\+?\d{7,15}$`)
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Type defines the role of a counterparty.
type Type string

const (
	TypeCustomer Type = "customer"
	TypeSupplier Type = "supplier"
	TypeBoth     Type = "both"
)

// Counterparty represents a business partner.
type Counterparty struct {
	entity.Catalog

	// Type defines whether this is a customer, supplier, or both
	Type Type `db:"type" json:"type"`

	// GSTIN - GST registration number (for registered businesses)
	GSTIN *string `db:"gstin" json:"gstin,omitempty"`

	// PAN - permanent account number, required for high-value purchases
	PAN *string `db:"pan" json:"pan,omitempty"`

	// Contact details
	Phone   *string `db:"phone" json:"phone,omitempty"`
	Email   *string `db:"email" json:"email,omitempty"`
	Address *string `db:"address" json:"address,omitempty"`

	// Comment is a free-form note
	Comment *string `db:"comment" json:"comment,omitempty"`
}

// New creates a new Counterparty with required fields.
func New(code, name string, cpType Type) *Counterparty {
	return &Counterparty{
		Catalog: entity.NewCatalog(code, name),
		Type:    cpType,
	}
}

// IsCustomer reports whether bills may reference this counterparty.
func (c *Counterparty) IsCustomer() bool {
	return c.Type == TypeCustomer || c.Type == TypeBoth
}

// IsSupplier reports whether purchase invoices may reference this counterparty.
func (c *Counterparty) IsSupplier() bool {
	return c.Type == TypeSupplier || c.Type == TypeBoth
}

// Validate implements entity.Validatable interface.
func (c *Counterparty) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch c.Type {
	case TypeCustomer, TypeSupplier, TypeBoth:
	default:
		return apperror.NewValidation("invalid counterparty type").
			WithDetail("field", "type").
			WithDetail("value", string(c.Type))
	}

	if c.GSTIN != nil && *c.GSTIN != "" && !gstinRE.MatchString(*c.GSTIN) {
		return apperror.NewValidation("invalid GSTIN format").
			WithDetail("field", "gstin")
	}

	if c.PAN != nil && *c.PAN != "" && !panRE.MatchString(*c.PAN) {
		return apperror.NewValidation("invalid PAN format").
			WithDetail("field", "pan")
	}

	if c.Phone != nil && *c.Phone != "" && !phoneRE.MatchString(*c.Phone) {
		return apperror.NewValidation("invalid phone format").
			WithDetail("field", "phone")
	}

	if c.Email != nil && *c.Email != "" && !emailRE.MatchString(*c.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	return nil
}

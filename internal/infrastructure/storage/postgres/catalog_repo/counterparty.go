package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"aurum/internal/core/apperror"
	"aurum/internal/domain/catalogs/counterparty"
	"aurum/internal/infrastructure/storage/postgres"
)

const counterpartyTable = "cat_counterparties"

// CounterpartyRepo implements counterparty.Repository.
type CounterpartyRepo struct {
	*BaseCatalogRepo[*counterparty.Counterparty]
}

// NewCounterpartyRepo creates a new counterparty repository.
func NewCounterpartyRepo(txManager *postgres.TxManager) *CounterpartyRepo {
	return &CounterpartyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*counterparty.Counterparty](
			txManager,
			counterpartyTable,
			postgres.ExtractDBColumns[counterparty.Counterparty](),
			func() *counterparty.Counterparty { return &counterparty.Counterparty{} },
		),
	}
}

// FindByGSTIN retrieves counterparty by GST registration number.
func (r *CounterpartyRepo) FindByGSTIN(ctx context.Context, gstin string) (*counterparty.Counterparty, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"gstin": gstin}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	cp, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("counterparty", gstin)
		}
		return nil, err
	}
	return cp, nil
}

// FindByPhone retrieves counterparty by phone for walk-in customer lookup.
func (r *CounterpartyRepo) FindByPhone(ctx context.Context, phone string) (*counterparty.Counterparty, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"phone": phone}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	cp, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("counterparty", phone)
		}
		return nil, err
	}
	return cp, nil
}

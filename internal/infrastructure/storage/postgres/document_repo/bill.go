// Package document_repo provides PostgreSQL implementations for the
// document repositories. Headers and table parts live in separate
// tables; table parts are replaced wholesale on save.
package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain/documents/bill"
	"aurum/internal/infrastructure/storage/postgres"
)

const (
	billsTable         = "doc_bills"
	billSaleLinesTable = "doc_bill_sale_lines"
	billExchangeTable  = "doc_bill_exchange_lines"
	billPaymentsTable  = "doc_bill_payments"
)

var billHeaderColumns = []string{
	"id", "number", "date", "status", "reconcile_state", "reconcile_error",
	"comment", "customer_id",
	"subtotal", "discount", "gst_rate", "total_tax",
	"cgst_amount", "sgst_amount", "exchange_amount",
	"grand_total", "paid_amount", "pending_amount",
	"deletion_mark", "version", "created_at", "updated_at",
	"created_by", "updated_by",
}

// Ensure interface compliance.
var _ bill.Repository = (*BillRepo)(nil)

// BillRepo implements bill.Repository.
type BillRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewBillRepo creates a new bill repository.
func NewBillRepo(txManager *postgres.TxManager) *BillRepo {
	return &BillRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *BillRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Create inserts the document header.
func (r *BillRepo) Create(ctx context.Context, doc *bill.Bill) error {
	q := r.builder.Insert(billsTable).
		Columns(billHeaderColumns...).
		Values(
			doc.ID, doc.Number, doc.Date, doc.Status, doc.ReconcileState, doc.ReconcileError,
			doc.Comment, doc.CustomerID,
			doc.Totals.Subtotal, doc.Totals.Discount, doc.Totals.GSTRate, doc.Totals.TotalTax,
			doc.Totals.CGSTAmount, doc.Totals.SGSTAmount, doc.Totals.ExchangeAmount,
			doc.Totals.GrandTotal, doc.Totals.PaidAmount, doc.Totals.PendingAmount,
			doc.DeletionMark, doc.Version, doc.CreatedAt, doc.UpdatedAt,
			doc.CreatedBy, doc.UpdatedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewConflict(fmt.Sprintf("bill number %s already exists", doc.Number))
		}
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

// Update saves the header with optimistic version check. The stored
// version is incremented; the caller's copy is bumped to match.
func (r *BillRepo) Update(ctx context.Context, doc *bill.Bill) error {
	q := r.builder.Update(billsTable).
		Set("number", doc.Number).
		Set("date", doc.Date).
		Set("status", doc.Status).
		Set("reconcile_state", doc.ReconcileState).
		Set("reconcile_error", doc.ReconcileError).
		Set("comment", doc.Comment).
		Set("customer_id", doc.CustomerID).
		Set("subtotal", doc.Totals.Subtotal).
		Set("discount", doc.Totals.Discount).
		Set("gst_rate", doc.Totals.GSTRate).
		Set("total_tax", doc.Totals.TotalTax).
		Set("cgst_amount", doc.Totals.CGSTAmount).
		Set("sgst_amount", doc.Totals.SGSTAmount).
		Set("exchange_amount", doc.Totals.ExchangeAmount).
		Set("grand_total", doc.Totals.GrandTotal).
		Set("paid_amount", doc.Totals.PaidAmount).
		Set("pending_amount", doc.Totals.PendingAmount).
		Set("deletion_mark", doc.DeletionMark).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", time.Now().UTC()).
		Set("updated_by", doc.UpdatedBy).
		Where(squirrel.Eq{"id": doc.ID, "version": doc.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("bill", doc.ID)
	}

	doc.Version++
	return nil
}

// SaveLines replaces both table parts. Requires transaction context so
// the delete and inserts commit atomically.
func (r *BillRepo) SaveLines(ctx context.Context, billID id.ID, sale []bill.SaleLine, exchange []bill.ExchangeLine) error {
	if r.txManager.GetTx(ctx) == nil {
		return fmt.Errorf("save bill lines requires transaction context")
	}

	for _, table := range []string{billSaleLinesTable, billExchangeTable} {
		sql, args, err := r.builder.Delete(table).Where(squirrel.Eq{"bill_id": billID}).ToSql()
		if err != nil {
			return fmt.Errorf("build delete: %w", err)
		}
		if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("delete lines: %w", err)
		}
	}

	if len(sale) > 0 {
		q := r.builder.Insert(billSaleLinesTable).
			Columns(
				"line_id", "bill_id", "line_no", "item_code", "description",
				"metal_type", "fineness", "quantity",
				"gross_weight", "deduction_pct", "net_weight",
				"rate_per_ten_grams", "making_charge", "other_charge", "amount",
			)
		for _, l := range sale {
			q = q.Values(
				l.LineID, billID, l.LineNo, l.ItemCode, l.Description,
				l.MetalType, l.Fineness, l.Quantity,
				l.GrossWeight, l.DeductionPct, l.NetWeight,
				l.RatePerTenGrams, l.MakingCharge, l.OtherCharge, l.Amount,
			)
		}
		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert sale lines: %w", err)
		}
	}

	if len(exchange) > 0 {
		q := r.builder.Insert(billExchangeTable).
			Columns(
				"line_id", "bill_id", "line_no",
				"metal_type", "fineness",
				"gross_weight", "deduction_pct", "net_weight",
				"rate_per_ten_grams", "amount",
			)
		for _, l := range exchange {
			q = q.Values(
				l.LineID, billID, l.LineNo,
				l.MetalType, l.Fineness,
				l.GrossWeight, l.DeductionPct, l.NetWeight,
				l.RatePerTenGrams, l.Amount,
			)
		}
		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert exchange lines: %w", err)
		}
	}

	return nil
}

// GetByID returns the header only.
func (r *BillRepo) GetByID(ctx context.Context, billID id.ID) (*bill.Bill, error) {
	q := r.builder.Select(billHeaderColumns...).
		From(billsTable).
		Where(squirrel.Eq{"id": billID, "deletion_mark": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	row := r.querier(ctx).QueryRow(ctx, sql, args...)
	doc, err := scanBill(row)
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("bill", billID)
	}
	if err != nil {
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return doc, nil
}

// GetByIDForUpdate locks the header row until the surrounding
// transaction ends. Cancellation and reconciliation both take this lock
// before deciding, so neither can act on a stale status.
func (r *BillRepo) GetByIDForUpdate(ctx context.Context, billID id.ID) (*bill.Bill, error) {
	if r.txManager.GetTx(ctx) == nil {
		return nil, fmt.Errorf("get bill for update requires transaction context")
	}

	q := r.builder.Select(billHeaderColumns...).
		From(billsTable).
		Where(squirrel.Eq{"id": billID, "deletion_mark": false}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	row := r.querier(ctx).QueryRow(ctx, sql, args...)
	doc, err := scanBill(row)
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("bill", billID)
	}
	if err != nil {
		return nil, fmt.Errorf("get bill for update: %w", err)
	}
	return doc, nil
}

// GetLines returns both table parts ordered by line number.
func (r *BillRepo) GetLines(ctx context.Context, billID id.ID) ([]bill.SaleLine, []bill.ExchangeLine, error) {
	saleSQL, saleArgs, err := r.builder.Select(
		"line_id", "line_no", "item_code", "description",
		"metal_type", "fineness", "quantity",
		"gross_weight", "deduction_pct", "net_weight",
		"rate_per_ten_grams", "making_charge", "other_charge", "amount",
	).From(billSaleLinesTable).
		Where(squirrel.Eq{"bill_id": billID}).
		OrderBy("line_no").ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build query: %w", err)
	}

	var sale []bill.SaleLine
	if err := pgxscan.Select(ctx, r.querier(ctx), &sale, saleSQL, saleArgs...); err != nil {
		return nil, nil, fmt.Errorf("select sale lines: %w", err)
	}

	exSQL, exArgs, err := r.builder.Select(
		"line_id", "line_no",
		"metal_type", "fineness",
		"gross_weight", "deduction_pct", "net_weight",
		"rate_per_ten_grams", "amount",
	).From(billExchangeTable).
		Where(squirrel.Eq{"bill_id": billID}).
		OrderBy("line_no").ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build query: %w", err)
	}

	var exchange []bill.ExchangeLine
	if err := pgxscan.Select(ctx, r.querier(ctx), &exchange, exSQL, exArgs...); err != nil {
		return nil, nil, fmt.Errorf("select exchange lines: %w", err)
	}

	return sale, exchange, nil
}

// List returns headers matching the filter, newest first.
func (r *BillRepo) List(ctx context.Context, filter bill.Filter) ([]bill.Bill, error) {
	q := r.builder.Select(billHeaderColumns...).
		From(billsTable).
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.ReconcileState != nil {
		q = q.Where(squirrel.Eq{"reconcile_state": *filter.ReconcileState})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.ToDate})
	}

	q = q.OrderBy("date DESC", "number DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select bills: %w", err)
	}
	defer rows.Close()

	var docs []bill.Bill
	for rows.Next() {
		doc, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// Delete soft-deletes a draft.
func (r *BillRepo) Delete(ctx context.Context, billID id.ID) error {
	q := r.builder.Update(billsTable).
		Set("deletion_mark", true).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": billID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("bill", billID)
	}
	return nil
}

// AddPayment appends a payment row.
func (r *BillRepo) AddPayment(ctx context.Context, payment bill.Payment) error {
	q := r.builder.Insert(billPaymentsTable).
		Columns("payment_id", "bill_id", "amount", "method", "reference", "paid_at").
		Values(payment.PaymentID, payment.BillID, payment.Amount,
			payment.Method, payment.Reference, payment.PaidAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetPayments returns payments ordered by paid_at.
func (r *BillRepo) GetPayments(ctx context.Context, billID id.ID) ([]bill.Payment, error) {
	q := r.builder.Select("payment_id", "bill_id", "amount", "method", "reference", "paid_at").
		From(billPaymentsTable).
		Where(squirrel.Eq{"bill_id": billID}).
		OrderBy("paid_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var payments []bill.Payment
	if err := pgxscan.Select(ctx, r.querier(ctx), &payments, sql, args...); err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	return payments, nil
}

// UpdatePaidAmounts persists recomputed paid/pending after a payment.
func (r *BillRepo) UpdatePaidAmounts(ctx context.Context, billID id.ID, paid, pending types.Money) error {
	q := r.builder.Update(billsTable).
		Set("paid_amount", paid).
		Set("pending_amount", pending).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": billID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update paid amounts: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("bill", billID)
	}
	return nil
}

// SetReconcileState records reconciliation progress. Deliberately skips
// the version check: the reconcile worker must be able to mark failed
// even when the document moved underneath. The status guard keeps it
// from touching a bill that was cancelled after its event was emitted.
func (r *BillRepo) SetReconcileState(ctx context.Context, billID id.ID, state entity.ReconcileState, reason string) error {
	q := r.builder.Update(billsTable).
		Set("reconcile_state", state).
		Set("reconcile_error", reason).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": billID, "status": entity.StatusConfirmed})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set reconcile state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConflict(fmt.Sprintf("bill %s is not confirmed, reconcile state unchanged", billID))
	}
	return nil
}

// scanBill reads one header row in billHeaderColumns order. The totals
// block is a nested struct, which scany cannot map from flat columns.
func scanBill(row pgx.Row) (*bill.Bill, error) {
	var doc bill.Bill
	err := row.Scan(
		&doc.ID, &doc.Number, &doc.Date, &doc.Status, &doc.ReconcileState, &doc.ReconcileError,
		&doc.Comment, &doc.CustomerID,
		&doc.Totals.Subtotal, &doc.Totals.Discount, &doc.Totals.GSTRate, &doc.Totals.TotalTax,
		&doc.Totals.CGSTAmount, &doc.Totals.SGSTAmount, &doc.Totals.ExchangeAmount,
		&doc.Totals.GrandTotal, &doc.Totals.PaidAmount, &doc.Totals.PendingAmount,
		&doc.DeletionMark, &doc.Version, &doc.CreatedAt, &doc.UpdatedAt,
		&doc.CreatedBy, &doc.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

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
	"aurum/internal/domain/documents/purchase"
	"aurum/internal/infrastructure/storage/postgres"
)

const (
	purchasesTable     = "doc_purchase_invoices"
	purchaseLinesTable = "doc_purchase_lines"
)

var purchaseHeaderColumns = []string{
	"id", "number", "date", "status", "reconcile_state", "reconcile_error",
	"comment", "supplier_id", "supplier_invoice_no", "supplier_invoice_date",
	"subtotal", "discount", "transport_charge", "other_charge",
	"gst_rate", "total_tax", "grand_total", "paid_amount", "pending_amount",
	"deletion_mark", "version", "created_at", "updated_at",
	"created_by", "updated_by",
}

// Ensure interface compliance.
var _ purchase.Repository = (*PurchaseRepo)(nil)

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewPurchaseRepo creates a new purchase invoice repository.
func NewPurchaseRepo(txManager *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *PurchaseRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Create inserts the document header.
func (r *PurchaseRepo) Create(ctx context.Context, doc *purchase.PurchaseInvoice) error {
	q := r.builder.Insert(purchasesTable).
		Columns(purchaseHeaderColumns...).
		Values(
			doc.ID, doc.Number, doc.Date, doc.Status, doc.ReconcileState, doc.ReconcileError,
			doc.Comment, doc.SupplierID, doc.SupplierInvoiceNo, doc.SupplierInvoiceDate,
			doc.Totals.Subtotal, doc.Totals.Discount, doc.Totals.TransportCharge, doc.Totals.OtherCharge,
			doc.Totals.GSTRate, doc.Totals.TotalTax, doc.Totals.GrandTotal,
			doc.Totals.PaidAmount, doc.Totals.PendingAmount,
			doc.DeletionMark, doc.Version, doc.CreatedAt, doc.UpdatedAt,
			doc.CreatedBy, doc.UpdatedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewConflict(fmt.Sprintf("purchase invoice number %s already exists", doc.Number))
		}
		return fmt.Errorf("insert purchase invoice: %w", err)
	}
	return nil
}

// Update saves the header with optimistic version check.
func (r *PurchaseRepo) Update(ctx context.Context, doc *purchase.PurchaseInvoice) error {
	q := r.builder.Update(purchasesTable).
		Set("number", doc.Number).
		Set("date", doc.Date).
		Set("status", doc.Status).
		Set("reconcile_state", doc.ReconcileState).
		Set("reconcile_error", doc.ReconcileError).
		Set("comment", doc.Comment).
		Set("supplier_id", doc.SupplierID).
		Set("supplier_invoice_no", doc.SupplierInvoiceNo).
		Set("supplier_invoice_date", doc.SupplierInvoiceDate).
		Set("subtotal", doc.Totals.Subtotal).
		Set("discount", doc.Totals.Discount).
		Set("transport_charge", doc.Totals.TransportCharge).
		Set("other_charge", doc.Totals.OtherCharge).
		Set("gst_rate", doc.Totals.GSTRate).
		Set("total_tax", doc.Totals.TotalTax).
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
		return fmt.Errorf("update purchase invoice: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("purchase_invoice", doc.ID)
	}

	doc.Version++
	return nil
}

// SaveLines replaces the table part. Requires transaction context.
func (r *PurchaseRepo) SaveLines(ctx context.Context, invoiceID id.ID, lines []purchase.Line) error {
	if r.txManager.GetTx(ctx) == nil {
		return fmt.Errorf("save purchase lines requires transaction context")
	}

	sql, args, err := r.builder.Delete(purchaseLinesTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.builder.Insert(purchaseLinesTable).
		Columns(
			"line_id", "invoice_id", "line_no", "description",
			"item_code", "quantity", "metal_type", "fineness",
			"gross_weight", "seller_percentage", "net_weight",
			"rate_per_ten_grams", "amount",
		)
	for _, l := range lines {
		q = q.Values(
			l.LineID, invoiceID, l.LineNo, l.Description,
			l.ItemCode, l.Quantity, l.MetalType, l.Fineness,
			l.GrossWeight, l.SellerPercentage, l.NetWeight,
			l.RatePerTenGrams, l.Amount,
		)
	}

	sql, args, err = q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert purchase lines: %w", err)
	}
	return nil
}

// GetByID returns the header only.
func (r *PurchaseRepo) GetByID(ctx context.Context, invoiceID id.ID) (*purchase.PurchaseInvoice, error) {
	q := r.builder.Select(purchaseHeaderColumns...).
		From(purchasesTable).
		Where(squirrel.Eq{"id": invoiceID, "deletion_mark": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	row := r.querier(ctx).QueryRow(ctx, sql, args...)
	doc, err := scanPurchase(row)
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("purchase invoice", invoiceID)
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase invoice: %w", err)
	}
	return doc, nil
}

// GetByIDForUpdate locks the header row until the surrounding
// transaction ends. Cancellation and reconciliation both take this lock
// before deciding, so neither can act on a stale status.
func (r *PurchaseRepo) GetByIDForUpdate(ctx context.Context, invoiceID id.ID) (*purchase.PurchaseInvoice, error) {
	if r.txManager.GetTx(ctx) == nil {
		return nil, fmt.Errorf("get purchase invoice for update requires transaction context")
	}

	q := r.builder.Select(purchaseHeaderColumns...).
		From(purchasesTable).
		Where(squirrel.Eq{"id": invoiceID, "deletion_mark": false}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	row := r.querier(ctx).QueryRow(ctx, sql, args...)
	doc, err := scanPurchase(row)
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("purchase invoice", invoiceID)
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase invoice for update: %w", err)
	}
	return doc, nil
}

// GetLines returns the table part ordered by line number.
func (r *PurchaseRepo) GetLines(ctx context.Context, invoiceID id.ID) ([]purchase.Line, error) {
	q := r.builder.Select(
		"line_id", "line_no", "description",
		"item_code", "quantity", "metal_type", "fineness",
		"gross_weight", "seller_percentage", "net_weight",
		"rate_per_ten_grams", "amount",
	).From(purchaseLinesTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []purchase.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select purchase lines: %w", err)
	}
	return lines, nil
}

// List returns headers matching the filter, newest first.
func (r *PurchaseRepo) List(ctx context.Context, filter purchase.Filter) ([]purchase.PurchaseInvoice, error) {
	q := r.builder.Select(purchaseHeaderColumns...).
		From(purchasesTable).
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
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
		return nil, fmt.Errorf("select purchase invoices: %w", err)
	}
	defer rows.Close()

	var docs []purchase.PurchaseInvoice
	for rows.Next() {
		doc, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase invoice: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// Delete soft-deletes a draft.
func (r *PurchaseRepo) Delete(ctx context.Context, invoiceID id.ID) error {
	q := r.builder.Update(purchasesTable).
		Set("deletion_mark", true).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": invoiceID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete purchase invoice: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase invoice", invoiceID)
	}
	return nil
}

// SetReconcileState records reconciliation progress without a version
// check, same contract as the bill repository.
func (r *PurchaseRepo) SetReconcileState(ctx context.Context, invoiceID id.ID, state entity.ReconcileState, reason string) error {
	q := r.builder.Update(purchasesTable).
		Set("reconcile_state", state).
		Set("reconcile_error", reason).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": invoiceID, "status": entity.StatusConfirmed})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set reconcile state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConflict(fmt.Sprintf("purchase invoice %s is not confirmed, reconcile state unchanged", invoiceID))
	}
	return nil
}

func scanPurchase(row pgx.Row) (*purchase.PurchaseInvoice, error) {
	var doc purchase.PurchaseInvoice
	err := row.Scan(
		&doc.ID, &doc.Number, &doc.Date, &doc.Status, &doc.ReconcileState, &doc.ReconcileError,
		&doc.Comment, &doc.SupplierID, &doc.SupplierInvoiceNo, &doc.SupplierInvoiceDate,
		&doc.Totals.Subtotal, &doc.Totals.Discount, &doc.Totals.TransportCharge, &doc.Totals.OtherCharge,
		&doc.Totals.GSTRate, &doc.Totals.TotalTax, &doc.Totals.GrandTotal,
		&doc.Totals.PaidAmount, &doc.Totals.PendingAmount,
		&doc.DeletionMark, &doc.Version, &doc.CreatedAt, &doc.UpdatedAt,
		&doc.CreatedBy, &doc.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

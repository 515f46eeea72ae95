// Package report_repo provides the PostgreSQL implementation for report
// repositories. Reports read the registers and documents directly; they
// never go through the domain services.
package report_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aurum/internal/core/types"
	"aurum/internal/domain/reports"
	"aurum/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager}
}

func (r *ReportRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// GetMetalStockReport replays the metal movement log up to the report
// date. Total grows on credit; debit moves weight into the used bucket
// and reverse moves it back, so all three columns reconstruct at any
// point in time.
func (r *ReportRepo) GetMetalStockReport(ctx context.Context, filter reports.MetalStockReportFilter) (*reports.MetalStockReport, error) {
	asOfDate := time.Now().UTC()
	if filter.AsOfDate != nil {
		asOfDate = *filter.AsOfDate
	}

	query := `
		WITH balance_data AS (
			SELECT
				m.metal_type,
				m.fineness,
				SUM(CASE WHEN m.record_type = 'credit' THEN m.weight ELSE 0 END) AS total_weight,
				SUM(CASE WHEN m.record_type = 'debit' THEN m.weight
				         WHEN m.record_type = 'reverse' THEN -m.weight
				         ELSE 0 END) AS used_weight
			FROM reg_metal_movements m
			WHERE m.period <= $1
	`
	args := []any{asOfDate}
	argIndex := 2

	if len(filter.MetalTypes) > 0 {
		placeholders := make([]string, len(filter.MetalTypes))
		for i, mt := range filter.MetalTypes {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, mt)
			argIndex++
		}
		query += fmt.Sprintf(" AND m.metal_type IN (%s)", strings.Join(placeholders, ","))
	}

	if len(filter.Fineness) > 0 {
		placeholders := make([]string, len(filter.Fineness))
		for i, f := range filter.Fineness {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, f)
			argIndex++
		}
		query += fmt.Sprintf(" AND m.fineness IN (%s)", strings.Join(placeholders, ","))
	}

	havingClause := ""
	if filter.ExcludeZero {
		havingClause = "HAVING SUM(CASE WHEN m.record_type = 'credit' THEN m.weight ELSE 0 END) != 0"
	}

	query += fmt.Sprintf(`
			GROUP BY m.metal_type, m.fineness
			%s
		)
		SELECT
			bd.metal_type,
			bd.fineness,
			bd.total_weight::bigint AS total_weight,
			(bd.total_weight - bd.used_weight)::bigint AS available_weight,
			bd.used_weight::bigint AS used_weight,
			(bd.total_weight * bd.fineness / 1000)::bigint AS pure_weight
		FROM balance_data bd
		ORDER BY bd.metal_type, bd.fineness
	`, havingClause)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("metal stock report: %w", err)
	}
	defer rows.Close()

	items := make([]reports.MetalStockReportItem, 0)
	for rows.Next() {
		var item reports.MetalStockReportItem
		if err := rows.Scan(
			&item.MetalType, &item.Fineness,
			&item.TotalWeight, &item.AvailableWeight, &item.UsedWeight,
			&item.PureWeight,
		); err != nil {
			return nil, fmt.Errorf("scan metal stock row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metal stock report: %w", err)
	}

	totalPure := make(map[string]types.Weight)
	for _, item := range items {
		totalPure[item.MetalType] += item.PureWeight
	}

	return &reports.MetalStockReport{
		AsOfDate:        asOfDate,
		Items:           items,
		TotalItems:      len(items),
		TotalPureWeight: totalPure,
	}, nil
}

// GetMetalTurnoverReport builds opening, receipt, expense and closing
// columns per metal key over the available-weight balance. Only keys
// that moved inside the period produce rows.
func (r *ReportRepo) GetMetalTurnoverReport(ctx context.Context, filter reports.MetalTurnoverFilter) (*reports.MetalTurnoverReport, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, fmt.Errorf("from_date and to_date are required")
	}

	args := []any{filter.FromDate}
	argIndex := 2

	appendKeyFilters := func(q string) string {
		if len(filter.MetalTypes) > 0 {
			placeholders := make([]string, len(filter.MetalTypes))
			for i, mt := range filter.MetalTypes {
				placeholders[i] = fmt.Sprintf("$%d", argIndex)
				args = append(args, mt)
				argIndex++
			}
			q += fmt.Sprintf(" AND m.metal_type IN (%s)", strings.Join(placeholders, ","))
		}
		if len(filter.Fineness) > 0 {
			placeholders := make([]string, len(filter.Fineness))
			for i, f := range filter.Fineness {
				placeholders[i] = fmt.Sprintf("$%d", argIndex)
				args = append(args, f)
				argIndex++
			}
			q += fmt.Sprintf(" AND m.fineness IN (%s)", strings.Join(placeholders, ","))
		}
		return q
	}

	// Opening balance: signed sum of the available-weight deltas before
	// the period start. Debit is the only record type that subtracts.
	openingQuery := `
		SELECT
			m.metal_type,
			m.fineness,
			SUM(CASE WHEN m.record_type = 'debit' THEN -m.weight ELSE m.weight END) AS weight
		FROM reg_metal_movements m
		WHERE m.period < $1
	`
	openingQuery = appendKeyFilters(openingQuery)
	openingQuery += " GROUP BY m.metal_type, m.fineness"

	turnoverQuery := fmt.Sprintf(`
		SELECT
			m.metal_type,
			m.fineness,
			COALESCE(o.weight, 0)::bigint AS opening,
			SUM(CASE WHEN m.record_type = 'credit' THEN m.weight ELSE 0 END)::bigint AS receipt,
			SUM(CASE WHEN m.record_type = 'debit' THEN m.weight ELSE 0 END)::bigint AS expense,
			SUM(CASE WHEN m.record_type = 'reverse' THEN m.weight ELSE 0 END)::bigint AS reversal,
			(COALESCE(o.weight, 0) +
				SUM(CASE WHEN m.record_type = 'debit' THEN -m.weight ELSE m.weight END))::bigint AS closing
		FROM reg_metal_movements m
		LEFT JOIN (%s) o
			ON m.metal_type = o.metal_type AND m.fineness = o.fineness
		WHERE m.period >= $%d AND m.period <= $%d
	`, openingQuery, argIndex, argIndex+1)

	args = append(args, filter.FromDate, filter.ToDate)
	argIndex += 2

	turnoverQuery = appendKeyFilters(turnoverQuery)
	turnoverQuery += `
		GROUP BY m.metal_type, m.fineness, o.weight
		ORDER BY m.metal_type, m.fineness
	`

	rows, err := r.querier(ctx).Query(ctx, turnoverQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("metal turnover report: %w", err)
	}
	defer rows.Close()

	result := make([]reports.MetalTurnoverRow, 0)
	for rows.Next() {
		var row reports.MetalTurnoverRow
		if err := rows.Scan(
			&row.MetalType, &row.Fineness,
			&row.Opening, &row.Receipt, &row.Expense, &row.Reversal,
			&row.Closing,
		); err != nil {
			return nil, fmt.Errorf("scan metal turnover row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metal turnover report: %w", err)
	}

	return &reports.MetalTurnoverReport{
		FromDate:   filter.FromDate,
		ToDate:     filter.ToDate,
		Rows:       result,
		TotalItems: len(result),
	}, nil
}

// GetItemStockReport joins the item balance table with the catalogue
// for names, categories and the min-stock threshold.
func (r *ReportRepo) GetItemStockReport(ctx context.Context, filter reports.ItemStockReportFilter) (*reports.ItemStockReport, error) {
	query := `
		SELECT
			a.item_code,
			COALESCE(i.name, '') AS item_name,
			COALESCE(i.category, '') AS category,
			COALESCE(i.metal_type, '') AS metal_type,
			COALESCE(i.fineness, 0) AS fineness,
			a.total_qty,
			a.available_qty,
			a.sold_qty,
			COALESCE(i.min_stock, 0) AS min_stock,
			(COALESCE(i.min_stock, 0) > 0 AND a.available_qty < COALESCE(i.min_stock, 0)) AS low_stock
		FROM reg_item_accounts a
		LEFT JOIN cat_items i ON i.code = a.item_code AND i.deletion_mark = false
		WHERE 1=1
	`
	var args []any
	argIndex := 1

	if len(filter.ItemCodes) > 0 {
		placeholders := make([]string, len(filter.ItemCodes))
		for i, code := range filter.ItemCodes {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, code)
			argIndex++
		}
		query += fmt.Sprintf(" AND a.item_code IN (%s)", strings.Join(placeholders, ","))
	}

	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, c := range filter.Categories {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, c)
			argIndex++
		}
		query += fmt.Sprintf(" AND i.category IN (%s)", strings.Join(placeholders, ","))
	}

	if len(filter.MetalTypes) > 0 {
		placeholders := make([]string, len(filter.MetalTypes))
		for i, mt := range filter.MetalTypes {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, mt)
			argIndex++
		}
		query += fmt.Sprintf(" AND i.metal_type IN (%s)", strings.Join(placeholders, ","))
	}

	if filter.LowStockOnly {
		query += " AND COALESCE(i.min_stock, 0) > 0 AND a.available_qty < COALESCE(i.min_stock, 0)"
	}
	if filter.ExcludeZero {
		query += " AND a.total_qty != 0"
	}

	query += " ORDER BY a.item_code"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("item stock report: %w", err)
	}
	defer rows.Close()

	items := make([]reports.ItemStockReportItem, 0)
	lowStockCount := 0
	for rows.Next() {
		var item reports.ItemStockReportItem
		if err := rows.Scan(
			&item.ItemCode, &item.ItemName, &item.Category,
			&item.MetalType, &item.Fineness,
			&item.TotalQty, &item.AvailableQty, &item.SoldQty,
			&item.MinStock, &item.LowStock,
		); err != nil {
			return nil, fmt.Errorf("scan item stock row: %w", err)
		}
		if item.LowStock {
			lowStockCount++
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("item stock report: %w", err)
	}

	return &reports.ItemStockReport{
		Items:         items,
		TotalItems:    len(items),
		LowStockCount: lowStockCount,
	}, nil
}

// GetSalesSummary aggregates confirmed bills over a period.
func (r *ReportRepo) GetSalesSummary(ctx context.Context, filter reports.SalesSummaryFilter) (*reports.SalesSummaryReport, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, fmt.Errorf("from_date and to_date are required")
	}

	whereClause := `
		FROM doc_bills
		WHERE deletion_mark = false
		  AND status = 'confirmed'
		  AND date >= $1 AND date <= $2
	`
	args := []any{filter.FromDate, filter.ToDate}
	argIndex := 3

	if len(filter.CustomerIDs) > 0 {
		placeholders := make([]string, len(filter.CustomerIDs))
		for i, cid := range filter.CustomerIDs {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, cid)
			argIndex++
		}
		whereClause += fmt.Sprintf(" AND customer_id IN (%s)", strings.Join(placeholders, ","))
	}

	sums := `
		COUNT(*) AS bill_count,
		COALESCE(SUM(subtotal), 0) AS subtotal,
		COALESCE(SUM(total_tax), 0) AS total_tax,
		COALESCE(SUM(exchange_amount), 0) AS exchange_amount,
		COALESCE(SUM(grand_total), 0) AS grand_total,
		COALESCE(SUM(paid_amount), 0) AS paid_amount,
		COALESCE(SUM(pending_amount), 0) AS pending_amount
	`

	report := &reports.SalesSummaryReport{
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
		Rows:     make([]reports.SalesSummaryRow, 0),
	}

	if filter.GroupByDay {
		query := "SELECT date_trunc('day', date) AS day, " + sums + whereClause +
			" GROUP BY date_trunc('day', date) ORDER BY day"

		rows, err := r.querier(ctx).Query(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("sales summary: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var day time.Time
			var row reports.SalesSummaryRow
			if err := rows.Scan(
				&day, &row.BillCount,
				&row.Subtotal, &row.TotalTax, &row.ExchangeAmount,
				&row.GrandTotal, &row.PaidAmount, &row.PendingAmount,
			); err != nil {
				return nil, fmt.Errorf("scan sales summary row: %w", err)
			}
			d := day
			row.Date = &d
			report.Rows = append(report.Rows, row)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("sales summary: %w", err)
		}

		// Period totals over the day rows
		totals := reports.SalesSummaryRow{
			Subtotal:       types.ZeroMoney(),
			TotalTax:       types.ZeroMoney(),
			ExchangeAmount: types.ZeroMoney(),
			GrandTotal:     types.ZeroMoney(),
			PaidAmount:     types.ZeroMoney(),
			PendingAmount:  types.ZeroMoney(),
		}
		for _, row := range report.Rows {
			totals.BillCount += row.BillCount
			totals.Subtotal = totals.Subtotal.Add(row.Subtotal)
			totals.TotalTax = totals.TotalTax.Add(row.TotalTax)
			totals.ExchangeAmount = totals.ExchangeAmount.Add(row.ExchangeAmount)
			totals.GrandTotal = totals.GrandTotal.Add(row.GrandTotal)
			totals.PaidAmount = totals.PaidAmount.Add(row.PaidAmount)
			totals.PendingAmount = totals.PendingAmount.Add(row.PendingAmount)
		}
		report.Totals = totals
		return report, nil
	}

	query := "SELECT " + sums + whereClause

	var totals reports.SalesSummaryRow
	err := r.querier(ctx).QueryRow(ctx, query, args...).Scan(
		&totals.BillCount,
		&totals.Subtotal, &totals.TotalTax, &totals.ExchangeAmount,
		&totals.GrandTotal, &totals.PaidAmount, &totals.PendingAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("sales summary: %w", err)
	}

	report.Rows = append(report.Rows, totals)
	report.Totals = totals
	return report, nil
}

// journalSortColumns whitelists sortable columns for the journal.
var journalSortColumns = map[string]string{
	"date":   "date",
	"number": "number",
	"type":   "document_type",
	"amount": "grand_total",
}

// GetDocumentJournal retrieves documents of all types for journal view.
func (r *ReportRepo) GetDocumentJournal(ctx context.Context, filter reports.DocumentJournalFilter) (*reports.DocumentJournal, error) {
	docTypes := filter.DocumentTypes
	if len(docTypes) == 0 {
		docTypes = []string{"bill", "purchase_invoice"}
	}

	var unions []string
	var args []any
	argIndex := 1

	appendCommonFilters := func(q string) string {
		if filter.FromDate != nil {
			q += fmt.Sprintf(" AND date >= $%d", argIndex)
			args = append(args, *filter.FromDate)
			argIndex++
		}
		if filter.ToDate != nil {
			q += fmt.Sprintf(" AND date <= $%d", argIndex)
			args = append(args, *filter.ToDate)
			argIndex++
		}
		if len(filter.Statuses) > 0 {
			placeholders := make([]string, len(filter.Statuses))
			for i, s := range filter.Statuses {
				placeholders[i] = fmt.Sprintf("$%d", argIndex)
				args = append(args, s)
				argIndex++
			}
			q += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ","))
		}
		if filter.NumberContains != "" {
			q += fmt.Sprintf(" AND number ILIKE $%d", argIndex)
			args = append(args, "%"+filter.NumberContains+"%")
			argIndex++
		}
		return q
	}

	appendCounterpartyFilter := func(q, column string) string {
		if len(filter.CounterpartyIDs) == 0 {
			return q
		}
		placeholders := make([]string, len(filter.CounterpartyIDs))
		for i, cid := range filter.CounterpartyIDs {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, cid)
			argIndex++
		}
		return q + fmt.Sprintf(" AND %s IN (%s)", column, strings.Join(placeholders, ","))
	}

	for _, docType := range docTypes {
		switch docType {
		case "bill":
			q := `
				SELECT
					d.id, 'bill' AS document_type, d.number, d.date, d.status,
					d.customer_id AS counterparty_id,
					COALESCE(c.name, '') AS counterparty_name,
					d.grand_total,
					d.reconcile_state, d.deletion_mark, d.created_at, d.updated_at
				FROM doc_bills d
				LEFT JOIN cat_counterparties c ON d.customer_id = c.id
				WHERE d.deletion_mark = false
			`
			q = appendCommonFilters(q)
			q = appendCounterpartyFilter(q, "d.customer_id")
			unions = append(unions, q)

		case "purchase_invoice":
			q := `
				SELECT
					d.id, 'purchase_invoice' AS document_type, d.number, d.date, d.status,
					d.supplier_id AS counterparty_id,
					COALESCE(c.name, '') AS counterparty_name,
					d.grand_total,
					d.reconcile_state, d.deletion_mark, d.created_at, d.updated_at
				FROM doc_purchase_invoices d
				LEFT JOIN cat_counterparties c ON d.supplier_id = c.id
				WHERE d.deletion_mark = false
			`
			q = appendCommonFilters(q)
			q = appendCounterpartyFilter(q, "d.supplier_id")
			unions = append(unions, q)
		}
	}

	if len(unions) == 0 {
		return &reports.DocumentJournal{
			Items:      []reports.DocumentJournalItem{},
			TotalCount: 0,
		}, nil
	}

	unionQuery := strings.Join(unions, " UNION ALL ")

	countQuery := "SELECT COUNT(*) FROM (" + unionQuery + ") docs"
	var totalCount int
	if err := r.querier(ctx).QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("document journal count: %w", err)
	}

	sortColumn := journalSortColumns[filter.SortBy]
	if sortColumn == "" {
		sortColumn = "date"
	}
	sortDir := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		sortDir = "ASC"
	}

	query := unionQuery + fmt.Sprintf(" ORDER BY %s %s, number", sortColumn, sortDir)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("document journal: %w", err)
	}
	defer rows.Close()

	items := make([]reports.DocumentJournalItem, 0)
	for rows.Next() {
		var item reports.DocumentJournalItem
		if err := rows.Scan(
			&item.ID, &item.DocumentType, &item.Number, &item.Date, &item.Status,
			&item.CounterpartyID, &item.CounterpartyName,
			&item.GrandTotal,
			&item.ReconcileState, &item.DeletionMark, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("document journal: %w", err)
	}

	return &reports.DocumentJournal{
		Items:      items,
		TotalCount: totalCount,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// GetDocumentTypeSummary returns document counts and totals by type.
func (r *ReportRepo) GetDocumentTypeSummary(ctx context.Context, filter reports.DocumentJournalFilter) ([]reports.DocumentTypeSummary, error) {
	docTypes := filter.DocumentTypes
	if len(docTypes) == 0 {
		docTypes = []string{"bill", "purchase_invoice"}
	}

	result := make([]reports.DocumentTypeSummary, 0, len(docTypes))
	for _, docType := range docTypes {
		var table string
		switch docType {
		case "bill":
			table = "doc_bills"
		case "purchase_invoice":
			table = "doc_purchase_invoices"
		default:
			continue
		}

		query := fmt.Sprintf(`
			SELECT
				COUNT(*) AS count,
				COUNT(*) FILTER (WHERE status = 'confirmed') AS confirmed_count,
				COALESCE(SUM(grand_total), 0) AS total_amount
			FROM %s
			WHERE deletion_mark = false
		`, table)

		var args []any
		argIndex := 1
		if filter.FromDate != nil {
			query += fmt.Sprintf(" AND date >= $%d", argIndex)
			args = append(args, *filter.FromDate)
			argIndex++
		}
		if filter.ToDate != nil {
			query += fmt.Sprintf(" AND date <= $%d", argIndex)
			args = append(args, *filter.ToDate)
			argIndex++
		}

		summary := reports.DocumentTypeSummary{DocumentType: docType}
		err := r.querier(ctx).QueryRow(ctx, query, args...).Scan(
			&summary.Count, &summary.ConfirmedCount, &summary.TotalAmount,
		)
		if err != nil {
			return nil, fmt.Errorf("document type summary for %s: %w", docType, err)
		}
		result = append(result, summary)
	}

	return result, nil
}

// Ensure interface compliance
var _ reports.Repository = (*ReportRepo)(nil)

package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain/documents/bill"
	"aurum/internal/domain/documents/purchase"
	"aurum/internal/domain/registers/itemstock"
	"aurum/internal/domain/registers/metalstock"
)

// --- fakes ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeProcessed struct {
	seen map[id.ID]string
}

func newFakeProcessed() *fakeProcessed { return &fakeProcessed{seen: map[id.ID]string{}} }

func (f *fakeProcessed) MarkProcessed(_ context.Context, eventID id.ID, eventType string) error {
	if _, ok := f.seen[eventID]; ok {
		return apperror.NewDuplicateEvent(eventID.String())
	}
	f.seen[eventID] = eventType
	return nil
}

type fakeBillRepo struct {
	docs   map[id.ID]*bill.Bill
	states map[id.ID]entity.ReconcileState
	errors map[id.ID]string
}

func newFakeBillRepo() *fakeBillRepo {
	return &fakeBillRepo{
		docs:   map[id.ID]*bill.Bill{},
		states: map[id.ID]entity.ReconcileState{},
		errors: map[id.ID]string{},
	}
}

func (f *fakeBillRepo) Create(_ context.Context, doc *bill.Bill) error { f.docs[doc.ID] = doc; return nil }
func (f *fakeBillRepo) Update(_ context.Context, doc *bill.Bill) error { f.docs[doc.ID] = doc; return nil }
func (f *fakeBillRepo) SaveLines(context.Context, id.ID, []bill.SaleLine, []bill.ExchangeLine) error {
	return nil
}
func (f *fakeBillRepo) GetByID(_ context.Context, billID id.ID) (*bill.Bill, error) {
	doc, ok := f.docs[billID]
	if !ok {
		return nil, apperror.NewNotFound("bill", billID)
	}
	return doc, nil
}
func (f *fakeBillRepo) GetByIDForUpdate(ctx context.Context, billID id.ID) (*bill.Bill, error) {
	return f.GetByID(ctx, billID)
}
func (f *fakeBillRepo) GetLines(context.Context, id.ID) ([]bill.SaleLine, []bill.ExchangeLine, error) {
	return nil, nil, nil
}
func (f *fakeBillRepo) List(context.Context, bill.Filter) ([]bill.Bill, error) { return nil, nil }
func (f *fakeBillRepo) Delete(context.Context, id.ID) error                    { return nil }
func (f *fakeBillRepo) AddPayment(context.Context, bill.Payment) error         { return nil }
func (f *fakeBillRepo) GetPayments(context.Context, id.ID) ([]bill.Payment, error) {
	return nil, nil
}
func (f *fakeBillRepo) UpdatePaidAmounts(context.Context, id.ID, types.Money, types.Money) error {
	return nil
}
func (f *fakeBillRepo) SetReconcileState(_ context.Context, billID id.ID, state entity.ReconcileState, reason string) error {
	f.states[billID] = state
	f.errors[billID] = reason
	return nil
}

type fakePurchaseRepo struct {
	docs   map[id.ID]*purchase.PurchaseInvoice
	states map[id.ID]entity.ReconcileState
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{
		docs:   map[id.ID]*purchase.PurchaseInvoice{},
		states: map[id.ID]entity.ReconcileState{},
	}
}

func (f *fakePurchaseRepo) Create(_ context.Context, doc *purchase.PurchaseInvoice) error {
	f.docs[doc.ID] = doc
	return nil
}
func (f *fakePurchaseRepo) Update(_ context.Context, doc *purchase.PurchaseInvoice) error {
	f.docs[doc.ID] = doc
	return nil
}
func (f *fakePurchaseRepo) SaveLines(context.Context, id.ID, []purchase.Line) error { return nil }
func (f *fakePurchaseRepo) GetByID(_ context.Context, invoiceID id.ID) (*purchase.PurchaseInvoice, error) {
	doc, ok := f.docs[invoiceID]
	if !ok {
		return nil, apperror.NewNotFound("purchase_invoice", invoiceID)
	}
	return doc, nil
}
func (f *fakePurchaseRepo) GetByIDForUpdate(ctx context.Context, invoiceID id.ID) (*purchase.PurchaseInvoice, error) {
	return f.GetByID(ctx, invoiceID)
}
func (f *fakePurchaseRepo) GetLines(context.Context, id.ID) ([]purchase.Line, error) { return nil, nil }
func (f *fakePurchaseRepo) List(context.Context, purchase.Filter) ([]purchase.PurchaseInvoice, error) {
	return nil, nil
}
func (f *fakePurchaseRepo) Delete(context.Context, id.ID) error { return nil }
func (f *fakePurchaseRepo) SetReconcileState(_ context.Context, invoiceID id.ID, state entity.ReconcileState, _ string) error {
	f.states[invoiceID] = state
	return nil
}

// in-memory metal register repo

type metalMovKey struct {
	source     string
	key        metalstock.Key
	recordType entity.RecordType
}

type fakeMetalRepo struct {
	accounts  map[metalstock.Key]entity.MetalStockAccount
	movements []entity.MetalMovement
	seen      map[metalMovKey]bool
}

func newFakeMetalRepo() *fakeMetalRepo {
	return &fakeMetalRepo{
		accounts: map[metalstock.Key]entity.MetalStockAccount{},
		seen:     map[metalMovKey]bool{},
	}
}

func (r *fakeMetalRepo) CreateMovement(_ context.Context, m entity.MetalMovement) error {
	r.movements = append(r.movements, m)
	r.seen[metalMovKey{m.Source.String(), metalstock.Key{MetalType: m.MetalType, Fineness: m.Fineness}, m.RecordType}] = true
	return nil
}
func (r *fakeMetalRepo) MovementExists(_ context.Context, source entity.SourceRef, key metalstock.Key, rt entity.RecordType) (bool, error) {
	return r.seen[metalMovKey{source.String(), key, rt}], nil
}
func (r *fakeMetalRepo) GetMovementsBySource(context.Context, entity.SourceRef) ([]entity.MetalMovement, error) {
	return nil, nil
}
func (r *fakeMetalRepo) GetMovementHistory(context.Context, metalstock.Key, metalstock.MovementFilter) ([]entity.MetalMovement, error) {
	return nil, nil
}
func (r *fakeMetalRepo) GetAccount(_ context.Context, key metalstock.Key) (entity.MetalStockAccount, error) {
	if acc, ok := r.accounts[key]; ok {
		return acc, nil
	}
	return entity.MetalStockAccount{MetalType: key.MetalType, Fineness: key.Fineness}, nil
}
func (r *fakeMetalRepo) GetAccountForUpdate(ctx context.Context, key metalstock.Key) (entity.MetalStockAccount, error) {
	return r.GetAccount(ctx, key)
}
func (r *fakeMetalRepo) SaveAccount(_ context.Context, acc entity.MetalStockAccount, _ int) error {
	r.accounts[metalstock.Key{MetalType: acc.MetalType, Fineness: acc.Fineness}] = acc
	return nil
}
func (r *fakeMetalRepo) ListAccounts(context.Context, metalstock.AccountFilter) ([]entity.MetalStockAccount, error) {
	return nil, nil
}
func (r *fakeMetalRepo) GetWeightAtDate(context.Context, metalstock.Key, time.Time) (int64, error) {
	return 0, nil
}

// in-memory item register repo

type itemMovKey struct {
	source     string
	itemCode   string
	recordType entity.RecordType
}

type fakeItemRepo struct {
	accounts  map[string]entity.ItemStockAccount
	movements []entity.ItemMovement
	seen      map[itemMovKey]bool
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{
		accounts: map[string]entity.ItemStockAccount{},
		seen:     map[itemMovKey]bool{},
	}
}

func (r *fakeItemRepo) CreateMovement(_ context.Context, m entity.ItemMovement) error {
	r.movements = append(r.movements, m)
	r.seen[itemMovKey{m.Source.String(), m.ItemCode, m.RecordType}] = true
	return nil
}
func (r *fakeItemRepo) MovementExists(_ context.Context, source entity.SourceRef, itemCode string, rt entity.RecordType) (bool, error) {
	return r.seen[itemMovKey{source.String(), itemCode, rt}], nil
}
func (r *fakeItemRepo) GetMovementsBySource(context.Context, entity.SourceRef) ([]entity.ItemMovement, error) {
	return nil, nil
}
func (r *fakeItemRepo) GetMovementHistory(context.Context, string, itemstock.MovementFilter) ([]entity.ItemMovement, error) {
	return nil, nil
}
func (r *fakeItemRepo) GetAccount(_ context.Context, itemCode string) (entity.ItemStockAccount, error) {
	if acc, ok := r.accounts[itemCode]; ok {
		return acc, nil
	}
	return entity.ItemStockAccount{ItemCode: itemCode}, nil
}
func (r *fakeItemRepo) GetAccountForUpdate(ctx context.Context, itemCode string) (entity.ItemStockAccount, error) {
	return r.GetAccount(ctx, itemCode)
}
func (r *fakeItemRepo) SaveAccount(_ context.Context, acc entity.ItemStockAccount, _ int) error {
	r.accounts[acc.ItemCode] = acc
	return nil
}
func (r *fakeItemRepo) ListAccounts(context.Context, itemstock.AccountFilter) ([]entity.ItemStockAccount, error) {
	return nil, nil
}

// --- fixture ---

type fixture struct {
	processor *Processor
	bills     *fakeBillRepo
	purchases *fakePurchaseRepo
	metal     *fakeMetalRepo
	items     *fakeItemRepo
	metalSvc  *metalstock.Service
	itemSvc   *itemstock.Service
	processed *fakeProcessed
}

func newFixture() *fixture {
	bills := newFakeBillRepo()
	purchases := newFakePurchaseRepo()
	metalRepo := newFakeMetalRepo()
	itemRepo := newFakeItemRepo()
	metalSvc := metalstock.NewService(metalRepo)
	itemSvc := itemstock.NewService(itemRepo)
	processed := newFakeProcessed()

	return &fixture{
		processor: NewProcessor(bills, purchases, metalSvc, itemSvc, processed, fakeTxManager{}),
		bills:     bills,
		purchases: purchases,
		metal:     metalRepo,
		items:     itemRepo,
		metalSvc:  metalSvc,
		itemSvc:   itemSvc,
		processed: processed,
	}
}

func (f *fixture) stockItems(t *testing.T, itemCode string, qty int64) {
	t.Helper()
	source := entity.SourceRef{Type: entity.SourceManual, ID: id.New()}
	require.NoError(t, f.itemSvc.Credit(context.Background(), itemCode, qty, source, time.Now()))
}

func confirmedBill(t *testing.T, f *fixture) (*bill.Bill, []byte, id.ID) {
	t.Helper()
	b := bill.NewBill(id.New())
	require.NoError(t, b.AddSaleLine(bill.SaleLineInput{
		ItemCode:        "RING-001",
		MetalType:       "GOLD",
		PurityValue:     types.MustMoney("22"),
		Quantity:        2,
		GrossWeight:     types.MustWeight("10.000"),
		RatePerTenGrams: types.MustMoney("7500"),
	}))
	require.NoError(t, b.AddExchangeLine(bill.ExchangeLineInput{
		MetalType:       "GOLD",
		PurityValue:     types.MustMoney("916"),
		GrossWeight:     types.MustWeight("10.000"),
		DeductionPct:    types.MustMoney("5"),
		RatePerTenGrams: types.MustMoney("6000"),
	}))
	b.RecalculateTotals()
	b.MarkConfirmed()
	require.NoError(t, f.bills.Create(context.Background(), b))

	event, err := b.ConfirmedEvent()
	require.NoError(t, err)
	return b, event.Payload, id.New()
}

// --- tests ---

func TestProcessor_BillConfirmed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.stockItems(t, "RING-001", 5)

	b, payload, eventID := confirmedBill(t, f)

	require.NoError(t, f.processor.HandleEvent(ctx, eventID, "bill.confirmed", payload))

	itemAcc, err := f.itemSvc.Snapshot(ctx, "RING-001")
	require.NoError(t, err)
	assert.Equal(t, int64(3), itemAcc.AvailableQty)
	assert.Equal(t, int64(2), itemAcc.SoldQty)

	metalAcc, err := f.metalSvc.Snapshot(ctx, metalstock.Key{MetalType: "GOLD", Fineness: 916})
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("9.500"), metalAcc.AvailableWeight)

	assert.Equal(t, entity.ReconcileProcessed, f.bills.states[b.ID])
}

func TestProcessor_BillConfirmed_Redelivery(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.stockItems(t, "RING-001", 5)

	_, payload, eventID := confirmedBill(t, f)

	require.NoError(t, f.processor.HandleEvent(ctx, eventID, "bill.confirmed", payload))
	movementsAfterFirst := len(f.items.movements) + len(f.metal.movements)

	// Same event delivered again: acknowledged, nothing applied twice.
	require.NoError(t, f.processor.HandleEvent(ctx, eventID, "bill.confirmed", payload))
	assert.Equal(t, movementsAfterFirst, len(f.items.movements)+len(f.metal.movements))

	itemAcc, err := f.itemSvc.Snapshot(ctx, "RING-001")
	require.NoError(t, err)
	assert.Equal(t, int64(2), itemAcc.SoldQty)
}

func TestProcessor_BillConfirmed_InsufficientStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.stockItems(t, "RING-001", 1) // bill sells 2

	b, payload, eventID := confirmedBill(t, f)

	err := f.processor.HandleEvent(ctx, eventID, "bill.confirmed", payload)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	assert.Equal(t, entity.ReconcileFailed, f.bills.states[b.ID])
	assert.NotEmpty(t, f.bills.errors[b.ID])
}

func TestProcessor_BillConfirmed_SkipsCancelled(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.stockItems(t, "RING-001", 5)

	b, payload, eventID := confirmedBill(t, f)

	// Cancel lands after the event was emitted but before processing;
	// the processor must see it on its in-transaction read.
	b.MarkCancelled()

	require.NoError(t, f.processor.HandleEvent(ctx, eventID, "bill.confirmed", payload))

	// No movement references the bill; only the seeding credit exists.
	for _, m := range f.items.movements {
		assert.NotEqual(t, b.ID, m.Source.ID)
	}
	assert.Empty(t, f.metal.movements)

	// The marker stops redelivery, and the bill is not marked processed.
	assert.Contains(t, f.processed.seen, eventID)
	assert.NotContains(t, f.bills.states, b.ID)

	itemAcc, err := f.itemSvc.Snapshot(ctx, "RING-001")
	require.NoError(t, err)
	assert.Equal(t, int64(5), itemAcc.AvailableQty)
	assert.Equal(t, int64(0), itemAcc.SoldQty)
}

func TestProcessor_BillCancelled_Compensation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.stockItems(t, "RING-001", 5)

	b, payload, eventID := confirmedBill(t, f)
	require.NoError(t, f.processor.HandleEvent(ctx, eventID, "bill.confirmed", payload))

	cancelEvent, err := b.CancelledEvent()
	require.NoError(t, err)
	require.NoError(t, f.processor.HandleEvent(ctx, id.New(), "bill.cancelled", cancelEvent.Payload))

	itemAcc, err := f.itemSvc.Snapshot(ctx, "RING-001")
	require.NoError(t, err)
	assert.Equal(t, int64(5), itemAcc.AvailableQty)
	assert.Equal(t, int64(0), itemAcc.SoldQty)

	// Exchanged metal left the available pool after compensation.
	metalAcc, err := f.metalSvc.Snapshot(ctx, metalstock.Key{MetalType: "GOLD", Fineness: 916})
	require.NoError(t, err)
	assert.True(t, metalAcc.AvailableWeight.IsZero())
	assert.Equal(t, types.MustWeight("9.500"), metalAcc.UsedWeight)
}

func TestProcessor_PurchaseConfirmed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := purchase.NewPurchaseInvoice(id.New())
	require.NoError(t, p.AddLine(purchase.LineInput{
		MetalType:        "GOLD",
		PurityValue:      types.MustMoney("916"),
		GrossWeight:      types.MustWeight("100.000"),
		SellerPercentage: types.MustMoney("97"),
		RatePerTenGrams:  types.MustMoney("5000"),
	}))
	require.NoError(t, p.AddLine(purchase.LineInput{
		ItemCode:         "BANGLE-001",
		Quantity:         4,
		MetalType:        "GOLD",
		PurityValue:      types.MustMoney("22"),
		GrossWeight:      types.MustWeight("40.000"),
		SellerPercentage: types.MustMoney("100"),
		RatePerTenGrams:  types.MustMoney("7500"),
	}))
	p.RecalculateTotals()
	p.MarkConfirmed()
	require.NoError(t, f.purchases.Create(ctx, p))

	event, err := p.ConfirmedEvent()
	require.NoError(t, err)
	require.NoError(t, f.processor.HandleEvent(ctx, id.New(), "purchase_invoice.confirmed", event.Payload))

	metalAcc, err := f.metalSvc.Snapshot(ctx, metalstock.Key{MetalType: "GOLD", Fineness: 916})
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("97.000"), metalAcc.AvailableWeight)

	itemAcc, err := f.itemSvc.Snapshot(ctx, "BANGLE-001")
	require.NoError(t, err)
	assert.Equal(t, int64(4), itemAcc.AvailableQty)

	assert.Equal(t, entity.ReconcileProcessed, f.purchases.states[p.ID])
}

func TestProcessor_UnknownEventAcknowledged(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.processor.HandleEvent(context.Background(), id.New(), "something.else", []byte(`{}`)))
}

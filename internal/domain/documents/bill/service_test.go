package bill

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain/audit"
	"aurum/internal/domain/events"
)

type stubTxManager struct{}

func (stubTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type capturePublisher struct {
	published []events.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, event events.DomainEvent) error {
	p.published = append(p.published, event)
	return nil
}

// cancelRepo serves a stale snapshot on plain reads and the current row
// on locked reads, the way a concurrent reconciliation makes them
// diverge.
type cancelRepo struct {
	stale   *Bill
	current *Bill
	saved   *Bill
}

func (r *cancelRepo) Create(context.Context, *Bill) error { return nil }
func (r *cancelRepo) Update(_ context.Context, doc *Bill) error {
	r.saved = doc
	return nil
}
func (r *cancelRepo) SaveLines(context.Context, id.ID, []SaleLine, []ExchangeLine) error { return nil }
func (r *cancelRepo) GetByID(context.Context, id.ID) (*Bill, error) {
	return r.stale, nil
}
func (r *cancelRepo) GetByIDForUpdate(context.Context, id.ID) (*Bill, error) {
	return r.current, nil
}
func (r *cancelRepo) GetLines(context.Context, id.ID) ([]SaleLine, []ExchangeLine, error) {
	return r.current.SaleLines, r.current.ExchangeLines, nil
}
func (r *cancelRepo) List(context.Context, Filter) ([]Bill, error) { return nil, nil }
func (r *cancelRepo) Delete(context.Context, id.ID) error          { return nil }
func (r *cancelRepo) AddPayment(context.Context, Payment) error    { return nil }
func (r *cancelRepo) GetPayments(context.Context, id.ID) ([]Payment, error) {
	return nil, nil
}
func (r *cancelRepo) UpdatePaidAmounts(context.Context, id.ID, types.Money, types.Money) error {
	return nil
}
func (r *cancelRepo) SetReconcileState(context.Context, id.ID, entity.ReconcileState, string) error {
	return nil
}

func confirmedTestBill(t *testing.T) *Bill {
	t.Helper()
	b := NewBill(id.New())
	require.NoError(t, b.AddSaleLine(SaleLineInput{
		ItemCode:        "RING-001",
		MetalType:       "GOLD",
		PurityValue:     types.MustMoney("22"),
		Quantity:        1,
		GrossWeight:     types.MustWeight("5.000"),
		RatePerTenGrams: types.MustMoney("7500"),
	}))
	b.RecalculateTotals()
	b.MarkConfirmed()
	return b
}

func TestCancel_CompensatesFromLockedRead(t *testing.T) {
	ctx := context.Background()

	// The plain read still shows pending, but by the time the lock is
	// granted the reconcile worker has applied the stock effects.
	current := confirmedTestBill(t)
	current.ReconcileState = entity.ReconcileProcessed
	stale := *current
	stale.ReconcileState = entity.ReconcilePending

	repo := &cancelRepo{stale: &stale, current: current}
	pub := &capturePublisher{}
	svc := NewService(repo, stubTxManager{}, pub, nil, nil, audit.Nop{})

	require.NoError(t, svc.Cancel(ctx, current.ID))

	require.Len(t, pub.published, 1)
	assert.Equal(t, events.TypeBillCancelled, pub.published[0].EventType)
	require.NotNil(t, repo.saved)
	assert.Equal(t, entity.StatusCancelled, repo.saved.Status)
}

func TestCancel_DraftPublishesNothing(t *testing.T) {
	ctx := context.Background()

	draft := NewBill(id.New())
	repo := &cancelRepo{stale: draft, current: draft}
	pub := &capturePublisher{}
	svc := NewService(repo, stubTxManager{}, pub, nil, nil, audit.Nop{})

	require.NoError(t, svc.Cancel(ctx, draft.ID))

	assert.Empty(t, pub.published)
	assert.Equal(t, entity.StatusCancelled, repo.saved.Status)
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	ctx := context.Background()

	b := confirmedTestBill(t)
	b.MarkCancelled()
	repo := &cancelRepo{stale: b, current: b}
	pub := &capturePublisher{}
	svc := NewService(repo, stubTxManager{}, pub, nil, nil, audit.Nop{})

	err := svc.Cancel(ctx, b.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeDocumentCancelled, apperror.CodeOf(err))
	assert.Empty(t, pub.published)
}

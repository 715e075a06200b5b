package purchaseorders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oneflow-hq/oneflow/internal/finance/audit"
)

type stubNumbers struct {
	n int
}

func (s *stubNumbers) Next(_ context.Context, prefix string) (string, error) {
	s.n++
	return fmt.Sprintf("%s-TEST-%04d", prefix, s.n), nil
}

type memoryRepo struct {
	orders map[int64]PurchaseOrder
	lines  map[int64][]Line
	audits []audit.Entry
	nextID int64
	lineID int64
}

type memoryTx struct {
	repo   *memoryRepo
	orders []PurchaseOrder
	lines  []Line
	audits []audit.Entry
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders: make(map[int64]PurchaseOrder),
		lines:  make(map[int64][]Line),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTx{repo: r}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, o := range tx.orders {
		r.orders[o.ID] = o
	}
	for _, l := range tx.lines {
		r.lines[l.PurchaseOrderID] = append(r.lines[l.PurchaseOrderID], l)
	}
	r.audits = append(r.audits, tx.audits...)
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*PurchaseOrder, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	order.Lines = append([]Line(nil), r.lines[id]...)
	return &order, nil
}

func (r *memoryRepo) List(_ context.Context, req ListPurchaseOrdersRequest) ([]PurchaseOrder, error) {
	var out []PurchaseOrder
	for _, o := range r.orders {
		if req.Status != nil && o.Status != *req.Status {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (tx *memoryTx) Insert(_ context.Context, order PurchaseOrder) (int64, error) {
	tx.repo.nextID++
	order.ID = tx.repo.nextID
	order.CreatedAt = time.Now()
	tx.orders = append(tx.orders, order)
	return order.ID, nil
}

func (tx *memoryTx) InsertLine(_ context.Context, line Line) (int64, error) {
	tx.repo.lineID++
	line.ID = tx.repo.lineID
	tx.lines = append(tx.lines, line)
	return line.ID, nil
}

func (tx *memoryTx) AppendAudit(_ context.Context, entry audit.Entry) error {
	tx.audits = append(tx.audits, entry)
	return nil
}

func TestCreateStartsInDraft(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubNumbers{})

	order, err := svc.Create(context.Background(), CreatePurchaseOrderRequest{
		VendorName: "Supplies Inc",
		Lines: []CreateLineRequest{
			{ProductName: "Paper", Quantity: 10.0, UnitPrice: 4.0},
			{Quantity: 2.0, UnitPrice: 15.0},
		},
	})
	require.NoError(t, err)

	require.Equal(t, StatusDraft, order.Status)
	require.Equal(t, "PO-TEST-0001", order.Number)
	require.InDelta(t, 70, order.TotalAmount, 1e-9)
	require.Len(t, order.Lines, 2)
	// an unnamed line falls back to the generic description
	require.Equal(t, "Item", order.Lines[1].Description)

	require.Len(t, repo.audits, 1)
	require.Equal(t, audit.ActionPurchaseOrderCreated, repo.audits[0].Action)
}

func TestCreateTotalMatchesLineSum(t *testing.T) {
	svc := NewService(newMemoryRepo(), &stubNumbers{})

	order, err := svc.Create(context.Background(), CreatePurchaseOrderRequest{
		VendorName: "Hooli",
		Lines: []CreateLineRequest{
			{Description: "Licenses", Quantity: "3", Price: "99.99"},
		},
	})
	require.NoError(t, err)

	require.InDelta(t, 299.97, order.TotalAmount, 1e-9)
	require.InDelta(t, order.Lines[0].Quantity*order.Lines[0].UnitPrice, order.Lines[0].Amount, 1e-6)
}

func TestCreateRequiresVendorAndLines(t *testing.T) {
	svc := NewService(newMemoryRepo(), &stubNumbers{})

	_, err := svc.Create(context.Background(), CreatePurchaseOrderRequest{VendorName: "X"})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), CreatePurchaseOrderRequest{
		Lines: []CreateLineRequest{{Quantity: 1.0, UnitPrice: 1.0}},
	})
	require.Error(t, err)
}

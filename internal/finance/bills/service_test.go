package bills

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oneflow-hq/oneflow/internal/finance/audit"
	"github.com/oneflow-hq/oneflow/internal/finance/purchaseorders"
)

type stubNumbers struct {
	n int
}

func (s *stubNumbers) Next(_ context.Context, prefix string) (string, error) {
	s.n++
	return fmt.Sprintf("%s-TEST-%04d", prefix, s.n), nil
}

type memoryRepo struct {
	orders map[int64]purchaseorders.PurchaseOrder
	bills  map[int64]VendorBill
	lines  map[int64][]Line
	audits []audit.Entry
	nextID int64
	lineID int64
}

type memoryTx struct {
	repo      *memoryRepo
	bills     []VendorBill
	lines     []Line
	billedPOs []int64
	audits    []audit.Entry
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders: make(map[int64]purchaseorders.PurchaseOrder),
		bills:  make(map[int64]VendorBill),
		lines:  make(map[int64][]Line),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTx{repo: r}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, b := range tx.bills {
		r.bills[b.ID] = b
	}
	for _, l := range tx.lines {
		r.lines[l.BillID] = append(r.lines[l.BillID], l)
	}
	for _, id := range tx.billedPOs {
		po := r.orders[id]
		po.Status = purchaseorders.StatusBilled
		r.orders[id] = po
	}
	r.audits = append(r.audits, tx.audits...)
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*VendorBill, error) {
	bill, ok := r.bills[id]
	if !ok {
		return nil, ErrNotFound
	}
	bill.Lines = append([]Line(nil), r.lines[id]...)
	return &bill, nil
}

func (r *memoryRepo) List(_ context.Context, req ListBillsRequest) ([]VendorBill, error) {
	var out []VendorBill
	for _, b := range r.bills {
		if req.Status != nil && b.Status != *req.Status {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (tx *memoryTx) GetPurchaseOrder(_ context.Context, id int64) (*purchaseorders.PurchaseOrder, error) {
	po, ok := tx.repo.orders[id]
	if !ok {
		return nil, purchaseorders.ErrNotFound
	}
	return &po, nil
}

func (tx *memoryTx) CountBillsByPO(_ context.Context, poID int64) (int, error) {
	count := 0
	for _, b := range tx.repo.bills {
		if b.SourcePoID != nil && *b.SourcePoID == poID {
			count++
		}
	}
	return count, nil
}

func (tx *memoryTx) MarkPurchaseOrderBilled(_ context.Context, id int64) error {
	tx.billedPOs = append(tx.billedPOs, id)
	return nil
}

func (tx *memoryTx) InsertBill(_ context.Context, bill VendorBill) (int64, error) {
	tx.repo.nextID++
	bill.ID = tx.repo.nextID
	bill.CreatedAt = time.Now()
	tx.bills = append(tx.bills, bill)
	return bill.ID, nil
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

func strPtr(s string) *string { return &s }

func seedPO(r *memoryRepo) {
	vendorID := int64(3)
	r.orders[5] = purchaseorders.PurchaseOrder{
		ID:          5,
		Number:      "PO-TEST-0042",
		VendorID:    &vendorID,
		VendorName:  strPtr("Supplies Inc"),
		Status:      purchaseorders.StatusPosted,
		TotalAmount: 130,
		Currency:    "EUR",
		Lines: []purchaseorders.Line{
			{ID: 1, PurchaseOrderID: 5, Description: "Paper", Quantity: 10, UnitPrice: 4, Amount: 40},
			{ID: 2, PurchaseOrderID: 5, Description: "Toner", Quantity: 2, UnitPrice: 45, Amount: 90},
		},
	}
}

func TestCreateFromPurchaseOrder(t *testing.T) {
	repo := newMemoryRepo()
	seedPO(repo)
	svc := NewService(repo, &stubNumbers{})

	bill, err := svc.CreateFromPurchaseOrder(context.Background(), 5, CreateFromPORequest{
		DueDate: "2026-10-01",
		Notes:   strPtr("net 30"),
	})
	require.NoError(t, err)

	require.Equal(t, "BILL-TEST-0001", bill.Number)
	require.Equal(t, StatusDraft, bill.Status)
	require.Equal(t, "EUR", bill.Currency)
	require.InDelta(t, 130, bill.TotalAmount, 1e-9)
	require.NotNil(t, bill.SourcePoID)
	require.Equal(t, int64(5), *bill.SourcePoID)
	require.Equal(t, "Supplies Inc", *bill.VendorName)
	require.NotNil(t, bill.DueDate)
	require.Equal(t, "2026-10-01", bill.DueDate.Format("2006-01-02"))

	// Snapshot-copied lines.
	require.Len(t, bill.Lines, 2)
	for i, src := range repo.orders[5].Lines {
		require.Equal(t, src.Description, bill.Lines[i].Description)
		require.InDelta(t, src.Quantity, bill.Lines[i].Quantity, 1e-9)
		require.InDelta(t, src.UnitPrice, bill.Lines[i].UnitPrice, 1e-9)
		require.InDelta(t, src.Amount, bill.Lines[i].Amount, 1e-9)
	}

	require.Equal(t, purchaseorders.StatusBilled, repo.orders[5].Status)
	require.Len(t, repo.audits, 1)
	require.Equal(t, audit.ActionVendorBillCreated, repo.audits[0].Action)
	require.Contains(t, repo.audits[0].Details, "PO-TEST-0042")
}

func TestCreateFromPurchaseOrderNotFound(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubNumbers{})

	_, err := svc.CreateFromPurchaseOrder(context.Background(), 404, CreateFromPORequest{})
	require.ErrorIs(t, err, ErrPurchaseOrderNotFound)

	// Short-circuits with no writes.
	require.Empty(t, repo.bills)
	require.Empty(t, repo.lines)
	require.Empty(t, repo.audits)
}

func TestCreateFromPurchaseOrderAtMostOnce(t *testing.T) {
	repo := newMemoryRepo()
	seedPO(repo)
	svc := NewService(repo, &stubNumbers{})

	_, err := svc.CreateFromPurchaseOrder(context.Background(), 5, CreateFromPORequest{})
	require.NoError(t, err)

	_, err = svc.CreateFromPurchaseOrder(context.Background(), 5, CreateFromPORequest{})
	require.ErrorIs(t, err, ErrAlreadyBilled)
	require.Len(t, repo.bills, 1)
}

func TestCreateFromPurchaseOrderCustomNumberAndCurrency(t *testing.T) {
	repo := newMemoryRepo()
	seedPO(repo)
	svc := NewService(repo, &stubNumbers{})

	bill, err := svc.CreateFromPurchaseOrder(context.Background(), 5, CreateFromPORequest{
		Number:   "BILL-EXT-77",
		Currency: "GBP",
	})
	require.NoError(t, err)
	require.Equal(t, "BILL-EXT-77", bill.Number)
	require.Equal(t, "GBP", bill.Currency)
	require.Nil(t, bill.DueDate)
}

func TestCreateFromPurchaseOrderRejectsBadDueDate(t *testing.T) {
	repo := newMemoryRepo()
	seedPO(repo)
	svc := NewService(repo, &stubNumbers{})

	_, err := svc.CreateFromPurchaseOrder(context.Background(), 5, CreateFromPORequest{DueDate: "01/10/2026"})
	require.ErrorIs(t, err, ErrInvalidDueDate)
	require.Empty(t, repo.bills)
}

package salesorders

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
	orders map[int64]SalesOrder
	lines  map[int64][]Line
	audits []audit.Entry
	nextID int64
	lineID int64
}

type memoryTx struct {
	repo   *memoryRepo
	orders []SalesOrder
	lines  []Line
	audits []audit.Entry
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders: make(map[int64]SalesOrder),
		lines:  make(map[int64][]Line),
	}
}

// WithTx stages writes and merges them only when fn succeeds, mirroring
// transaction rollback.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTx{repo: r}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, o := range tx.orders {
		r.orders[o.ID] = o
	}
	for _, l := range tx.lines {
		r.lines[l.SalesOrderID] = append(r.lines[l.SalesOrderID], l)
	}
	r.audits = append(r.audits, tx.audits...)
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*SalesOrder, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	order.Lines = append([]Line(nil), r.lines[id]...)
	return &order, nil
}

func (r *memoryRepo) List(_ context.Context, req ListSalesOrdersRequest) ([]SalesOrder, error) {
	var out []SalesOrder
	for _, o := range r.orders {
		if req.Status != nil && o.Status != *req.Status {
			continue
		}
		if req.ProjectID != nil && (o.ProjectID == nil || *o.ProjectID != *req.ProjectID) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (tx *memoryTx) Insert(_ context.Context, order SalesOrder) (int64, error) {
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

func TestCreateComputesTotalsAndPosts(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubNumbers{})

	order, err := svc.Create(context.Background(), CreateSalesOrderRequest{
		CustomerName: "Acme",
		Lines: []CreateLineRequest{
			{ProductName: "Widget", Quantity: 3.0, UnitPrice: 10.0},
		},
	})
	require.NoError(t, err)

	require.Equal(t, StatusPosted, order.Status)
	require.Equal(t, "SO-TEST-0001", order.Number)
	require.InDelta(t, 30, order.TotalAmount, 1e-9)
	require.Len(t, order.Lines, 1)
	require.Equal(t, "Widget", order.Lines[0].Description)
	require.InDelta(t, 30, order.Lines[0].Amount, 1e-9)
	require.Equal(t, "USD", order.Currency)

	require.Len(t, repo.audits, 1)
	require.Equal(t, audit.ActionSalesOrderCreated, repo.audits[0].Action)
	require.Equal(t, audit.EntitySalesOrder, repo.audits[0].EntityType)
}

func TestCreateTotalMatchesLineSum(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubNumbers{})

	order, err := svc.Create(context.Background(), CreateSalesOrderRequest{
		CustomerName: "Globex",
		Currency:     "EUR",
		Lines: []CreateLineRequest{
			{Description: "Design", Quantity: 2.0, UnitPrice: 50.0},
			{Name: "Build", Quantity: 1.0, UnitPrice: 75.0},
		},
	})
	require.NoError(t, err)

	var sum float64
	for _, l := range order.Lines {
		require.InDelta(t, l.Quantity*l.UnitPrice, l.Amount, 1e-9)
		sum += l.Amount
	}
	require.InDelta(t, sum, order.TotalAmount, 1e-9)
	require.InDelta(t, 175, order.TotalAmount, 1e-9)
	require.Equal(t, "EUR", order.Currency)
}

func TestCreateNormalizesStringNumbers(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubNumbers{})

	order, err := svc.Create(context.Background(), CreateSalesOrderRequest{
		CustomerName: "Initech",
		Lines: []CreateLineRequest{
			// quantity as a numeric string, price under the legacy key
			{Quantity: "4", Price: "2.50"},
		},
	})
	require.NoError(t, err)

	require.Equal(t, "Unknown", order.Lines[0].Description)
	require.InDelta(t, 10, order.TotalAmount, 1e-9)
}

func TestCreateDefaultsBadNumbersToZero(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &stubNumbers{})

	order, err := svc.Create(context.Background(), CreateSalesOrderRequest{
		CustomerName: "Umbrella",
		Lines: []CreateLineRequest{
			{Description: "Mystery", Quantity: "many", UnitPrice: nil},
		},
	})
	require.NoError(t, err)
	require.InDelta(t, 0, order.TotalAmount, 1e-9)
}

func TestCreateRejectsMissingLines(t *testing.T) {
	svc := NewService(newMemoryRepo(), &stubNumbers{})

	_, err := svc.Create(context.Background(), CreateSalesOrderRequest{CustomerName: "Acme"})
	require.Error(t, err)
}

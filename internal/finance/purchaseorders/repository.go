package purchaseorders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oneflow-hq/oneflow/internal/finance/audit"
	"github.com/oneflow-hq/oneflow/internal/finance/money"
	"github.com/oneflow-hq/oneflow/internal/platform/db"
)

// ErrNotFound indicates the requested order does not exist.
var ErrNotFound = errors.New("purchase order not found")

// Repository defines purchase-order data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*PurchaseOrder, error)
	List(ctx context.Context, req ListPurchaseOrdersRequest) ([]PurchaseOrder, error)
}

// TxRepository defines the write operations available inside a transaction.
type TxRepository interface {
	Insert(ctx context.Context, order PurchaseOrder) (int64, error)
	InsertLine(ctx context.Context, line Line) (int64, error)
	AppendAudit(ctx context.Context, entry audit.Entry) error
}

var (
	_ Repository   = (*pgRepository)(nil)
	_ TxRepository = (*pgTxRepository)(nil)
)

type pgRepository struct {
	pool *pgxpool.Pool
}

type pgTxRepository struct {
	tx pgx.Tx
}

// NewRepository constructs a Repository over pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

func (r *pgRepository) Get(ctx context.Context, id int64) (*PurchaseOrder, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT id, number, project_id, vendor_id, vendor_name, status, total_amount, currency, created_at
		 FROM purchase_orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, po_id, product_id, description, quantity, unit_price, amount
		 FROM purchase_order_lines WHERE po_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *pgRepository) List(ctx context.Context, req ListPurchaseOrdersRequest) ([]PurchaseOrder, error) {
	query := `SELECT id, number, project_id, vendor_id, vendor_name, status, total_amount, currency, created_at
		 FROM purchase_orders WHERE 1=1`
	var args []any
	argPos := 1

	if req.ProjectID != nil {
		query += fmt.Sprintf(" AND project_id = $%d", argPos)
		args = append(args, *req.ProjectID)
		argPos++
	}
	if req.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, string(*req.Status))
		argPos++
	}
	query += " ORDER BY created_at DESC"
	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, req.Limit)
		argPos++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, req.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []PurchaseOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

func (tx *pgTxRepository) Insert(ctx context.Context, order PurchaseOrder) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx,
		`INSERT INTO purchase_orders (number, project_id, vendor_id, vendor_name, status, total_amount, currency, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 RETURNING id`,
		order.Number, order.ProjectID, order.VendorID, order.VendorName,
		string(order.Status), order.TotalAmount, order.Currency).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (tx *pgTxRepository) InsertLine(ctx context.Context, line Line) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx,
		`INSERT INTO purchase_order_lines (po_id, product_id, description, quantity, unit_price, amount)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		line.PurchaseOrderID, line.ProductID, line.Description,
		line.Quantity, line.UnitPrice, line.Amount).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (tx *pgTxRepository) AppendAudit(ctx context.Context, entry audit.Entry) error {
	return audit.Append(ctx, tx.tx, entry)
}

func scanOrder(row pgx.Row) (*PurchaseOrder, error) {
	var (
		o      PurchaseOrder
		status string
		total  pgtype.Numeric
	)
	if err := row.Scan(&o.ID, &o.Number, &o.ProjectID, &o.VendorID, &o.VendorName,
		&status, &total, &o.Currency, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Status = Status(status)
	o.TotalAmount = money.ToNumber(total)
	return &o, nil
}

func scanLine(row pgx.Row) (Line, error) {
	var (
		l         Line
		qty       pgtype.Numeric
		unitPrice pgtype.Numeric
		amount    pgtype.Numeric
	)
	if err := row.Scan(&l.ID, &l.PurchaseOrderID, &l.ProductID, &l.Description,
		&qty, &unitPrice, &amount); err != nil {
		return Line{}, err
	}
	l.Quantity = money.ToNumber(qty)
	l.UnitPrice = money.ToNumber(unitPrice)
	l.Amount = money.ToNumber(amount)
	return l, nil
}

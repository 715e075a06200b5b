package salesorders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oneflow-hq/oneflow/internal/finance/audit"
	"github.com/oneflow-hq/oneflow/internal/finance/money"
	"github.com/oneflow-hq/oneflow/internal/platform/db"
)

// ErrNotFound indicates the requested order does not exist.
var ErrNotFound = errors.New("sales order not found")

// Repository defines sales-order data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*SalesOrder, error)
	List(ctx context.Context, req ListSalesOrdersRequest) ([]SalesOrder, error)
}

// TxRepository defines the write operations available inside a transaction.
type TxRepository interface {
	Insert(ctx context.Context, order SalesOrder) (int64, error)
	InsertLine(ctx context.Context, line Line) (int64, error)
	AppendAudit(ctx context.Context, entry audit.Entry) error
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
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

func (r *pgRepository) Get(ctx context.Context, id int64) (*SalesOrder, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT id, number, project_id, customer_id, customer_name, status, total_amount, currency, created_at
		 FROM sales_orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := loadLines(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	order.Lines = lines
	return order, nil
}

func (r *pgRepository) List(ctx context.Context, req ListSalesOrdersRequest) ([]SalesOrder, error) {
	query := `SELECT id, number, project_id, customer_id, customer_name, status, total_amount, currency, created_at
		 FROM sales_orders WHERE 1=1`
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

	var orders []SalesOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

func (tx *pgTxRepository) Insert(ctx context.Context, order SalesOrder) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx,
		`INSERT INTO sales_orders (number, project_id, customer_id, customer_name, status, total_amount, currency, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 RETURNING id`,
		order.Number, order.ProjectID, order.CustomerID, order.CustomerName,
		string(order.Status), order.TotalAmount, order.Currency).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (tx *pgTxRepository) InsertLine(ctx context.Context, line Line) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx,
		`INSERT INTO sales_order_lines (so_id, product_id, description, quantity, unit_price, amount)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		line.SalesOrderID, line.ProductID, line.Description,
		line.Quantity, line.UnitPrice, line.Amount).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (tx *pgTxRepository) AppendAudit(ctx context.Context, entry audit.Entry) error {
	return audit.Append(ctx, tx.tx, entry)
}

func scanOrder(row pgx.Row) (*SalesOrder, error) {
	var (
		o      SalesOrder
		status string
		total  pgtype.Numeric
	)
	if err := row.Scan(&o.ID, &o.Number, &o.ProjectID, &o.CustomerID, &o.CustomerName,
		&status, &total, &o.Currency, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Status = Status(status)
	o.TotalAmount = money.ToNumber(total)
	return &o, nil
}

func loadLines(ctx context.Context, q dbtx, orderID int64) ([]Line, error) {
	rows, err := q.Query(ctx,
		`SELECT id, so_id, product_id, description, quantity, unit_price, amount
		 FROM sales_order_lines WHERE so_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var (
			l         Line
			qty       pgtype.Numeric
			unitPrice pgtype.Numeric
			amount    pgtype.Numeric
		)
		if err := rows.Scan(&l.ID, &l.SalesOrderID, &l.ProductID, &l.Description,
			&qty, &unitPrice, &amount); err != nil {
			return nil, err
		}
		l.Quantity = money.ToNumber(qty)
		l.UnitPrice = money.ToNumber(unitPrice)
		l.Amount = money.ToNumber(amount)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

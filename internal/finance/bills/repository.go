package bills

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oneflow-hq/oneflow/internal/finance/audit"
	"github.com/oneflow-hq/oneflow/internal/finance/money"
	"github.com/oneflow-hq/oneflow/internal/finance/purchaseorders"
	"github.com/oneflow-hq/oneflow/internal/platform/db"
)

// ErrNotFound indicates the requested bill does not exist.
var ErrNotFound = errors.New("vendor bill not found")

// Repository defines vendor-bill data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*VendorBill, error)
	List(ctx context.Context, req ListBillsRequest) ([]VendorBill, error)
}

// TxRepository defines the operations available inside a derivation
// transaction, spanning the bill tables and the source purchase order.
type TxRepository interface {
	GetPurchaseOrder(ctx context.Context, id int64) (*purchaseorders.PurchaseOrder, error)
	CountBillsByPO(ctx context.Context, poID int64) (int, error)
	MarkPurchaseOrderBilled(ctx context.Context, id int64) error

	InsertBill(ctx context.Context, bill VendorBill) (int64, error)
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

const billColumns = `id, number, project_id, source_po_id, vendor_id, vendor_name, status, total_amount, currency, due_date, notes, created_at`

func (r *pgRepository) Get(ctx context.Context, id int64) (*VendorBill, error) {
	bill, err := scanBill(r.pool.QueryRow(ctx,
		`SELECT `+billColumns+` FROM vendor_bills WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, bill_id, description, quantity, unit_price, amount
		 FROM bill_lines WHERE bill_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l         Line
			qty       pgtype.Numeric
			unitPrice pgtype.Numeric
			amount    pgtype.Numeric
		)
		if err := rows.Scan(&l.ID, &l.BillID, &l.Description, &qty, &unitPrice, &amount); err != nil {
			return nil, err
		}
		l.Quantity = money.ToNumber(qty)
		l.UnitPrice = money.ToNumber(unitPrice)
		l.Amount = money.ToNumber(amount)
		bill.Lines = append(bill.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bill, nil
}

func (r *pgRepository) List(ctx context.Context, req ListBillsRequest) ([]VendorBill, error) {
	query := `SELECT ` + billColumns + ` FROM vendor_bills WHERE 1=1`
	var args []any
	argPos := 1

	if req.ProjectID != nil {
		query += fmt.Sprintf(" AND project_id = $%d", argPos)
		args = append(args, *req.ProjectID)
		argPos++
	}
	if req.VendorID != nil {
		query += fmt.Sprintf(" AND vendor_id = $%d", argPos)
		args = append(args, *req.VendorID)
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

	var out []VendorBill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *bill)
	}
	return out, rows.Err()
}

func (tx *pgTxRepository) GetPurchaseOrder(ctx context.Context, id int64) (*purchaseorders.PurchaseOrder, error) {
	var (
		o      purchaseorders.PurchaseOrder
		status string
		total  pgtype.Numeric
	)
	err := tx.tx.QueryRow(ctx,
		`SELECT id, number, project_id, vendor_id, vendor_name, status, total_amount, currency, created_at
		 FROM purchase_orders WHERE id = $1`, id).
		Scan(&o.ID, &o.Number, &o.ProjectID, &o.VendorID, &o.VendorName,
			&status, &total, &o.Currency, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, purchaseorders.ErrNotFound
		}
		return nil, err
	}
	o.Status = purchaseorders.Status(status)
	o.TotalAmount = money.ToNumber(total)

	rows, err := tx.tx.Query(ctx,
		`SELECT id, po_id, product_id, description, quantity, unit_price, amount
		 FROM purchase_order_lines WHERE po_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l         purchaseorders.Line
			qty       pgtype.Numeric
			unitPrice pgtype.Numeric
			amount    pgtype.Numeric
		)
		if err := rows.Scan(&l.ID, &l.PurchaseOrderID, &l.ProductID, &l.Description,
			&qty, &unitPrice, &amount); err != nil {
			return nil, err
		}
		l.Quantity = money.ToNumber(qty)
		l.UnitPrice = money.ToNumber(unitPrice)
		l.Amount = money.ToNumber(amount)
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (tx *pgTxRepository) CountBillsByPO(ctx context.Context, poID int64) (int, error) {
	var count int
	err := tx.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM vendor_bills WHERE source_po_id = $1`, poID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (tx *pgTxRepository) MarkPurchaseOrderBilled(ctx context.Context, id int64) error {
	_, err := tx.tx.Exec(ctx,
		`UPDATE purchase_orders SET status = $1 WHERE id = $2`,
		string(purchaseorders.StatusBilled), id)
	return err
}

func (tx *pgTxRepository) InsertBill(ctx context.Context, bill VendorBill) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx,
		`INSERT INTO vendor_bills (number, project_id, source_po_id, vendor_id, vendor_name, status, total_amount, currency, due_date, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		 RETURNING id`,
		bill.Number, bill.ProjectID, bill.SourcePoID, bill.VendorID, bill.VendorName,
		string(bill.Status), bill.TotalAmount, bill.Currency, bill.DueDate, bill.Notes).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (tx *pgTxRepository) InsertLine(ctx context.Context, line Line) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx,
		`INSERT INTO bill_lines (bill_id, description, quantity, unit_price, amount)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		line.BillID, line.Description, line.Quantity, line.UnitPrice, line.Amount).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (tx *pgTxRepository) AppendAudit(ctx context.Context, entry audit.Entry) error {
	return audit.Append(ctx, tx.tx, entry)
}

func scanBill(row pgx.Row) (*VendorBill, error) {
	var (
		b      VendorBill
		status string
		total  pgtype.Numeric
	)
	if err := row.Scan(&b.ID, &b.Number, &b.ProjectID, &b.SourcePoID, &b.VendorID,
		&b.VendorName, &status, &total, &b.Currency, &b.DueDate, &b.Notes, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Status = Status(status)
	b.TotalAmount = money.ToNumber(total)
	return &b, nil
}

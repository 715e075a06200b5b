package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oneflow-hq/oneflow/internal/finance/audit"
	"github.com/oneflow-hq/oneflow/internal/finance/money"
	"github.com/oneflow-hq/oneflow/internal/finance/salesorders"
	"github.com/oneflow-hq/oneflow/internal/finance/timesheets"
	"github.com/oneflow-hq/oneflow/internal/platform/db"
)

// ErrNotFound indicates the requested invoice does not exist.
var ErrNotFound = errors.New("invoice not found")

// Repository defines customer-invoice data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]Invoice, error)
}

// TxRepository defines the operations available inside a derivation
// transaction. It spans the invoice tables plus the source rows the engine
// validates and marks, so a derivation is a single unit of work.
type TxRepository interface {
	// LockTimesheets loads the timesheets whose id is in ids and whose
	// project matches projectID, taking row locks so the validate-and-mark
	// sequence cannot race a concurrent derivation.
	LockTimesheets(ctx context.Context, projectID int64, ids []int64) ([]timesheets.Timesheet, error)
	MarkTimesheetsInvoiced(ctx context.Context, ids []int64, invoiceID int64) error

	GetSalesOrder(ctx context.Context, id int64) (*salesorders.SalesOrder, error)
	MarkSalesOrderPosted(ctx context.Context, id int64) error

	InsertInvoice(ctx context.Context, inv Invoice) (int64, error)
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

const invoiceColumns = `id, number, project_id, source_so_id, status, total_amount, currency, due_date, notes, created_at`

func (r *pgRepository) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM customer_invoices WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, invoice_id, description, quantity, unit_price, amount, timesheet_id, expense_id
		 FROM invoice_lines WHERE invoice_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *pgRepository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM customer_invoices WHERE 1=1`
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

	return r.queryInvoices(ctx, query, args...)
}

func (r *pgRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	return r.queryInvoices(ctx,
		`SELECT `+invoiceColumns+` FROM customer_invoices
		 WHERE status = $1 AND due_date IS NOT NULL AND due_date < $2
		 ORDER BY due_date`, string(StatusPosted), asOf)
}

func (r *pgRepository) queryInvoices(ctx context.Context, query string, args ...any) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (tx *pgTxRepository) LockTimesheets(ctx context.Context, projectID int64, ids []int64) ([]timesheets.Timesheet, error) {
	rows, err := tx.tx.Query(ctx,
		`SELECT t.id, t.project_id, t.user_id, t.task_id, tk.title, t.work_date, t.duration_hours,
		        t.hourly_rate, t.amount, t.status, t.invoiced, t.invoice_id, t.notes, t.created_at, t.updated_at
		 FROM timesheets t
		 LEFT JOIN tasks tk ON tk.id = t.task_id
		 WHERE t.id = ANY($1) AND t.project_id = $2
		 ORDER BY t.id
		 FOR UPDATE OF t`, ids, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []timesheets.Timesheet
	for rows.Next() {
		var (
			ts       timesheets.Timesheet
			status   string
			duration pgtype.Numeric
			rate     pgtype.Numeric
			amount   pgtype.Numeric
		)
		if err := rows.Scan(&ts.ID, &ts.ProjectID, &ts.UserID, &ts.TaskID, &ts.TaskTitle,
			&ts.WorkDate, &duration, &rate, &amount, &status, &ts.Invoiced, &ts.InvoiceID,
			&ts.Notes, &ts.CreatedAt, &ts.UpdatedAt); err != nil {
			return nil, err
		}
		ts.Status = timesheets.Status(status)
		ts.DurationHours = money.ToNumber(duration)
		ts.HourlyRate = money.ToNumber(rate)
		ts.Amount = money.ToNumber(amount)
		result = append(result, ts)
	}
	return result, rows.Err()
}

func (tx *pgTxRepository) MarkTimesheetsInvoiced(ctx context.Context, ids []int64, invoiceID int64) error {
	_, err := tx.tx.Exec(ctx,
		`UPDATE timesheets SET invoiced = TRUE, invoice_id = $1, updated_at = NOW() WHERE id = ANY($2)`,
		invoiceID, ids)
	return err
}

func (tx *pgTxRepository) GetSalesOrder(ctx context.Context, id int64) (*salesorders.SalesOrder, error) {
	var (
		o      salesorders.SalesOrder
		status string
		total  pgtype.Numeric
	)
	err := tx.tx.QueryRow(ctx,
		`SELECT id, number, project_id, customer_id, customer_name, status, total_amount, currency, created_at
		 FROM sales_orders WHERE id = $1`, id).
		Scan(&o.ID, &o.Number, &o.ProjectID, &o.CustomerID, &o.CustomerName,
			&status, &total, &o.Currency, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, salesorders.ErrNotFound
		}
		return nil, err
	}
	o.Status = salesorders.Status(status)
	o.TotalAmount = money.ToNumber(total)

	rows, err := tx.tx.Query(ctx,
		`SELECT id, so_id, product_id, description, quantity, unit_price, amount
		 FROM sales_order_lines WHERE so_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l         salesorders.Line
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
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (tx *pgTxRepository) MarkSalesOrderPosted(ctx context.Context, id int64) error {
	_, err := tx.tx.Exec(ctx,
		`UPDATE sales_orders SET status = $1 WHERE id = $2`,
		string(salesorders.StatusPosted), id)
	return err
}

func (tx *pgTxRepository) InsertInvoice(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx,
		`INSERT INTO customer_invoices (number, project_id, source_so_id, status, total_amount, currency, due_date, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		 RETURNING id`,
		inv.Number, inv.ProjectID, inv.SourceSoID, string(inv.Status),
		inv.TotalAmount, inv.Currency, inv.DueDate, inv.Notes).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (tx *pgTxRepository) InsertLine(ctx context.Context, line Line) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx,
		`INSERT INTO invoice_lines (invoice_id, description, quantity, unit_price, amount, timesheet_id, expense_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		line.InvoiceID, line.Description, line.Quantity, line.UnitPrice,
		line.Amount, line.TimesheetID, line.ExpenseID).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (tx *pgTxRepository) AppendAudit(ctx context.Context, entry audit.Entry) error {
	return audit.Append(ctx, tx.tx, entry)
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv    Invoice
		status string
		total  pgtype.Numeric
	)
	if err := row.Scan(&inv.ID, &inv.Number, &inv.ProjectID, &inv.SourceSoID, &status,
		&total, &inv.Currency, &inv.DueDate, &inv.Notes, &inv.CreatedAt); err != nil {
		return nil, err
	}
	inv.Status = Status(status)
	inv.TotalAmount = money.ToNumber(total)
	return &inv, nil
}

func scanLine(row pgx.Row) (Line, error) {
	var (
		l         Line
		qty       pgtype.Numeric
		unitPrice pgtype.Numeric
		amount    pgtype.Numeric
	)
	if err := row.Scan(&l.ID, &l.InvoiceID, &l.Description, &qty, &unitPrice, &amount,
		&l.TimesheetID, &l.ExpenseID); err != nil {
		return Line{}, err
	}
	l.Quantity = money.ToNumber(qty)
	l.UnitPrice = money.ToNumber(unitPrice)
	l.Amount = money.ToNumber(amount)
	return l, nil
}

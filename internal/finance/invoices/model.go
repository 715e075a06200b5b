package invoices

import "time"

// Status enumerates customer-invoice states.
type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusPosted Status = "POSTED"
	StatusPaid   Status = "PAID"
	StatusVoid   Status = "VOID"
)

// Invoice is a customer invoice header with its owned lines. SourceSoID is a
// weak back-reference kept for traceability when the invoice was derived
// from a sales order.
type Invoice struct {
	ID          int64      `json:"id"`
	Number      string     `json:"number"`
	ProjectID   *int64     `json:"project_id,omitempty"`
	SourceSoID  *int64     `json:"source_so_id,omitempty"`
	Status      Status     `json:"status"`
	TotalAmount float64    `json:"total_amount"`
	Currency    string     `json:"currency"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Lines       []Line     `json:"lines,omitempty"`
}

// Line is an invoice line item. TimesheetID is set when the line was derived
// from a timesheet; ExpenseID may be set on manually built invoices. Values
// are snapshots: later changes to the source never alter the line.
type Line struct {
	ID          int64   `json:"id"`
	InvoiceID   int64   `json:"invoice_id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
	TimesheetID *int64  `json:"timesheet_id,omitempty"`
	ExpenseID   *int64  `json:"expense_id,omitempty"`
}

// TimesheetInvoiceResult is returned by CreateFromTimesheets.
type TimesheetInvoiceResult struct {
	Invoice            *Invoice `json:"invoice"`
	TimesheetsInvoiced int      `json:"timesheets_invoiced"`
}

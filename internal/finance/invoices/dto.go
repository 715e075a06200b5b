package invoices

import "time"

// CreateFromTimesheetsRequest selects approved, uninvoiced timesheets on one
// project for invoicing.
type CreateFromTimesheetsRequest struct {
	ProjectID    int64   `json:"project_id" validate:"required,gt=0"`
	TimesheetIDs []int64 `json:"timesheet_ids" validate:"required,min=1,dive,gt=0"`
}

// ManualInvoiceRequest is the trusted manual path: the caller supplies a
// pre-built invoice, typically after editing tax or discounts client-side.
// Line values are copied verbatim with no recomputation.
type ManualInvoiceRequest struct {
	Number       string              `json:"number,omitempty"`
	ProjectID    *int64              `json:"project_id,omitempty"`
	SourceSoID   *int64              `json:"source_so_id,omitempty"`
	CustomerName *string             `json:"customer_name,omitempty"`
	TotalAmount  any                 `json:"total_amount,omitempty"`
	Currency     string              `json:"currency,omitempty" validate:"omitempty,len=3"`
	DueDate      *time.Time          `json:"due_date,omitempty"`
	Lines        []ManualLineRequest `json:"invoice_lines" validate:"required,min=1,dive"`
}

// ManualLineRequest is one caller-built invoice line.
type ManualLineRequest struct {
	Description string `json:"description" validate:"required"`
	Quantity    any    `json:"quantity"`
	UnitPrice   any    `json:"unit_price"`
	Amount      any    `json:"amount"`
	TimesheetID *int64 `json:"timesheet_id,omitempty"`
	ExpenseID   *int64 `json:"expense_id,omitempty"`
}

// ListInvoicesRequest filters invoice listings.
type ListInvoicesRequest struct {
	ProjectID *int64  `json:"project_id,omitempty"`
	Status    *Status `json:"status,omitempty"`
	Limit     int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int     `json:"offset" validate:"gte=0"`
}

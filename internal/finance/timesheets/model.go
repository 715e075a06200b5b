// Package timesheets holds the project work-log models the finance engines
// read. Timesheet approval and CRUD live outside the finance core; invoicing
// only selects approved rows and marks them invoiced.
package timesheets

import "time"

// Status enumerates timesheet workflow states.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// Timesheet is a billable unit of project work. Invariant: Invoiced implies
// a non-nil InvoiceID, and an invoiced timesheet is never selected for
// invoicing again.
type Timesheet struct {
	ID            int64      `json:"id"`
	ProjectID     int64      `json:"project_id"`
	UserID        int64      `json:"user_id"`
	TaskID        *int64     `json:"task_id,omitempty"`
	TaskTitle     *string    `json:"task_title,omitempty"`
	WorkDate      time.Time  `json:"work_date"`
	DurationHours float64    `json:"duration_hours"`
	HourlyRate    float64    `json:"hourly_rate"`
	Amount        float64    `json:"amount"`
	Status        Status     `json:"status"`
	Invoiced      bool       `json:"invoiced"`
	InvoiceID     *int64     `json:"invoice_id,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Expense is a project expense. The current design has no expense-to-invoice
// derivation rule; expenses feed project rollups only and invoice lines may
// reference them on the manual path.
type Expense struct {
	ID         int64     `json:"id"`
	ProjectID  int64     `json:"project_id"`
	UserID     int64     `json:"user_id"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Category   string    `json:"category"`
	Billable   bool      `json:"billable"`
	Approved   bool      `json:"approved"`
	Reimbursed bool      `json:"reimbursed"`
	Date       time.Time `json:"date"`
}

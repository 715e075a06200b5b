package bills

import "time"

// Status enumerates vendor-bill states.
type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusPosted Status = "POSTED"
	StatusPaid   Status = "PAID"
	StatusVoid   Status = "VOID"
)

// VendorBill is a payable bill header with its owned lines. SourcePoID is a
// weak back-reference to the purchase order it was derived from; a purchase
// order has at most one bill.
type VendorBill struct {
	ID          int64      `json:"id"`
	Number      string     `json:"number"`
	ProjectID   *int64     `json:"project_id,omitempty"`
	SourcePoID  *int64     `json:"source_po_id,omitempty"`
	VendorID    *int64     `json:"vendor_id,omitempty"`
	VendorName  *string    `json:"vendor_name,omitempty"`
	Status      Status     `json:"status"`
	TotalAmount float64    `json:"total_amount"`
	Currency    string     `json:"currency"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Lines       []Line     `json:"lines,omitempty"`
}

// Line is a vendor-bill line item, a snapshot of a purchase-order line.
type Line struct {
	ID          int64   `json:"id"`
	BillID      int64   `json:"bill_id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

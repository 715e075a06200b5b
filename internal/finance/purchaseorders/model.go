package purchaseorders

import "time"

// Status enumerates purchase-order states. BILLED is a dedicated state set
// when a vendor bill is derived from the order, so POSTED is never reused as
// a proxy marker.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPosted    Status = "POSTED"
	StatusBilled    Status = "BILLED"
	StatusCancelled Status = "CANCELLED"
)

// PurchaseOrder is a vendor order header with its owned lines.
type PurchaseOrder struct {
	ID          int64     `json:"id"`
	Number      string    `json:"number"`
	ProjectID   *int64    `json:"project_id,omitempty"`
	VendorID    *int64    `json:"vendor_id,omitempty"`
	VendorName  *string   `json:"vendor_name,omitempty"`
	Status      Status    `json:"status"`
	TotalAmount float64   `json:"total_amount"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	Lines       []Line    `json:"lines,omitempty"`
}

// Line is a purchase-order line item.
type Line struct {
	ID              int64   `json:"id"`
	PurchaseOrderID int64   `json:"purchase_order_id"`
	ProductID       *int64  `json:"product_id,omitempty"`
	Description     string  `json:"description"`
	Quantity        float64 `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	Amount          float64 `json:"amount"`
}

package salesorders

import "time"

// Status enumerates sales-order states.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPosted    Status = "POSTED"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// SalesOrder is a customer order header with its owned lines.
type SalesOrder struct {
	ID           int64     `json:"id"`
	Number       string    `json:"number"`
	ProjectID    *int64    `json:"project_id,omitempty"`
	CustomerID   *int64    `json:"customer_id,omitempty"`
	CustomerName *string   `json:"customer_name,omitempty"`
	Status       Status    `json:"status"`
	TotalAmount  float64   `json:"total_amount"`
	Currency     string    `json:"currency"`
	CreatedAt    time.Time `json:"created_at"`
	Lines        []Line    `json:"lines,omitempty"`
}

// Line is a sales-order line item. Amount is always quantity times unit
// price, computed once at creation.
type Line struct {
	ID           int64   `json:"id"`
	SalesOrderID int64   `json:"sales_order_id"`
	ProductID    *int64  `json:"product_id,omitempty"`
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	Amount       float64 `json:"amount"`
}

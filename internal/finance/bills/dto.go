package bills

// CreateFromPORequest carries the optional overrides for a bill derived from
// a purchase order. DueDate uses the 2006-01-02 layout when present.
type CreateFromPORequest struct {
	Number   string  `json:"number,omitempty"`
	DueDate  string  `json:"due_date,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	Currency string  `json:"currency,omitempty" validate:"omitempty,len=3"`
}

// ListBillsRequest filters bill listings.
type ListBillsRequest struct {
	ProjectID *int64  `json:"project_id,omitempty"`
	VendorID  *int64  `json:"vendor_id,omitempty"`
	Status    *Status `json:"status,omitempty"`
	Limit     int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int     `json:"offset" validate:"gte=0"`
}

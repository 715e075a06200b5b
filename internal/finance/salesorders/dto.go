package salesorders

// CreateSalesOrderRequest carries a new order header plus raw lines. Line
// quantities and prices arrive as arbitrary JSON values (numbers or numeric
// strings) and are normalized before any arithmetic.
type CreateSalesOrderRequest struct {
	ProjectID    *int64                  `json:"project_id,omitempty"`
	CustomerID   *int64                  `json:"customer_id,omitempty"`
	CustomerName string                  `json:"customer_name" validate:"required,max=200"`
	Currency     string                  `json:"currency,omitempty" validate:"omitempty,len=3"`
	Lines        []CreateLineRequest     `json:"lines" validate:"required,min=1,dive"`
}

// CreateLineRequest is one raw order line. The first non-empty of
// ProductName, Description and Name becomes the line description.
type CreateLineRequest struct {
	ProductID   *int64 `json:"product_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	Description string `json:"description,omitempty"`
	Name        string `json:"name,omitempty"`
	Quantity    any    `json:"quantity"`
	UnitPrice   any    `json:"unit_price,omitempty"`
	Price       any    `json:"price,omitempty"`
}

// DisplayName returns the line description, falling back to def.
func (r CreateLineRequest) DisplayName(def string) string {
	switch {
	case r.ProductName != "":
		return r.ProductName
	case r.Description != "":
		return r.Description
	case r.Name != "":
		return r.Name
	default:
		return def
	}
}

// RawUnitPrice returns the unit price value, preferring UnitPrice over the
// legacy Price field.
func (r CreateLineRequest) RawUnitPrice() any {
	if r.UnitPrice != nil {
		return r.UnitPrice
	}
	return r.Price
}

// ListSalesOrdersRequest filters order listings.
type ListSalesOrdersRequest struct {
	ProjectID *int64  `json:"project_id,omitempty"`
	Status    *Status `json:"status,omitempty"`
	Limit     int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int     `json:"offset" validate:"gte=0"`
}

// Package audit appends immutable audit-log rows for document actions.
// Entries are written through the caller's transaction so they commit or
// roll back together with the documents they describe. Rows are never
// updated or deleted.
package audit

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Actions recorded by the finance engines.
const (
	ActionInvoiceCreated       = "INVOICE_CREATED"
	ActionVendorBillCreated    = "VENDOR_BILL_CREATED"
	ActionSalesOrderCreated    = "SALES_ORDER_CREATED"
	ActionPurchaseOrderCreated = "PURCHASE_ORDER_CREATED"
)

// Entity types referenced by audit entries.
const (
	EntityCustomerInvoice = "CUSTOMER_INVOICE"
	EntityVendorBill      = "VENDOR_BILL"
	EntitySalesOrder      = "SALES_ORDER"
	EntityPurchaseOrder   = "PURCHASE_ORDER"
)

// Entry is a single audit-log row.
type Entry struct {
	Action     string
	EntityType string
	EntityID   int64
	Details    string
}

// DBTX is the minimal execution surface Append needs. Both pgxpool.Pool and
// pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Append persists e through db.
func Append(ctx context.Context, db DBTX, e Entry) error {
	if e.Action == "" || e.EntityType == "" {
		return errors.New("audit: entry requires action and entity type")
	}
	_, err := db.Exec(ctx,
		`INSERT INTO audit_logs (action, entity_type, entity_id, details, created_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		e.Action, e.EntityType, e.EntityID, e.Details)
	return err
}

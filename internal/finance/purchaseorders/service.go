package purchaseorders

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/oneflow-hq/oneflow/internal/finance/audit"
	"github.com/oneflow-hq/oneflow/internal/finance/docnum"
	"github.com/oneflow-hq/oneflow/internal/finance/money"
	"github.com/oneflow-hq/oneflow/internal/platform/db"
	"github.com/oneflow-hq/oneflow/internal/platform/httpx"
)

const defaultLineDescription = "Item"

// Service implements the purchase-order engine.
type Service struct {
	repo     Repository
	numbers  docnum.Generator
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repository, numbers docnum.Generator) *Service {
	return &Service{
		repo:     repo,
		numbers:  numbers,
		validate: validator.New(),
	}
}

// Create persists a new purchase order with its lines inside one transaction
// and returns the persisted aggregate. Purchase orders start in DRAFT.
func (s *Service) Create(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrder, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	number, err := s.numbers.Next(ctx, "PO")
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}

	var total float64
	lines := make([]Line, 0, len(req.Lines))
	for _, raw := range req.Lines {
		qty := money.ToNumber(raw.Quantity)
		price := money.ToNumber(raw.RawUnitPrice())
		amount := money.Round2(qty * price)
		total += amount

		lines = append(lines, Line{
			ProductID:   raw.ProductID,
			Description: raw.DisplayName(defaultLineDescription),
			Quantity:    qty,
			UnitPrice:   price,
			Amount:      amount,
		})
	}

	vendorName := req.VendorName
	order := PurchaseOrder{
		Number:      number,
		ProjectID:   req.ProjectID,
		VendorID:    req.VendorID,
		VendorName:  &vendorName,
		Status:      StatusDraft,
		TotalAmount: money.Round2(total),
		Currency:    currency,
	}

	var orderID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.Insert(ctx, order)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("%w: purchase order number %s", httpx.ErrDuplicate, number)
			}
			return fmt.Errorf("insert order: %w", err)
		}
		orderID = id

		for _, line := range lines {
			line.PurchaseOrderID = id
			if _, err := tx.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
		}

		return tx.AppendAudit(ctx, audit.Entry{
			Action:     audit.ActionPurchaseOrderCreated,
			EntityType: audit.EntityPurchaseOrder,
			EntityID:   id,
			Details:    fmt.Sprintf("Created purchase order %s with %d lines", number, len(lines)),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, orderID)
}

// Get returns an order with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*PurchaseOrder, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: purchase order %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return order, nil
}

// List returns orders matching the filters.
func (s *Service) List(ctx context.Context, req ListPurchaseOrdersRequest) ([]PurchaseOrder, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	return s.repo.List(ctx, req)
}

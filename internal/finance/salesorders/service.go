package salesorders

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

// defaultLineDescription is used when a raw line carries no usable name.
const defaultLineDescription = "Unknown"

// Service implements the sales-order engine.
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

// Create persists a new sales order with its lines inside one transaction and
// returns the persisted aggregate re-read from the store. Sales orders are
// created POSTED.
func (s *Service) Create(ctx context.Context, req CreateSalesOrderRequest) (*SalesOrder, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	number, err := s.numbers.Next(ctx, "SO")
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

	customerName := req.CustomerName
	order := SalesOrder{
		Number:       number,
		ProjectID:    req.ProjectID,
		CustomerID:   req.CustomerID,
		CustomerName: &customerName,
		Status:       StatusPosted,
		TotalAmount:  money.Round2(total),
		Currency:     currency,
	}

	var orderID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.Insert(ctx, order)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("%w: sales order number %s", httpx.ErrDuplicate, number)
			}
			return fmt.Errorf("insert order: %w", err)
		}
		orderID = id

		for _, line := range lines {
			line.SalesOrderID = id
			if _, err := tx.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
		}

		return tx.AppendAudit(ctx, audit.Entry{
			Action:     audit.ActionSalesOrderCreated,
			EntityType: audit.EntitySalesOrder,
			EntityID:   id,
			Details:    fmt.Sprintf("Created sales order %s with %d lines", number, len(lines)),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, orderID)
}

// Get returns an order with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*SalesOrder, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: sales order %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return order, nil
}

// List returns orders matching the filters.
func (s *Service) List(ctx context.Context, req ListSalesOrdersRequest) ([]SalesOrder, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	return s.repo.List(ctx, req)
}

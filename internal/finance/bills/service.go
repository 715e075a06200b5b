package bills

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/oneflow-hq/oneflow/internal/finance/audit"
	"github.com/oneflow-hq/oneflow/internal/finance/docnum"
	"github.com/oneflow-hq/oneflow/internal/finance/money"
	"github.com/oneflow-hq/oneflow/internal/finance/purchaseorders"
	"github.com/oneflow-hq/oneflow/internal/platform/db"
	"github.com/oneflow-hq/oneflow/internal/platform/httpx"
)

// Derivation failures surfaced to callers.
var (
	ErrPurchaseOrderNotFound = fmt.Errorf("%w: Purchase Order not found", httpx.ErrValidation)
	ErrAlreadyBilled         = fmt.Errorf("%w: purchase order already billed", httpx.ErrValidation)
	ErrInvalidDueDate        = fmt.Errorf("%w: invalid due date", httpx.ErrValidation)
)

const defaultCurrency = "USD"

// dueDateLayout is the wire format for optional due dates.
const dueDateLayout = "2006-01-02"

// Service implements the vendor-bill derivation engine.
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

// CreateFromPurchaseOrder derives a bill from a purchase order,
// snapshot-copying every line, and marks the order BILLED. A purchase order
// can be billed at most once; the guard runs inside the transaction.
func (s *Service) CreateFromPurchaseOrder(ctx context.Context, poID int64, req CreateFromPORequest) (*VendorBill, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	var dueDate *time.Time
	if req.DueDate != "" {
		parsed, err := time.Parse(dueDateLayout, req.DueDate)
		if err != nil {
			return nil, ErrInvalidDueDate
		}
		dueDate = &parsed
	}

	number := req.Number
	if number == "" {
		n, err := s.numbers.Next(ctx, "BILL")
		if err != nil {
			return nil, fmt.Errorf("generate number: %w", err)
		}
		number = n
	}

	var billID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPurchaseOrder(ctx, poID)
		if err != nil {
			if errors.Is(err, purchaseorders.ErrNotFound) {
				return ErrPurchaseOrderNotFound
			}
			return fmt.Errorf("load purchase order: %w", err)
		}

		existing, err := tx.CountBillsByPO(ctx, poID)
		if err != nil {
			return fmt.Errorf("count bills: %w", err)
		}
		if existing > 0 {
			return ErrAlreadyBilled
		}

		currency := req.Currency
		if currency == "" {
			currency = po.Currency
		}
		if currency == "" {
			currency = defaultCurrency
		}

		poRef := po.ID
		id, err := tx.InsertBill(ctx, VendorBill{
			Number:      number,
			ProjectID:   po.ProjectID,
			SourcePoID:  &poRef,
			VendorID:    po.VendorID,
			VendorName:  po.VendorName,
			Status:      StatusDraft,
			TotalAmount: money.Round2(money.ToNumber(po.TotalAmount)),
			Currency:    currency,
			DueDate:     dueDate,
			Notes:       req.Notes,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("%w: vendor bill number %s", httpx.ErrDuplicate, number)
			}
			return fmt.Errorf("insert bill: %w", err)
		}
		billID = id

		for _, l := range po.Lines {
			if _, err := tx.InsertLine(ctx, Line{
				BillID:      id,
				Description: l.Description,
				Quantity:    money.ToNumber(l.Quantity),
				UnitPrice:   money.ToNumber(l.UnitPrice),
				Amount:      money.ToNumber(l.Amount),
			}); err != nil {
				return fmt.Errorf("insert bill line: %w", err)
			}
		}

		if err := tx.MarkPurchaseOrderBilled(ctx, po.ID); err != nil {
			return fmt.Errorf("mark purchase order billed: %w", err)
		}

		return tx.AppendAudit(ctx, audit.Entry{
			Action:     audit.ActionVendorBillCreated,
			EntityType: audit.EntityVendorBill,
			EntityID:   id,
			Details:    fmt.Sprintf("Created vendor bill from purchase order %s", po.Number),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, billID)
}

// Get returns a bill with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*VendorBill, error) {
	bill, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: vendor bill %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return bill, nil
}

// List returns bills matching the filters.
func (s *Service) List(ctx context.Context, req ListBillsRequest) ([]VendorBill, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	return s.repo.List(ctx, req)
}

package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/oneflow-hq/oneflow/internal/finance/audit"
	"github.com/oneflow-hq/oneflow/internal/finance/docnum"
	"github.com/oneflow-hq/oneflow/internal/finance/money"
	"github.com/oneflow-hq/oneflow/internal/finance/salesorders"
	"github.com/oneflow-hq/oneflow/internal/finance/timesheets"
	"github.com/oneflow-hq/oneflow/internal/platform/db"
	"github.com/oneflow-hq/oneflow/internal/platform/httpx"
)

// Derivation failures surfaced to callers.
var (
	ErrTimesheetsNotFound = fmt.Errorf("%w: some timesheets not found", httpx.ErrValidation)
	ErrNotInvoiceable     = fmt.Errorf("%w: not approved or already invoiced", httpx.ErrValidation)
	ErrSalesOrderNotFound = fmt.Errorf("%w: Sales Order not found", httpx.ErrValidation)
)

const defaultCurrency = "USD"

// Service implements the invoice derivation engine. Every state-changing
// operation runs inside exactly one store transaction; a failure at any step
// rolls back all writes.
//
// Both derivation paths mark the source sales order POSTED. The two paths
// used to disagree on this; one rule is deliberately applied to both.
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

// CreateFromTimesheets derives one invoice from the approved, uninvoiced
// timesheets named in req. The selected rows are locked while they are
// validated and marked, so re-submitting the same set always fails on the
// invoiced check.
func (s *Service) CreateFromTimesheets(ctx context.Context, req CreateFromTimesheetsRequest) (*TimesheetInvoiceResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	number, err := s.numbers.Next(ctx, "INV")
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}

	var invoiceID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sheets, err := tx.LockTimesheets(ctx, req.ProjectID, req.TimesheetIDs)
		if err != nil {
			return fmt.Errorf("load timesheets: %w", err)
		}
		if len(sheets) != len(req.TimesheetIDs) {
			return ErrTimesheetsNotFound
		}
		for _, ts := range sheets {
			if ts.Status != timesheets.StatusApproved || ts.Invoiced {
				return ErrNotInvoiceable
			}
		}

		var total float64
		for _, ts := range sheets {
			total += money.ToNumber(ts.Amount)
		}

		projectID := req.ProjectID
		id, err := tx.InsertInvoice(ctx, Invoice{
			Number:      number,
			ProjectID:   &projectID,
			Status:      StatusDraft,
			TotalAmount: money.Round2(total),
			Currency:    defaultCurrency,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("%w: invoice number %s", httpx.ErrDuplicate, number)
			}
			return fmt.Errorf("insert invoice: %w", err)
		}
		invoiceID = id

		ids := make([]int64, 0, len(sheets))
		for _, ts := range sheets {
			tsID := ts.ID
			if _, err := tx.InsertLine(ctx, Line{
				InvoiceID:   id,
				Description: timesheetLineDescription(ts),
				Quantity:    ts.DurationHours,
				UnitPrice:   money.ToNumber(ts.HourlyRate),
				Amount:      money.ToNumber(ts.Amount),
				TimesheetID: &tsID,
			}); err != nil {
				return fmt.Errorf("insert invoice line: %w", err)
			}
			ids = append(ids, ts.ID)
		}

		if err := tx.MarkTimesheetsInvoiced(ctx, ids, id); err != nil {
			return fmt.Errorf("mark timesheets invoiced: %w", err)
		}

		return tx.AppendAudit(ctx, audit.Entry{
			Action:     audit.ActionInvoiceCreated,
			EntityType: audit.EntityCustomerInvoice,
			EntityID:   id,
			Details:    fmt.Sprintf("Created invoice from %d timesheets", len(sheets)),
		})
	})
	if err != nil {
		return nil, err
	}

	inv, err := s.repo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return &TimesheetInvoiceResult{
		Invoice:            inv,
		TimesheetsInvoiced: len(req.TimesheetIDs),
	}, nil
}

// CreateFromSalesOrder derives an invoice from a sales order, snapshot-copying
// every line, and marks the source order POSTED.
func (s *Service) CreateFromSalesOrder(ctx context.Context, soID int64) (*Invoice, error) {
	number, err := s.numbers.Next(ctx, "INV")
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}

	var invoiceID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		so, err := tx.GetSalesOrder(ctx, soID)
		if err != nil {
			if errors.Is(err, salesorders.ErrNotFound) {
				return ErrSalesOrderNotFound
			}
			return fmt.Errorf("load sales order: %w", err)
		}

		currency := so.Currency
		if currency == "" {
			currency = defaultCurrency
		}

		soRef := so.ID
		id, err := tx.InsertInvoice(ctx, Invoice{
			Number:      number,
			ProjectID:   so.ProjectID,
			SourceSoID:  &soRef,
			Status:      StatusDraft,
			TotalAmount: money.Round2(money.ToNumber(so.TotalAmount)),
			Currency:    currency,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("%w: invoice number %s", httpx.ErrDuplicate, number)
			}
			return fmt.Errorf("insert invoice: %w", err)
		}
		invoiceID = id

		for _, l := range so.Lines {
			if _, err := tx.InsertLine(ctx, Line{
				InvoiceID:   id,
				Description: l.Description,
				Quantity:    money.ToNumber(l.Quantity),
				UnitPrice:   money.ToNumber(l.UnitPrice),
				Amount:      money.ToNumber(l.Amount),
			}); err != nil {
				return fmt.Errorf("insert invoice line: %w", err)
			}
		}

		if err := tx.MarkSalesOrderPosted(ctx, so.ID); err != nil {
			return fmt.Errorf("mark sales order posted: %w", err)
		}

		return tx.AppendAudit(ctx, audit.Entry{
			Action:     audit.ActionInvoiceCreated,
			EntityType: audit.EntityCustomerInvoice,
			EntityID:   id,
			Details:    fmt.Sprintf("Created invoice from sales order %s", so.Number),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, invoiceID)
}

// CreateManual persists a caller-built invoice verbatim. Line amounts are
// trusted, not recomputed; the presentation layer owns tax and discount
// math. When the payload references a sales order, that order is marked
// POSTED.
func (s *Service) CreateManual(ctx context.Context, req ManualInvoiceRequest) (*Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	number := req.Number
	if number == "" {
		n, err := s.numbers.Next(ctx, "INV")
		if err != nil {
			return nil, fmt.Errorf("generate number: %w", err)
		}
		number = n
	}

	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	var notes *string
	if req.CustomerName != nil && *req.CustomerName != "" {
		n := fmt.Sprintf("Customer: %s", *req.CustomerName)
		notes = &n
	}

	var invoiceID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertInvoice(ctx, Invoice{
			Number:      number,
			ProjectID:   req.ProjectID,
			SourceSoID:  req.SourceSoID,
			Status:      StatusDraft,
			TotalAmount: money.Round2(money.ToNumber(req.TotalAmount)),
			Currency:    currency,
			DueDate:     req.DueDate,
			Notes:       notes,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("%w: invoice number %s", httpx.ErrDuplicate, number)
			}
			return fmt.Errorf("insert invoice: %w", err)
		}
		invoiceID = id

		for _, l := range req.Lines {
			if _, err := tx.InsertLine(ctx, Line{
				InvoiceID:   id,
				Description: l.Description,
				Quantity:    money.ToNumber(l.Quantity),
				UnitPrice:   money.ToNumber(l.UnitPrice),
				Amount:      money.ToNumber(l.Amount),
				TimesheetID: l.TimesheetID,
				ExpenseID:   l.ExpenseID,
			}); err != nil {
				return fmt.Errorf("insert invoice line: %w", err)
			}
		}

		if req.SourceSoID != nil {
			if err := tx.MarkSalesOrderPosted(ctx, *req.SourceSoID); err != nil {
				return fmt.Errorf("mark sales order posted: %w", err)
			}
		}

		return tx.AppendAudit(ctx, audit.Entry{
			Action:     audit.ActionInvoiceCreated,
			EntityType: audit.EntityCustomerInvoice,
			EntityID:   id,
			Details:    fmt.Sprintf("Created invoice %s with %d lines", number, len(req.Lines)),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, invoiceID)
}

// Get returns an invoice with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: invoice %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return inv, nil
}

// List returns invoices matching the filters.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	return s.repo.List(ctx, req)
}

// ListOverdue returns posted invoices whose due date has passed as of asOf.
func (s *Service) ListOverdue(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	return s.repo.ListOverdue(ctx, asOf)
}

func timesheetLineDescription(ts timesheets.Timesheet) string {
	title := "Project Work"
	if ts.TaskTitle != nil && *ts.TaskTitle != "" {
		title = *ts.TaskTitle
	}
	desc := fmt.Sprintf("Time: %s", title)
	if ts.Notes != nil && *ts.Notes != "" {
		desc = fmt.Sprintf("%s - %s", desc, *ts.Notes)
	}
	return desc
}

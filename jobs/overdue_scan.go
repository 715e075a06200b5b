package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/oneflow-hq/oneflow/internal/finance/invoices"
)

// OverdueLister is the slice of the invoice service the scan needs.
type OverdueLister interface {
	ListOverdue(ctx context.Context, asOf time.Time) ([]invoices.Invoice, error)
}

// OverdueScanJob reports posted customer invoices whose due date has passed.
type OverdueScanJob struct {
	Invoices OverdueLister
	Logger   *slog.Logger
	clock    func() time.Time
}

// NewOverdueScanJob initialises the overdue-invoice scan handler.
func NewOverdueScanJob(svc OverdueLister, logger *slog.Logger) *OverdueScanJob {
	return &OverdueScanJob{
		Invoices: svc,
		Logger:   logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the overdue-invoice scan.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Invoices == nil {
		return errors.New("overdue scan: handler not configured")
	}
	var payload OverdueScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.GraceDays < 0 {
		payload.GraceDays = 0
	}

	start := j.now()
	cutoff := start.AddDate(0, 0, -payload.GraceDays)

	logger := j.logger().With(slog.Int("grace_days", payload.GraceDays))
	logger.Info("starting overdue invoice scan")

	overdue, err := j.Invoices.ListOverdue(ctx, cutoff)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	for _, inv := range overdue {
		days := 0
		if inv.DueDate != nil {
			days = int(start.Sub(*inv.DueDate).Hours() / 24)
		}
		logger.Warn("invoice overdue",
			slog.Int64("invoice_id", inv.ID),
			slog.String("number", inv.Number),
			slog.Float64("total_amount", inv.TotalAmount),
			slog.Int("days_overdue", days),
		)
	}

	logger.Info("completed overdue invoice scan",
		slog.Int("overdue", len(overdue)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *OverdueScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskFinanceOverdueScan))
	}
	return slog.Default().With(slog.String("job", TaskFinanceOverdueScan))
}

func (j *OverdueScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

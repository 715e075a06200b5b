package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/oneflow-hq/oneflow/internal/finance/invoices"
)

type stubLister struct {
	asOf   time.Time
	result []invoices.Invoice
	err    error
	calls  int
}

func (s *stubLister) ListOverdue(_ context.Context, asOf time.Time) ([]invoices.Invoice, error) {
	s.calls++
	s.asOf = asOf
	return s.result, s.err
}

func TestOverdueScanAppliesGraceWindow(t *testing.T) {
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, -10)
	lister := &stubLister{result: []invoices.Invoice{
		{ID: 7, Number: "INV-20260822-000001", Status: invoices.StatusPosted, TotalAmount: 350.50, DueDate: &due},
	}}
	job := NewOverdueScanJob(lister, nil)
	job.clock = func() time.Time { return now }

	task, err := NewOverdueScanTask(3)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 1, lister.calls)
	require.Equal(t, now.AddDate(0, 0, -3), lister.asOf)
}

func TestOverdueScanPropagatesListError(t *testing.T) {
	lister := &stubLister{err: errors.New("db down")}
	job := NewOverdueScanJob(lister, nil)

	task, err := NewOverdueScanTask(0)
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	require.Contains(t, err.Error(), "db down")
}

func TestOverdueScanSkipsMalformedPayload(t *testing.T) {
	lister := &stubLister{}
	job := NewOverdueScanJob(lister, nil)

	task := asynq.NewTask(TaskFinanceOverdueScan, []byte("{not json"))
	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Zero(t, lister.calls)
}

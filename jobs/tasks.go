package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFinanceOverdueScan flags posted invoices whose due date has passed.
	TaskFinanceOverdueScan = "finance:invoice:overdue_scan"
)

// OverdueScanPayload tunes a single overdue-invoice scan run.
type OverdueScanPayload struct {
	// GraceDays shifts the cutoff back, so invoices due within the grace
	// window are not reported yet.
	GraceDays int `json:"grace_days"`
}

// NewOverdueScanTask constructs an Asynq task for the overdue-invoice scan.
func NewOverdueScanTask(graceDays int) (*asynq.Task, error) {
	data, err := json.Marshal(OverdueScanPayload{GraceDays: graceDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFinanceOverdueScan, data), nil
}

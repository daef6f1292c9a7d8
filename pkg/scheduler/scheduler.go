package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TransferJob asks the settlement worker to retry the transfer of an approved request
// whose scheduled mint was not yet final.
type TransferJob struct {
	RequestID string `json:"request_id"`
	Attempt   int    `json:"attempt"`
}

// Scheduler defines the interface for a component that schedules a transfer for later processing.
type Scheduler interface {
	// ScheduleTransfer enqueues a transfer job to become visible after delay.
	ScheduleTransfer(ctx context.Context, job TransferJob, delay time.Duration) error
}

// ParseTransferJob decodes a queued job body.
func ParseTransferJob(body string) (TransferJob, error) {
	var job TransferJob
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return TransferJob{}, fmt.Errorf("failed to unmarshal transfer job: %w", err)
	}
	if job.RequestID == "" {
		return TransferJob{}, fmt.Errorf("transfer job has no request id")
	}
	return job, nil
}

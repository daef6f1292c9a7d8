// Package notify delivers fire-and-forget notifications about wage advances and payments.
// Callers log delivery failures and never roll back state because of them.
package notify

import (
	"context"
	"errors"
	"time"
)

// Kind names the event a notification reports.
type Kind string

const (
	KindScheduleCreated  Kind = "schedule_created"
	KindRequestRejected  Kind = "request_rejected"
	KindAdvanceCompleted Kind = "advance_completed"
	KindBalanceDeducted  Kind = "balance_deducted"
)

// Notification is addressed to one or more users.
type Notification struct {
	Kind          Kind      `json:"kind"`
	RecipientIds  []string  `json:"recipient_ids"`
	RequestId     string    `json:"request_id,omitempty"`
	OperationId   string    `json:"operation_id,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	EmployeeName  string    `json:"employee_name,omitempty"`
	ScheduleId    string    `json:"schedule_id,omitempty"`
	DeciderName   string    `json:"decider_name,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	TransactionId string    `json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Notifier delivers a notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NoOp drops every notification.
type NoOp struct{}

func (NoOp) Notify(context.Context, Notification) error { return nil }

// Fanout delivers to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range f {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package storage

import (
	"context"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/models"
)

// RequestReader defines the interface for reading wage advance requests.
type RequestReader interface {
	GetRequest(ctx context.Context, requestID string) (*models.WageAdvanceRequest, error)

	// FindActiveRequest returns the request holding the employee's active lock, or ErrNotFound.
	FindActiveRequest(ctx context.Context, employeeID string) (*models.WageAdvanceRequest, error)

	ListRequestsByEmployee(ctx context.Context, employeeID string) ([]models.WageAdvanceRequest, error)

	// ListRequestsByEnterprise returns the enterprise's requests in any of the given statuses.
	ListRequestsByEnterprise(ctx context.Context, entrepriseID string, statuses ...models.RequestStatus) ([]models.WageAdvanceRequest, error)

	// ListRequestsByStatus returns every request in the status, oldest first.
	ListRequestsByStatus(ctx context.Context, status models.RequestStatus) ([]models.WageAdvanceRequest, error)
}

// RequestManager defines the conditional writes of the approval protocol.
type RequestManager interface {
	// CreateRequest stores a new request and takes the employee's active lock in the same atomic write.
	// It returns ErrActiveRequestExists if the lock is already held.
	CreateRequest(ctx context.Context, req *models.WageAdvanceRequest) error

	// TransitionRequest moves a request from one status to another and applies the update.
	// Transitions into a terminal status release the active lock atomically.
	// It returns ErrStatusConflict if the request is not in the from status.
	TransitionRequest(ctx context.Context, requestID string, from, to models.RequestStatus, update models.RequestUpdate) (*models.WageAdvanceRequest, error)

	// AppendApproval appends a decider entry while the request is pending_signature and the decider
	// has no entry yet. It returns the post-append record, ErrDuplicateApproval or ErrStatusConflict.
	AppendApproval(ctx context.Context, requestID string, approval models.DeciderApproval) (*models.WageAdvanceRequest, error)
}

// RequestStore combines the reader and manager interfaces.
type RequestStore interface {
	RequestReader
	RequestManager
}

// ApplyRequestUpdate mutates req the way a successful TransitionRequest does.
func ApplyRequestUpdate(req *models.WageAdvanceRequest, to models.RequestStatus, update models.RequestUpdate, now time.Time) {
	req.Status = to
	req.Version++
	req.UpdatedAt = now
	if update.ScheduleId != "" {
		req.ScheduleId = update.ScheduleId
	}
	if update.ScheduledTransactionId != "" {
		req.ScheduledTransactionId = update.ScheduledTransactionId
	}
	if update.ScheduleExpiresAt != nil {
		req.ScheduleExpiresAt = update.ScheduleExpiresAt
	}
	if update.DeleteKeyRef != "" {
		req.DeleteKeyRef = update.DeleteKeyRef
	}
	if update.Memo != "" {
		req.Memo = update.Memo
	}
	if update.ResetApprovals {
		req.DeciderApprovals = []models.DeciderApproval{}
		req.DeciderIds = nil
	}
	if update.RejectedBy != "" {
		req.RejectedBy = update.RejectedBy
	}
	if update.RejectionReason != "" {
		req.RejectionReason = update.RejectionReason
	}
	if update.TransferTransactionId != "" {
		req.TransferTransactionId = update.TransferTransactionId
	}
	if update.CompletedAt != nil {
		req.CompletedAt = update.CompletedAt
	}
}

package storage

import (
	"context"

	"github.com/chris/wage-advance-ledger/pkg/models"
)

// OperationFilter narrows a ListOperations call. Empty fields match everything.
type OperationFilter struct {
	Type   models.OperationType
	Status models.OperationStatus
	UserId string
	Limit  int
}

// Matches reports whether op passes the filter, ignoring Limit.
func (f OperationFilter) Matches(op *models.LedgerOperation) bool {
	if f.Type != "" && op.Type != f.Type {
		return false
	}
	if f.Status != "" && op.Status != f.Status {
		return false
	}
	if f.UserId != "" && op.UserId != f.UserId {
		return false
	}
	return true
}

// OperationStore is the append-only audit log of ledger-facing actions.
type OperationStore interface {
	// CreateOperation validates the payload union and stores a new record.
	CreateOperation(ctx context.Context, op *models.LedgerOperation) error

	GetOperation(ctx context.Context, operationID string) (*models.LedgerOperation, error)

	// ListOperations returns matching operations, oldest first.
	ListOperations(ctx context.Context, filter OperationFilter) ([]models.LedgerOperation, error)

	// TransitionOperation writes result onto an operation still in the from status.
	// It returns ErrOperationFinalized if another writer got there first.
	TransitionOperation(ctx context.Context, operationID string, from models.OperationStatus, result models.OperationResult) (*models.LedgerOperation, error)
}

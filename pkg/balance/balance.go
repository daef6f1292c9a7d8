// Package balance projects an employee's advance balance from requests and confirmed shop payments.
package balance

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/storage"
)

// ErrEmployeeNotFound is returned for an unknown employee id.
var ErrEmployeeNotFound = errors.New("employee not found")

// Balance is an employee's position in the token's smallest unit.
type Balance struct {
	EmployeeId        string
	LifetimeAdvanced  int64
	PendingAmount     int64
	TotalShopPayments int64
	CurrentBalance    int64
}

type Store interface {
	storage.UserStore
	storage.RequestReader
	storage.OperationStore
}

// Aggregator recomputes balances on every call. It never writes.
type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

func (a *Aggregator) EmployeeBalance(ctx context.Context, employeeID string) (*Balance, error) {
	employee, err := a.store.GetUser(ctx, employeeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrEmployeeNotFound, employeeID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee %s: %w", employeeID, err)
	}

	requests, err := a.store.ListRequestsByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests for %s: %w", employeeID, err)
	}
	payments, err := a.store.ListOperations(ctx, storage.OperationFilter{
		Type:   models.OpShopPaymentAccept,
		Status: models.OperationSuccess,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list shop payments: %w", err)
	}
	return Compute(employee, requests, payments), nil
}

// Compute is the pure projection behind EmployeeBalance.
func Compute(employee *models.User, requests []models.WageAdvanceRequest, payments []models.LedgerOperation) *Balance {
	b := &Balance{EmployeeId: employee.Id}
	for _, r := range requests {
		switch r.Status {
		case models.RequestCompleted, models.RequestApproved:
			b.LifetimeAdvanced += r.RequestedAmount
		case models.RequestPending, models.RequestPendingSignature:
			b.PendingAmount += r.RequestedAmount
		}
	}
	for _, op := range payments {
		p := op.Details.ShopPayment
		if op.Type != models.OpShopPaymentAccept || op.Status != models.OperationSuccess || p == nil {
			continue
		}
		if employee.AccountId != "" && p.EmployeeAccountId == employee.AccountId {
			b.TotalShopPayments += p.Amount
		}
	}
	b.CurrentBalance = max(0, b.LifetimeAdvanced-b.TotalShopPayments)
	return b
}

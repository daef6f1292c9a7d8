package wageadvance

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/chris/wage-advance-ledger/pkg/metrics"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/storage"
)

// RequestAdvance opens a pending request for the employee.
// An employee holding an active request gets an *ActiveRequestError carrying it.
func (s *Service) RequestAdvance(ctx context.Context, employeeID string, amount int64) (*models.WageAdvanceRequest, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: requested amount must be positive", ErrValidation)
	}

	employee, err := s.getUser(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if employee.Category != models.CategoryEmployee {
		return nil, fmt.Errorf("%w: user %s is not an employee", ErrForbidden, employeeID)
	}

	existing, err := s.store.FindActiveRequest(ctx, employeeID)
	if err == nil {
		return nil, &ActiveRequestError{Existing: existing}
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check active requests: %w", err)
	}

	token, err := s.store.GetEnterpriseToken(ctx, employee.EntrepriseId)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: enterprise %s has no token", ErrPreconditionFailed, employee.EntrepriseId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load enterprise token: %w", err)
	}

	now := s.nowFn()
	req := &models.WageAdvanceRequest{
		Id:               s.newID(),
		EmployeeId:       employeeID,
		EntrepriseId:     employee.EntrepriseId,
		TokenId:          token.TokenId,
		RequestedAmount:  amount,
		Status:           models.RequestPending,
		DeciderApprovals: []models.DeciderApproval{},
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		if errors.Is(err, storage.ErrActiveRequestExists) {
			winner, _ := s.store.FindActiveRequest(ctx, employeeID)
			return nil, &ActiveRequestError{Existing: winner}
		}
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.record(ctx, &models.LedgerOperation{
		Type:         models.OpWageAdvanceRequest,
		UserId:       employeeID,
		EntrepriseId: req.EntrepriseId,
		TokenId:      req.TokenId,
		RequestId:    req.Id,
		Details:      models.OperationDetails{AdvanceRequested: &models.AdvanceRequestedDetails{Amount: amount}},
	})
	metrics.RecordAdvanceEvent("request", "created")
	s.logger.Info("wage advance requested", "requestId", req.Id, "employeeId", employeeID, "amount", amount)
	return req, nil
}

func (s *Service) GetRequestStatus(ctx context.Context, requestID string) (*models.WageAdvanceRequest, error) {
	return s.getRequest(ctx, requestID)
}

// GetEmployeeRequests returns the employee's requests, newest first.
func (s *Service) GetEmployeeRequests(ctx context.Context, employeeID string) ([]models.WageAdvanceRequest, error) {
	if _, err := s.getUser(ctx, employeeID); err != nil {
		return nil, err
	}
	requests, err := s.store.ListRequestsByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests for %s: %w", employeeID, err)
	}
	return requests, nil
}

// GetPendingRequestsForEnterprise returns the requests still awaiting scheduling or signatures, oldest first.
func (s *Service) GetPendingRequestsForEnterprise(ctx context.Context, entrepriseID string) ([]models.WageAdvanceRequest, error) {
	requests, err := s.store.ListRequestsByEnterprise(ctx, entrepriseID, models.RequestPending, models.RequestPendingSignature)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests for %s: %w", entrepriseID, err)
	}
	sort.SliceStable(requests, func(i, j int) bool { return requests[i].CreatedAt.Before(requests[j].CreatedAt) })
	return requests, nil
}

package wageadvance

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/wage-advance-ledger/pkg/ledger"
	"github.com/chris/wage-advance-ledger/pkg/metrics"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/notify"
	"github.com/chris/wage-advance-ledger/pkg/storage"
)

// ScheduleResult identifies the scheduled mint created for a request.
type ScheduleResult struct {
	ScheduleID    string
	TransactionID string
}

// Memo tags ledger transactions with the request they belong to.
func Memo(requestID string) string { return "wage-advance:" + requestID }

// CreateScheduledMint creates the scheduled mint the deciders co-sign and moves the request
// to pending_signature. A failed ledger call leaves the request pending and safe to retry.
func (s *Service) CreateScheduledMint(ctx context.Context, requestID string) (*ScheduleResult, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, &StateError{RequestID: requestID, Required: models.RequestPending, Actual: req.Status}
	}

	roster, err := s.deciders(ctx, req.EntrepriseId)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("%w: enterprise %s has no deciders", ErrPreconditionFailed, req.EntrepriseId)
	}

	adminKey, keyRef, err := s.custody.GenerateDeleteKey(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate delete key: %w", err)
	}

	expiresAt := s.nowFn().Add(s.cfg.ScheduleExpiry)
	memo := Memo(requestID)
	receipt, err := s.gateway.CreateScheduledTransaction(ctx, ledger.ScheduleRequest{
		Mint:      ledger.Mint{TokenID: req.TokenId, Amount: req.RequestedAmount},
		AdminKey:  adminKey,
		ExpiresAt: expiresAt,
		Memo:      memo,
	})
	if err != nil {
		s.destroyKey(ctx, keyRef)
		metrics.RecordAdvanceEvent("schedule", "ledger_error")
		return nil, fmt.Errorf("%w: create scheduled mint: %w", ErrLedger, err)
	}

	updated, err := s.store.TransitionRequest(ctx, requestID, models.RequestPending, models.RequestPendingSignature, models.RequestUpdate{
		ScheduleId:             receipt.ScheduleID,
		ScheduledTransactionId: receipt.TransactionID,
		ScheduleExpiresAt:      &expiresAt,
		DeleteKeyRef:           keyRef,
		Memo:                   memo,
		ResetApprovals:         true,
	})
	if err != nil {
		// The schedule exists on the ledger but no request points at it.
		if cancelErr := s.custody.CancelSchedule(ctx, keyRef, receipt.ScheduleID); cancelErr != nil {
			s.logger.Error("failed to cancel orphaned schedule", "requestId", requestID, "scheduleId", receipt.ScheduleID, "error", cancelErr)
		}
		s.destroyKey(ctx, keyRef)
		if errors.Is(err, storage.ErrStatusConflict) {
			return nil, s.stateConflict(ctx, requestID, models.RequestPending)
		}
		return nil, fmt.Errorf("failed to mark request %s scheduled: %w", requestID, err)
	}

	s.record(ctx, &models.LedgerOperation{
		Type:          models.OpScheduleCreate,
		UserId:        updated.EmployeeId,
		EntrepriseId:  updated.EntrepriseId,
		TokenId:       updated.TokenId,
		RequestId:     updated.Id,
		TransactionId: receipt.TransactionID,
		Details: models.OperationDetails{ScheduleCreated: &models.ScheduleCreatedDetails{
			ScheduleId: receipt.ScheduleID,
			Amount:     updated.RequestedAmount,
			Memo:       memo,
			ExpiresAt:  expiresAt,
			Deciders:   len(roster),
		}},
	})

	employeeName := ""
	if employee, err := s.store.GetUser(ctx, updated.EmployeeId); err == nil {
		employeeName = employee.Name
	}
	recipients := make([]string, 0, len(roster))
	for _, d := range roster {
		recipients = append(recipients, d.Id)
	}
	s.notify(ctx, notify.Notification{
		Kind:         notify.KindScheduleCreated,
		RecipientIds: recipients,
		RequestId:    updated.Id,
		Amount:       updated.RequestedAmount,
		EmployeeName: employeeName,
		ScheduleId:   receipt.ScheduleID,
	})

	metrics.RecordAdvanceEvent("schedule", "created")
	s.logger.Info("scheduled mint created", "requestId", requestID, "scheduleId", receipt.ScheduleID, "deciders", len(roster))
	return &ScheduleResult{ScheduleID: receipt.ScheduleID, TransactionID: receipt.TransactionID}, nil
}

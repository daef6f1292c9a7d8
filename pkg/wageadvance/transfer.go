package wageadvance

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/wage-advance-ledger/pkg/ledger"
	"github.com/chris/wage-advance-ledger/pkg/metrics"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/notify"
	"github.com/chris/wage-advance-ledger/pkg/scheduler"
	"github.com/chris/wage-advance-ledger/pkg/storage"
)

// ExecuteTransfer moves the advanced tokens from the treasury to the employee once the scheduled
// mint is final. A request that already left pending_signature is returned unchanged.
func (s *Service) ExecuteTransfer(ctx context.Context, requestID string) (*models.WageAdvanceRequest, error) {
	return s.executeTransfer(ctx, requestID, 0)
}

// ResumeTransfer retries a transfer that was deferred while its mint was not final.
func (s *Service) ResumeTransfer(ctx context.Context, job scheduler.TransferJob) (*models.WageAdvanceRequest, error) {
	return s.executeTransfer(ctx, job.RequestID, job.Attempt)
}

func (s *Service) executeTransfer(ctx context.Context, requestID string, attempt int) (*models.WageAdvanceRequest, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPendingSignature {
		s.logger.Info("transfer skipped, request already moved on", "requestId", requestID, "status", req.Status)
		return req, nil
	}

	roster, err := s.deciders(ctx, req.EntrepriseId)
	if err != nil {
		return nil, err
	}
	if approvals := req.ApprovalCount(); len(roster) == 0 || approvals < len(roster) {
		return nil, &StateError{
			RequestID: requestID,
			Required:  models.RequestApproved,
			Actual:    req.Status,
			Detail:    fmt.Sprintf("%d of %d decider approvals", approvals, len(roster)),
		}
	}

	token, err := s.store.GetEnterpriseToken(ctx, req.EntrepriseId)
	if err != nil {
		return nil, fmt.Errorf("%w: enterprise token for %s: %v", ErrPreconditionFailed, req.EntrepriseId, err)
	}
	employee, err := s.getUser(ctx, req.EmployeeId)
	if err != nil {
		return nil, err
	}
	if employee.AccountId == "" {
		return nil, fmt.Errorf("%w: employee %s has no ledger account", ErrPreconditionFailed, employee.Id)
	}

	if err := s.awaitMint(ctx, req, attempt); err != nil {
		return nil, err
	}

	// pending_signature -> approved is the transfer lock; only one caller gets past it.
	locked, err := s.store.TransitionRequest(ctx, requestID, models.RequestPendingSignature, models.RequestApproved, models.RequestUpdate{})
	if errors.Is(err, storage.ErrStatusConflict) {
		s.logger.Info("transfer lock already taken", "requestId", requestID)
		return s.getRequest(ctx, requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock request %s for transfer: %w", requestID, err)
	}

	details := &models.AdvanceTransferDetails{
		FromAccountId: token.TreasuryAccountId,
		ToAccountId:   employee.AccountId,
		Amount:        locked.RequestedAmount,
	}
	txID, err := s.gateway.TransferTokens(ctx, ledger.Transfer{
		TokenID: locked.TokenId,
		From:    token.TreasuryAccountId,
		To:      employee.AccountId,
		Amount:  locked.RequestedAmount,
		Memo:    locked.Memo,
	})
	switch {
	case err == nil:
		return s.completeTransfer(ctx, locked, txID, details)
	case errors.Is(err, ledger.ErrOutcomeUnknown):
		s.recordTransfer(ctx, locked, txID, details, models.OperationPendingConfirmation, "")
		metrics.RecordAdvanceEvent("transfer", "unknown")
		s.logger.Warn("transfer outcome unknown, left for confirmation", "requestId", requestID, "transactionId", txID)
		return locked, fmt.Errorf("%w: transaction %s", ErrTransferOutcomeUnknown, txID)
	default:
		s.recordTransfer(ctx, locked, txID, details, models.OperationError, err.Error())
		if _, relErr := s.store.TransitionRequest(ctx, requestID, models.RequestApproved, models.RequestPendingSignature, models.RequestUpdate{}); relErr != nil {
			s.logger.Error("failed to release transfer lock", "requestId", requestID, "error", relErr)
		}
		metrics.RecordAdvanceEvent("transfer", "failed")
		return nil, fmt.Errorf("%w: transfer tokens: %w", ErrLedger, err)
	}
}

// awaitMint polls the scheduled mint until it is final. When it is still pending after the
// configured attempts the transfer is queued and ErrTransferDeferred returned.
func (s *Service) awaitMint(ctx context.Context, req *models.WageAdvanceRequest, attempt int) error {
	var failure string
	final, err := pollUntil(ctx, s.cfg.Finality, func(int) (bool, error) {
		f, err := s.gateway.QueryTransactionFinality(ctx, req.ScheduledTransactionId)
		if err != nil {
			s.logger.Warn("finality query failed", "requestId", req.Id, "transactionId", req.ScheduledTransactionId, "error", err)
			return false, nil
		}
		switch f.Status {
		case ledger.FinalitySuccess:
			return true, nil
		case ledger.FinalityFailed:
			failure = f.ErrorMessage
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return fmt.Errorf("failed waiting for scheduled mint: %w", err)
	}
	if failure != "" {
		return fmt.Errorf("%w: scheduled mint %s failed: %s", ErrLedger, req.ScheduledTransactionId, failure)
	}
	if final {
		return nil
	}

	if s.scheduler == nil {
		return fmt.Errorf("%w: request %s", ErrTransferDeferred, req.Id)
	}
	if attempt >= s.cfg.MaxDeferrals {
		s.logger.Error("giving up on deferred transfer", "requestId", req.Id, "attempts", attempt)
		return fmt.Errorf("%w: scheduled mint %s not final after %d deferrals", ErrPreconditionFailed, req.ScheduledTransactionId, attempt)
	}
	job := scheduler.TransferJob{RequestID: req.Id, Attempt: attempt + 1}
	if err := s.scheduler.ScheduleTransfer(ctx, job, s.cfg.TransferRetryDelay); err != nil {
		return fmt.Errorf("failed to defer transfer of %s: %w", req.Id, err)
	}
	metrics.RecordAdvanceEvent("transfer", "deferred")
	s.logger.Info("transfer deferred", "requestId", req.Id, "attempt", job.Attempt)
	return fmt.Errorf("%w: request %s", ErrTransferDeferred, req.Id)
}

func (s *Service) completeTransfer(ctx context.Context, locked *models.WageAdvanceRequest, txID string, details *models.AdvanceTransferDetails) (*models.WageAdvanceRequest, error) {
	now := s.nowFn()
	completed, err := s.store.TransitionRequest(ctx, locked.Id, models.RequestApproved, models.RequestCompleted, models.RequestUpdate{
		TransferTransactionId: txID,
		CompletedAt:           &now,
	})
	if err != nil {
		// The tokens moved; the poller completes the request from the pending operation.
		s.recordTransfer(ctx, locked, txID, details, models.OperationPendingConfirmation, "")
		return nil, fmt.Errorf("transfer %s succeeded but request %s was not completed: %w", txID, locked.Id, err)
	}

	s.recordTransfer(ctx, completed, txID, details, models.OperationSuccess, "")
	s.notify(ctx, notify.Notification{
		Kind:          notify.KindAdvanceCompleted,
		RecipientIds:  []string{completed.EmployeeId},
		RequestId:     completed.Id,
		Amount:        completed.RequestedAmount,
		TransactionId: txID,
	})
	s.destroyKey(ctx, completed.DeleteKeyRef)

	metrics.RecordAdvanceEvent("transfer", "completed")
	s.logger.Info("wage advance transferred", "requestId", completed.Id, "transactionId", txID, "amount", completed.RequestedAmount)
	return completed, nil
}

func (s *Service) recordTransfer(ctx context.Context, req *models.WageAdvanceRequest, txID string, details *models.AdvanceTransferDetails, status models.OperationStatus, message string) {
	s.record(ctx, &models.LedgerOperation{
		Type:          models.OpWageAdvanceTransfer,
		Status:        status,
		UserId:        req.EmployeeId,
		EntrepriseId:  req.EntrepriseId,
		TokenId:       req.TokenId,
		RequestId:     req.Id,
		TransactionId: txID,
		ErrorMessage:  message,
		Details:       models.OperationDetails{AdvanceTransfer: details},
	})
}

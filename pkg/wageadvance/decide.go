package wageadvance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/custody"
	"github.com/chris/wage-advance-ledger/pkg/metrics"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/notify"
	"github.com/chris/wage-advance-ledger/pkg/storage"
)

// DecideInput is one decider's vote on a request.
type DecideInput struct {
	RequestID string
	DeciderID string
	Approved  bool
	Reason    string
}

// Decide records a decider's approval or rejection. The approval that completes the decider
// quorum runs the transfer before returning; a rejection is terminal immediately.
func (s *Service) Decide(ctx context.Context, in DecideInput) (*models.WageAdvanceRequest, error) {
	decider, err := s.getUser(ctx, in.DeciderID)
	if err != nil {
		return nil, err
	}
	if decider.Category != models.CategoryDecider {
		return nil, fmt.Errorf("%w: user %s is not a decider", ErrForbidden, in.DeciderID)
	}

	req, err := s.getRequest(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if decider.EntrepriseId != req.EntrepriseId {
		return nil, fmt.Errorf("%w: decider %s does not belong to enterprise %s", ErrForbidden, in.DeciderID, req.EntrepriseId)
	}
	if req.Status != models.RequestPendingSignature {
		return nil, &StateError{RequestID: req.Id, Required: models.RequestPendingSignature, Actual: req.Status}
	}
	if req.HasVoted(in.DeciderID) {
		return nil, ErrAlreadyVoted
	}

	expired := req.ScheduleExpiresAt != nil && s.nowFn().After(*req.ScheduleExpiresAt)
	if in.Approved {
		if expired {
			return nil, fmt.Errorf("%w: scheduled mint of request %s expired at %s",
				ErrPreconditionFailed, req.Id, req.ScheduleExpiresAt.Format(time.RFC3339))
		}
		return s.approve(ctx, req, decider)
	}
	return s.reject(ctx, req, decider, in.Reason, expired)
}

func (s *Service) approve(ctx context.Context, req *models.WageAdvanceRequest, decider *models.User) (*models.WageAdvanceRequest, error) {
	if err := s.custody.SignSchedule(ctx, decider.Id, req.ScheduleId); err != nil {
		if errors.Is(err, custody.ErrKeyMissing) {
			s.logger.Error("decider has no signing key", "deciderId", decider.Id, "requestId", req.Id)
			return nil, fmt.Errorf("%w: decider %s", ErrSigningKeyMissing, decider.Id)
		}
		metrics.RecordAdvanceEvent("decision", "ledger_error")
		return nil, fmt.Errorf("%w: sign schedule %s: %w", ErrLedger, req.ScheduleId, err)
	}

	updated, err := s.store.AppendApproval(ctx, req.Id, models.DeciderApproval{
		DeciderId: decider.Id,
		Approved:  true,
		Timestamp: s.nowFn(),
	})
	switch {
	case errors.Is(err, storage.ErrDuplicateApproval):
		return nil, ErrAlreadyVoted
	case errors.Is(err, storage.ErrStatusConflict):
		return nil, s.stateConflict(ctx, req.Id, models.RequestPendingSignature)
	case errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("%w: request %s", ErrNotFound, req.Id)
	case err != nil:
		return nil, fmt.Errorf("failed to record approval: %w", err)
	}

	// The roster is resolved again so a decider added since scheduling still counts.
	roster, err := s.deciders(ctx, updated.EntrepriseId)
	if err != nil {
		return nil, err
	}
	approvals := updated.ApprovalCount()

	s.record(ctx, &models.LedgerOperation{
		Type:         models.OpScheduleSign,
		UserId:       decider.Id,
		EntrepriseId: updated.EntrepriseId,
		TokenId:      updated.TokenId,
		RequestId:    updated.Id,
		Details: models.OperationDetails{ScheduleSigned: &models.ScheduleSignedDetails{
			ScheduleId: updated.ScheduleId,
			DeciderId:  decider.Id,
			Approvals:  approvals,
			Required:   len(roster),
		}},
	})
	metrics.RecordAdvanceEvent("decision", "approved")
	s.logger.Info("decider approved", "requestId", updated.Id, "deciderId", decider.Id, "approvals", approvals, "required", len(roster))

	if len(roster) == 0 || approvals < len(roster) {
		return updated, nil
	}

	// AppendApproval returned the post-append record, so only this caller saw the full count.
	final, err := s.ExecuteTransfer(ctx, updated.Id)
	switch {
	case errors.Is(err, ErrTransferDeferred):
		s.logger.Info("transfer deferred after quorum", "requestId", updated.Id)
		return s.getRequest(ctx, updated.Id)
	case errors.Is(err, ErrTransferOutcomeUnknown):
		s.logger.Warn("transfer outcome unknown after quorum", "requestId", updated.Id)
		return final, nil
	case err != nil:
		return nil, fmt.Errorf("approval recorded but transfer failed: %w", err)
	}
	return final, nil
}

func (s *Service) reject(ctx context.Context, req *models.WageAdvanceRequest, decider *models.User, reason string, expired bool) (*models.WageAdvanceRequest, error) {
	if reason == "" {
		reason = DefaultRejectionReason
	}

	// An expired schedule is already gone from the ledger.
	if !expired {
		if err := s.custody.CancelSchedule(ctx, req.DeleteKeyRef, req.ScheduleId); err != nil {
			if errors.Is(err, custody.ErrKeyMissing) {
				s.logger.Error("delete key missing", "requestId", req.Id, "ref", req.DeleteKeyRef)
				return nil, fmt.Errorf("%w: delete key of request %s", ErrSigningKeyMissing, req.Id)
			}
			metrics.RecordAdvanceEvent("decision", "ledger_error")
			return nil, fmt.Errorf("%w: delete schedule %s: %w", ErrLedger, req.ScheduleId, err)
		}
	}

	now := s.nowFn()
	updated, err := s.store.TransitionRequest(ctx, req.Id, models.RequestPendingSignature, models.RequestRejected, models.RequestUpdate{
		RejectedBy:      decider.Id,
		RejectionReason: reason,
		CompletedAt:     &now,
	})
	if errors.Is(err, storage.ErrStatusConflict) {
		return nil, s.stateConflict(ctx, req.Id, models.RequestPendingSignature)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reject request %s: %w", req.Id, err)
	}

	s.record(ctx, &models.LedgerOperation{
		Type:         models.OpScheduleDelete,
		UserId:       decider.Id,
		EntrepriseId: updated.EntrepriseId,
		TokenId:      updated.TokenId,
		RequestId:    updated.Id,
		Details: models.OperationDetails{ScheduleDeleted: &models.ScheduleDeletedDetails{
			ScheduleId: updated.ScheduleId,
			DeciderId:  decider.Id,
			Reason:     reason,
		}},
	})
	s.notify(ctx, notify.Notification{
		Kind:         notify.KindRequestRejected,
		RecipientIds: []string{updated.EmployeeId},
		RequestId:    updated.Id,
		Amount:       updated.RequestedAmount,
		DeciderName:  decider.Name,
		Reason:       reason,
	})
	s.destroyKey(ctx, updated.DeleteKeyRef)

	metrics.RecordAdvanceEvent("decision", "rejected")
	s.logger.Info("request rejected", "requestId", updated.Id, "deciderId", decider.Id, "reason", reason)
	return updated, nil
}

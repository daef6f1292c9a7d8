// Package reconcile resolves ledger operations whose outcome was not known when they were written:
// wallet signatures that never arrived and submitted transactions still awaiting consensus.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/balance"
	"github.com/chris/wage-advance-ledger/pkg/ledger"
	"github.com/chris/wage-advance-ledger/pkg/metrics"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/notify"
	"github.com/chris/wage-advance-ledger/pkg/storage"
	"github.com/google/uuid"
)

// ErrPassInProgress is returned when the same pass is already running in this process.
var ErrPassInProgress = errors.New("poller pass already in progress")

// ScheduleExpiredReason is the rejection reason of a request whose scheduled mint expired unsigned.
const ScheduleExpiredReason = "Scheduled mint expired before all deciders signed"

const (
	passStaleExpiry  = "stale_expiry"
	passConfirmation = "confirmation"
)

type Store interface {
	storage.RequestStore
	storage.OperationStore
}

// BalanceReader supplies the post-payment balance recorded on a deduction.
type BalanceReader interface {
	EmployeeBalance(ctx context.Context, employeeID string) (*balance.Balance, error)
}

// KeyDestroyer drops a request's delete key once its transfer is confirmed.
type KeyDestroyer interface {
	Destroy(ctx context.Context, ref string) error
}

// StaleResult counts what one stale expiry pass did.
type StaleResult struct {
	Checked int
	Expired int
	// RequestsExpired counts requests rejected because their scheduled mint expired.
	RequestsExpired int
	// Skipped counts records finalized by another writer during the pass.
	Skipped int
	Errors  int
}

// ConfirmationResult counts what one confirmation pass did.
type ConfirmationResult struct {
	Checked   int
	Confirmed int
	Failed    int
	Pending   int
	Skipped   int
	Errors    int
}

type Poller struct {
	store          Store
	finality       ledger.FinalityQuerier
	balances       BalanceReader
	notifier       notify.Notifier
	keys           KeyDestroyer
	staleThreshold time.Duration
	logger         *slog.Logger
	nowFn          func() time.Time
	newID          func() string

	staleMu   sync.Mutex
	confirmMu sync.Mutex
}

type Option func(*Poller)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) { p.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.nowFn = now }
}

func WithKeyDestroyer(keys KeyDestroyer) Option {
	return func(p *Poller) { p.keys = keys }
}

func WithIDGenerator(newID func() string) Option {
	return func(p *Poller) { p.newID = newID }
}

func New(store Store, finality ledger.FinalityQuerier, balances BalanceReader, notifier notify.Notifier, staleThreshold time.Duration, opts ...Option) *Poller {
	p := &Poller{
		store:          store,
		finality:       finality,
		balances:       balances,
		notifier:       notifier,
		staleThreshold: staleThreshold,
		logger:         slog.Default(),
		nowFn:          func() time.Time { return time.Now().UTC() },
		newID:          uuid.NewString,
	}
	if p.notifier == nil {
		p.notifier = notify.NoOp{}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunStaleExpiry marks wallet-signed operations that were never signed within the threshold as ERROR,
// then rejects requests whose scheduled mint expired before collecting every decider signature.
func (p *Poller) RunStaleExpiry(ctx context.Context) (*StaleResult, error) {
	if !p.staleMu.TryLock() {
		return nil, ErrPassInProgress
	}
	defer p.staleMu.Unlock()

	ops, err := p.store.ListOperations(ctx, storage.OperationFilter{Status: models.OperationPendingSignature})
	if err != nil {
		return nil, fmt.Errorf("failed to list operations awaiting signature: %w", err)
	}

	now := p.nowFn()
	cutoff := now.Add(-p.staleThreshold)
	message := fmt.Sprintf("operation expired: not signed within %s", p.staleThreshold)
	result := &StaleResult{}

	for _, op := range ops {
		// An operation carrying a transaction id was signed; the confirmation pass owns it.
		if !op.Type.IsWalletSigned() || op.TransactionId != "" {
			continue
		}
		result.Checked++
		if !op.CreatedAt.Before(cutoff) {
			continue
		}

		_, err := p.store.TransitionOperation(ctx, op.Id, models.OperationPendingSignature, models.OperationResult{
			Status:       models.OperationError,
			ErrorMessage: message,
			CompletedAt:  &now,
		})
		switch {
		case errors.Is(err, storage.ErrOperationFinalized):
			result.Skipped++
		case err != nil:
			result.Errors++
			p.logger.Error("failed to expire operation", "operationId", op.Id, "error", err)
		default:
			result.Expired++
			p.logger.Info("operation expired", "operationId", op.Id, "type", op.Type, "age", now.Sub(op.CreatedAt))
		}
	}

	p.expireSchedules(ctx, now, result)

	metrics.RecordPollerResult(passStaleExpiry, "expired", result.Expired)
	metrics.RecordPollerResult(passStaleExpiry, "request_expired", result.RequestsExpired)
	metrics.RecordPollerResult(passStaleExpiry, "skipped", result.Skipped)
	metrics.RecordPollerResult(passStaleExpiry, "error", result.Errors)
	p.logger.Info("stale expiry finished",
		"checked", result.Checked, "expired", result.Expired, "requestsExpired", result.RequestsExpired, "skipped", result.Skipped)
	return result, nil
}

// expireSchedules closes pending_signature requests whose scheduled mint is past its expiry.
// The ledger drops an expired schedule by itself, so only the request, its active lock and
// its delete key are cleaned up here.
func (p *Poller) expireSchedules(ctx context.Context, now time.Time, result *StaleResult) {
	reqs, err := p.store.ListRequestsByStatus(ctx, models.RequestPendingSignature)
	if err != nil {
		result.Errors++
		p.logger.Error("failed to list requests awaiting signatures", "error", err)
		return
	}

	for _, req := range reqs {
		if req.ScheduleExpiresAt == nil || !now.After(*req.ScheduleExpiresAt) {
			continue
		}
		result.Checked++

		// A mint that executed before expiry belongs to the transfer, not to this pass.
		if req.ScheduledTransactionId != "" {
			f, err := p.finality.QueryTransactionFinality(ctx, req.ScheduledTransactionId)
			if err != nil {
				result.Errors++
				p.logger.Warn("finality query failed", "requestId", req.Id, "transactionId", req.ScheduledTransactionId, "error", err)
				continue
			}
			if f.Status == ledger.FinalitySuccess {
				result.Skipped++
				p.logger.Warn("scheduled mint executed but transfer still outstanding", "requestId", req.Id)
				continue
			}
		}

		rejected, err := p.store.TransitionRequest(ctx, req.Id, models.RequestPendingSignature, models.RequestRejected, models.RequestUpdate{
			RejectionReason: ScheduleExpiredReason,
			CompletedAt:     &now,
		})
		if errors.Is(err, storage.ErrStatusConflict) {
			result.Skipped++
			continue
		}
		if err != nil {
			result.Errors++
			p.logger.Error("failed to expire request", "requestId", req.Id, "error", err)
			continue
		}
		result.RequestsExpired++
		p.logger.Info("request expired with its scheduled mint", "requestId", rejected.Id, "scheduleId", rejected.ScheduleId)
		p.closeExpired(ctx, rejected, now)
	}
}

func (p *Poller) closeExpired(ctx context.Context, req *models.WageAdvanceRequest, now time.Time) {
	audit := &models.LedgerOperation{
		Id:           p.newID(),
		Type:         models.OpScheduleDelete,
		Status:       models.OperationSuccess,
		UserId:       req.EmployeeId,
		EntrepriseId: req.EntrepriseId,
		TokenId:      req.TokenId,
		RequestId:    req.Id,
		Details: models.OperationDetails{ScheduleDeleted: &models.ScheduleDeletedDetails{
			ScheduleId: req.ScheduleId,
			Reason:     ScheduleExpiredReason,
		}},
		CreatedAt:   now,
		CompletedAt: &now,
	}
	if err := p.store.CreateOperation(ctx, audit); err != nil {
		p.logger.Error("failed to record schedule expiry", "requestId", req.Id, "error", err)
	}

	n := notify.Notification{
		Kind:         notify.KindRequestRejected,
		RecipientIds: []string{req.EmployeeId},
		RequestId:    req.Id,
		Amount:       req.RequestedAmount,
		Reason:       ScheduleExpiredReason,
		CreatedAt:    now,
	}
	if err := p.notifier.Notify(ctx, n); err != nil {
		p.logger.Warn("notification failed", "kind", n.Kind, "requestId", req.Id, "error", err)
	}
	if p.keys != nil && req.DeleteKeyRef != "" {
		if err := p.keys.Destroy(ctx, req.DeleteKeyRef); err != nil {
			p.logger.Warn("failed to destroy delete key", "ref", req.DeleteKeyRef, "error", err)
		}
	}
}

// RunConfirmationReconciliation resolves submitted operations against ledger finality.
func (p *Poller) RunConfirmationReconciliation(ctx context.Context) (*ConfirmationResult, error) {
	if !p.confirmMu.TryLock() {
		return nil, ErrPassInProgress
	}
	defer p.confirmMu.Unlock()

	confirming, err := p.store.ListOperations(ctx, storage.OperationFilter{Status: models.OperationPendingConfirmation})
	if err != nil {
		return nil, fmt.Errorf("failed to list operations awaiting confirmation: %w", err)
	}
	signing, err := p.store.ListOperations(ctx, storage.OperationFilter{Status: models.OperationPendingSignature})
	if err != nil {
		return nil, fmt.Errorf("failed to list operations awaiting signature: %w", err)
	}

	result := &ConfirmationResult{}
	for _, op := range append(confirming, signing...) {
		if !op.Type.IsPollable() || op.TransactionId == "" {
			continue
		}
		result.Checked++
		p.reconcile(ctx, &op, result)
	}

	metrics.RecordPollerResult(passConfirmation, "confirmed", result.Confirmed)
	metrics.RecordPollerResult(passConfirmation, "failed", result.Failed)
	metrics.RecordPollerResult(passConfirmation, "pending", result.Pending)
	metrics.RecordPollerResult(passConfirmation, "error", result.Errors)
	p.logger.Info("confirmation reconciliation finished",
		"checked", result.Checked, "confirmed", result.Confirmed, "failed", result.Failed, "pending", result.Pending)
	return result, nil
}

func (p *Poller) reconcile(ctx context.Context, op *models.LedgerOperation, result *ConfirmationResult) {
	f, err := p.finality.QueryTransactionFinality(ctx, op.TransactionId)
	if err != nil {
		result.Errors++
		p.logger.Warn("finality query failed", "operationId", op.Id, "transactionId", op.TransactionId, "error", err)
		return
	}

	switch {
	case f.Status == ledger.FinalityPending:
		result.Pending++
	case f.Status == ledger.FinalitySuccess,
		op.Type == models.OpTokenAssociate && ledger.IsAlreadyAssociated(f.ErrorMessage):
		p.confirm(ctx, op, f, result)
	default:
		p.fail(ctx, op, f, result)
	}
}

func (p *Poller) confirm(ctx context.Context, op *models.LedgerOperation, f *ledger.Finality, result *ConfirmationResult) {
	now := p.nowFn()
	confirmed, err := p.store.TransitionOperation(ctx, op.Id, op.Status, models.OperationResult{
		Status:        models.OperationSuccess,
		TransactionId: op.TransactionId,
		ConsensusTime: f.ConsensusTime,
		CompletedAt:   &now,
	})
	if errors.Is(err, storage.ErrOperationFinalized) {
		result.Skipped++
		return
	}
	if err != nil {
		result.Errors++
		p.logger.Error("failed to confirm operation", "operationId", op.Id, "error", err)
		return
	}
	result.Confirmed++
	p.logger.Info("operation confirmed", "operationId", op.Id, "type", op.Type, "transactionId", op.TransactionId)

	switch confirmed.Type {
	case models.OpShopPaymentAccept:
		p.deductBalance(ctx, confirmed)
	case models.OpWageAdvanceTransfer:
		p.completeRequest(ctx, confirmed)
	}
}

func (p *Poller) fail(ctx context.Context, op *models.LedgerOperation, f *ledger.Finality, result *ConfirmationResult) {
	now := p.nowFn()
	_, err := p.store.TransitionOperation(ctx, op.Id, op.Status, models.OperationResult{
		Status:        models.OperationError,
		TransactionId: op.TransactionId,
		ErrorMessage:  f.ErrorMessage,
		ConsensusTime: f.ConsensusTime,
		CompletedAt:   &now,
	})
	if errors.Is(err, storage.ErrOperationFinalized) {
		result.Skipped++
		return
	}
	if err != nil {
		result.Errors++
		p.logger.Error("failed to mark operation failed", "operationId", op.Id, "error", err)
		return
	}
	result.Failed++
	p.logger.Warn("operation failed on ledger", "operationId", op.Id, "type", op.Type, "reason", f.ErrorMessage)

	if op.Type == models.OpWageAdvanceTransfer && op.RequestId != "" {
		_, err := p.store.TransitionRequest(ctx, op.RequestId, models.RequestApproved, models.RequestPendingSignature, models.RequestUpdate{})
		if err != nil {
			p.logger.Error("failed to release transfer lock", "requestId", op.RequestId, "error", err)
		}
	}
}

// deductBalance writes the BALANCE_DEDUCTION that follows a confirmed shop payment.
func (p *Poller) deductBalance(ctx context.Context, payment *models.LedgerOperation) {
	details := payment.Details.ShopPayment
	if details == nil {
		return
	}

	var after int64
	if bal, err := p.balances.EmployeeBalance(ctx, details.EmployeeId); err != nil {
		p.logger.Warn("failed to compute balance after payment", "employeeId", details.EmployeeId, "error", err)
	} else {
		after = bal.CurrentBalance
	}

	now := p.nowFn()
	deduction := &models.LedgerOperation{
		Id:            p.newID(),
		Type:          models.OpBalanceDeduction,
		Status:        models.OperationSuccess,
		UserId:        details.EmployeeId,
		EntrepriseId:  payment.EntrepriseId,
		TokenId:       payment.TokenId,
		TransactionId: payment.TransactionId,
		ConsensusTime: payment.ConsensusTime,
		Details: models.OperationDetails{BalanceDeduction: &models.BalanceDeductionDetails{
			PaymentOperationId: payment.Id,
			Amount:             details.Amount,
			BalanceAfter:       after,
		}},
		CreatedAt:   now,
		CompletedAt: &now,
	}
	if err := p.store.CreateOperation(ctx, deduction); err != nil {
		p.logger.Error("failed to record balance deduction", "paymentId", payment.Id, "error", err)
		return
	}

	n := notify.Notification{
		Kind:          notify.KindBalanceDeducted,
		RecipientIds:  []string{details.EmployeeId},
		OperationId:   payment.Id,
		Amount:        details.Amount,
		TransactionId: payment.TransactionId,
		CreatedAt:     now,
	}
	if err := p.notifier.Notify(ctx, n); err != nil {
		p.logger.Warn("notification failed", "kind", n.Kind, "operationId", payment.Id, "error", err)
	}
}

// completeRequest finishes a request whose transfer outcome was unknown when submitted.
func (p *Poller) completeRequest(ctx context.Context, transfer *models.LedgerOperation) {
	if transfer.RequestId == "" {
		return
	}
	now := p.nowFn()
	req, err := p.store.TransitionRequest(ctx, transfer.RequestId, models.RequestApproved, models.RequestCompleted, models.RequestUpdate{
		TransferTransactionId: transfer.TransactionId,
		CompletedAt:           &now,
	})
	if err != nil {
		p.logger.Error("failed to complete request after confirmed transfer", "requestId", transfer.RequestId, "error", err)
		return
	}

	n := notify.Notification{
		Kind:          notify.KindAdvanceCompleted,
		RecipientIds:  []string{req.EmployeeId},
		RequestId:     req.Id,
		Amount:        req.RequestedAmount,
		TransactionId: transfer.TransactionId,
		CreatedAt:     now,
	}
	if err := p.notifier.Notify(ctx, n); err != nil {
		p.logger.Warn("notification failed", "kind", n.Kind, "requestId", req.Id, "error", err)
	}
	if p.keys != nil && req.DeleteKeyRef != "" {
		if err := p.keys.Destroy(ctx, req.DeleteKeyRef); err != nil {
			p.logger.Warn("failed to destroy delete key", "ref", req.DeleteKeyRef, "error", err)
		}
	}
}

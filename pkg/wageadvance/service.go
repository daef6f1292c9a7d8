// Package wageadvance drives a wage advance request from creation through the scheduled mint,
// decider signature collection and the treasury transfer.
package wageadvance

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/ledger"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/notify"
	"github.com/chris/wage-advance-ledger/pkg/scheduler"
	"github.com/chris/wage-advance-ledger/pkg/storage"
	"github.com/google/uuid"
)

// DefaultRejectionReason is recorded when a decider rejects without a reason.
const DefaultRejectionReason = "Rejected by decider"

// KeyCustodian holds the keys the orchestrator acts with. Raw key material never leaves it.
type KeyCustodian interface {
	GenerateDeleteKey(ctx context.Context, requestID string) (ed25519.PublicKey, string, error)
	CancelSchedule(ctx context.Context, ref, scheduleID string) error
	SignSchedule(ctx context.Context, signerID, scheduleID string) error
	Destroy(ctx context.Context, ref string) error
}

// Store is the part of the record store the orchestrator uses.
type Store interface {
	storage.DirectoryStore
	storage.RequestStore
	storage.OperationStore
}

type Config struct {
	ScheduleExpiry time.Duration
	// Finality bounds the wait for the scheduled mint before a transfer.
	Finality RetryConfig
	// TransferRetryDelay is how long a deferred transfer waits in the queue.
	TransferRetryDelay time.Duration
	MaxDeferrals       int
}

func DefaultConfig() Config {
	return Config{
		ScheduleExpiry:     72 * time.Hour,
		Finality:           DefaultRetryConfig(),
		TransferRetryDelay: time.Minute,
		MaxDeferrals:       10,
	}
}

// Service is the wage advance orchestrator.
type Service struct {
	store     Store
	gateway   ledger.Gateway
	custody   KeyCustodian
	notifier  notify.Notifier
	scheduler scheduler.Scheduler
	cfg       Config
	logger    *slog.Logger
	nowFn     func() time.Time
	newID     func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.nowFn = now }
}

// WithScheduler enables deferred transfers. Without it a transfer whose mint is not yet
// final returns ErrTransferDeferred and must be retried through ExecuteTransfer.
func WithScheduler(sch scheduler.Scheduler) Option {
	return func(s *Service) { s.scheduler = sch }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func New(store Store, gateway ledger.Gateway, custodian KeyCustodian, notifier notify.Notifier, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:    store,
		gateway:  gateway,
		custody:  custodian,
		notifier: notifier,
		cfg:      cfg,
		logger:   slog.Default(),
		nowFn:    func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	if s.notifier == nil {
		s.notifier = notify.NoOp{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) getUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	return user, nil
}

func (s *Service) getRequest(ctx context.Context, requestID string) (*models.WageAdvanceRequest, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: request %s", ErrNotFound, requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request %s: %w", requestID, err)
	}
	return req, nil
}

func (s *Service) deciders(ctx context.Context, entrepriseID string) ([]models.User, error) {
	roster, err := s.store.ListUsersByEnterprise(ctx, entrepriseID, models.CategoryDecider)
	if err != nil {
		return nil, fmt.Errorf("failed to list deciders for %s: %w", entrepriseID, err)
	}
	return roster, nil
}

// stateConflict re-reads the request after a lost conditional write so the error names the actual status.
func (s *Service) stateConflict(ctx context.Context, requestID string, required models.RequestStatus) error {
	actual := models.RequestStatus("unknown")
	if req, err := s.store.GetRequest(ctx, requestID); err == nil {
		actual = req.Status
	}
	return &StateError{RequestID: requestID, Required: required, Actual: actual}
}

// record appends an audit operation. Audit failures are logged and never undo the action.
func (s *Service) record(ctx context.Context, op *models.LedgerOperation) {
	now := s.nowFn()
	op.Id = s.newID()
	op.CreatedAt = now
	if op.Status == "" {
		op.Status = models.OperationSuccess
	}
	if op.Status.IsTerminal() {
		op.CompletedAt = &now
	}
	if err := s.store.CreateOperation(ctx, op); err != nil {
		s.logger.Error("failed to record ledger operation", "type", op.Type, "requestId", op.RequestId, "error", err)
	}
}

func (s *Service) notify(ctx context.Context, n notify.Notification) {
	n.CreatedAt = s.nowFn()
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("notification failed", "kind", n.Kind, "requestId", n.RequestId, "error", err)
	}
}

// destroyKey drops a delete key that can no longer be used.
func (s *Service) destroyKey(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.custody.Destroy(ctx, ref); err != nil {
		s.logger.Warn("failed to destroy delete key", "ref", ref, "error", err)
	}
}

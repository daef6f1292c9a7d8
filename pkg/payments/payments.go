// Package payments prepares the wallet-signed operations an employee submits from their own
// wallet: paying a shop with advanced tokens and associating their account with the token.
package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/balance"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/storage"
	"github.com/google/uuid"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("conflict")
	ErrPreconditionFailed  = errors.New("precondition failed")
	ErrInsufficientBalance = errors.New("insufficient advance balance")
)

type Store interface {
	storage.DirectoryStore
	storage.OperationStore
}

type BalanceReader interface {
	EmployeeBalance(ctx context.Context, employeeID string) (*balance.Balance, error)
}

type Service struct {
	store    Store
	balances BalanceReader
	logger   *slog.Logger
	nowFn    func() time.Time
	newID    func() string
}

func NewService(store Store, balances BalanceReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		balances: balances,
		logger:   logger,
		nowFn:    func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// PrepareShopPayment records a payment from the employee to a shop that awaits the employee's
// wallet signature. The amount may not exceed the balance left after payments still in flight.
func (s *Service) PrepareShopPayment(ctx context.Context, employeeID, shopUserID string, amount int64) (*models.LedgerOperation, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}

	shop, err := s.getUser(ctx, shopUserID)
	if err != nil {
		return nil, err
	}
	if shop.Category != models.CategoryShopAdmin && shop.Category != models.CategoryCashier {
		return nil, fmt.Errorf("%w: user %s cannot accept payments", ErrForbidden, shopUserID)
	}
	if shop.AccountId == "" {
		return nil, fmt.Errorf("%w: shop user %s has no ledger account", ErrPreconditionFailed, shopUserID)
	}

	employee, token, err := s.employeeWithToken(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	available, err := s.available(ctx, employee.Id)
	if err != nil {
		return nil, err
	}
	if amount > available {
		return nil, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientBalance, amount, available)
	}

	op := &models.LedgerOperation{
		Id:           s.newID(),
		Type:         models.OpShopPaymentAccept,
		Status:       models.OperationPendingSignature,
		UserId:       employee.Id,
		EntrepriseId: employee.EntrepriseId,
		TokenId:      token.TokenId,
		Details: models.OperationDetails{ShopPayment: &models.ShopPaymentDetails{
			EmployeeId:        employee.Id,
			EmployeeAccountId: employee.AccountId,
			ShopUserId:        shop.Id,
			ShopAccountId:     shop.AccountId,
			Amount:            amount,
		}},
		CreatedAt: s.nowFn(),
	}
	if err := s.store.CreateOperation(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to create shop payment: %w", err)
	}
	s.logger.Info("shop payment prepared", "operationId", op.Id, "employeeId", employee.Id, "shopUserId", shop.Id, "amount", amount)
	return op, nil
}

// PrepareAssociation records a token association awaiting the employee's wallet signature.
func (s *Service) PrepareAssociation(ctx context.Context, employeeID string) (*models.LedgerOperation, error) {
	employee, token, err := s.employeeWithToken(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	op := &models.LedgerOperation{
		Id:           s.newID(),
		Type:         models.OpTokenAssociate,
		Status:       models.OperationPendingSignature,
		UserId:       employee.Id,
		EntrepriseId: employee.EntrepriseId,
		TokenId:      token.TokenId,
		Details:      models.OperationDetails{TokenAssociation: &models.TokenAssociationDetails{AccountId: employee.AccountId}},
		CreatedAt:    s.nowFn(),
	}
	if err := s.store.CreateOperation(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to create token association: %w", err)
	}
	s.logger.Info("token association prepared", "operationId", op.Id, "employeeId", employee.Id, "tokenId", token.TokenId)
	return op, nil
}

// AcknowledgeSignature stores the transaction id the owner's wallet submitted and hands the
// operation to the confirmation poller.
func (s *Service) AcknowledgeSignature(ctx context.Context, operationID, userID, transactionID string) (*models.LedgerOperation, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("%w: transaction id is required", ErrValidation)
	}

	op, err := s.store.GetOperation(ctx, operationID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: operation %s", ErrNotFound, operationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load operation %s: %w", operationID, err)
	}
	if op.UserId != userID {
		return nil, fmt.Errorf("%w: operation %s belongs to another user", ErrForbidden, operationID)
	}
	if !op.Type.IsWalletSigned() {
		return nil, fmt.Errorf("%w: operation %s is not wallet-signed", ErrValidation, operationID)
	}

	updated, err := s.store.TransitionOperation(ctx, operationID, models.OperationPendingSignature, models.OperationResult{
		Status:        models.OperationPendingConfirmation,
		TransactionId: transactionID,
	})
	if errors.Is(err, storage.ErrOperationFinalized) {
		return nil, fmt.Errorf("%w: operation %s is %s", ErrConflict, operationID, op.Status)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acknowledge signature on %s: %w", operationID, err)
	}
	s.logger.Info("wallet signature acknowledged", "operationId", operationID, "transactionId", transactionID)
	return updated, nil
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

func (s *Service) employeeWithToken(ctx context.Context, employeeID string) (*models.User, *models.EnterpriseToken, error) {
	employee, err := s.getUser(ctx, employeeID)
	if err != nil {
		return nil, nil, err
	}
	if employee.Category != models.CategoryEmployee {
		return nil, nil, fmt.Errorf("%w: user %s is not an employee", ErrForbidden, employeeID)
	}
	if employee.AccountId == "" {
		return nil, nil, fmt.Errorf("%w: employee %s has no ledger account", ErrPreconditionFailed, employeeID)
	}
	token, err := s.store.GetEnterpriseToken(ctx, employee.EntrepriseId)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: enterprise %s has no token", ErrPreconditionFailed, employee.EntrepriseId)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load enterprise token: %w", err)
	}
	return employee, token, nil
}

// available is the current balance minus shop payments that are prepared but not yet final.
func (s *Service) available(ctx context.Context, employeeID string) (int64, error) {
	bal, err := s.balances.EmployeeBalance(ctx, employeeID)
	if err != nil {
		return 0, fmt.Errorf("failed to compute balance: %w", err)
	}
	available := bal.CurrentBalance
	for _, status := range []models.OperationStatus{models.OperationPendingSignature, models.OperationPendingConfirmation} {
		inFlight, err := s.store.ListOperations(ctx, storage.OperationFilter{
			Type:   models.OpShopPaymentAccept,
			Status: status,
			UserId: employeeID,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to list in-flight payments: %w", err)
		}
		for _, op := range inFlight {
			available -= op.Details.ShopPayment.Amount
		}
	}
	return max(0, available), nil
}

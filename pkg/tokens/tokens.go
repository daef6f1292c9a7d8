// Package tokens enrolls decider signing keys and provisions the enterprise token whose
// supply key list those deciders form.
package tokens

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/custody"
	"github.com/chris/wage-advance-ledger/pkg/ledger"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/storage"
	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrNotDecider         = errors.New("user is not a decider")
	ErrAlreadyEnrolled    = errors.New("decider already enrolled")
	ErrTokenExists        = errors.New("enterprise already has a token")
	ErrNoDeciders         = errors.New("enterprise has no deciders")
	ErrDeciderNotEnrolled = errors.New("decider has no signing key")
	ErrInvalidToken       = errors.New("invalid token parameters")
	ErrLedger             = errors.New("ledger call failed")
)

// Custodian holds the decider signing keys.
type Custodian interface {
	EnrollSigner(ctx context.Context, signerID string) (ed25519.PublicKey, error)
	SignerPublicKey(ctx context.Context, signerID string) (ed25519.PublicKey, error)
}

type Store interface {
	storage.DirectoryStore
	storage.OperationStore
}

// TokenInput describes the token an enterprise advances wages in.
type TokenInput struct {
	EnterpriseID   string
	Name           string
	Symbol         string
	Decimals       uint32
	FeeBasisPoints int32
}

type Service struct {
	store   Store
	gateway ledger.Gateway
	custody Custodian
	logger  *slog.Logger
	nowFn   func() time.Time
}

func NewService(store Store, gateway ledger.Gateway, custodian Custodian, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		gateway: gateway,
		custody: custodian,
		logger:  logger,
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// EnrollDecider generates and seals the decider's signing key and returns its public half.
func (s *Service) EnrollDecider(ctx context.Context, deciderID string) (ed25519.PublicKey, error) {
	decider, err := s.store.GetUser(ctx, deciderID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, deciderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", deciderID, err)
	}
	if decider.Category != models.CategoryDecider {
		return nil, ErrNotDecider
	}

	pub, err := s.custody.EnrollSigner(ctx, deciderID)
	if errors.Is(err, custody.ErrSignerEnrolled) {
		return nil, ErrAlreadyEnrolled
	}
	if err != nil {
		return nil, fmt.Errorf("failed to enroll decider %s: %w", deciderID, err)
	}

	s.record(ctx, &models.LedgerOperation{
		Type:         models.OpSignerEnroll,
		UserId:       deciderID,
		EntrepriseId: decider.EntrepriseId,
		Details: models.OperationDetails{SignerEnrolled: &models.SignerEnrolledDetails{
			SignerId:  deciderID,
			PublicKey: hex.EncodeToString(pub),
		}},
	})
	s.logger.Info("decider enrolled", "deciderId", deciderID, "entrepriseId", decider.EntrepriseId)
	return pub, nil
}

// ProvisionToken creates the enterprise token with every decider's key in the supply key list.
// The threshold equals the decider count, so a scheduled mint needs every decider's signature.
func (s *Service) ProvisionToken(ctx context.Context, in TokenInput) (*models.EnterpriseToken, error) {
	if in.Name == "" || in.Symbol == "" {
		return nil, fmt.Errorf("%w: name and symbol are required", ErrInvalidToken)
	}
	if in.FeeBasisPoints < 0 || in.FeeBasisPoints > 10000 {
		return nil, fmt.Errorf("%w: fee basis points must be within 0..10000", ErrInvalidToken)
	}

	enterprise, err := s.store.GetEnterprise(ctx, in.EnterpriseID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: enterprise %s", ErrNotFound, in.EnterpriseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load enterprise %s: %w", in.EnterpriseID, err)
	}

	if _, err := s.store.GetEnterpriseToken(ctx, in.EnterpriseID); err == nil {
		return nil, ErrTokenExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load enterprise token: %w", err)
	}

	deciders, err := s.store.ListUsersByEnterprise(ctx, in.EnterpriseID, models.CategoryDecider)
	if err != nil {
		return nil, fmt.Errorf("failed to list deciders: %w", err)
	}
	if len(deciders) == 0 {
		return nil, ErrNoDeciders
	}

	keys := make([]ed25519.PublicKey, 0, len(deciders))
	keyList := make([]string, 0, len(deciders))
	for _, d := range deciders {
		pub, err := s.custody.SignerPublicKey(ctx, d.Id)
		if errors.Is(err, custody.ErrKeyMissing) {
			return nil, fmt.Errorf("%w: %s", ErrDeciderNotEnrolled, d.Id)
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, pub)
		keyList = append(keyList, hex.EncodeToString(pub))
	}

	receipt, err := s.gateway.CreateToken(ctx, ledger.TokenSpec{
		Name:               in.Name,
		Symbol:             in.Symbol,
		Decimals:           in.Decimals,
		TreasuryAccountID:  enterprise.TreasuryAccountId,
		FeeBasisPoints:     in.FeeBasisPoints,
		SupplyKeys:         keys,
		SupplyKeyThreshold: len(keys),
		Memo:               "enterprise:" + enterprise.Id,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create token: %w", ErrLedger, err)
	}

	token := &models.EnterpriseToken{
		EntrepriseId:       enterprise.Id,
		TokenId:            receipt.TokenID,
		Name:               in.Name,
		Symbol:             in.Symbol,
		Decimals:           in.Decimals,
		TreasuryAccountId:  enterprise.TreasuryAccountId,
		FeeBasisPoints:     in.FeeBasisPoints,
		SupplyKeyThreshold: len(keys),
		SupplyKeyList:      keyList,
		CreatedAt:          s.nowFn(),
	}
	if err := s.store.CreateEnterpriseToken(ctx, token); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrTokenExists
		}
		return nil, fmt.Errorf("failed to save enterprise token %s: %w", receipt.TokenID, err)
	}

	s.record(ctx, &models.LedgerOperation{
		Type:          models.OpTokenCreate,
		EntrepriseId:  enterprise.Id,
		TokenId:       receipt.TokenID,
		TransactionId: receipt.TransactionID,
		Details: models.OperationDetails{TokenCreated: &models.TokenCreatedDetails{
			Name:               in.Name,
			Symbol:             in.Symbol,
			Decimals:           in.Decimals,
			SupplyKeyThreshold: len(keys),
		}},
	})
	s.logger.Info("enterprise token created", "entrepriseId", enterprise.Id, "tokenId", receipt.TokenID, "deciders", len(keys))
	return token, nil
}

// record writes a completed audit operation. Failures are logged only.
func (s *Service) record(ctx context.Context, op *models.LedgerOperation) {
	now := s.nowFn()
	op.Id = uuid.NewString()
	op.Status = models.OperationSuccess
	op.CreatedAt = now
	op.CompletedAt = &now
	if op.UserId == "" {
		op.UserId = "system"
	}
	if err := s.store.CreateOperation(ctx, op); err != nil {
		s.logger.Error("failed to record operation", "type", op.Type, "error", err)
	}
}

// Package hedera implements ledger.Gateway on the Hedera network through the official Go SDK.
package hedera

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/ledger"
	sdk "github.com/hashgraph/hedera-sdk-go/v2"
)

// Config selects the network and the operator that pays for, and signs as treasury, every call.
type Config struct {
	Network     string
	OperatorID  string
	OperatorKey string
	CallTimeout time.Duration
}

// Gateway is safe for concurrent use once connected.
type Gateway struct {
	cfg         Config
	logger      *slog.Logger
	mu          sync.RWMutex
	client      *sdk.Client
	operatorID  sdk.AccountID
	operatorKey sdk.PrivateKey
}

// New creates an unconnected Gateway.
func New(cfg Config, logger *slog.Logger) *Gateway {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{cfg: cfg, logger: logger}
}

var _ ledger.Gateway = (*Gateway)(nil)

func (g *Gateway) Connect(_ context.Context) error {
	client, err := sdk.ClientForName(g.cfg.Network)
	if err != nil {
		return fmt.Errorf("failed to create hedera client for %q: %w", g.cfg.Network, err)
	}
	operatorID, err := sdk.AccountIDFromString(g.cfg.OperatorID)
	if err != nil {
		return fmt.Errorf("failed to parse operator id: %w", err)
	}
	operatorKey, err := sdk.PrivateKeyFromString(g.cfg.OperatorKey)
	if err != nil {
		return fmt.Errorf("failed to parse operator key: %w", err)
	}
	client.SetOperator(operatorID, operatorKey)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.client = client
	g.operatorID = operatorID
	g.operatorKey = operatorKey
	g.logger.Info("connected to hedera", "network", g.cfg.Network, "operator", operatorID.String())
	return nil
}

func (g *Gateway) IsConnected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.client != nil
}

func (g *Gateway) conn() (*sdk.Client, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.client == nil {
		return nil, ledger.ErrNotConnected
	}
	return g.client, nil
}

// within runs a blocking SDK call under the gateway timeout. A timeout maps to ErrOutcomeUnknown
// because the transaction may already have been submitted.
func within[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ledger.ErrOutcomeUnknown
	}
}

func privateKey(key ed25519.PrivateKey) (sdk.PrivateKey, error) {
	if len(key) != ed25519.PrivateKeySize {
		return sdk.PrivateKey{}, fmt.Errorf("invalid ed25519 private key length %d", len(key))
	}
	return sdk.PrivateKeyFromBytesEd25519(key.Seed())
}

func (g *Gateway) CreateToken(ctx context.Context, spec ledger.TokenSpec) (*ledger.TokenReceipt, error) {
	client, err := g.conn()
	if err != nil {
		return nil, err
	}

	supplyKey := sdk.KeyListWithThreshold(uint(spec.SupplyKeyThreshold))
	for _, raw := range spec.SupplyKeys {
		pub, err := sdk.PublicKeyFromBytesEd25519(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse supply key: %w", err)
		}
		supplyKey.Add(pub)
	}

	treasury := g.operatorID
	if spec.TreasuryAccountID != "" {
		if treasury, err = sdk.AccountIDFromString(spec.TreasuryAccountID); err != nil {
			return nil, fmt.Errorf("failed to parse treasury account: %w", err)
		}
	}

	tx := sdk.NewTokenCreateTransaction().
		SetTokenName(spec.Name).
		SetTokenSymbol(spec.Symbol).
		SetDecimals(uint(spec.Decimals)).
		SetInitialSupply(0).
		SetTreasuryAccountID(treasury).
		SetAdminKey(g.operatorKey.PublicKey()).
		SetSupplyKey(supplyKey).
		SetTokenType(sdk.TokenTypeFungibleCommon).
		SetSupplyType(sdk.TokenSupplyTypeInfinite).
		SetTokenMemo(spec.Memo)
	if spec.FeeBasisPoints > 0 {
		fee := sdk.NewCustomFractionalFee().
			SetNumerator(int64(spec.FeeBasisPoints)).
			SetDenominator(10_000).
			SetFeeCollectorAccountID(treasury)
		tx.SetCustomFees([]sdk.Fee{fee})
	}

	receipt, err := within(ctx, g.cfg.CallTimeout, func() (sdk.TransactionReceipt, error) {
		resp, err := tx.Execute(client)
		if err != nil {
			return sdk.TransactionReceipt{}, err
		}
		return resp.GetReceipt(client)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}
	if receipt.TokenID == nil {
		return nil, errors.New("token create receipt carried no token id")
	}
	return &ledger.TokenReceipt{TokenID: receipt.TokenID.String(), TransactionID: tx.GetTransactionID().String()}, nil
}

func (g *Gateway) CreateScheduledTransaction(ctx context.Context, req ledger.ScheduleRequest) (*ledger.ScheduleReceipt, error) {
	client, err := g.conn()
	if err != nil {
		return nil, err
	}
	tokenID, err := sdk.TokenIDFromString(req.Mint.TokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token id: %w", err)
	}
	adminKey, err := sdk.PublicKeyFromBytesEd25519(req.AdminKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schedule admin key: %w", err)
	}

	mint := sdk.NewTokenMintTransaction().
		SetTokenID(tokenID).
		SetAmount(uint64(req.Mint.Amount))
	scheduled, err := mint.Schedule()
	if err != nil {
		return nil, fmt.Errorf("failed to wrap mint in schedule: %w", err)
	}
	scheduled.
		SetAdminKey(adminKey).
		SetScheduleMemo(req.Memo).
		SetWaitForExpiry(false)
	if !req.ExpiresAt.IsZero() {
		scheduled.SetExpirationTime(req.ExpiresAt)
	}

	receipt, err := within(ctx, g.cfg.CallTimeout, func() (sdk.TransactionReceipt, error) {
		resp, err := scheduled.Execute(client)
		if err != nil {
			return sdk.TransactionReceipt{}, err
		}
		return resp.GetReceipt(client)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	if receipt.ScheduleID == nil || receipt.ScheduledTransactionID == nil {
		return nil, errors.New("schedule create receipt carried no schedule id")
	}
	return &ledger.ScheduleReceipt{
		ScheduleID:    receipt.ScheduleID.String(),
		TransactionID: receipt.ScheduledTransactionID.String(),
	}, nil
}

func (g *Gateway) SignSchedule(ctx context.Context, scheduleID string, key ed25519.PrivateKey) error {
	client, err := g.conn()
	if err != nil {
		return err
	}
	id, err := sdk.ScheduleIDFromString(scheduleID)
	if err != nil {
		return fmt.Errorf("failed to parse schedule id: %w", err)
	}
	signer, err := privateKey(key)
	if err != nil {
		return err
	}

	_, err = within(ctx, g.cfg.CallTimeout, func() (sdk.TransactionReceipt, error) {
		tx, err := sdk.NewScheduleSignTransaction().SetScheduleID(id).FreezeWith(client)
		if err != nil {
			return sdk.TransactionReceipt{}, err
		}
		resp, err := tx.Sign(signer).Execute(client)
		if err != nil {
			return sdk.TransactionReceipt{}, err
		}
		return resp.GetReceipt(client)
	})
	if err != nil {
		return fmt.Errorf("failed to sign schedule %s: %w", scheduleID, err)
	}
	return nil
}

func (g *Gateway) DeleteSchedule(ctx context.Context, scheduleID string, adminKey ed25519.PrivateKey) error {
	client, err := g.conn()
	if err != nil {
		return err
	}
	id, err := sdk.ScheduleIDFromString(scheduleID)
	if err != nil {
		return fmt.Errorf("failed to parse schedule id: %w", err)
	}
	signer, err := privateKey(adminKey)
	if err != nil {
		return err
	}

	_, err = within(ctx, g.cfg.CallTimeout, func() (sdk.TransactionReceipt, error) {
		tx, err := sdk.NewScheduleDeleteTransaction().SetScheduleID(id).FreezeWith(client)
		if err != nil {
			return sdk.TransactionReceipt{}, err
		}
		resp, err := tx.Sign(signer).Execute(client)
		if err != nil {
			return sdk.TransactionReceipt{}, err
		}
		return resp.GetReceipt(client)
	})
	if err != nil {
		return fmt.Errorf("failed to delete schedule %s: %w", scheduleID, err)
	}
	return nil
}

// TransferTokens pre-generates the transaction id so a timed-out transfer can still be tracked.
func (g *Gateway) TransferTokens(ctx context.Context, transfer ledger.Transfer) (string, error) {
	client, err := g.conn()
	if err != nil {
		return "", err
	}
	tokenID, err := sdk.TokenIDFromString(transfer.TokenID)
	if err != nil {
		return "", fmt.Errorf("failed to parse token id: %w", err)
	}
	from, err := sdk.AccountIDFromString(transfer.From)
	if err != nil {
		return "", fmt.Errorf("failed to parse source account: %w", err)
	}
	to, err := sdk.AccountIDFromString(transfer.To)
	if err != nil {
		return "", fmt.Errorf("failed to parse destination account: %w", err)
	}

	txID := sdk.TransactionIDGenerate(g.operatorID)
	tx := sdk.NewTransferTransaction().
		SetTransactionID(txID).
		SetTransactionMemo(transfer.Memo).
		AddTokenTransfer(tokenID, from, -transfer.Amount).
		AddTokenTransfer(tokenID, to, transfer.Amount)

	_, err = within(ctx, g.cfg.CallTimeout, func() (sdk.TransactionReceipt, error) {
		resp, err := tx.Execute(client)
		if err != nil {
			return sdk.TransactionReceipt{}, err
		}
		return resp.GetReceipt(client)
	})
	if errors.Is(err, ledger.ErrOutcomeUnknown) {
		g.logger.Warn("transfer outcome unknown", "transaction_id", txID.String())
		return txID.String(), err
	}
	if err != nil {
		return "", fmt.Errorf("failed to transfer tokens: %w", err)
	}
	return txID.String(), nil
}

// QueryTransactionFinality asks the network for the receipt. Prefer a mirror node in production
// through ledger.WithFinalitySource; receipts are only retained for a few minutes.
func (g *Gateway) QueryTransactionFinality(ctx context.Context, transactionID string) (*ledger.Finality, error) {
	client, err := g.conn()
	if err != nil {
		return nil, err
	}
	txID, err := sdk.TransactionIdFromString(transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction id: %w", err)
	}

	receipt, err := within(ctx, g.cfg.CallTimeout, func() (sdk.TransactionReceipt, error) {
		return sdk.NewTransactionReceiptQuery().SetTransactionID(txID).Execute(client)
	})
	if errors.Is(err, ledger.ErrOutcomeUnknown) {
		return &ledger.Finality{Status: ledger.FinalityPending}, nil
	}
	if err != nil {
		var statusErr sdk.ErrHederaReceiptStatus
		if errors.As(err, &statusErr) {
			return finalityFromStatus(statusErr.Status), nil
		}
		return nil, fmt.Errorf("failed to query receipt: %w", err)
	}
	return finalityFromStatus(receipt.Status), nil
}

func finalityFromStatus(status sdk.Status) *ledger.Finality {
	switch status {
	case sdk.StatusSuccess:
		return &ledger.Finality{Status: ledger.FinalitySuccess}
	case sdk.StatusUnknown, sdk.StatusReceiptNotFound:
		return &ledger.Finality{Status: ledger.FinalityPending}
	default:
		return &ledger.Finality{Status: ledger.FinalityFailed, ErrorMessage: status.String()}
	}
}

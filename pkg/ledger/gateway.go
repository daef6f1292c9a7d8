// Package ledger defines the boundary to the distributed ledger that holds enterprise tokens.
package ledger

import (
	"context"
	"crypto/ed25519"
	"time"
)

// FinalityStatus is the consensus outcome of a submitted transaction.
type FinalityStatus string

const (
	FinalityPending FinalityStatus = "PENDING"
	FinalitySuccess FinalityStatus = "SUCCESS"
	FinalityFailed  FinalityStatus = "FAILED"
)

// Finality is the answer to "has this transaction reached consensus, and how".
type Finality struct {
	Status        FinalityStatus
	ConsensusTime string
	ErrorMessage  string
}

// TokenSpec describes a fungible enterprise token. SupplyKeys with SupplyKeyThreshold
// form the threshold key list that must co-sign every mint.
type TokenSpec struct {
	Name               string
	Symbol             string
	Decimals           uint32
	TreasuryAccountID  string
	FeeBasisPoints     int32
	SupplyKeys         []ed25519.PublicKey
	SupplyKeyThreshold int
	Memo               string
}

type TokenReceipt struct {
	TokenID       string
	TransactionID string
}

// Mint is the payload wrapped by a scheduled transaction.
type Mint struct {
	TokenID string
	Amount  int64
}

// ScheduleRequest creates a scheduled mint. AdminKey is the only key able to delete it.
type ScheduleRequest struct {
	Mint      Mint
	AdminKey  ed25519.PublicKey
	ExpiresAt time.Time
	Memo      string
}

// ScheduleReceipt identifies the schedule and the transaction it executes once fully signed.
type ScheduleReceipt struct {
	ScheduleID    string
	TransactionID string
}

// Transfer moves tokens between two accounts. The source account is the operator treasury.
type Transfer struct {
	TokenID string
	From    string
	To      string
	Amount  int64
	Memo    string
}

// FinalityQuerier resolves the consensus status of a transaction id.
type FinalityQuerier interface {
	QueryTransactionFinality(ctx context.Context, transactionID string) (*Finality, error)
}

// Gateway is the set of ledger calls the wage advance flow needs.
// Implementations must be safe for concurrent use.
type Gateway interface {
	Connect(ctx context.Context) error
	IsConnected() bool

	CreateToken(ctx context.Context, spec TokenSpec) (*TokenReceipt, error)
	CreateScheduledTransaction(ctx context.Context, req ScheduleRequest) (*ScheduleReceipt, error)
	SignSchedule(ctx context.Context, scheduleID string, key ed25519.PrivateKey) error
	DeleteSchedule(ctx context.Context, scheduleID string, adminKey ed25519.PrivateKey) error

	// TransferTokens submits a transfer. When the outcome is unknown it returns the
	// pre-generated transaction id together with ErrOutcomeUnknown.
	TransferTokens(ctx context.Context, transfer Transfer) (string, error)

	FinalityQuerier
}

// withFinality overrides finality queries of a Gateway.
type withFinality struct {
	Gateway
	querier FinalityQuerier
}

// WithFinalitySource returns a Gateway that answers finality queries from querier,
// typically a MirrorClient, and everything else from gw.
func WithFinalitySource(gw Gateway, querier FinalityQuerier) Gateway {
	return &withFinality{Gateway: gw, querier: querier}
}

func (w *withFinality) QueryTransactionFinality(ctx context.Context, transactionID string) (*Finality, error) {
	return w.querier.QueryTransactionFinality(ctx, transactionID)
}

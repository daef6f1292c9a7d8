// Package sandbox is an in-process ledger with threshold-signed scheduled mints,
// delayed finality and fault injection. It backs tests and local runs without a network.
package sandbox

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/ledger"
)

// Call names a gateway method for fault injection.
type Call string

const (
	CallCreateToken    Call = "create_token"
	CallCreateSchedule Call = "create_schedule"
	CallSignSchedule   Call = "sign_schedule"
	CallDeleteSchedule Call = "delete_schedule"
	CallTransfer       Call = "transfer_tokens"
	CallQueryFinality  Call = "query_finality"
)

type token struct {
	treasury  string
	keys      map[string]bool
	threshold int
}

type schedule struct {
	mint       ledger.Mint
	adminKey   string
	signatures map[string]bool
	txID       string
	expiresAt  time.Time
	executed   bool
	deleted    bool
}

type record struct {
	finality ledger.Finality
	readyAt  time.Time
}

// Gateway implements ledger.Gateway in memory.
type Gateway struct {
	mu           sync.Mutex
	connected    bool
	operator     string
	seq          int64
	tokens       map[string]*token
	schedules    map[string]*schedule
	transactions map[string]*record
	balances     map[string]int64
	faults       map[Call][]error
	finalityLag  time.Duration
	nowFn        func() time.Time
}

// New creates a sandbox ledger whose operator (and default treasury) is operatorAccount.
func New(operatorAccount string) *Gateway {
	return &Gateway{
		operator:     operatorAccount,
		seq:          5000,
		tokens:       map[string]*token{},
		schedules:    map[string]*schedule{},
		transactions: map[string]*record{},
		balances:     map[string]int64{},
		faults:       map[Call][]error{},
		nowFn:        time.Now,
	}
}

var _ ledger.Gateway = (*Gateway)(nil)

// SetFinalityLag delays the moment submitted transactions become final.
func (g *Gateway) SetFinalityLag(lag time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.finalityLag = lag
}

func (g *Gateway) SetClock(now func() time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nowFn = now
}

// FailNext queues err as the result of the next call. Injecting ledger.ErrOutcomeUnknown on a
// transfer submits it anyway and then reports the timeout.
func (g *Gateway) FailNext(call Call, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.faults[call] = append(g.faults[call], err)
}

// RecordExternal registers a transaction submitted outside the gateway, such as a wallet-signed payment.
func (g *Gateway) RecordExternal(transactionID string, finality ledger.Finality) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transactions[transactionID] = &record{finality: finality, readyAt: g.nowFn().Add(g.finalityLag)}
}

// Balance returns an account's holding of a token.
func (g *Gateway) Balance(account, tokenID string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balances[account+"/"+tokenID]
}

// ScheduleExists reports whether the schedule is live (created, not deleted).
func (g *Gateway) ScheduleExists(scheduleID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.schedules[scheduleID]
	return ok && !s.deleted
}

// ScheduleSignatures returns how many distinct supply keys signed the schedule.
func (g *Gateway) ScheduleSignatures(scheduleID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.schedules[scheduleID]; ok {
		return len(s.signatures)
	}
	return 0
}

func (g *Gateway) takeFault(call Call) error {
	queue := g.faults[call]
	if len(queue) == 0 {
		return nil
	}
	g.faults[call] = queue[1:]
	return queue[0]
}

func (g *Gateway) nextEntityID() string {
	g.seq++
	return fmt.Sprintf("0.0.%d", g.seq)
}

func (g *Gateway) nextTransactionID() string {
	g.seq++
	now := g.nowFn()
	return fmt.Sprintf("%s@%d.%09d", g.operator, now.Unix(), (now.Nanosecond()+int(g.seq))%1_000_000_000)
}

func (g *Gateway) record(txID string, status ledger.FinalityStatus, message string) {
	now := g.nowFn()
	g.transactions[txID] = &record{
		finality: ledger.Finality{
			Status:        status,
			ConsensusTime: fmt.Sprintf("%d.%09d", now.Unix(), now.Nanosecond()),
			ErrorMessage:  message,
		},
		readyAt: now.Add(g.finalityLag),
	}
}

func (g *Gateway) Connect(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connected = true
	return nil
}

func (g *Gateway) IsConnected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

func (g *Gateway) begin(call Call) error {
	if !g.connected {
		return ledger.ErrNotConnected
	}
	return g.takeFault(call)
}

func (g *Gateway) CreateToken(_ context.Context, spec ledger.TokenSpec) (*ledger.TokenReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(CallCreateToken); err != nil {
		return nil, err
	}
	if spec.SupplyKeyThreshold <= 0 || spec.SupplyKeyThreshold > len(spec.SupplyKeys) {
		return nil, errors.New("INVALID_SUPPLY_KEY: threshold out of range")
	}
	keys := map[string]bool{}
	for _, k := range spec.SupplyKeys {
		keys[hex.EncodeToString(k)] = true
	}
	treasury := spec.TreasuryAccountID
	if treasury == "" {
		treasury = g.operator
	}
	tokenID := g.nextEntityID()
	g.tokens[tokenID] = &token{treasury: treasury, keys: keys, threshold: spec.SupplyKeyThreshold}
	txID := g.nextTransactionID()
	g.record(txID, ledger.FinalitySuccess, "")
	return &ledger.TokenReceipt{TokenID: tokenID, TransactionID: txID}, nil
}

func (g *Gateway) CreateScheduledTransaction(_ context.Context, req ledger.ScheduleRequest) (*ledger.ScheduleReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(CallCreateSchedule); err != nil {
		return nil, err
	}
	if _, ok := g.tokens[req.Mint.TokenID]; !ok {
		return nil, errors.New("INVALID_TOKEN_ID")
	}
	if req.Mint.Amount <= 0 {
		return nil, errors.New("INVALID_TOKEN_MINT_AMOUNT")
	}
	if len(req.AdminKey) != ed25519.PublicKeySize {
		return nil, errors.New("INVALID_ADMIN_KEY")
	}
	scheduleID := g.nextEntityID()
	txID := g.nextTransactionID() + "?scheduled"
	g.schedules[scheduleID] = &schedule{
		mint:       req.Mint,
		adminKey:   hex.EncodeToString(req.AdminKey),
		signatures: map[string]bool{},
		txID:       txID,
		expiresAt:  req.ExpiresAt,
	}
	g.record(g.nextTransactionID(), ledger.FinalitySuccess, "")
	return &ledger.ScheduleReceipt{ScheduleID: scheduleID, TransactionID: txID}, nil
}

func (g *Gateway) SignSchedule(_ context.Context, scheduleID string, key ed25519.PrivateKey) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(CallSignSchedule); err != nil {
		return err
	}
	s, ok := g.schedules[scheduleID]
	if !ok || s.deleted {
		return errors.New("INVALID_SCHEDULE_ID")
	}
	if s.executed {
		return errors.New("SCHEDULE_ALREADY_EXECUTED")
	}
	if !s.expiresAt.IsZero() && g.nowFn().After(s.expiresAt) {
		return errors.New("SCHEDULE_ALREADY_EXPIRED")
	}
	tok := g.tokens[s.mint.TokenID]
	pub := hex.EncodeToString(key.Public().(ed25519.PublicKey))
	if !tok.keys[pub] {
		return errors.New("INVALID_SIGNATURE: key is not a supply key")
	}
	if s.signatures[pub] {
		return errors.New("NO_NEW_VALID_SIGNATURES")
	}
	s.signatures[pub] = true

	if len(s.signatures) >= tok.threshold {
		s.executed = true
		g.balances[tok.treasury+"/"+s.mint.TokenID] += s.mint.Amount
		g.record(s.txID, ledger.FinalitySuccess, "")
	}
	return nil
}

func (g *Gateway) DeleteSchedule(_ context.Context, scheduleID string, adminKey ed25519.PrivateKey) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(CallDeleteSchedule); err != nil {
		return err
	}
	s, ok := g.schedules[scheduleID]
	if !ok || s.deleted {
		return errors.New("INVALID_SCHEDULE_ID")
	}
	if s.executed {
		return errors.New("SCHEDULE_ALREADY_EXECUTED")
	}
	if hex.EncodeToString(adminKey.Public().(ed25519.PublicKey)) != s.adminKey {
		return errors.New("INVALID_SIGNATURE: not the schedule admin key")
	}
	s.deleted = true
	return nil
}

func (g *Gateway) TransferTokens(_ context.Context, transfer ledger.Transfer) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.connected {
		return "", ledger.ErrNotConnected
	}
	fault := g.takeFault(CallTransfer)
	if fault != nil && !errors.Is(fault, ledger.ErrOutcomeUnknown) {
		return "", fault
	}

	txID := g.nextTransactionID()
	from := transfer.From + "/" + transfer.TokenID
	if g.balances[from] < transfer.Amount {
		g.record(txID, ledger.FinalityFailed, "INSUFFICIENT_TOKEN_BALANCE")
		if fault != nil {
			return txID, fault
		}
		return "", fmt.Errorf("transfer %s failed: INSUFFICIENT_TOKEN_BALANCE", txID)
	}
	g.balances[from] -= transfer.Amount
	g.balances[transfer.To+"/"+transfer.TokenID] += transfer.Amount
	g.record(txID, ledger.FinalitySuccess, "")
	if fault != nil {
		return txID, fault
	}
	return txID, nil
}

// QueryTransactionFinality reports pending until the finality lag has elapsed.
func (g *Gateway) QueryTransactionFinality(_ context.Context, transactionID string) (*ledger.Finality, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin(CallQueryFinality); err != nil {
		return nil, err
	}
	rec, ok := g.transactions[transactionID]
	if !ok || g.nowFn().Before(rec.readyAt) {
		return &ledger.Finality{Status: ledger.FinalityPending}, nil
	}
	f := rec.finality
	return &f, nil
}

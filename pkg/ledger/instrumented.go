package ledger

import (
	"context"
	"crypto/ed25519"
	"time"
)

// CallObserver receives the name, latency and error of every ledger call.
type CallObserver func(call string, elapsed time.Duration, err error)

type instrumented struct {
	next    Gateway
	observe CallObserver
}

// Instrument wraps gw so every call is reported to observe.
func Instrument(gw Gateway, observe CallObserver) Gateway {
	return &instrumented{next: gw, observe: observe}
}

func (i *instrumented) track(call string, start time.Time, err error) {
	i.observe(call, time.Since(start), err)
}

func (i *instrumented) Connect(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { i.track("connect", start, err) }()
	return i.next.Connect(ctx)
}

func (i *instrumented) IsConnected() bool {
	return i.next.IsConnected()
}

func (i *instrumented) CreateToken(ctx context.Context, spec TokenSpec) (receipt *TokenReceipt, err error) {
	start := time.Now()
	defer func() { i.track("create_token", start, err) }()
	return i.next.CreateToken(ctx, spec)
}

func (i *instrumented) CreateScheduledTransaction(ctx context.Context, req ScheduleRequest) (receipt *ScheduleReceipt, err error) {
	start := time.Now()
	defer func() { i.track("create_schedule", start, err) }()
	return i.next.CreateScheduledTransaction(ctx, req)
}

func (i *instrumented) SignSchedule(ctx context.Context, scheduleID string, key ed25519.PrivateKey) (err error) {
	start := time.Now()
	defer func() { i.track("sign_schedule", start, err) }()
	return i.next.SignSchedule(ctx, scheduleID, key)
}

func (i *instrumented) DeleteSchedule(ctx context.Context, scheduleID string, adminKey ed25519.PrivateKey) (err error) {
	start := time.Now()
	defer func() { i.track("delete_schedule", start, err) }()
	return i.next.DeleteSchedule(ctx, scheduleID, adminKey)
}

func (i *instrumented) TransferTokens(ctx context.Context, transfer Transfer) (txID string, err error) {
	start := time.Now()
	defer func() { i.track("transfer_tokens", start, err) }()
	return i.next.TransferTokens(ctx, transfer)
}

func (i *instrumented) QueryTransactionFinality(ctx context.Context, transactionID string) (f *Finality, err error) {
	start := time.Now()
	defer func() { i.track("query_finality", start, err) }()
	return i.next.QueryTransactionFinality(ctx, transactionID)
}

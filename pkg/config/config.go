// Package config gathers the environment every binary reads at start-up.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDynamoDB = "dynamodb"
	StoreMemory   = "memory"

	LedgerHedera  = "hedera"
	LedgerSandbox = "sandbox"
)

// Tables holds the DynamoDB table names.
type Tables struct {
	Users          string
	Enterprises    string
	Tokens         string
	Requests       string
	ActiveRequests string
	Operations     string
	Secrets        string
	Connections    string
}

type Config struct {
	HTTPPort string
	LogLevel slog.Level

	Store  string
	Tables Tables

	Ledger            string
	HederaNetwork     string
	HederaOperatorID  string
	HederaOperatorKey string
	MirrorNodeURL     string
	LedgerCallTimeout time.Duration

	VaultIdentity string

	SettlementQueueURL   string
	NotificationQueueURL string
	WebSocketEndpoint    string

	ScheduleExpiry       time.Duration
	StaleThreshold       time.Duration
	FinalityAttempts     int
	FinalityInitialDelay time.Duration
	FinalityMaxDelay     time.Duration
	TransferRetryDelay   time.Duration
	MaxDeferrals         int

	// ReconcileInterval runs both reconciliation passes inside the HTTP server. Zero leaves them to the lambda.
	ReconcileInterval time.Duration
}

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from any key lookup.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	r := reader{lookup: lookup}
	cfg := &Config{
		HTTPPort: r.str("HTTP_PORT", "8080"),
		Store:    r.str("STORE_BACKEND", StoreDynamoDB),
		Tables: Tables{
			Users:          r.str("DYNAMODB_USERS_TABLE_NAME", "wage_advance_users"),
			Enterprises:    r.str("DYNAMODB_ENTERPRISES_TABLE_NAME", "wage_advance_enterprises"),
			Tokens:         r.str("DYNAMODB_TOKENS_TABLE_NAME", "wage_advance_tokens"),
			Requests:       r.str("DYNAMODB_REQUESTS_TABLE_NAME", "wage_advance_requests"),
			ActiveRequests: r.str("DYNAMODB_ACTIVE_REQUESTS_TABLE_NAME", "wage_advance_active_requests"),
			Operations:     r.str("DYNAMODB_OPERATIONS_TABLE_NAME", "wage_advance_operations"),
			Secrets:        r.str("DYNAMODB_SECRETS_TABLE_NAME", "wage_advance_secrets"),
			Connections:    r.str("DYNAMODB_CONNECTIONS_TABLE_NAME", "wage_advance_connections"),
		},
		Ledger:               r.str("LEDGER_BACKEND", LedgerHedera),
		HederaNetwork:        r.str("HEDERA_NETWORK", "testnet"),
		HederaOperatorID:     r.str("HEDERA_OPERATOR_ID", ""),
		HederaOperatorKey:    r.str("HEDERA_OPERATOR_KEY", ""),
		MirrorNodeURL:        r.str("MIRROR_NODE_URL", ""),
		LedgerCallTimeout:    r.duration("LEDGER_CALL_TIMEOUT", 30*time.Second),
		VaultIdentity:        r.str("VAULT_AGE_IDENTITY", ""),
		SettlementQueueURL:   r.str("SETTLEMENT_QUEUE_URL", ""),
		NotificationQueueURL: r.str("NOTIFICATION_QUEUE_URL", ""),
		WebSocketEndpoint:    r.str("WEBSOCKET_API_ENDPOINT", ""),
		ScheduleExpiry:       r.duration("SCHEDULE_EXPIRY", 72*time.Hour),
		StaleThreshold:       r.duration("STALE_OPERATION_THRESHOLD", 10*time.Minute),
		FinalityAttempts:     r.integer("FINALITY_POLL_ATTEMPTS", 6),
		FinalityInitialDelay: r.duration("FINALITY_POLL_INITIAL_DELAY", 500*time.Millisecond),
		FinalityMaxDelay:     r.duration("FINALITY_POLL_MAX_DELAY", 5*time.Second),
		TransferRetryDelay:   r.duration("TRANSFER_RETRY_DELAY", time.Minute),
		MaxDeferrals:         r.integer("TRANSFER_MAX_DEFERRALS", 10),
		ReconcileInterval:    r.duration("RECONCILE_INTERVAL", 0),
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(r.str("LOG_LEVEL", "INFO"))); err != nil {
		r.errs = append(r.errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if len(r.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %v", r.errs)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreDynamoDB, StoreMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreDynamoDB, StoreMemory, c.Store)
	}
	switch c.Ledger {
	case LedgerHedera:
		if c.HederaOperatorID == "" || c.HederaOperatorKey == "" {
			return fmt.Errorf("HEDERA_OPERATOR_ID and HEDERA_OPERATOR_KEY must be set for the hedera ledger")
		}
	case LedgerSandbox:
	default:
		return fmt.Errorf("LEDGER_BACKEND must be %q or %q, got %q", LedgerHedera, LedgerSandbox, c.Ledger)
	}
	if c.Store == StoreDynamoDB && c.VaultIdentity == "" {
		return fmt.Errorf("VAULT_AGE_IDENTITY must be set when keys are persisted")
	}
	if c.FinalityAttempts < 1 {
		return fmt.Errorf("FINALITY_POLL_ATTEMPTS must be at least 1")
	}
	return nil
}

type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (r *reader) integer(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

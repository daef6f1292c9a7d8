package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromLookup(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := FromLookup(env(map[string]string{
			"STORE_BACKEND":  StoreMemory,
			"LEDGER_BACKEND": LedgerSandbox,
		}))
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.HTTPPort)
		assert.Equal(t, 72*time.Hour, cfg.ScheduleExpiry)
		assert.Equal(t, 10*time.Minute, cfg.StaleThreshold)
		assert.Equal(t, "wage_advance_active_requests", cfg.Tables.ActiveRequests)
		assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
		assert.Zero(t, cfg.ReconcileInterval)
	})

	t.Run("Overrides", func(t *testing.T) {
		cfg, err := FromLookup(env(map[string]string{
			"STORE_BACKEND":             StoreDynamoDB,
			"VAULT_AGE_IDENTITY":        "AGE-SECRET-KEY-1XYZ",
			"LEDGER_BACKEND":            LedgerHedera,
			"HEDERA_OPERATOR_ID":        "0.0.2",
			"HEDERA_OPERATOR_KEY":       "302e...",
			"STALE_OPERATION_THRESHOLD": "15m",
			"TRANSFER_MAX_DEFERRALS":    "3",
			"LOG_LEVEL":                 "debug",
		}))
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, cfg.StaleThreshold)
		assert.Equal(t, 3, cfg.MaxDeferrals)
		assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	})

	t.Run("Bad Duration Fails", func(t *testing.T) {
		_, err := FromLookup(env(map[string]string{
			"STORE_BACKEND": StoreMemory, "LEDGER_BACKEND": LedgerSandbox, "SCHEDULE_EXPIRY": "three days",
		}))
		assert.ErrorContains(t, err, "SCHEDULE_EXPIRY")
	})

	t.Run("Hedera Needs Operator", func(t *testing.T) {
		_, err := FromLookup(env(map[string]string{"STORE_BACKEND": StoreMemory}))
		assert.ErrorContains(t, err, "HEDERA_OPERATOR_ID")
	})

	t.Run("Persisted Keys Need Identity", func(t *testing.T) {
		_, err := FromLookup(env(map[string]string{"LEDGER_BACKEND": LedgerSandbox}))
		assert.ErrorContains(t, err, "VAULT_AGE_IDENTITY")
	})
}

package custody

import (
	"context"
	"crypto/ed25519"
	"strings"
	"testing"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/ledger"
	"github.com/chris/wage-advance-ledger/pkg/ledger/sandbox"
	"github.com/chris/wage-advance-ledger/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T) (*Vault, *memory.Store, *sandbox.Gateway) {
	t.Helper()
	identity, err := GenerateIdentity()
	require.NoError(t, err)

	store := memory.New()
	gw := sandbox.New("0.0.2")
	require.NoError(t, gw.Connect(context.Background()))

	v, err := NewVault(store, gw, identity, nil)
	require.NoError(t, err)
	return v, store, gw
}

func TestNewVault(t *testing.T) {
	_, err := NewVault(memory.New(), sandbox.New("0.0.2"), "not-an-identity", nil)
	assert.Error(t, err)
}

func TestSealedAtRest(t *testing.T) {
	ctx := context.Background()
	v, store, _ := newTestVault(t)

	pub, err := v.EnrollSigner(ctx, "decider-1")
	require.NoError(t, err)

	secret, err := store.GetSecret(ctx, SignerRef("decider-1"))
	require.NoError(t, err)
	assert.NotContains(t, secret.Ciphertext, string(pub))

	got, err := v.SignerPublicKey(ctx, "decider-1")
	require.NoError(t, err)
	assert.Equal(t, pub, got)

	t.Run("Other Identity Cannot Unseal", func(t *testing.T) {
		other, _, _ := newTestVault(t)
		other.store = store
		_, err := other.load(ctx, SignerRef("decider-1"))
		assert.Error(t, err)
	})
}

func TestEnrollSigner(t *testing.T) {
	ctx := context.Background()
	v, _, _ := newTestVault(t)

	_, err := v.EnrollSigner(ctx, "decider-1")
	require.NoError(t, err)

	_, err = v.EnrollSigner(ctx, "decider-1")
	assert.ErrorIs(t, err, ErrSignerEnrolled)

	_, err = v.SignerPublicKey(ctx, "decider-2")
	assert.ErrorIs(t, err, ErrKeyMissing)
}

func TestScheduleCapabilities(t *testing.T) {
	ctx := context.Background()
	v, _, gw := newTestVault(t)

	pubA, err := v.EnrollSigner(ctx, "decider-a")
	require.NoError(t, err)
	pubB, err := v.EnrollSigner(ctx, "decider-b")
	require.NoError(t, err)

	tok, err := gw.CreateToken(ctx, ledger.TokenSpec{SupplyKeys: []ed25519.PublicKey{pubA, pubB}, SupplyKeyThreshold: 2})
	require.NoError(t, err)

	schedule := func(t *testing.T, requestID string) (string, string) {
		adminKey, ref, err := v.GenerateDeleteKey(ctx, requestID)
		require.NoError(t, err)
		receipt, err := gw.CreateScheduledTransaction(ctx, ledger.ScheduleRequest{
			Mint:      ledger.Mint{TokenID: tok.TokenID, Amount: 100},
			AdminKey:  adminKey,
			ExpiresAt: time.Now().Add(time.Hour),
		})
		require.NoError(t, err)
		return receipt.ScheduleID, ref
	}

	t.Run("Sign As Decider", func(t *testing.T) {
		scheduleID, _ := schedule(t, "r1")
		require.NoError(t, v.SignSchedule(ctx, "decider-a", scheduleID))
		assert.Equal(t, 1, gw.ScheduleSignatures(scheduleID))

		err := v.SignSchedule(ctx, "decider-unknown", scheduleID)
		assert.ErrorIs(t, err, ErrKeyMissing)
	})

	t.Run("Cancel With Delete Key", func(t *testing.T) {
		scheduleID, ref := schedule(t, "r2")
		assert.True(t, strings.HasPrefix(ref, DeleteKeyPrefix("r2")))

		require.NoError(t, v.CancelSchedule(ctx, ref, scheduleID))
		assert.False(t, gw.ScheduleExists(scheduleID))
	})

	t.Run("Destroyed Key Cannot Cancel", func(t *testing.T) {
		scheduleID, ref := schedule(t, "r3")
		require.NoError(t, v.Destroy(ctx, ref))
		require.NoError(t, v.Destroy(ctx, ref))

		err := v.CancelSchedule(ctx, ref, scheduleID)
		assert.ErrorIs(t, err, ErrKeyMissing)
		assert.True(t, gw.ScheduleExists(scheduleID))
	})

	t.Run("Each Attempt Gets Its Own Key", func(t *testing.T) {
		first, firstRef, err := v.GenerateDeleteKey(ctx, "r4")
		require.NoError(t, err)
		second, secondRef, err := v.GenerateDeleteKey(ctx, "r4")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
		assert.NotEqual(t, firstRef, secondRef)
	})
}

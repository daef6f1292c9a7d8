package tokens

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/custody"
	"github.com/chris/wage-advance-ledger/pkg/ledger/sandbox"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/storage"
	"github.com/chris/wage-advance-ledger/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *memory.Store
	gateway *sandbox.Gateway
	svc     *Service
}

func newFixture(t *testing.T, deciders ...string) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	gw := sandbox.New("0.0.2")
	require.NoError(t, gw.Connect(ctx))

	identity, err := custody.GenerateIdentity()
	require.NoError(t, err)
	vault, err := custody.NewVault(store, gw, identity, nil)
	require.NoError(t, err)

	require.NoError(t, store.CreateEnterprise(ctx, &models.Enterprise{Id: "ent-1", Name: "Acme", TreasuryAccountId: "0.0.2", CreatedAt: time.Now()}))
	require.NoError(t, store.CreateUser(ctx, &models.User{Id: "emp-1", Category: models.CategoryEmployee, EntrepriseId: "ent-1"}))
	for _, id := range deciders {
		require.NoError(t, store.CreateUser(ctx, &models.User{Id: id, Category: models.CategoryDecider, EntrepriseId: "ent-1"}))
	}
	return &fixture{store: store, gateway: gw, svc: NewService(store, gw, vault, nil)}
}

func TestEnrollDecider(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t, "dec-1")
		pub, err := f.svc.EnrollDecider(ctx, "dec-1")
		require.NoError(t, err)
		assert.Len(t, pub, 32)

		ops, err := f.store.ListOperations(ctx, storage.OperationFilter{Type: models.OpSignerEnroll})
		require.NoError(t, err)
		require.Len(t, ops, 1)
		assert.Equal(t, "dec-1", ops[0].Details.SignerEnrolled.SignerId)
	})

	t.Run("Not A Decider", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.EnrollDecider(ctx, "emp-1")
		assert.ErrorIs(t, err, ErrNotDecider)
	})

	t.Run("Unknown User", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.EnrollDecider(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Already Enrolled", func(t *testing.T) {
		f := newFixture(t, "dec-1")
		_, err := f.svc.EnrollDecider(ctx, "dec-1")
		require.NoError(t, err)
		_, err = f.svc.EnrollDecider(ctx, "dec-1")
		assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	})
}

func TestProvisionToken(t *testing.T) {
	ctx := context.Background()
	input := TokenInput{EnterpriseID: "ent-1", Name: "Acme Wage", Symbol: "AWT", Decimals: 2, FeeBasisPoints: 50}

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t, "dec-1", "dec-2")
		_, err := f.svc.EnrollDecider(ctx, "dec-1")
		require.NoError(t, err)
		_, err = f.svc.EnrollDecider(ctx, "dec-2")
		require.NoError(t, err)

		token, err := f.svc.ProvisionToken(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, 2, token.SupplyKeyThreshold)
		assert.Len(t, token.SupplyKeyList, 2)
		assert.Equal(t, "0.0.2", token.TreasuryAccountId)

		saved, err := f.store.GetEnterpriseToken(ctx, "ent-1")
		require.NoError(t, err)
		assert.Equal(t, token.TokenId, saved.TokenId)

		ops, err := f.store.ListOperations(ctx, storage.OperationFilter{Type: models.OpTokenCreate})
		require.NoError(t, err)
		assert.Len(t, ops, 1)

		_, err = f.svc.ProvisionToken(ctx, input)
		assert.ErrorIs(t, err, ErrTokenExists)
	})

	t.Run("Decider Not Enrolled", func(t *testing.T) {
		f := newFixture(t, "dec-1", "dec-2")
		_, err := f.svc.EnrollDecider(ctx, "dec-1")
		require.NoError(t, err)

		_, err = f.svc.ProvisionToken(ctx, input)
		assert.ErrorIs(t, err, ErrDeciderNotEnrolled)
	})

	t.Run("No Deciders", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.ProvisionToken(ctx, input)
		assert.ErrorIs(t, err, ErrNoDeciders)
	})

	t.Run("Invalid Input", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.ProvisionToken(ctx, TokenInput{EnterpriseID: "ent-1", Name: "x"})
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Ledger Fails", func(t *testing.T) {
		f := newFixture(t, "dec-1")
		_, err := f.svc.EnrollDecider(ctx, "dec-1")
		require.NoError(t, err)
		f.gateway.FailNext(sandbox.CallCreateToken, errors.New("BUSY"))

		_, err = f.svc.ProvisionToken(ctx, input)
		assert.ErrorIs(t, err, ErrLedger)
		assert.ErrorContains(t, err, "BUSY")

		_, err = f.store.GetEnterpriseToken(ctx, "ent-1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

package bootstrap

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/config"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/notify"
	"github.com/chris/wage-advance-ledger/pkg/storage/memory"
	"github.com/chris/wage-advance-ledger/pkg/websockets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig(t *testing.T, extra map[string]string) *config.Config {
	t.Helper()
	env := map[string]string{"STORE_BACKEND": "memory", "LEDGER_BACKEND": "sandbox"}
	for k, v := range extra {
		env[k] = v
	}
	cfg, err := config.FromLookup(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.NoError(t, err)
	return cfg
}

func TestNeedsAWS(t *testing.T) {
	assert.False(t, needsAWS(localConfig(t, nil)))
	assert.True(t, needsAWS(localConfig(t, map[string]string{"SETTLEMENT_QUEUE_URL": "https://sqs.local/q"})))
	assert.True(t, needsAWS(&config.Config{Store: config.StoreDynamoDB}))
}

func TestBuildLocal(t *testing.T) {
	ctx := context.Background()
	hub := websockets.NewHub()
	app, err := Build(ctx, localConfig(t, nil), slog.Default(), WithHub(hub))
	require.NoError(t, err)

	assert.IsType(t, &memory.Store{}, app.Store)
	assert.True(t, app.Gateway.IsConnected())

	now := time.Now().UTC()
	require.NoError(t, app.Store.CreateEnterprise(ctx, &models.Enterprise{Id: "ent-1", Name: "Acme", TreasuryAccountId: sandboxOperator, CreatedAt: now}))
	require.NoError(t, app.Store.CreateUser(ctx, &models.User{Id: "dec-1", Name: "Decider", Category: models.CategoryDecider, EntrepriseId: "ent-1", CreatedAt: now}))
	require.NoError(t, app.Store.CreateUser(ctx, &models.User{Id: "emp-1", Name: "Employee", Category: models.CategoryEmployee, EntrepriseId: "ent-1", AccountId: "0.0.1001", CreatedAt: now}))

	_, err = app.Tokens.EnrollDecider(ctx, "dec-1")
	require.NoError(t, err)

	svc := app.Services()
	assert.NotNil(t, svc.Reconciler)
	assert.NotNil(t, svc.Operations)

	req, err := app.WageAdvances.RequestAdvance(ctx, "emp-1", 100)
	require.Error(t, err, "no token provisioned yet")
	assert.Nil(t, req)
}

func TestNewNotifier(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	n, err := newNotifier(ctx, localConfig(t, nil), &options{}, store)
	require.NoError(t, err)
	assert.Equal(t, notify.NoOp{}, n)

	n, err = newNotifier(ctx, localConfig(t, nil), &options{hub: websockets.NewHub()}, store)
	require.NoError(t, err)
	require.IsType(t, notify.Fanout{}, n)
	assert.Len(t, n.(notify.Fanout), 1)
}

func TestNewStoreMemory(t *testing.T) {
	store, err := NewStore(context.Background(), localConfig(t, nil))
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
}

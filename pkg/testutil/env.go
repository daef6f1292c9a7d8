// Package testutil seeds an in-memory deployment for package tests: a memory store, a sandbox
// ledger, an age vault and an enterprise whose token is co-signed by its deciders.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/custody"
	"github.com/chris/wage-advance-ledger/pkg/ledger/sandbox"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/storage/memory"
	"github.com/chris/wage-advance-ledger/pkg/tokens"
	"github.com/stretchr/testify/require"
)

const (
	EnterpriseID      = "ent-1"
	TreasuryAccount   = "0.0.2"
	EmployeeID        = "emp-1"
	EmployeeAccount   = "0.0.1001"
	OtherEmployeeID   = "emp-2"
	ShopID            = "shop-1"
	ShopAccount       = "0.0.3001"
	OutsideDeciderID  = "dec-outside"
	OtherEnterpriseID = "ent-2"
)

type Env struct {
	Store      *memory.Store
	Gateway    *sandbox.Gateway
	Vault      *custody.Vault
	Tokens     *tokens.Service
	Token      *models.EnterpriseToken
	DeciderIDs []string
}

// NewEnv seeds an enterprise with the given number of enrolled deciders and a provisioned token.
func NewEnv(t *testing.T, deciders int) *Env {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	gw := sandbox.New(TreasuryAccount)
	require.NoError(t, gw.Connect(ctx))

	identity, err := custody.GenerateIdentity()
	require.NoError(t, err)
	vault, err := custody.NewVault(store, gw, identity, nil)
	require.NoError(t, err)

	env := &Env{Store: store, Gateway: gw, Vault: vault, Tokens: tokens.NewService(store, gw, vault, nil)}
	now := time.Now().UTC()

	require.NoError(t, store.CreateEnterprise(ctx, &models.Enterprise{Id: EnterpriseID, Name: "Acme", TreasuryAccountId: TreasuryAccount, CreatedAt: now}))
	env.AddUser(t, models.User{Id: EmployeeID, Name: "Ada Employee", Category: models.CategoryEmployee, EntrepriseId: EnterpriseID, AccountId: EmployeeAccount})
	env.AddUser(t, models.User{Id: OtherEmployeeID, Name: "Ben Employee", Category: models.CategoryEmployee, EntrepriseId: EnterpriseID, AccountId: "0.0.1002"})
	env.AddUser(t, models.User{Id: ShopID, Name: "Corner Shop", Category: models.CategoryShopAdmin, AccountId: ShopAccount, ShopName: "Corner Shop"})
	env.AddUser(t, models.User{Id: OutsideDeciderID, Name: "Outsider", Category: models.CategoryDecider, EntrepriseId: OtherEnterpriseID})

	for i := 1; i <= deciders; i++ {
		id := fmt.Sprintf("dec-%d", i)
		env.AddUser(t, models.User{Id: id, Name: fmt.Sprintf("Decider %d", i), Category: models.CategoryDecider, EntrepriseId: EnterpriseID})
		_, err := env.Tokens.EnrollDecider(ctx, id)
		require.NoError(t, err)
		env.DeciderIDs = append(env.DeciderIDs, id)
	}

	if deciders > 0 {
		env.Token, err = env.Tokens.ProvisionToken(ctx, tokens.TokenInput{
			EnterpriseID: EnterpriseID, Name: "Acme Wage", Symbol: "AWT", Decimals: 2,
		})
		require.NoError(t, err)
	}
	return env
}

func (e *Env) AddUser(t *testing.T, u models.User) {
	t.Helper()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	require.NoError(t, e.Store.CreateUser(context.Background(), &u))
}

// SeedRequest stores a request directly, bypassing the orchestrator.
func (e *Env) SeedRequest(t *testing.T, req models.WageAdvanceRequest) *models.WageAdvanceRequest {
	t.Helper()
	if req.EntrepriseId == "" {
		req.EntrepriseId = EnterpriseID
	}
	if req.TokenId == "" && e.Token != nil {
		req.TokenId = e.Token.TokenId
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	req.UpdatedAt = req.CreatedAt
	ctx := context.Background()
	require.NoError(t, e.Store.CreateRequest(ctx, &req))
	if req.Status.IsTerminal() {
		// Releases the active lock the create took.
		_, err := e.Store.TransitionRequest(ctx, req.Id, req.Status, req.Status, models.RequestUpdate{})
		require.NoError(t, err)
	}
	return &req
}

// SeedOperation stores an operation directly.
func (e *Env) SeedOperation(t *testing.T, op models.LedgerOperation) *models.LedgerOperation {
	t.Helper()
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now().UTC()
	}
	require.NoError(t, e.Store.CreateOperation(context.Background(), &op))
	return &op
}

package handlers

import (
	"github.com/chris/wage-advance-ledger/pkg/api"
	"github.com/chris/wage-advance-ledger/pkg/handlers/enterprises"
	"github.com/chris/wage-advance-ledger/pkg/handlers/ledger"
	"github.com/chris/wage-advance-ledger/pkg/handlers/wageadvances"
)

// ApiHandler implements the generated server interface by composing the per-resource handlers.
type ApiHandler struct {
	*wageadvances.WageAdvancesHandler
	*enterprises.EnterprisesHandler
	*ledger.LedgerHandler
}

// Services are the application services the HTTP surface is built from.
type Services struct {
	WageAdvances wageadvances.Orchestrator
	Pending      enterprises.PendingLister
	Balances     wageadvances.BalanceReader
	Tokens       enterprises.TokenProvisioner
	Payments     ledger.Payments
	Operations   ledger.OperationLister
	Reconciler   ledger.Reconciler
}

// NewApiHandler creates a new ApiHandler.
func NewApiHandler(s Services) *ApiHandler {
	return &ApiHandler{
		WageAdvancesHandler: wageadvances.NewWageAdvancesHandler(s.WageAdvances, s.Balances),
		EnterprisesHandler:  enterprises.NewEnterprisesHandler(s.Tokens, s.Pending),
		LedgerHandler:       ledger.NewLedgerHandler(s.Payments, s.Operations, s.Reconciler),
	}
}

// Make sure we conform to the interface
var _ api.ServerInterface = (*ApiHandler)(nil)

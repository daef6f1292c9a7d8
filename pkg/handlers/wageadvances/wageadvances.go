package wageadvances

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/chris/wage-advance-ledger/pkg/api"
	"github.com/chris/wage-advance-ledger/pkg/balance"
	"github.com/chris/wage-advance-ledger/pkg/handlers/respond"
	"github.com/chris/wage-advance-ledger/pkg/mapping"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/wageadvance"
)

// Orchestrator is the part of wageadvance.Service the HTTP layer drives.
type Orchestrator interface {
	RequestAdvance(ctx context.Context, employeeID string, amount int64) (*models.WageAdvanceRequest, error)
	GetRequestStatus(ctx context.Context, requestID string) (*models.WageAdvanceRequest, error)
	CreateScheduledMint(ctx context.Context, requestID string) (*wageadvance.ScheduleResult, error)
	Decide(ctx context.Context, in wageadvance.DecideInput) (*models.WageAdvanceRequest, error)
	ExecuteTransfer(ctx context.Context, requestID string) (*models.WageAdvanceRequest, error)
	GetEmployeeRequests(ctx context.Context, employeeID string) ([]models.WageAdvanceRequest, error)
}

type BalanceReader interface {
	EmployeeBalance(ctx context.Context, employeeID string) (*balance.Balance, error)
}

// WageAdvancesHandler holds the dependencies for wage advance handlers.
type WageAdvancesHandler struct {
	Orchestrator Orchestrator
	Balances     BalanceReader
}

func NewWageAdvancesHandler(orchestrator Orchestrator, balances BalanceReader) *WageAdvancesHandler {
	return &WageAdvancesHandler{Orchestrator: orchestrator, Balances: balances}
}

func (h *WageAdvancesHandler) RequestWageAdvance(w http.ResponseWriter, r *http.Request) {
	var body api.NewWageAdvance
	if !respond.Decode(w, r, &body) {
		return
	}

	req, err := h.Orchestrator.RequestAdvance(r.Context(), body.EmployeeId, body.Amount)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, mapping.ToApiWageAdvance(req))
}

func (h *WageAdvancesHandler) GetWageAdvance(w http.ResponseWriter, r *http.Request, requestId string) {
	req, err := h.Orchestrator.GetRequestStatus(r.Context(), requestId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiWageAdvance(req))
}

func (h *WageAdvancesHandler) CreateScheduledMint(w http.ResponseWriter, r *http.Request, requestId string) {
	res, err := h.Orchestrator.CreateScheduledMint(r.Context(), requestId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, mapping.ToApiScheduleResult(res))
}

func (h *WageAdvancesHandler) DecideWageAdvance(w http.ResponseWriter, r *http.Request, requestId string) {
	var body api.Decision
	if !respond.Decode(w, r, &body) {
		return
	}

	req, err := h.Orchestrator.Decide(r.Context(), mapping.ToDomainDecision(requestId, &body))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiWageAdvance(req))
}

// ExecuteTransfer answers 202 when the transfer was deferred or its outcome is not known yet.
func (h *WageAdvancesHandler) ExecuteTransfer(w http.ResponseWriter, r *http.Request, requestId string) {
	req, err := h.Orchestrator.ExecuteTransfer(r.Context(), requestId)
	switch {
	case errors.Is(err, wageadvance.ErrTransferDeferred), errors.Is(err, wageadvance.ErrTransferOutcomeUnknown):
		slog.Info("transfer accepted for later resolution", "requestId", requestId, "reason", err)
		if req == nil {
			if req, err = h.Orchestrator.GetRequestStatus(r.Context(), requestId); err != nil {
				respond.Error(w, r, err)
				return
			}
		}
		respond.JSON(w, http.StatusAccepted, mapping.ToApiWageAdvance(req))
	case err != nil:
		respond.Error(w, r, err)
	default:
		respond.JSON(w, http.StatusOK, mapping.ToApiWageAdvance(req))
	}
}

func (h *WageAdvancesHandler) ListEmployeeWageAdvances(w http.ResponseWriter, r *http.Request, employeeId string) {
	requests, err := h.Orchestrator.GetEmployeeRequests(r.Context(), employeeId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiWageAdvances(requests))
}

func (h *WageAdvancesHandler) GetEmployeeBalance(w http.ResponseWriter, r *http.Request, employeeId string) {
	b, err := h.Balances.EmployeeBalance(r.Context(), employeeId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiBalance(b))
}

package wageadvances_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/api"
	"github.com/chris/wage-advance-ledger/pkg/balance"
	"github.com/chris/wage-advance-ledger/pkg/handlers/wageadvances"
	"github.com/chris/wage-advance-ledger/pkg/handlers/wageadvances/mocks"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/wageadvance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubBalances struct {
	b   *balance.Balance
	err error
}

func (s stubBalances) EmployeeBalance(_ context.Context, _ string) (*balance.Balance, error) {
	return s.b, s.err
}

func request(status models.RequestStatus) *models.WageAdvanceRequest {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	return &models.WageAdvanceRequest{
		Id:              "req-1",
		EmployeeId:      "emp-1",
		EntrepriseId:    "ent-1",
		TokenId:         "0.0.5001",
		RequestedAmount: 500,
		Status:          status,
		DeleteKeyRef:    "delete-key/req-1/abc",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v))
}

func TestRequestWageAdvance(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		orchestrator := mocks.NewOrchestrator(t)
		orchestrator.On("RequestAdvance", mock.Anything, "emp-1", int64(500)).Return(request(models.RequestPending), nil)
		h := wageadvances.NewWageAdvancesHandler(orchestrator, nil)

		req := httptest.NewRequest(http.MethodPost, "/wage-advances", strings.NewReader(`{"employeeId":"emp-1","amount":500}`))
		rr := httptest.NewRecorder()

		// Act
		h.RequestWageAdvance(rr, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rr.Code)
		var body api.WageAdvance
		decode(t, rr, &body)
		assert.Equal(t, "req-1", body.Id)
		assert.Equal(t, api.WageAdvanceStatusPending, body.Status)
		assert.NotContains(t, rr.Body.String(), "delete-key")
	})

	t.Run("Active Request Conflicts", func(t *testing.T) {
		// Arrange
		orchestrator := mocks.NewOrchestrator(t)
		existing := request(models.RequestPendingSignature)
		orchestrator.On("RequestAdvance", mock.Anything, "emp-1", int64(500)).
			Return(nil, &wageadvance.ActiveRequestError{Existing: existing})
		h := wageadvances.NewWageAdvancesHandler(orchestrator, nil)

		req := httptest.NewRequest(http.MethodPost, "/wage-advances", strings.NewReader(`{"employeeId":"emp-1","amount":500}`))
		rr := httptest.NewRecorder()

		// Act
		h.RequestWageAdvance(rr, req)

		// Assert
		assert.Equal(t, http.StatusConflict, rr.Code)
		var body api.Error
		decode(t, rr, &body)
		require.NotNil(t, body.Existing)
		assert.Equal(t, "req-1", body.Existing.Id)
	})

	t.Run("Malformed Body", func(t *testing.T) {
		orchestrator := mocks.NewOrchestrator(t)
		h := wageadvances.NewWageAdvancesHandler(orchestrator, nil)

		req := httptest.NewRequest(http.MethodPost, "/wage-advances", strings.NewReader(`{"employeeId":`))
		rr := httptest.NewRecorder()

		h.RequestWageAdvance(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestCreateScheduledMint(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		orchestrator := mocks.NewOrchestrator(t)
		orchestrator.On("CreateScheduledMint", mock.Anything, "req-1").
			Return(&wageadvance.ScheduleResult{ScheduleID: "0.0.6001", TransactionID: "0.0.2@1.2"}, nil)
		h := wageadvances.NewWageAdvancesHandler(orchestrator, nil)

		rr := httptest.NewRecorder()
		h.CreateScheduledMint(rr, httptest.NewRequest(http.MethodPost, "/wage-advances/req-1/schedule", nil), "req-1")

		assert.Equal(t, http.StatusCreated, rr.Code)
		var body api.ScheduleResult
		decode(t, rr, &body)
		assert.Equal(t, "0.0.6001", body.ScheduleId)
	})

	t.Run("Ledger Fails", func(t *testing.T) {
		orchestrator := mocks.NewOrchestrator(t)
		orchestrator.On("CreateScheduledMint", mock.Anything, "req-1").
			Return(nil, fmt.Errorf("%w: create schedule: BUSY", wageadvance.ErrLedger))
		h := wageadvances.NewWageAdvancesHandler(orchestrator, nil)

		rr := httptest.NewRecorder()
		h.CreateScheduledMint(rr, httptest.NewRequest(http.MethodPost, "/wage-advances/req-1/schedule", nil), "req-1")

		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})

	t.Run("Wrong State", func(t *testing.T) {
		orchestrator := mocks.NewOrchestrator(t)
		orchestrator.On("CreateScheduledMint", mock.Anything, "req-1").
			Return(nil, &wageadvance.StateError{RequestID: "req-1", Required: models.RequestPending, Actual: models.RequestApproved})
		h := wageadvances.NewWageAdvancesHandler(orchestrator, nil)

		rr := httptest.NewRecorder()
		h.CreateScheduledMint(rr, httptest.NewRequest(http.MethodPost, "/wage-advances/req-1/schedule", nil), "req-1")

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestDecideWageAdvance(t *testing.T) {
	t.Run("Passes Reason Through", func(t *testing.T) {
		orchestrator := mocks.NewOrchestrator(t)
		rejected := request(models.RequestRejected)
		orchestrator.On("Decide", mock.Anything, wageadvance.DecideInput{
			RequestID: "req-1", DeciderID: "dec-1", Approved: false, Reason: "too soon",
		}).Return(rejected, nil)
		h := wageadvances.NewWageAdvancesHandler(orchestrator, nil)

		req := httptest.NewRequest(http.MethodPost, "/wage-advances/req-1/decisions",
			strings.NewReader(`{"deciderId":"dec-1","approved":false,"reason":"too soon"}`))
		rr := httptest.NewRecorder()

		h.DecideWageAdvance(rr, req, "req-1")

		assert.Equal(t, http.StatusOK, rr.Code)
		var body api.WageAdvance
		decode(t, rr, &body)
		assert.Equal(t, api.WageAdvanceStatusRejected, body.Status)
	})

	t.Run("Forbidden Decider", func(t *testing.T) {
		orchestrator := mocks.NewOrchestrator(t)
		orchestrator.On("Decide", mock.Anything, mock.Anything).Return(nil, wageadvance.ErrForbidden)
		h := wageadvances.NewWageAdvancesHandler(orchestrator, nil)

		req := httptest.NewRequest(http.MethodPost, "/wage-advances/req-1/decisions",
			strings.NewReader(`{"deciderId":"dec-outside","approved":true}`))
		rr := httptest.NewRecorder()

		h.DecideWageAdvance(rr, req, "req-1")

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestExecuteTransfer(t *testing.T) {
	t.Run("Completed", func(t *testing.T) {
		orchestrator := mocks.NewOrchestrator(t)
		orchestrator.On("ExecuteTransfer", mock.Anything, "req-1").Return(request(models.RequestCompleted), nil)
		h := wageadvances.NewWageAdvancesHandler(orchestrator, nil)

		rr := httptest.NewRecorder()
		h.ExecuteTransfer(rr, httptest.NewRequest(http.MethodPost, "/wage-advances/req-1/transfer", nil), "req-1")

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Deferred Is Accepted", func(t *testing.T) {
		orchestrator := mocks.NewOrchestrator(t)
		orchestrator.On("ExecuteTransfer", mock.Anything, "req-1").
			Return(nil, fmt.Errorf("%w: request req-1", wageadvance.ErrTransferDeferred))
		orchestrator.On("GetRequestStatus", mock.Anything, "req-1").Return(request(models.RequestPendingSignature), nil)
		h := wageadvances.NewWageAdvancesHandler(orchestrator, nil)

		rr := httptest.NewRecorder()
		h.ExecuteTransfer(rr, httptest.NewRequest(http.MethodPost, "/wage-advances/req-1/transfer", nil), "req-1")

		assert.Equal(t, http.StatusAccepted, rr.Code)
		var body api.WageAdvance
		decode(t, rr, &body)
		assert.Equal(t, api.WageAdvanceStatusPendingSignature, body.Status)
	})

	t.Run("Unknown Outcome Is Accepted", func(t *testing.T) {
		orchestrator := mocks.NewOrchestrator(t)
		orchestrator.On("ExecuteTransfer", mock.Anything, "req-1").
			Return(request(models.RequestApproved), fmt.Errorf("%w: transaction 0.0.2@1.1", wageadvance.ErrTransferOutcomeUnknown))
		h := wageadvances.NewWageAdvancesHandler(orchestrator, nil)

		rr := httptest.NewRecorder()
		h.ExecuteTransfer(rr, httptest.NewRequest(http.MethodPost, "/wage-advances/req-1/transfer", nil), "req-1")

		assert.Equal(t, http.StatusAccepted, rr.Code)
		var body api.WageAdvance
		decode(t, rr, &body)
		assert.Equal(t, api.WageAdvanceStatusApproved, body.Status)
	})

	t.Run("Unknown Request", func(t *testing.T) {
		orchestrator := mocks.NewOrchestrator(t)
		orchestrator.On("ExecuteTransfer", mock.Anything, "nope").Return(nil, wageadvance.ErrNotFound)
		h := wageadvances.NewWageAdvancesHandler(orchestrator, nil)

		rr := httptest.NewRecorder()
		h.ExecuteTransfer(rr, httptest.NewRequest(http.MethodPost, "/wage-advances/nope/transfer", nil), "nope")

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestEmployeeReads(t *testing.T) {
	t.Run("List Requests", func(t *testing.T) {
		orchestrator := mocks.NewOrchestrator(t)
		orchestrator.On("GetEmployeeRequests", mock.Anything, "emp-1").
			Return([]models.WageAdvanceRequest{*request(models.RequestCompleted), *request(models.RequestRejected)}, nil)
		h := wageadvances.NewWageAdvancesHandler(orchestrator, nil)

		rr := httptest.NewRecorder()
		h.ListEmployeeWageAdvances(rr, httptest.NewRequest(http.MethodGet, "/employees/emp-1/wage-advances", nil), "emp-1")

		assert.Equal(t, http.StatusOK, rr.Code)
		var body []api.WageAdvance
		decode(t, rr, &body)
		assert.Len(t, body, 2)
	})

	t.Run("Balance", func(t *testing.T) {
		h := wageadvances.NewWageAdvancesHandler(nil, stubBalances{b: &balance.Balance{
			EmployeeId: "emp-1", LifetimeAdvanced: 1000, TotalShopPayments: 300, CurrentBalance: 700,
		}})

		rr := httptest.NewRecorder()
		h.GetEmployeeBalance(rr, httptest.NewRequest(http.MethodGet, "/employees/emp-1/balance", nil), "emp-1")

		assert.Equal(t, http.StatusOK, rr.Code)
		var body api.Balance
		decode(t, rr, &body)
		assert.Equal(t, int64(700), body.CurrentBalance)
	})

	t.Run("Balance Of Unknown Employee", func(t *testing.T) {
		h := wageadvances.NewWageAdvancesHandler(nil, stubBalances{err: balance.ErrEmployeeNotFound})

		rr := httptest.NewRecorder()
		h.GetEmployeeBalance(rr, httptest.NewRequest(http.MethodGet, "/employees/ghost/balance", nil), "ghost")

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

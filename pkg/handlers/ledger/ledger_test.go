package ledger_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/api"
	"github.com/chris/wage-advance-ledger/pkg/balance"
	"github.com/chris/wage-advance-ledger/pkg/handlers/ledger"
	ledgergw "github.com/chris/wage-advance-ledger/pkg/ledger"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/notify"
	"github.com/chris/wage-advance-ledger/pkg/payments"
	"github.com/chris/wage-advance-ledger/pkg/reconcile"
	"github.com/chris/wage-advance-ledger/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T) (*ledger.LedgerHandler, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv(t, 1)
	env.SeedRequest(t, models.WageAdvanceRequest{Id: "r1", EmployeeId: testutil.EmployeeID, RequestedAmount: 1000, Status: models.RequestCompleted})
	balances := balance.NewAggregator(env.Store)
	poller := reconcile.New(env.Store, env.Gateway, balances, notify.NoOp{}, 10*time.Minute)
	return ledger.NewLedgerHandler(payments.NewService(env.Store, balances, nil), env.Store, poller), env
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestShopPaymentFlow(t *testing.T) {
	h, env := newHandler(t)

	// Prepare
	rr := httptest.NewRecorder()
	h.PrepareShopPayment(rr, post(fmt.Sprintf(`{"employeeId":%q,"shopUserId":%q,"amount":400}`, testutil.EmployeeID, testutil.ShopID)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var op api.Operation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &op))
	assert.Equal(t, api.OperationStatusPENDINGSIGNATURE, op.Status)
	assert.Equal(t, string(models.OpShopPaymentAccept), op.Type)
	assert.EqualValues(t, 400, op.Details["amount"])

	txID := testutil.EmployeeAccount + "@1777896000.000000001"

	t.Run("Malformed Transaction Id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.AcknowledgeSignature(rr, post(fmt.Sprintf(`{"userId":%q,"transactionId":"not-a-tx"}`, testutil.EmployeeID)), op.Id)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Someone Else Acknowledges", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.AcknowledgeSignature(rr, post(fmt.Sprintf(`{"userId":%q,"transactionId":%q}`, testutil.OtherEmployeeID, txID)), op.Id)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Acknowledge", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.AcknowledgeSignature(rr, post(fmt.Sprintf(`{"userId":%q,"transactionId":%q}`, testutil.EmployeeID, txID)), op.Id)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var acked api.Operation
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &acked))
		assert.Equal(t, api.OperationStatusPENDINGCONFIRMATION, acked.Status)
		require.NotNil(t, acked.TransactionId)
		assert.Equal(t, txID, *acked.TransactionId)
	})

	t.Run("Confirmation Pass Deducts", func(t *testing.T) {
		env.Gateway.RecordExternal(txID, ledgergw.Finality{Status: ledgergw.FinalitySuccess})

		rr := httptest.NewRecorder()
		h.RunConfirmationReconciliation(rr, post(""))
		require.Equal(t, http.StatusOK, rr.Code)

		var res api.ConfirmationResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
		assert.Equal(t, 1, res.Checked)
		assert.Equal(t, 1, res.Confirmed)

		rr = httptest.NewRecorder()
		typ := string(models.OpBalanceDeduction)
		h.ListOperations(rr, httptest.NewRequest(http.MethodGet, "/operations", nil), api.ListOperationsParams{Type: &typ})
		require.Equal(t, http.StatusOK, rr.Code)

		var ops []api.Operation
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ops))
		require.Len(t, ops, 1)
		assert.EqualValues(t, 600, ops[0].Details["balanceAfter"])
	})
}

func TestPrepareShopPaymentErrors(t *testing.T) {
	h, _ := newHandler(t)

	t.Run("Insufficient Balance", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.PrepareShopPayment(rr, post(fmt.Sprintf(`{"employeeId":%q,"shopUserId":%q,"amount":5000}`, testutil.EmployeeID, testutil.ShopID)))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("Unknown Shop", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.PrepareShopPayment(rr, post(fmt.Sprintf(`{"employeeId":%q,"shopUserId":"ghost","amount":5}`, testutil.EmployeeID)))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestPrepareAssociation(t *testing.T) {
	h, _ := newHandler(t)

	rr := httptest.NewRecorder()
	h.PrepareAssociation(rr, post(fmt.Sprintf(`{"employeeId":%q}`, testutil.EmployeeID)))

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var op api.Operation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &op))
	assert.Equal(t, string(models.OpTokenAssociate), op.Type)
	assert.Equal(t, testutil.EmployeeAccount, op.Details["accountId"])
}

func TestListOperations(t *testing.T) {
	h, env := newHandler(t)
	for i := 0; i < 25; i++ {
		env.SeedOperation(t, models.LedgerOperation{
			Id:      fmt.Sprintf("assoc-%02d", i),
			Type:    models.OpTokenAssociate,
			Status:  models.OperationPendingSignature,
			UserId:  testutil.OtherEmployeeID,
			Details: models.OperationDetails{TokenAssociation: &models.TokenAssociationDetails{AccountId: "0.0.1002"}},
		})
	}
	user := testutil.OtherEmployeeID

	t.Run("Default Limit", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ListOperations(rr, httptest.NewRequest(http.MethodGet, "/operations", nil), api.ListOperationsParams{UserId: &user})

		require.Equal(t, http.StatusOK, rr.Code)
		var ops []api.Operation
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ops))
		assert.Len(t, ops, 20)
	})

	t.Run("With Limit", func(t *testing.T) {
		limit := int32(5)
		rr := httptest.NewRecorder()
		h.ListOperations(rr, httptest.NewRequest(http.MethodGet, "/operations?limit=5", nil), api.ListOperationsParams{UserId: &user, Limit: &limit})

		var ops []api.Operation
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ops))
		assert.Len(t, ops, 5)
	})

	t.Run("Status Filter", func(t *testing.T) {
		status := api.OperationStatusSUCCESS
		rr := httptest.NewRecorder()
		h.ListOperations(rr, httptest.NewRequest(http.MethodGet, "/operations", nil), api.ListOperationsParams{UserId: &user, Status: &status})

		var ops []api.Operation
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ops))
		assert.Empty(t, ops)
	})

	t.Run("Unknown Type", func(t *testing.T) {
		typ := "MINT_EVERYTHING"
		rr := httptest.NewRecorder()
		h.ListOperations(rr, httptest.NewRequest(http.MethodGet, "/operations", nil), api.ListOperationsParams{Type: &typ})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Limit Out Of Range", func(t *testing.T) {
		limit := int32(0)
		rr := httptest.NewRecorder()
		h.ListOperations(rr, httptest.NewRequest(http.MethodGet, "/operations", nil), api.ListOperationsParams{Limit: &limit})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRunStaleExpiry(t *testing.T) {
	h, env := newHandler(t)
	env.SeedOperation(t, models.LedgerOperation{
		Id:        "old",
		Type:      models.OpTokenAssociate,
		Status:    models.OperationPendingSignature,
		UserId:    testutil.EmployeeID,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
		Details:   models.OperationDetails{TokenAssociation: &models.TokenAssociationDetails{AccountId: testutil.EmployeeAccount}},
	})

	rr := httptest.NewRecorder()
	h.RunStaleExpiry(rr, post(""))

	require.Equal(t, http.StatusOK, rr.Code)
	var res api.StaleExpiryResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Expired)
}

package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chris/wage-advance-ledger/pkg/api"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/payments"
	"github.com/chris/wage-advance-ledger/pkg/reconcile"
	"github.com/chris/wage-advance-ledger/pkg/tokens"
	"github.com/chris/wage-advance-ledger/pkg/wageadvance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"Validation":         {fmt.Errorf("%w: amount", wageadvance.ErrValidation), http.StatusBadRequest},
		"Bad Path Parameter": {&api.InvalidParamFormatError{ParamName: "requestId", Err: errors.New("empty")}, http.StatusBadRequest},
		"Forbidden":          {fmt.Errorf("%w: outsider", wageadvance.ErrForbidden), http.StatusForbidden},
		"Not Found":          {fmt.Errorf("%w: request r1", wageadvance.ErrNotFound), http.StatusNotFound},
		"Already Voted":      {wageadvance.ErrAlreadyVoted, http.StatusConflict},
		"State Conflict":     {&wageadvance.StateError{RequestID: "r1"}, http.StatusConflict},
		"Pass In Progress":   {reconcile.ErrPassInProgress, http.StatusConflict},
		"Signing Key":        {wageadvance.ErrSigningKeyMissing, http.StatusPreconditionFailed},
		"No Deciders":        {tokens.ErrNoDeciders, http.StatusPreconditionFailed},
		"Insufficient":       {payments.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		"Ledger":             {fmt.Errorf("%w: BUSY", wageadvance.ErrLedger), http.StatusBadGateway},
		"Unknown":            {errors.New("boom"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Status(tc.err))
		})
	}
}

func TestError(t *testing.T) {
	t.Run("Active Request Carries Existing", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/wage-advances", nil)
		Error(rr, req, &wageadvance.ActiveRequestError{Existing: &models.WageAdvanceRequest{Id: "r1", Status: models.RequestPending}})

		assert.Equal(t, http.StatusConflict, rr.Code)
		var body api.Error
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.NotNil(t, body.Existing)
		assert.Equal(t, "r1", body.Existing.Id)
	})

	t.Run("Internal Errors Are Not Echoed", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/operations", nil)
		Error(rr, req, errors.New("dynamodb: throttled"))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "throttled")
	})
}

func TestIdentifierFormats(t *testing.T) {
	assert.True(t, ValidAccountID("0.0.1001"))
	assert.False(t, ValidAccountID("0.0"))
	assert.False(t, ValidAccountID("0.0.x"))

	assert.True(t, ValidTransactionID("0.0.1001@1700000000.123456789"))
	assert.False(t, ValidTransactionID("0.0.1001@1700000000"))
	assert.False(t, ValidTransactionID("0.0.1001"))
}

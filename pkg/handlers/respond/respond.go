// Package respond writes JSON responses and maps domain errors onto HTTP status codes.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/chris/wage-advance-ledger/pkg/api"
	"github.com/chris/wage-advance-ledger/pkg/balance"
	"github.com/chris/wage-advance-ledger/pkg/mapping"
	"github.com/chris/wage-advance-ledger/pkg/payments"
	"github.com/chris/wage-advance-ledger/pkg/reconcile"
	"github.com/chris/wage-advance-ledger/pkg/tokens"
	"github.com/chris/wage-advance-ledger/pkg/wageadvance"
)

const accountPattern = `\d+\.\d+\.\d+`

var (
	accountID     = regexp.MustCompile(`^` + accountPattern + `$`)
	transactionID = regexp.MustCompile(`^` + accountPattern + `@\d+\.\d+$`)
)

// ValidAccountID reports whether id has the shard.realm.num form.
func ValidAccountID(id string) bool { return accountID.MatchString(id) }

// ValidTransactionID reports whether id has the payer@seconds.nanos form.
func ValidTransactionID(id string) bool { return transactionID.MatchString(id) }

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Decode reads a JSON body into v, answering 400 on failure.
func Decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		JSON(w, http.StatusBadRequest, api.Error{Message: "Invalid request body: " + err.Error()})
		return false
	}
	return true
}

// Status maps an error from any service package to the HTTP status it is answered with.
func Status(err error) int {
	var paramErr *api.InvalidParamFormatError
	switch {
	case errors.As(err, &paramErr),
		errors.Is(err, wageadvance.ErrValidation),
		errors.Is(err, payments.ErrValidation),
		errors.Is(err, tokens.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, wageadvance.ErrForbidden),
		errors.Is(err, payments.ErrForbidden),
		errors.Is(err, tokens.ErrNotDecider):
		return http.StatusForbidden
	case errors.Is(err, wageadvance.ErrNotFound),
		errors.Is(err, payments.ErrNotFound),
		errors.Is(err, tokens.ErrNotFound),
		errors.Is(err, balance.ErrEmployeeNotFound):
		return http.StatusNotFound
	case errors.Is(err, wageadvance.ErrConflict),
		errors.Is(err, payments.ErrConflict),
		errors.Is(err, tokens.ErrAlreadyEnrolled),
		errors.Is(err, tokens.ErrTokenExists),
		errors.Is(err, reconcile.ErrPassInProgress):
		return http.StatusConflict
	case errors.Is(err, wageadvance.ErrPreconditionFailed),
		errors.Is(err, wageadvance.ErrSigningKeyMissing),
		errors.Is(err, payments.ErrPreconditionFailed),
		errors.Is(err, tokens.ErrNoDeciders),
		errors.Is(err, tokens.ErrDeciderNotEnrolled):
		return http.StatusPreconditionFailed
	case errors.Is(err, payments.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wageadvance.ErrLedger),
		errors.Is(err, tokens.ErrLedger):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Error answers err with its mapped status. An active request conflict carries the blocking request.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	body := api.Error{Message: err.Error()}

	var active *wageadvance.ActiveRequestError
	if errors.As(err, &active) && active.Existing != nil {
		body.Existing = mapping.ToApiWageAdvance(active.Existing)
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
		if status == http.StatusInternalServerError {
			body.Message = "Internal server error"
		}
	}
	JSON(w, status, body)
}

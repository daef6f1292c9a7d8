package wageadvance

import (
	"errors"
	"fmt"

	"github.com/chris/wage-advance-ledger/pkg/models"
)

var (
	// ErrValidation is returned for malformed input, before any state is touched.
	ErrValidation = errors.New("validation failed")

	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is the category of every state and uniqueness conflict.
	ErrConflict = errors.New("conflict")

	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrLedger wraps a definite failure reported by the ledger gateway.
	ErrLedger = errors.New("ledger call failed")

	ErrAlreadyVoted = fmt.Errorf("%w: decider already voted on this request", ErrConflict)

	// ErrSigningKeyMissing is returned when custody has no key for a required signature.
	ErrSigningKeyMissing = errors.New("signing key missing")

	// ErrTransferDeferred means the scheduled mint was not final yet and the transfer was queued for later.
	ErrTransferDeferred = errors.New("transfer deferred until the scheduled mint is final")

	// ErrTransferOutcomeUnknown means the transfer timed out; the confirmation poller resolves it.
	ErrTransferOutcomeUnknown = errors.New("transfer outcome unknown")
)

// StateError reports an operation attempted against a request in the wrong status.
type StateError struct {
	RequestID string
	Required  models.RequestStatus
	Actual    models.RequestStatus
	Detail    string
}

func (e *StateError) Error() string {
	msg := fmt.Sprintf("request %s is %s, required %s", e.RequestID, e.Actual, e.Required)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *StateError) Is(target error) bool { return target == ErrConflict }

// ActiveRequestError is returned when the employee already has an active request.
// Existing may be nil if it could not be read back.
type ActiveRequestError struct {
	Existing *models.WageAdvanceRequest
}

func (e *ActiveRequestError) Error() string {
	if e.Existing == nil {
		return "employee already has an active wage advance request"
	}
	return fmt.Sprintf("employee already has an active wage advance request %s (%s)", e.Existing.Id, e.Existing.Status)
}

func (e *ActiveRequestError) Is(target error) bool { return target == ErrConflict }

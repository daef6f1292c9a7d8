package ledger

import (
	"errors"
	"strings"
)

// ErrOutcomeUnknown is returned when a submitted transaction timed out before a receipt arrived.
// The transaction may still reach consensus.
var ErrOutcomeUnknown = errors.New("ledger outcome unknown")

// ErrNotConnected is returned by calls made before Connect succeeded.
var ErrNotConnected = errors.New("ledger gateway not connected")

// IsAlreadyAssociated reports whether a failure message means the account already holds the token.
func IsAlreadyAssociated(message string) bool {
	upper := strings.ToUpper(message)
	return strings.Contains(upper, "TOKEN_ALREADY_ASSOCIATED_TO_ACCOUNT") ||
		strings.Contains(upper, "ALREADY ASSOCIATED")
}

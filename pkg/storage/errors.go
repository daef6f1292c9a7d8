package storage

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrActiveRequestExists is returned when an employee already holds the active request lock.
var ErrActiveRequestExists = errors.New("employee already has an active wage advance request")

// ErrStatusConflict is returned when a conditional status transition finds the record in another state.
var ErrStatusConflict = errors.New("record is not in the expected status")

// ErrDuplicateApproval is returned when a decider already has an entry on the request.
var ErrDuplicateApproval = errors.New("decider already recorded on request")

// ErrOperationFinalized is returned when an operation is no longer in the status a writer expected.
var ErrOperationFinalized = errors.New("operation already finalized")

// ErrAlreadyExists is returned by create calls guarded by attribute_not_exists.
var ErrAlreadyExists = errors.New("record already exists")

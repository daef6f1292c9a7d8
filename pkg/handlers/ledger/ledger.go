package ledger

import (
	"context"
	"net/http"
	"slices"

	"github.com/chris/wage-advance-ledger/pkg/api"
	"github.com/chris/wage-advance-ledger/pkg/handlers/respond"
	"github.com/chris/wage-advance-ledger/pkg/mapping"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/reconcile"
	"github.com/chris/wage-advance-ledger/pkg/storage"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

type Payments interface {
	PrepareShopPayment(ctx context.Context, employeeID, shopUserID string, amount int64) (*models.LedgerOperation, error)
	PrepareAssociation(ctx context.Context, employeeID string) (*models.LedgerOperation, error)
	AcknowledgeSignature(ctx context.Context, operationID, userID, transactionID string) (*models.LedgerOperation, error)
}

type OperationLister interface {
	ListOperations(ctx context.Context, filter storage.OperationFilter) ([]models.LedgerOperation, error)
}

// Reconciler runs the two background passes on demand.
type Reconciler interface {
	RunStaleExpiry(ctx context.Context) (*reconcile.StaleResult, error)
	RunConfirmationReconciliation(ctx context.Context) (*reconcile.ConfirmationResult, error)
}

// LedgerHandler holds the dependencies for ledger-operation handlers.
type LedgerHandler struct {
	Payments   Payments
	Operations OperationLister
	Reconciler Reconciler
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(payments Payments, operations OperationLister, reconciler Reconciler) *LedgerHandler {
	return &LedgerHandler{Payments: payments, Operations: operations, Reconciler: reconciler}
}

func (h *LedgerHandler) ListOperations(w http.ResponseWriter, r *http.Request, params api.ListOperationsParams) {
	filter := storage.OperationFilter{Limit: defaultLimit}
	if params.Limit != nil {
		if *params.Limit < 1 || *params.Limit > maxLimit {
			respond.JSON(w, http.StatusBadRequest, api.Error{Message: "limit must be between 1 and 200"})
			return
		}
		filter.Limit = int(*params.Limit)
	}
	if params.Type != nil {
		filter.Type = models.OperationType(*params.Type)
		if !slices.Contains(models.OperationTypes, filter.Type) {
			respond.JSON(w, http.StatusBadRequest, api.Error{Message: "unknown operation type " + *params.Type})
			return
		}
	}
	if params.Status != nil {
		filter.Status = models.OperationStatus(*params.Status)
	}
	if params.UserId != nil {
		filter.UserId = *params.UserId
	}

	ops, err := h.Operations.ListOperations(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiOperations(ops))
}

func (h *LedgerHandler) PrepareShopPayment(w http.ResponseWriter, r *http.Request) {
	var body api.NewShopPayment
	if !respond.Decode(w, r, &body) {
		return
	}

	op, err := h.Payments.PrepareShopPayment(r.Context(), body.EmployeeId, body.ShopUserId, body.Amount)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, mapping.ToApiOperation(op))
}

func (h *LedgerHandler) PrepareAssociation(w http.ResponseWriter, r *http.Request) {
	var body api.NewAssociation
	if !respond.Decode(w, r, &body) {
		return
	}

	op, err := h.Payments.PrepareAssociation(r.Context(), body.EmployeeId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, mapping.ToApiOperation(op))
}

func (h *LedgerHandler) AcknowledgeSignature(w http.ResponseWriter, r *http.Request, operationId string) {
	var body api.SignatureAck
	if !respond.Decode(w, r, &body) {
		return
	}
	if !respond.ValidTransactionID(body.TransactionId) {
		respond.JSON(w, http.StatusBadRequest, api.Error{Message: "malformed transaction id " + body.TransactionId})
		return
	}

	op, err := h.Payments.AcknowledgeSignature(r.Context(), operationId, body.UserId, body.TransactionId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiOperation(op))
}

func (h *LedgerHandler) RunStaleExpiry(w http.ResponseWriter, r *http.Request) {
	res, err := h.Reconciler.RunStaleExpiry(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiStaleExpiryResult(res))
}

func (h *LedgerHandler) RunConfirmationReconciliation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Reconciler.RunConfirmationReconciliation(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiConfirmationResult(res))
}

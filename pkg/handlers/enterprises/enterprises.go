package enterprises

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"net/http"

	"github.com/chris/wage-advance-ledger/pkg/api"
	"github.com/chris/wage-advance-ledger/pkg/handlers/respond"
	"github.com/chris/wage-advance-ledger/pkg/mapping"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/tokens"
)

type TokenProvisioner interface {
	EnrollDecider(ctx context.Context, deciderID string) (ed25519.PublicKey, error)
	ProvisionToken(ctx context.Context, in tokens.TokenInput) (*models.EnterpriseToken, error)
}

type PendingLister interface {
	GetPendingRequestsForEnterprise(ctx context.Context, entrepriseID string) ([]models.WageAdvanceRequest, error)
}

// EnterprisesHandler serves token setup and the deciders' work queue.
type EnterprisesHandler struct {
	Tokens  TokenProvisioner
	Pending PendingLister
}

func NewEnterprisesHandler(tokens TokenProvisioner, pending PendingLister) *EnterprisesHandler {
	return &EnterprisesHandler{Tokens: tokens, Pending: pending}
}

func (h *EnterprisesHandler) ProvisionToken(w http.ResponseWriter, r *http.Request, entrepriseId string) {
	var body api.NewToken
	if !respond.Decode(w, r, &body) {
		return
	}

	in := tokens.TokenInput{EnterpriseID: entrepriseId, Name: body.Name, Symbol: body.Symbol}
	if body.Decimals != nil {
		if *body.Decimals < 0 {
			respond.JSON(w, http.StatusBadRequest, api.Error{Message: "decimals must not be negative"})
			return
		}
		in.Decimals = uint32(*body.Decimals)
	}
	if body.FeeBasisPoints != nil {
		in.FeeBasisPoints = *body.FeeBasisPoints
	}

	token, err := h.Tokens.ProvisionToken(r.Context(), in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, mapping.ToApiToken(token))
}

func (h *EnterprisesHandler) EnrollDecider(w http.ResponseWriter, r *http.Request, deciderId string) {
	pub, err := h.Tokens.EnrollDecider(r.Context(), deciderId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, api.SigningKey{DeciderId: deciderId, PublicKey: hex.EncodeToString(pub)})
}

func (h *EnterprisesHandler) ListPendingWageAdvances(w http.ResponseWriter, r *http.Request, entrepriseId string) {
	requests, err := h.Pending.GetPendingRequestsForEnterprise(r.Context(), entrepriseId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiWageAdvances(requests))
}

package storage

import (
	"context"

	"github.com/chris/wage-advance-ledger/pkg/models"
)

// SecretStore persists sealed key material. It never sees plaintext.
type SecretStore interface {
	PutSecret(ctx context.Context, secret *models.SealedSecret) error
	GetSecret(ctx context.Context, ref string) (*models.SealedSecret, error)
	DeleteSecret(ctx context.Context, ref string) error
}

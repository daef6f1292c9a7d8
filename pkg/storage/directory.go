package storage

import (
	"context"

	"github.com/chris/wage-advance-ledger/pkg/models"
)

// UserStore defines the interface for managing users.
type UserStore interface {
	// GetUser retrieves a user by ID. It returns ErrNotFound when missing.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	CreateUser(ctx context.Context, user *models.User) error

	// ListUsersByEnterprise returns the users of an enterprise with the given category.
	ListUsersByEnterprise(ctx context.Context, entrepriseID string, category models.UserCategory) ([]models.User, error)
}

// EnterpriseStore defines the interface for managing enterprises.
type EnterpriseStore interface {
	GetEnterprise(ctx context.Context, entrepriseID string) (*models.Enterprise, error)
	CreateEnterprise(ctx context.Context, enterprise *models.Enterprise) error
}

// TokenStore holds the single token of each enterprise.
type TokenStore interface {
	GetEnterpriseToken(ctx context.Context, entrepriseID string) (*models.EnterpriseToken, error)

	// CreateEnterpriseToken returns ErrAlreadyExists if the enterprise already has a token.
	CreateEnterpriseToken(ctx context.Context, token *models.EnterpriseToken) error
}

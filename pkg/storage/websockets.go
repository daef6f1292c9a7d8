package storage

import "context"

// ConnectionStore tracks the API Gateway connections subscribed to wage advance notifications.
// Removing an unknown connection is not an error.
type ConnectionStore interface {
	AddConnection(ctx context.Context, connectionID string) error
	RemoveConnection(ctx context.Context, connectionID string) error
	GetAllConnections(ctx context.Context) ([]string, error)
}

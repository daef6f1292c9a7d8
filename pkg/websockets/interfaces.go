package websockets

import (
	"context"
)

// ConnectionManager registers and drops notification subscribers.
type ConnectionManager interface {
	AddConnection(ctx context.Context, connectionID string) error
	RemoveConnection(ctx context.Context, connectionID string) error
}

// AllConnectionsGetter lists every subscriber a broadcast goes to.
type AllConnectionsGetter interface {
	GetAllConnections(ctx context.Context) ([]string, error)
}

// Publisher delivers request and balance updates to subscribers. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, message Message) error
}

package storage

// Storage defines the root interface for the entire data layer.
// It composes all available storage operations. Components should depend on the
// more granular interfaces (RequestStore, OperationStore, etc.) instead of this one.
type Storage interface {
	DirectoryStore
	RequestStore
	OperationStore
	SecretStore
	ConnectionStore
}

// DirectoryStore groups the identity records the orchestrator resolves actors against.
type DirectoryStore interface {
	UserStore
	EnterpriseStore
	TokenStore
}

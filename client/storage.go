package client

import "context"

// Storage authenticates clients.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines.
// - Errors: authentication failures must be *oautherr.Error values
// (usually invalid_client). The engine renders them unchanged and never
// retries. Lookup returns ErrNotFound for unknown clients.
type Storage interface {
	// Authenticate verifies creds and returns the client record.
	Authenticate(ctx context.Context, creds Credentials) (*Client, error)

	// Lookup returns the client record without authenticating it.
	Lookup(ctx context.Context, id string) (*Client, error)
}

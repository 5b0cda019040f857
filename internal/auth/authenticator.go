package auth

import "context"

// Authenticator is the auth service as the client sees it. Implementations
// talk to a remote service; the client never stores or hashes passwords.
type Authenticator interface {
	// Register creates an account and returns the service's message.
	Register(ctx context.Context, username, password string) (string, error)

	// Login verifies the credentials and returns a bearer token.
	Login(ctx context.Context, username, password string) (string, error)
}

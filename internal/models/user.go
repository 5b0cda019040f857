package models

// User is the identity a session credential resolves to.
type User struct {
	// ID scopes which ledger is fetched and saved. Empty when the credential
	// could not be decoded.
	ID string

	// Username is the name the user logged in with, when known.
	Username string

	// ExpiresAt is the Unix timestamp the credential expires at, or 0 if it
	// carries no expiry.
	ExpiresAt int64
}

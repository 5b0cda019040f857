// Package models defines the values exchanged between the distribution
// service and its external collaborators.
//
// # Models
//
//   - Entry: the form fields a user submits (amount, friends, emails, spender, description)
//   - Record: a saved distribution as the persistence service stores it
//   - EmailRequest: the payload handed to a notifier
//   - User: the identity decoded from a session credential
//
// The ledger itself lives in package ledger; models only carries it.
//
// # Wire compatibility
//
// Form fields travel as strings, matching the browser client that produced the
// existing records. Record decoding is lenient about numbers, arrays and nulls
// because older records were written by different client versions.
package models

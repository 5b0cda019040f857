package models

import "errors"

// ErrExternalService marks failures of any boundary call: network, auth,
// persistence or notification. Local ledger state is never rolled back on it.
var ErrExternalService = errors.New("external service error")

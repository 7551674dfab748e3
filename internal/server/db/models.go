package db

import "time"

// Identity is one row of the identity vault: a salted email digest plus
// provider, mapped to the encrypted signing key generated on first login.
// Rows are never updated or deleted; the first persisted secret is the
// identity's secret for the lifetime of the row.
type Identity struct {
	EmailHash       string
	Provider        string
	SecretEncrypted []byte
	CreatedAt       time.Time
}

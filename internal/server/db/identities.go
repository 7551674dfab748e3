package db

import (
	"database/sql"
	"fmt"
)

// GetSecret returns the encrypted secret for (emailHash, provider), or nil
// when no identity exists yet.
func (s *Store) GetSecret(emailHash, provider string) ([]byte, error) {
	var secret []byte
	err := s.db.QueryRow(
		`SELECT secret_encrypted FROM identities WHERE email_hash = ? AND provider = ?`,
		emailHash, provider,
	).Scan(&secret)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity secret: %w", err)
	}
	return secret, nil
}

// CreateSecretIfAbsent inserts a new identity row. A conflicting existing
// row is left untouched: the insert is a no-op and created is false. Callers
// re-read after a no-op so the first persisted secret always wins.
func (s *Store) CreateSecretIfAbsent(emailHash, provider string, secretEncrypted []byte) (created bool, err error) {
	res, err := s.db.Exec(
		`INSERT INTO identities (email_hash, provider, secret_encrypted)
		 VALUES (?, ?, ?)
		 ON CONFLICT(email_hash, provider) DO NOTHING`,
		emailHash, provider, secretEncrypted,
	)
	if err != nil {
		return false, fmt.Errorf("create identity secret: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create identity secret: %w", err)
	}
	return n > 0, nil
}

package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex SHA-256 digest of data. With a non-empty salt it
// computes HMAC-SHA256 keyed by the salt instead, which is how identity
// lookup keys are derived from email addresses without storing them.
func Hash(data, salt []byte) string {
	if len(salt) > 0 {
		mac := hmac.New(sha256.New, salt)
		mac.Write(data)
		return hex.EncodeToString(mac.Sum(nil))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

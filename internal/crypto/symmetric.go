package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	ivLen        = 12
	gcmTagLen    = 16
	minAtRestLen = ivLen + gcmTagLen // 28 bytes minimum
)

// ErrDecrypt indicates ciphertext that fails authentication or is malformed.
// It should never occur in correct operation and is logged for investigation.
var ErrDecrypt = errors.New("decryption failed")

const keyDerivationInfo = "signet-at-rest-v1"

// DeriveKey expands the server salt into the AES-256 at-rest key using
// HKDF-SHA256. Deterministic: the same salt always yields the same key.
func DeriveKey(passphrase string) [32]byte {
	var key [32]byte
	r := hkdf.New(sha256.New, []byte(passphrase), nil, []byte(keyDerivationInfo))
	if _, err := io.ReadFull(r, key[:]); err != nil {
		// hkdf only errors past its output limit; 32 bytes is far below it.
		panic(fmt.Sprintf("hkdf expand: %v", err))
	}
	return key
}

// EncryptAtRest encrypts plaintext using AES-256-GCM with the given key.
// Output format: iv(12) || ciphertext+tag
func EncryptAtRest(key [32]byte, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	iv := make([]byte, ivLen)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("generate IV: %w", err)
	}

	ct := gcm.Seal(nil, iv, plaintext, nil)

	out := make([]byte, 0, ivLen+len(ct))
	out = append(out, iv...)
	out = append(out, ct...)
	return out, nil
}

// DecryptAtRest decrypts data encrypted with EncryptAtRest.
// Input format: iv(12) || ciphertext+tag
func DecryptAtRest(key [32]byte, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < minAtRestLen {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	iv := ciphertext[:ivLen]
	ct := ciphertext[ivLen:]

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, iv, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plaintext, nil
}

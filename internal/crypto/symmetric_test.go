package crypto

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func randomKey(t *testing.T) [32]byte {
	t.Helper()
	var key [32]byte
	if _, err := rand.Read(key[:]); err != nil {
		t.Fatal(err)
	}
	return key
}

func TestAtRest_RoundTrip(t *testing.T) {
	key := randomKey(t)
	plaintext := []byte("32-byte private key material....")

	ct, err := EncryptAtRest(key, plaintext)
	if err != nil {
		t.Fatalf("EncryptAtRest: %v", err)
	}

	got, err := DecryptAtRest(key, ct)
	if err != nil {
		t.Fatalf("DecryptAtRest: %v", err)
	}

	if !bytes.Equal(got, plaintext) {
		t.Fatalf("got %q, want %q", got, plaintext)
	}
}

func TestAtRest_WrongKey(t *testing.T) {
	key := randomKey(t)
	wrongKey := randomKey(t)

	ct, err := EncryptAtRest(key, []byte("secret"))
	if err != nil {
		t.Fatalf("EncryptAtRest: %v", err)
	}

	_, err = DecryptAtRest(wrongKey, ct)
	if !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
}

func TestAtRest_ShortData(t *testing.T) {
	key := randomKey(t)
	_, err := DecryptAtRest(key, []byte("short"))
	if !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
}

func TestAtRest_EmptyPlaintext(t *testing.T) {
	key := randomKey(t)

	ct, err := EncryptAtRest(key, nil)
	if err != nil {
		t.Fatalf("EncryptAtRest: %v", err)
	}
	got, err := DecryptAtRest(key, ct)
	if err != nil {
		t.Fatalf("DecryptAtRest: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty plaintext, got %q", got)
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	a := DeriveKey("server-salt-value")
	b := DeriveKey("server-salt-value")
	if a != b {
		t.Fatal("same passphrase must derive the same key")
	}

	c := DeriveKey("another-salt")
	if a == c {
		t.Fatal("different passphrases must derive different keys")
	}
}

func TestDeriveKey_RoundTripsWithAtRest(t *testing.T) {
	key := DeriveKey("the-server-salt")
	plaintext := []byte("payload")

	ct, err := EncryptAtRest(key, plaintext)
	if err != nil {
		t.Fatalf("EncryptAtRest: %v", err)
	}
	got, err := DecryptAtRest(DeriveKey("the-server-salt"), ct)
	if err != nil {
		t.Fatalf("DecryptAtRest: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("got %q, want %q", got, plaintext)
	}
}

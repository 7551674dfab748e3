package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/signet-works/signet/internal/crypto"
	"github.com/signet-works/signet/internal/karnets"
)

func newSignRouter(cache karnets.Cache, key [32]byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/sign", HandleSign(cache, key))
	return r
}

// stageKey generates a key pair and stages its encrypted private key under
// the given karnet, returning the expected address.
func stageKey(t *testing.T, cache karnets.Cache, key [32]byte, karnet string) string {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	encrypted, err := crypto.EncryptAtRest(key, kp.PrivateKey)
	if err != nil {
		t.Fatalf("EncryptAtRest: %v", err)
	}
	if err := cache.Set(context.Background(), karnet, encrypted); err != nil {
		t.Fatalf("Set: %v", err)
	}
	return kp.Address
}

func signRequest(karnet string, message []byte) *http.Request {
	q := url.Values{}
	q.Set("karnet", karnet)
	q.Set("message", crypto.EncodeBase64(message))
	return httptest.NewRequest("GET", "/sign?"+q.Encode(), nil)
}

func TestHandleSign_Success(t *testing.T) {
	key := crypto.DeriveKey(testSalt)
	cache := karnets.NewMemoryCache(time.Minute)
	address := stageKey(t, cache, key, "karnet-1")
	r := newSignRouter(cache, key)

	message := []byte("attest: alice owns this account")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, signRequest("karnet-1", message))

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Signature string `json:"signature"`
		Address   string `json:"address"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Address != address {
		t.Fatalf("address: got %s, want %s", resp.Address, address)
	}

	sig, err := crypto.DecodeBase64(resp.Signature)
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	if !crypto.IsSignatureValid(resp.Address, sig, message) {
		t.Fatal("signature does not recover to the reported address")
	}
}

func TestHandleSign_UnknownKarnet(t *testing.T) {
	key := crypto.DeriveKey(testSalt)
	cache := karnets.NewMemoryCache(time.Minute)
	r := newSignRouter(cache, key)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, signRequest("never-staged", []byte("hello")))
	if w.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", w.Body.String())
	}
}

func TestHandleSign_ExpiredKarnet(t *testing.T) {
	key := crypto.DeriveKey(testSalt)
	cache := karnets.NewMemoryCache(time.Millisecond)
	stageKey(t, cache, key, "karnet-1")
	time.Sleep(5 * time.Millisecond)
	r := newSignRouter(cache, key)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, signRequest("karnet-1", []byte("hello")))
	if w.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", w.Code)
	}
}

func TestHandleSign_BadRequest(t *testing.T) {
	key := crypto.DeriveKey(testSalt)
	cache := karnets.NewMemoryCache(time.Minute)
	stageKey(t, cache, key, "karnet-1")
	r := newSignRouter(cache, key)

	for _, path := range []string{
		"/sign?message=aGk=",             // no karnet
		"/sign?karnet=karnet-1",          // no message
		"/sign?karnet=karnet-1&message=%21%21%21", // not base64
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: got %d, want 400", path, w.Code)
		}
	}
}

func TestHandleSign_CorruptedSecret(t *testing.T) {
	key := crypto.DeriveKey(testSalt)
	cache := karnets.NewMemoryCache(time.Minute)
	if err := cache.Set(context.Background(), "karnet-1", []byte("not an encrypted key")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	r := newSignRouter(cache, key)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, signRequest("karnet-1", []byte("hello")))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", w.Code)
	}
}

func TestHandleSign_RepeatedSignsSameKarnet(t *testing.T) {
	key := crypto.DeriveKey(testSalt)
	cache := karnets.NewMemoryCache(time.Minute)
	address := stageKey(t, cache, key, "karnet-1")
	r := newSignRouter(cache, key)

	// a karnet stays valid for its whole TTL; signing does not consume it
	for _, msg := range []string{"first", "second"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, signRequest("karnet-1", []byte(msg)))
		if w.Code != http.StatusOK {
			t.Fatalf("sign %q: got %d", msg, w.Code)
		}
		var resp struct {
			Signature string `json:"signature"`
			Address   string `json:"address"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.Address != address {
			t.Fatalf("address drifted: got %s, want %s", resp.Address, address)
		}
	}
}

package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/signet-works/signet/internal/auth"
	"github.com/signet-works/signet/internal/crypto"
	"github.com/signet-works/signet/internal/karnets"
	"github.com/signet-works/signet/internal/logx"
	"github.com/signet-works/signet/internal/server/db"
)

// HandleRedirect handles GET /redirect/:provider?code=...&state=<karnet>.
//
// It drives the whole login: exchange the authorization code for a verified
// email claim, look up or lazily create the identity's encrypted signing
// key, then stage that key in the karnet cache for the later sign call.
// Every failure past parameter validation collapses to the failure page
// with the reason logged internally only, so the endpoint cannot be used
// as an oracle for account or provider existence.
func HandleRedirect(store *db.Store, cache karnets.Cache, authc *auth.Client, salt string, key [32]byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider := strings.ToLower(c.Param("provider"))
		code := c.Query("code")
		karnet := c.Query("state")

		if provider == "" || code == "" || karnet == "" {
			loginOutcomes.WithLabelValues("failure").Inc()
			renderFailure(c, http.StatusBadRequest)
			return
		}

		claim, err := authc.Exchange(c.Request.Context(), provider, code)
		if err != nil {
			logx.Warnf("login: code exchange failed for provider %s: %v", provider, err)
			loginOutcomes.WithLabelValues("failure").Inc()
			renderFailure(c, http.StatusOK)
			return
		}

		secret, err := resolveSecret(store, claim, salt, key)
		if err != nil {
			logx.Errorf("login: resolve identity secret: %v", err)
			loginOutcomes.WithLabelValues("failure").Inc()
			renderFailure(c, http.StatusOK)
			return
		}

		if err := cache.Set(c.Request.Context(), karnet, secret); err != nil {
			logx.Errorf("login: stage karnet secret: %v", err)
			loginOutcomes.WithLabelValues("failure").Inc()
			renderFailure(c, http.StatusOK)
			return
		}

		loginOutcomes.WithLabelValues("success").Inc()
		renderSuccess(c)
	}
}

// resolveSecret implements get-or-create for the identity vault. On a miss
// it generates a fresh key pair, encrypts the private key and attempts the
// insert; a concurrent request may have won the race, so it re-reads rather
// than trusting its own candidate. The first persisted secret is permanent
// for the identity.
func resolveSecret(store *db.Store, claim *auth.Claim, salt string, key [32]byte) ([]byte, error) {
	email := strings.ToLower(claim.Email)
	provider := strings.ToLower(claim.Provider)
	emailHash := crypto.Hash([]byte(email), []byte(salt))

	secret, err := store.GetSecret(emailHash, provider)
	if err != nil {
		return nil, err
	}
	if secret != nil {
		return secret, nil
	}

	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	encrypted, err := crypto.EncryptAtRest(key, kp.PrivateKey)
	if err != nil {
		return nil, err
	}

	created, err := store.CreateSecretIfAbsent(emailHash, provider, encrypted)
	if err != nil {
		return nil, err
	}
	if created {
		logx.Infof("login: new identity created for provider %s", provider)
		return encrypted, nil
	}

	// Lost the race: another request persisted first. Use its secret.
	secret, err = store.GetSecret(emailHash, provider)
	if err != nil {
		return nil, err
	}
	return secret, nil
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/signet-works/signet/internal/crypto"
	"github.com/signet-works/signet/internal/karnets"
	"github.com/signet-works/signet/internal/logx"
)

// HandleSign handles GET /sign?karnet=...&message=<base64>.
//
// The caller is a script, not a human redirect, so the status codes carry
// the signal: 403 for an unknown or expired karnet (expected, benign),
// 500 for anything going wrong past that point (never expected; logged,
// with no hint of which step failed).
func HandleSign(cache karnets.Cache, key [32]byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		karnet := c.Query("karnet")
		messageB64 := c.Query("message")

		if karnet == "" || messageB64 == "" {
			signOutcomes.WithLabelValues("bad_request").Inc()
			c.Status(http.StatusBadRequest)
			return
		}

		message, err := crypto.DecodeBase64(messageB64)
		if err != nil {
			signOutcomes.WithLabelValues("bad_request").Inc()
			c.Status(http.StatusBadRequest)
			return
		}

		secretEncrypted, err := cache.Get(c.Request.Context(), karnet)
		if errors.Is(err, karnets.ErrMiss) {
			signOutcomes.WithLabelValues("expired").Inc()
			c.Status(http.StatusForbidden)
			return
		}
		if err != nil {
			logx.Errorf("sign: karnet lookup: %v", err)
			signOutcomes.WithLabelValues("failure").Inc()
			c.Status(http.StatusInternalServerError)
			return
		}

		privateKey, err := crypto.DecryptAtRest(key, secretEncrypted)
		if err != nil {
			// Decryption of a staged secret must never fail; this points at
			// corruption or tampering in the cache backend.
			logx.Errorf("sign: decrypt staged secret: %v", err)
			signOutcomes.WithLabelValues("failure").Inc()
			c.Status(http.StatusInternalServerError)
			return
		}

		signature, err := crypto.Sign(privateKey, message)
		if err != nil {
			logx.Errorf("sign: %v", err)
			signOutcomes.WithLabelValues("failure").Inc()
			c.Status(http.StatusInternalServerError)
			return
		}

		address, err := crypto.AddressFromPrivateKey(privateKey)
		if err != nil {
			logx.Errorf("sign: derive address: %v", err)
			signOutcomes.WithLabelValues("failure").Inc()
			c.Status(http.StatusInternalServerError)
			return
		}

		signOutcomes.WithLabelValues("success").Inc()
		c.JSON(http.StatusOK, gin.H{
			"signature": crypto.EncodeBase64(signature),
			"address":   address,
		})
	}
}

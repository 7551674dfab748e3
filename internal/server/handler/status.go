package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/signet-works/signet/internal/auth"
	"github.com/signet-works/signet/internal/karnets"
	"github.com/signet-works/signet/internal/logx"
	"github.com/signet-works/signet/internal/server/db"
	"github.com/signet-works/signet/internal/version"
)

// HandleStatus handles GET /status.json, the health endpoint consumed by
// process supervisors. Reports 503 when the identity vault is unreachable.
func HandleStatus(store *db.Store, cache karnets.Cache, authc *auth.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		host, _ := os.Hostname()
		status := gin.H{
			"host":    host,
			"version": version.Version,
			"karnets": cache.Metrics(),
			"auth":    authc.Metrics(),
		}

		if err := store.Ping(); err != nil {
			logx.Warnf("status: database not healthy: %v", err)
			status["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "OK"
		c.JSON(http.StatusOK, status)
	}
}

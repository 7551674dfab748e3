package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signet-works/signet/internal/auth"
	"github.com/signet-works/signet/internal/karnets"
	"github.com/signet-works/signet/internal/server/db"
	"github.com/signet-works/signet/internal/server/handler"
)

// NewRouter creates and configures the Gin router with all routes.
func NewRouter(store *db.Store, cache karnets.Cache, authc *auth.Client, cfg *Config) *gin.Engine {
	r := gin.Default()

	if len(cfg.CORSOrigins) > 0 {
		r.Use(CORS(cfg.CORSOrigins))
	}

	r.GET("/", func(c *gin.Context) {
		c.String(200, "ok")
	})

	r.GET("/redirect/:provider", handler.HandleRedirect(store, cache, authc, cfg.Salt, cfg.AtRestKey))
	r.GET("/sign", handler.HandleSign(cache, cfg.AtRestKey))
	r.GET("/status.json", handler.HandleStatus(store, cache, authc))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

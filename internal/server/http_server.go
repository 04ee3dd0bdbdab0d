package server

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/bubbles/internal/config"
	"github.com/oggyb/bubbles/internal/observability"
)

// NewRouter builds the gin engine and registers all provided services.
func NewRouter(cfg *config.Config, authMiddleware gin.HandlerFunc, registrars ...Registrar) *gin.Engine {
	if cfg.App.ENV != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/metrics", observability.MetricsHandler())

	public := r.Group("/")
	private := r.Group("/", authMiddleware)

	for _, reg := range registrars {
		reg.Register(public, private)
	}

	return r
}

// StartHTTPServer boots the HTTP server on the configured address.
func StartHTTPServer(cfg *config.Config, router *gin.Engine) error {
	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	if err := router.Run(addr); err != nil {
		return fmt.Errorf("http server failed on %s: %w", addr, err)
	}
	return nil
}

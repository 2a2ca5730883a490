// Package http serves the read-only dashboard: an HTML status page, JSON
// status and stats endpoints, a Prometheus-style metrics dump, a health
// check, and a live websocket feed of broadcast chat lines. Everything is
// fed from hub snapshot queries; handlers never touch hub state directly.
package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/openmortal/mortalnet/internal/config"
	"github.com/openmortal/mortalnet/internal/core"
)

// Hub is the read-only view the dashboard consumes.
type Hub interface {
	GetSnapshot() core.Snapshot
	GetRawStats() []byte
	Subscribe() chan string
	Unsubscribe(chan string)
}

// NewServer builds the dashboard HTTP server.
func NewServer(hub Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger), securityHeaders())
	engine.SetHTMLTemplate(dashboardTmpl)

	h := &handlers{hub: hub, log: logger}

	for _, route := range []struct {
		path    string
		handler gin.HandlerFunc
	}{
		{"/", h.index},
		{"/api/status", h.status},
		{"/api/stats", h.stats},
		{"/metrics", h.metrics},
		{"/healthz", h.health},
	} {
		engine.GET(route.path, route.handler)
		engine.HEAD(route.path, route.handler)
	}
	engine.GET("/ws", h.liveFeed)

	return &stdhttp.Server{
		Addr:         cfg.WebAddr,
		Handler:      engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

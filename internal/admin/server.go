// Package admin owns the daemon's operator HTTP surface.
package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/wirelink/internal/observability"
)

// Status is the daemon state reported on /status.
type Status struct {
	Port      int    `json:"port"`
	SessionID string `json:"session_id,omitempty"`
	BytesSent uint64 `json:"bytes_sent"`
}

// StatusFunc snapshots daemon state for one request.
type StatusFunc func() Status

type Server struct {
	router  *gin.Engine
	started time.Time
}

func New(status StatusFunc) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{router: r, started: time.Now()}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"service": "wirelinkd",
		})
	})

	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, status())
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves the admin surface until the listener fails. Callers run it
// on its own goroutine; the endpoint session loop never depends on it.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

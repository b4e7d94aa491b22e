package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"platewatch-service/internal/config"
	"platewatch-service/internal/metrics"
)

// NewRouter assembles the engine with middleware, /metrics and the API routes.
func NewRouter(cfg *config.Config, h *Handler, m *metrics.Metrics, log zerolog.Logger) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(
		Recovery(log),
		RequestID(),
		RequestLogger(log),
		Metrics(m),
		SecurityHeaders(),
		cors.New(corsConfig(cfg.Server.CORSOrigin)),
		BodyLimit(cfg.Server.BodyLimit),
	)

	r.GET("/metrics", gin.WrapH(m.Handler()))
	h.Register(r)

	return r, nil
}

func corsConfig(origin string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if origin == "" || origin == "*" {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = []string{origin}
	}
	return c
}

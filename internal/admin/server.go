// Package admin serves the optional HTTP surface next to the datagram
// server: liveness, readiness, the running exchange settings and metrics.
package admin

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/danmuck/sumctl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const Version = "0.1.0"

// Info describes the datagram server the admin surface sits beside.
type Info struct {
	ListenAddr string `json:"listen_addr"`
	PrefixSums bool   `json:"prefix_sums"`
	Workers    int    `json:"workers"`
}

type Admin struct {
	ID       string
	Addr     string
	Info     Info
	Appeared time.Time

	router *gin.Engine
	ready  atomic.Bool
}

func New(id, addr string, corsOrigins []string, info Info) *Admin {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger, id))
	r.Use(observability.RequestMetricsMiddleware(id))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	a := &Admin{
		ID:       id,
		Addr:     addr,
		Info:     info,
		Appeared: time.Now(),
		router:   r,
	}
	a.registerRoutes()
	return a
}

// SetReady flips the /ready probe; the datagram server sets it once bound.
func (a *Admin) SetReady(ready bool) {
	a.ready.Store(ready)
}

func (a *Admin) HTTPRouter() *gin.Engine {
	return a.router
}

func (a *Admin) registerRoutes() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(a.Appeared).String(),
			"service": a.ID,
			"version": Version,
		})
	})

	a.router.GET("/ready", func(c *gin.Context) {
		status := http.StatusOK
		if !a.ready.Load() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":   a.ready.Load(),
			"service": a.ID,
			"version": Version,
		})
	})

	a.router.GET("/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, a.Info)
	})

	a.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Serve runs the HTTP server until ctx is done, then shuts it down.
func (a *Admin) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Addr,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("id", a.ID).Str("addr", a.Addr).Msg("admin listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

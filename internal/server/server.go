// Package server is the thin HTTP layer that serves the latest snapshot.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"StockSentinel/internal/events"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/watchlist"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server wires the HTTP handlers to the stores and the event broker.
type Server struct {
	store       recorder.Store
	watchlist   watchlist.Source
	broker      *events.Broker
	gatherer    prometheus.Gatherer
	notifyToken string
	artifact    string
	logger      *zap.Logger
}

// New creates a server. gatherer may be nil to disable /metrics.
func New(store recorder.Store, src watchlist.Source, broker *events.Broker, gatherer prometheus.Gatherer, notifyToken string, logger *zap.Logger) *Server {
	return &Server{
		store:       store,
		watchlist:   src,
		broker:      broker,
		gatherer:    gatherer,
		notifyToken: notifyToken,
		logger:      logger,
	}
}

// WithArtifact makes /stock-alerts fall back to the JSON artifact at path when the
// store is empty or unavailable, so a run written by another process is still served.
func (s *Server) WithArtifact(path string) *Server {
	s.artifact = path
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/healthz", s.health)
	r.GET("/stock-alerts", s.stockAlerts)
	r.GET("/monitored-stocks-api", s.monitoredStocks)
	r.POST("/request-stock", s.requestStock)
	r.POST("/subscribe", s.subscribe)
	r.POST("/unsubscribe", s.unsubscribe)
	r.POST("/notify", s.notify)
	r.GET("/events", s.pollEvents)
	r.GET("/ws", s.streamEvents)
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

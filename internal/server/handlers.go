package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"StockSentinel/internal/events"
	"StockSentinel/internal/model"
	"StockSentinel/internal/recorder"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GET /healthz
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "latest_event": s.broker.Latest()})
}

// GET /stock-alerts returns the latest snapshot records, an empty array before the first run.
func (s *Server) stockAlerts(c *gin.Context) {
	records, err := s.store.LoadSnapshot(c.Request.Context())
	if s.artifact != "" && (err != nil || len(records) == 0) {
		fromFile, ferr := recorder.ReadArtifact(s.artifact)
		switch {
		case ferr != nil:
			s.logger.Warn("Failed to read snapshot artifact", zap.String("path", s.artifact), zap.Error(ferr))
		case err != nil:
			s.logger.Warn("Snapshot store unavailable, serving artifact", zap.Error(err))
			records, err = fromFile, nil
		default:
			records = fromFile
		}
	}
	if err != nil {
		s.logger.Error("Failed to load snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error reading stock data."})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GET /monitored-stocks-api returns the current watch-list.
func (s *Server) monitoredStocks(c *gin.Context) {
	items, err := s.watchlist.Load(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to load watch-list", zap.Error(err))
		c.JSON(http.StatusOK, []model.WatchItem{})
		return
	}
	if items == nil {
		items = []model.WatchItem{}
	}
	c.JSON(http.StatusOK, items)
}

type stockRequest struct {
	Symbol string `json:"symbol" binding:"required,max=16"`
}

// POST /request-stock
func (s *Server) requestStock(c *gin.Context) {
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Symbol) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No stock symbol provided."})
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	count, err := s.store.IncrementRequest(c.Request.Context(), symbol)
	if err != nil {
		s.logger.Error("Failed to record stock request", zap.String("symbol", symbol), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not record request."})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Requested monitoring for stock %s.", symbol),
		"count":   count,
	})
}

type subscription struct {
	Email string `json:"email" binding:"required,email"`
}

// POST /subscribe
func (s *Server) subscribe(c *gin.Context) {
	var req subscription
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "A valid email is required."})
		return
	}
	email := strings.ToLower(req.Email)
	if err := s.store.Append(c.Request.Context(), recorder.ListSubscribers, recorder.Entry{Value: email}); err != nil {
		s.logger.Error("Failed to add subscriber", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not subscribe."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Subscribed."})
}

// POST /unsubscribe
func (s *Server) unsubscribe(c *gin.Context) {
	var req subscription
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "A valid email is required."})
		return
	}
	err := s.store.Remove(c.Request.Context(), recorder.ListSubscribers, strings.ToLower(req.Email))
	switch {
	case errors.Is(err, recorder.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not subscribed."})
	case err != nil:
		s.logger.Error("Failed to remove subscriber", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not unsubscribe."})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Unsubscribed."})
	}
}

// POST /notify receives a snapshot event from a pipeline process and
// republishes it to local subscribers.
func (s *Server) notify(c *gin.Context) {
	if s.notifyToken != "" && c.GetHeader("X-Notify-Token") != s.notifyToken {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	var evt events.SnapshotEvent
	if err := c.ShouldBindJSON(&evt); err != nil || evt.RunID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event"})
		return
	}
	if err := s.broker.Publish(c.Request.Context(), evt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.logger.Info("snapshot event received", zap.String("run_id", evt.RunID))
	c.JSON(http.StatusAccepted, gin.H{"seq": s.broker.Latest()})
}

// GET /events?since=N returns the events newer than N.
func (s *Server) pollEvents(c *gin.Context) {
	since, err := strconv.ParseInt(c.DefaultQuery("since", "0"), 10, 64)
	if err != nil || since < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a non-negative integer"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"latest": s.broker.Latest(),
		"events": s.broker.Since(since),
	})
}

// Package httpserver exposes the hub's activity feed over HTTP.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fieldsync/skiff/internal/model"
	"github.com/gin-gonic/gin"
)

// FeedStore is the narrow store contract required by the HTTP API.
type FeedStore interface {
	InsertActivities(activities []model.Activity) error
	RecentActivities(opts model.QueryOpts) ([]model.Activity, error)
	DailyCounts(days int, opts model.QueryOpts) ([]model.DailyCount, error)
	TotalCount(opts model.QueryOpts) (int64, error)
}

// Server provides the HTTP API clients sync against.
type Server struct {
	addr      string
	store     FeedStore
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, store FeedStore) *Server {
	if addr == "" {
		addr = "0.0.0.0:3414"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		store:  store,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	s.registerRoutes(r)

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/api/health", s.handleHealth)
	r.GET("/api/activities", s.handleActivities)
	r.POST("/api/activities", s.handleIngest)
	r.GET("/api/stats/daily", s.handleDailyStats)
}

func (s *Server) handleHealth(c *gin.Context) {
	count, err := s.store.TotalCount(model.QueryOpts{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read health metrics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime":         time.Since(s.startTime).String(),
		"activity_count": count,
	})
}

// parseQueryOpts reads the shared site/since/limit query parameters.
func parseQueryOpts(c *gin.Context) (model.QueryOpts, bool) {
	opts := model.QueryOpts{Site: c.Query("site")}

	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return opts, false
		}
		opts.Since = t
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return opts, false
		}
		opts.Limit = n
	}
	return opts, true
}

func (s *Server) handleActivities(c *gin.Context) {
	opts, ok := parseQueryOpts(c)
	if !ok {
		return
	}

	activities, err := s.store.RecentActivities(opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read activities"})
		return
	}
	if activities == nil {
		activities = []model.Activity{}
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": activities,
		"count":      len(activities),
	})
}

func (s *Server) handleIngest(c *gin.Context) {
	var req struct {
		Activities []model.Activity `json:"activities" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing activities field"})
		return
	}

	for i, a := range req.Activities {
		if a.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "activity missing id", "index": i})
			return
		}
		if a.Timestamp.IsZero() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "activity missing timestamp", "id": a.ID})
			return
		}
	}

	if err := s.store.InsertActivities(req.Activities); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store activities"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ingested": len(req.Activities)})
}

func (s *Server) handleDailyStats(c *gin.Context) {
	opts, ok := parseQueryOpts(c)
	if !ok {
		return
	}

	days := 14
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = n
	}

	counts, err := s.store.DailyCounts(days, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read daily stats"})
		return
	}
	if counts == nil {
		counts = []model.DailyCount{}
	}

	c.JSON(http.StatusOK, gin.H{"daily": counts})
}

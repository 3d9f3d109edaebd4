package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rverma/hyperliquid-data/internal/history"
	"github.com/rverma/hyperliquid-data/internal/ingest"
	"github.com/rverma/hyperliquid-data/internal/store"
	"github.com/rverma/hyperliquid-data/internal/version"
)

// Preference list names accepted by the preferences routes.
var preferenceNames = map[string]bool{
	"favorites": true,
	"blacklist": true,
	"newtokens": true,
}

// runState tracks the most recent history run started over the API.
type runState struct {
	ID        uuid.UUID `json:"runId"`
	Mode      string    `json:"mode"`
	StartedAt int64     `json:"startedAt"` // ms since epoch
	Completed int       `json:"completed"`
	Failed    int       `json:"failed"`
	Done      bool      `json:"done"`
}

// Server is the HTTP API over the store and the ingestion service.
type Server struct {
	svc    *ingest.Service
	db     store.Store
	logger *slog.Logger

	mu      sync.Mutex
	lastRun *runState
}

// New creates a Server.
func New(svc *ingest.Service, db store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, db: db, logger: logger}
}

// Router builds the gin engine with all API routes mounted. origins
// restricts CORS; none means any origin.
func (s *Server) Router(origins ...string) *gin.Engine {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/market-data", s.marketData)
		api.GET("/funding-history", s.allHistories)
		api.GET("/funding-history/:coin", s.oneHistory)
		api.GET("/funding-history-timestamps", s.historyTimestamps)
		api.GET("/metrics/:coin", s.coinMetrics)
		api.GET("/meta/:key", s.metaValue)
		api.GET("/stats", s.stats)

		api.GET("/preferences/:name", s.getPreference)
		api.PUT("/preferences/:name", s.putPreference)

		api.POST("/refresh", s.refresh)
		api.POST("/histories", s.startHistories)
		api.GET("/histories", s.historiesStatus)

		api.DELETE("/data", s.clearData)
	}
	return router
}

func (s *Server) health(c *gin.Context) {
	if _, err := s.svc.Stats(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": version.Version})
}

func (s *Server) marketData(c *gin.Context) {
	instruments, err := s.db.GetSnapshot(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, instruments)
}

func (s *Server) allHistories(c *gin.Context) {
	ctx := c.Request.Context()
	keys, err := s.db.SeriesKeys(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make(map[string]json.RawMessage, len(keys))
	for _, coin := range keys {
		series, err := s.db.GetSeries(ctx, coin)
		if err != nil {
			s.fail(c, err)
			return
		}
		if series == nil {
			continue
		}
		raw, err := json.Marshal(series.History)
		if err != nil {
			s.fail(c, err)
			return
		}
		out[coin] = raw
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) oneHistory(c *gin.Context) {
	series, err := s.db.GetSeries(c.Request.Context(), c.Param("coin"))
	if err != nil {
		s.fail(c, err)
		return
	}
	// Absent series answers null, matching what readers expect.
	c.JSON(http.StatusOK, series)
}

func (s *Server) historyTimestamps(c *gin.Context) {
	updates, err := s.db.SeriesUpdateTimes(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updates)
}

func (s *Server) coinMetrics(c *gin.Context) {
	m, err := s.svc.GetMetrics(c.Request.Context(), c.Param("coin"))
	if err != nil {
		if errors.Is(err, ingest.ErrSeriesNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) metaValue(c *gin.Context) {
	value, ok, err := s.db.GetMeta(c.Request.Context(), c.Param("key"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"value": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": value})
}

func (s *Server) stats(c *gin.Context) {
	stats, err := s.svc.Stats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) getPreference(c *gin.Context) {
	name := c.Param("name")
	if !preferenceNames[name] {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown preference list"})
		return
	}
	values, err := s.db.GetPreference(c.Request.Context(), name)
	if err != nil {
		s.fail(c, err)
		return
	}
	if values == nil {
		values = []string{}
	}
	c.JSON(http.StatusOK, values)
}

func (s *Server) putPreference(c *gin.Context) {
	name := c.Param("name")
	if !preferenceNames[name] {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown preference list"})
		return
	}
	var values []string
	if err := c.ShouldBindJSON(&values); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON string array"})
		return
	}
	if err := s.db.PutPreference(c.Request.Context(), name, values); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) refresh(c *gin.Context) {
	snap, err := s.svc.RefreshSnapshot(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	venueErrors := make([]string, 0, len(snap.Errors))
	for _, ve := range snap.Errors {
		venueErrors = append(venueErrors, ve.Error())
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"instruments": len(snap.Instruments),
		"venueErrors": venueErrors,
	})
}

// startHistories launches a history run in the background and answers
// immediately with its identity. Progress is observable via GET.
func (s *Server) startHistories(c *gin.Context) {
	var body struct {
		Mode string `json:"mode"`
	}
	// Empty body defaults to missing-only.
	_ = c.ShouldBindJSON(&body)

	mode := history.MissingOnly
	switch body.Mode {
	case "", "missing-only":
	case "force-all":
		mode = history.ForceAll
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be missing-only or force-all"})
		return
	}

	// The run outlives this request.
	events, err := s.svc.FetchHistories(context.Background(), mode)
	if err != nil {
		if errors.Is(err, ingest.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, ingest.ErrNoSnapshot) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		s.fail(c, err)
		return
	}

	state := &runState{Mode: mode.String(), StartedAt: time.Now().UnixMilli()}
	s.mu.Lock()
	s.lastRun = state
	s.mu.Unlock()

	go s.trackRun(state, events)

	c.JSON(http.StatusAccepted, gin.H{"ok": true, "mode": mode.String()})
}

func (s *Server) trackRun(state *runState, events <-chan history.ProgressEvent) {
	for ev := range events {
		s.mu.Lock()
		state.ID = ev.RunID
		switch ev.Status {
		case history.StatusCompleted:
			state.Completed++
		case history.StatusFailed:
			state.Failed++
		}
		s.mu.Unlock()
	}
	s.mu.Lock()
	state.Done = true
	s.mu.Unlock()
	s.logger.Info("history run finished over api",
		"run_id", state.ID,
		"completed", state.Completed,
		"failed", state.Failed,
	)
}

func (s *Server) historiesStatus(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun == nil {
		c.JSON(http.StatusOK, gin.H{"run": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": s.lastRun})
}

func (s *Server) clearData(c *gin.Context) {
	if err := s.svc.Clear(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) fail(c *gin.Context, err error) {
	s.logger.Error("request failed", "path", c.FullPath(), "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// Package server exposes the chat API over HTTP.
package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"talon/internal/agent"
	"talon/internal/logging"
	"talon/internal/session"
	"talon/internal/store"
)

const defaultSessionID = "default"

// Server wires the agent runtime and stores into HTTP handlers.
type Server struct {
	engine  *gin.Engine
	runtime *agent.Runtime
	store   store.Store
	log     logging.Logger
}

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	Debug          bool
	Logger         logging.Logger

	// Gatherer backs GET /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// New builds the server and registers all routes.
func New(runtime *agent.Runtime, st store.Store, opts Options) *Server {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware(opts.AllowedOrigins))

	s := &Server{
		engine:  engine,
		runtime: runtime,
		store:   st,
		log:     logging.OrNop(opts.Logger),
	}

	api := engine.Group("/api")
	api.POST("/chat", s.handleChat)
	api.GET("/health", s.handleHealth)
	api.GET("/users/:id/memory", s.handleMemory)

	if opts.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	return s
}

// Handler returns the root http.Handler for serving.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	return cors.New(cfg)
}

type chatRequest struct {
	Query     string `json:"query"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// handleChat runs one chat turn. Request validation failures get client
// errors; core failures are reported in-band with an error-typed body and a
// success status.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	query := strings.TrimSpace(req.Query)
	userID := strings.TrimSpace(req.UserID)
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query cannot be empty"})
		return
	}
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID cannot be empty"})
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = defaultSessionID
	}

	profile, err := s.store.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		s.log.Error("loading car profile for user %s failed: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load car profile"})
		return
	}

	st := session.New(query, userID, sessionID, *profile)
	s.log.Info("chat turn %s started for user %s", st.TurnID, userID)

	resp := s.runtime.RunTurn(c.Request.Context(), st)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleMemory returns a user's stored conversations. With ?session_id= it
// returns that session oldest first; otherwise the most recent turns, capped
// by ?limit= (default 10).
func (s *Server) handleMemory(c *gin.Context) {
	userID := c.Param("id")

	var (
		conversations []store.Conversation
		err           error
	)
	if sessionID := c.Query("session_id"); sessionID != "" {
		conversations, err = s.store.Session(c.Request.Context(), userID, sessionID)
	} else {
		limit := 10
		if raw := c.Query("limit"); raw != "" {
			if n, perr := strconv.Atoi(raw); perr == nil && n > 0 {
				limit = n
			}
		}
		conversations, err = s.store.Recent(c.Request.Context(), userID, limit)
	}
	if err != nil {
		s.log.Error("loading memory for user %s failed: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load conversation memory"})
		return
	}

	if conversations == nil {
		conversations = []store.Conversation{}
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":       userID,
		"count":         len(conversations),
		"conversations": conversations,
	})
}

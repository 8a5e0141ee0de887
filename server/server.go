package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
)

// TurnHandler runs one conversation turn, streaming events through emit.
type TurnHandler interface {
	HandleMessage(ctx context.Context, sessionID string, text string, emit contractx.EmitFunc) (string, error)
}

// GoogleAuth is the slice of the OAuth client the HTTP layer needs.
type GoogleAuth interface {
	AuthCodeURL() string
	Exchange(ctx context.Context, code string) error
	Connected() bool
}

type Config struct {
	Addr            string        `envconfig:"ADDR" split_words:"true" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"10s"`
	Debug           bool          `envconfig:"DEBUG" split_words:"true" default:"false"`
}

// Server exposes the chat turn loop over SSE plus the Google OAuth handshake.
// One turn at a time per session: a second request for a busy session gets 409.
type Server struct {
	engine *gin.Engine
	http   *http.Server

	turns TurnHandler
	auth  GoogleAuth

	busy            sync.Map
	shutdownTimeout time.Duration
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

func New(cfg Config, turns TurnHandler, auth GoogleAuth) (*Server, error) {
	if turns == nil {
		return nil, errors.New("turn handler is required")
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:          engine,
		turns:           turns,
		auth:            auth,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	engine.GET("/health", s.handleHealth)
	engine.POST("/chat", s.handleChat)
	engine.GET("/auth/google", s.handleAuthStart)
	engine.GET("/auth/callback", s.handleAuthCallback)
	engine.GET("/auth/status", s.handleAuthStatus)

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("http server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if _, loaded := s.busy.LoadOrStore(sessionID, struct{}{}); loaded {
		c.JSON(http.StatusConflict, gin.H{"error": "session is already handling a request"})
		return
	}
	defer s.busy.Delete(sessionID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Session-Id", sessionID)
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	emit := s.sseEmitter(c)

	if s.auth != nil && !s.auth.Connected() {
		_ = emit(contractx.StreamEvent{
			Type:    contractx.EventText,
			Content: "Your Google account is not connected yet. Open /auth/google to connect, then try again.",
		})
		_ = emit(contractx.StreamEvent{Type: contractx.EventDone})
		return
	}

	if _, err := s.turns.HandleMessage(c.Request.Context(), sessionID, req.Message, emit); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("chat turn ended with error")
	}
}

// sseEmitter writes one event per SSE data frame. A disconnected client turns
// every later write into ErrStreamClosed so the turn can wind down.
func (s *Server) sseEmitter(c *gin.Context) contractx.EmitFunc {
	return func(event contractx.StreamEvent) error {
		if err := c.Request.Context().Err(); err != nil {
			return fmt.Errorf("%w: %v", contractx.ErrStreamClosed, err)
		}
		encoded, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", encoded); err != nil {
			return fmt.Errorf("%w: %v", contractx.ErrStreamClosed, err)
		}
		c.Writer.Flush()
		return nil
	}
}

func (s *Server) handleAuthStart(c *gin.Context) {
	if s.auth == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "google auth is not configured"})
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, s.auth.AuthCodeURL())
}

func (s *Server) handleAuthCallback(c *gin.Context) {
	if s.auth == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "google auth is not configured"})
		return
	}
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code is missing"})
		return
	}
	if err := s.auth.Exchange(c.Request.Context(), code); err != nil {
		log.Error().Err(err).Msg("google token exchange failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "token exchange failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "connected"})
}

func (s *Server) handleAuthStatus(c *gin.Context) {
	connected := s.auth != nil && s.auth.Connected()
	c.JSON(http.StatusOK, gin.H{"connected": connected})
}

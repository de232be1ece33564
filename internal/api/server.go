// Package api exposes the assistant over HTTP and WebSocket.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"croak-assistant/internal/assistant"
	"croak-assistant/internal/classify"
	"croak-assistant/internal/domain"
	"croak-assistant/internal/observability"
)

// Config configures the API handlers.
type Config struct {
	// AskTimeout bounds one question, including market and model calls.
	AskTimeout time.Duration
	// ChunkSize and ChunkDelay shape the chat typing effect.
	ChunkSize  int
	ChunkDelay time.Duration
	// PingInterval is how often idle chat connections are pinged.
	PingInterval time.Duration
}

// DefaultConfig returns the default API configuration.
func DefaultConfig() Config {
	return Config{
		AskTimeout:   20 * time.Second,
		ChunkSize:    3,
		ChunkDelay:   10 * time.Millisecond,
		PingInterval: 30 * time.Second,
	}
}

// Server holds the API handlers.
type Server struct {
	assistant *assistant.Assistant
	cfg       Config
	logger    *zap.Logger
	metrics   *observability.Metrics
	upgrader  websocket.Upgrader
}

// NewServer creates a Server. Zero fields of cfg take their defaults.
func NewServer(a *assistant.Assistant, cfg Config, logger *zap.Logger, metrics *observability.Metrics) *Server {
	def := DefaultConfig()
	if cfg.AskTimeout <= 0 {
		cfg.AskTimeout = def.AskTimeout
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkDelay < 0 {
		cfg.ChunkDelay = 0
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}

	return &Server{
		assistant: a,
		cfg:       cfg,
		logger:    logger.Named("api"),
		metrics:   metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router returns the gin engine with every route registered.
//
//	POST /v1/ask
//	GET  /v1/detect?q=
//	GET  /v1/classify?q=
//	GET  /v1/tokens
//	GET  /v1/tokens/:symbol
//	GET  /v1/chat (WebSocket)
//	GET  /health
//	GET  /metrics
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.observe())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/ask", s.handleAsk)
		v1.GET("/detect", s.handleDetect)
		v1.GET("/classify", s.handleClassify)
		v1.GET("/tokens", s.handleTokens)
		v1.GET("/tokens/:symbol", s.handleToken)
		v1.GET("/chat", s.handleChat)
	}
	return r
}

// observe logs and times every request.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		s.metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(status), elapsed)
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
		)
	}
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func (s *Server) handleAsk(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message is required"})
		return
	}

	reply, err := s.ask(c.Request.Context(), req.Message)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message is required"})
			return
		}
		s.logger.Error("ask failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not answer"})
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) ask(ctx context.Context, text string) (*assistant.Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AskTimeout)
	defer cancel()
	return s.assistant.Ask(ctx, text)
}

// DetectResponse is the body of GET /v1/detect.
type DetectResponse struct {
	Symbol   string `json:"symbol"`
	Detected bool   `json:"detected"`
	Rule     string `json:"rule"`
	Alias    string `json:"alias,omitempty"`
}

func (s *Server) handleDetect(c *gin.Context) {
	res := s.assistant.Detector().Match(c.Query("q"))
	c.JSON(http.StatusOK, DetectResponse{
		Symbol:   res.SymbolOrFallback(),
		Detected: res.Found(),
		Rule:     res.Rule.String(),
		Alias:    res.Alias,
	})
}

// ClassifyResponse is the body of GET /v1/classify.
type ClassifyResponse struct {
	Category domain.QueryCategory `json:"category"`
	Label    string               `json:"label"`
	Intent   domain.Intent        `json:"intent"`
	Price    bool                 `json:"price"`
}

func (s *Server) handleClassify(c *gin.Context) {
	q := c.Query("q")
	category := classify.Query(q)
	c.JSON(http.StatusOK, ClassifyResponse{
		Category: category,
		Label:    category.Label(),
		Intent:   classify.Intent(q),
		Price:    classify.IsPriceQuery(q),
	})
}

// TokenResponse is one token with its aliases.
type TokenResponse struct {
	domain.TokenRecord
	Aliases []string `json:"aliases"`
}

func (s *Server) tokenResponses() []TokenResponse {
	cat := s.assistant.Catalog()

	aliases := make(map[string][]string)
	for _, a := range cat.Aliases() {
		aliases[a.Symbol] = append(aliases[a.Symbol], a.Alias)
	}

	records := cat.Records()
	out := make([]TokenResponse, len(records))
	for i, rec := range records {
		names := aliases[rec.Symbol]
		if names == nil {
			names = []string{}
		}
		out[i] = TokenResponse{TokenRecord: rec, Aliases: names}
	}
	return out
}

func (s *Server) handleTokens(c *gin.Context) {
	tokens := s.tokenResponses()
	c.JSON(http.StatusOK, gin.H{"tokens": tokens, "count": len(tokens)})
}

func (s *Server) handleToken(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	for _, tok := range s.tokenResponses() {
		if tok.Symbol == symbol {
			c.JSON(http.StatusOK, tok)
			return
		}
	}
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown token " + symbol})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "tokens": s.assistant.Catalog().Len()})
}

// HTTPConfig configures the listener started by Serve.
type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Serve listens on cfg.Addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, cfg HTTPConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Voice-Booking/agent/contract"
	statex "github.com/tanpawarit/Chative-Voice-Booking/agent/state"
	toolx "github.com/tanpawarit/Chative-Voice-Booking/agent/tool"
)

type Config struct {
	Addr            string        `split_words:"true" default:":8080"`
	ReadTimeout     time.Duration `split_words:"true" default:"15s"`
	WriteTimeout    time.Duration `split_words:"true" default:"60s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
	Debug           bool          `split_words:"true" default:"false"`
}

// Controller is what the voice gateway drives over HTTP.
type Controller interface {
	Start(ctx context.Context, roomName string) (string, string, error)
	HandleTurn(ctx context.Context, sessionID string, text string) (string, error)
	Capabilities(sessionID string) ([]toolx.Kind, error)
	Complete(ctx context.Context, sessionID string) (contractx.CallRecord, error)
	Hangup(ctx context.Context, sessionID string) error
	Snapshot(ctx context.Context, sessionID string) (*statex.SessionState, error)
}

type Server struct {
	cfg    Config
	router *gin.Engine
	http   *http.Server
}

func New(cfg Config, ctrl Controller, gatherer prometheus.Gatherer) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	h := &handlers{ctrl: ctrl}
	router.GET("/healthz", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1/sessions")
	v1.POST("", h.startSession)
	v1.GET("/:id", h.getSession)
	v1.POST("/:id/turns", h.handleTurn)
	v1.GET("/:id/capabilities", h.capabilities)
	v1.POST("/:id/complete", h.complete)
	v1.DELETE("/:id", h.hangup)

	return &Server{
		cfg:    cfg,
		router: router,
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
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

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	log.Info().Msg("http server shutting down")
	return s.http.Shutdown(shutdownCtx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("session_id", c.Param("id")).
			Msg("http request")
	}
}

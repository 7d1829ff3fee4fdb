// Package server exposes the journaling, mood and chat features over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"mindmate/internal/analytics"
	"mindmate/internal/auth"
	"mindmate/internal/conversation"
	"mindmate/internal/journal"
	"mindmate/internal/logger"
	"mindmate/internal/mood"
	"mindmate/internal/recommend"
)

// Deps are the services behind the routes. Verifier may be nil, in which
// case /protected always answers 401.
type Deps struct {
	Journals    *journal.Service
	Analyzer    *mood.Analyzer
	Recommender *recommend.Engine
	Chat        *conversation.Handler
	Stats       *analytics.Service
	Verifier    auth.Verifier
	Logger      *slog.Logger
}

type Options struct {
	CORSAllowOrigins []string
	RateLimitRPS     float64
	RateLimitBurst   int
	UploadDir        string
}

type Server struct {
	echo    *echo.Echo
	deps    Deps
	opts    Options
	logger  *slog.Logger
	limiter *ipRateLimiter
}

func New(deps Deps, opts Options) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.UploadDir == "" {
		opts.UploadDir = "uploads"
	}
	if err := os.MkdirAll(opts.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		deps:    deps,
		opts:    opts,
		logger:  deps.Logger,
		limiter: newIPRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
	}

	e.Use(
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}),
		s.requestLogger(),
		middleware.Recover(),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: opts.CORSAllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		}),
		s.limiter.middleware(),
	)
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.echo.GET("/", s.home)

	s.echo.POST("/add_journal", s.addJournal)
	s.echo.GET("/get_journal", s.getJournal)
	s.echo.POST("/analyze_journal", s.analyzeJournal)
	s.echo.GET("/mood_stats", s.moodStats)

	s.echo.POST("/recommend", s.recommend)
	s.echo.POST("/recommend_from_journals", s.recommendFromJournals)

	s.echo.POST("/chat", s.chat)
	s.echo.POST("/voice", s.voice)

	s.echo.GET("/protected", s.protected)
}

func (s *Server) Handler() http.Handler { return s.echo }

// SweepRateLimits forgets clients idle for longer than idle.
func (s *Server) SweepRateLimits(idle time.Duration) int {
	return s.limiter.Sweep(idle)
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				logger.FieldDuration, v.Latency.Milliseconds(),
				logger.FieldRequestID, v.RequestID,
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				s.logger.ErrorContext(c.Request().Context(), "request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			s.logger.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	})
}

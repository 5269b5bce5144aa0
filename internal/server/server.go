// Package server exposes the analyses over HTTP with echo. Configuration
// is reloaded for every request, so roster edits apply without a restart.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/gauthierbraillon/rivalscope/internal/aggregator"
	"github.com/gauthierbraillon/rivalscope/internal/analyzer"
	"github.com/gauthierbraillon/rivalscope/internal/config"
	"github.com/gauthierbraillon/rivalscope/internal/content"
	"github.com/gauthierbraillon/rivalscope/internal/logger"
	"github.com/gauthierbraillon/rivalscope/internal/metrics"
)

const analysisDateLayout = "2006-01-02 15:04:05"

// ConfigLoader returns a freshly loaded configuration.
type ConfigLoader func() (*config.Config, error)

// InstagramRunner runs one Instagram analysis.
type InstagramRunner func(ctx context.Context, cfg *config.Config) (analyzer.InstagramResult, error)

// YouTubeRunner runs one YouTube analysis.
type YouTubeRunner func(ctx context.Context, cfg *config.Config) (analyzer.YouTubeResult, error)

// Option configures a Server.
type Option func(*Server)

func WithInstagramRunner(r InstagramRunner) Option {
	return func(s *Server) { s.instagram = r }
}

func WithYouTubeRunner(r YouTubeRunner) Option {
	return func(s *Server) { s.youtube = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func WithLogger(log *logrus.Logger) Option {
	return func(s *Server) { s.log = log }
}

// Server is the HTTP API.
type Server struct {
	echo      *echo.Echo
	load      ConfigLoader
	instagram InstagramRunner
	youtube   YouTubeRunner
	metrics   *metrics.Metrics
	log       *logrus.Logger
}

// New creates a Server. Without runner options the analyses are wired from
// the loaded configuration.
func New(load ConfigLoader, opts ...Option) *Server {
	s := &Server{
		load:    load,
		metrics: metrics.New(),
		log:     logger.Log,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.instagram == nil {
		s.instagram = s.runInstagram
	}
	if s.youtube == nil {
		s.youtube = s.runYouTube
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := s.log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("Request failed")
				return nil
			}
			entry.Info("Request completed")
			return nil
		},
	}))
	e.Use(middleware.Recover())

	e.GET("/api/analyze", s.handleAnalyze)
	e.GET("/api/accounts", s.handleAccounts)
	e.GET("/api/youtube", s.handleYouTube)
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))

	s.echo = e
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("Starting HTTP server")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type analyzeResponse struct {
	Success        bool                      `json:"success"`
	Reels          []content.Item            `json:"reels"`
	Posts          []content.Item            `json:"posts"`
	All            []content.Item            `json:"all"`
	Stats          aggregator.InstagramStats `json:"stats"`
	FailedAccounts []string                  `json:"failed_accounts"`
	AnalysisDate   string                    `json:"analysis_date"`
}

type accountsResponse struct {
	Success  bool     `json:"success"`
	Accounts []string `json:"accounts"`
}

type youtubeResponse struct {
	Success      bool                    `json:"success"`
	Podcasts     []aggregator.Podcast    `json:"podcasts"`
	Stats        aggregator.PodcastStats `json:"stats"`
	AnalysisDate string                  `json:"analysis_date"`
}

func (s *Server) fail(c echo.Context, err error) error {
	s.log.WithField("path", c.Path()).WithError(err).Error("Request handling failed")
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func (s *Server) handleAnalyze(c echo.Context) error {
	cfg, err := s.load()
	if err == nil {
		err = cfg.ValidateInstagram()
	}
	if err != nil {
		return s.fail(c, err)
	}

	res, err := s.instagram(c.Request().Context(), cfg)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, analyzeResponse{
		Success:        true,
		Reels:          nonNil(res.Reels),
		Posts:          nonNil(res.Posts),
		All:            nonNil(res.All),
		Stats:          res.Stats,
		FailedAccounts: append([]string{}, res.Failed...),
		AnalysisDate:   res.AnalysisDate.Format(analysisDateLayout),
	})
}

func (s *Server) handleAccounts(c echo.Context) error {
	cfg, err := s.load()
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, accountsResponse{
		Success:  true,
		Accounts: append([]string{}, cfg.Instagram.Accounts...),
	})
}

func (s *Server) handleYouTube(c echo.Context) error {
	cfg, err := s.load()
	if err == nil {
		err = cfg.ValidateYouTube()
	}
	if err != nil {
		return s.fail(c, err)
	}

	res, err := s.youtube(c.Request().Context(), cfg)
	if err != nil {
		return s.fail(c, err)
	}

	podcasts := res.Podcasts
	if podcasts == nil {
		podcasts = []aggregator.Podcast{}
	}
	return c.JSON(http.StatusOK, youtubeResponse{
		Success:      true,
		Podcasts:     podcasts,
		Stats:        res.Stats,
		AnalysisDate: res.AnalysisDate.Format(analysisDateLayout),
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) runInstagram(ctx context.Context, cfg *config.Config) (analyzer.InstagramResult, error) {
	a := analyzer.NewInstagramFromConfig(cfg, analyzer.WithLogger(s.log), analyzer.WithMetrics(s.metrics))
	return a.Analyze(ctx)
}

func (s *Server) runYouTube(ctx context.Context, cfg *config.Config) (analyzer.YouTubeResult, error) {
	a, err := analyzer.NewYouTubeFromConfig(ctx, cfg, analyzer.WithLogger(s.log), analyzer.WithMetrics(s.metrics))
	if err != nil {
		return analyzer.YouTubeResult{}, err
	}
	return a.Analyze(ctx)
}

func nonNil(items []content.Item) []content.Item {
	if items == nil {
		return []content.Item{}
	}
	return items
}

package httpapi

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	lambda "github.com/kislerdm/aws-lambda-mysql-check"
	"github.com/kislerdm/aws-lambda-mysql-check/internal/logging"
)

// Server exposes the database diagnostics over HTTP.
type Server struct {
	addr   string
	cfg    lambda.Config
	logger logging.Logger
	router *gin.Engine
}

// NewServer wires the routes. Each request resolves the secret and opens its own connection.
func NewServer(addr string, cfg lambda.Config, production bool) (*Server, error) {
	if cfg.SecretsmanagerClient == nil {
		return nil, errors.New("configuration for SecretsmanagerClient must be set")
	}
	if cfg.Connector == nil {
		return nil, errors.New("configuration for Connector must be set")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNoOpLogger()
	}

	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{addr: addr, cfg: cfg, logger: cfg.Logger}
	s.setupRouter()
	return s, nil
}

func (s *Server) setupRouter() {
	router := gin.New()

	zapLogger := s.logger.Zap()
	router.Use(ginzap.RecoveryWithZap(zapLogger, true))
	router.Use(ginzap.Ginzap(zapLogger, time.RFC3339, true))

	h := &handlers{cfg: s.cfg, logger: s.logger}
	router.GET("/health", h.Health)
	router.GET("/users", h.Users)

	s.router = router
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve starts the HTTP server and blocks until SIGINT or SIGTERM.
func (s *Server) Serve() error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("address", s.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	s.logger.Info("shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	s.logger.Info("server stopped")
	return nil
}

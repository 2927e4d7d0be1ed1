// internal/api/server.go
package api

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"recordmap-service/internal/common/config"
	"recordmap-service/internal/common/logger"
	"recordmap-service/internal/common/observability"
)

// Server wraps the Fiber app with config-driven lifecycle management.
type Server struct {
	app    *fiber.App
	config *config.Config
	logger logger.Logger
}

func NewServer(cfg *config.Config, handlers *Handlers, obs *observability.Observability, log logger.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ReadTimeout:           config.GetDuration(cfg.Server.ReadTimeout),
		DisableStartupMessage: true,
	})

	app.Use(RequestID())
	if obs != nil {
		app.Use(Metrics(obs))
	}

	registerRoutes(app, handlers)

	return &Server{
		app:    app,
		config: cfg,
		logger: log,
	}
}

// Listen blocks serving requests until Shutdown or a listener error.
func (s *Server) Listen() error {
	addr := fmt.Sprintf(":%d", s.config.Server.Port)
	s.logger.Info("HTTP server listening", map[string]interface{}{
		"address": addr,
	})
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down", nil)
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the underlying Fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

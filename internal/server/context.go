package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/calbridge/calbridge/internal/auth"
	"github.com/calbridge/calbridge/internal/config"
	"github.com/calbridge/calbridge/internal/service"
)

// ServerContext bundles the shared dependencies of all transports: the
// token manager, the dispatcher, and the settings they were built from.
type ServerContext struct {
	ctx        context.Context
	cancel     context.CancelFunc
	auth       *auth.Manager
	dispatcher *service.Dispatcher
	settings   config.Settings
	logger     *slog.Logger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a server context wrapping the given dependencies.
func NewServerContext(ctx context.Context, mgr *auth.Manager, dispatcher *service.Dispatcher, settings config.Settings, logger *slog.Logger) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	if logger == nil {
		logger = slog.Default()
	}

	return &ServerContext{
		ctx:        shutdownCtx,
		cancel:     cancel,
		auth:       mgr,
		dispatcher: dispatcher,
		settings:   settings,
		logger:     logger,
	}
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Auth returns the token manager.
func (sc *ServerContext) Auth() *auth.Manager {
	return sc.auth
}

// Dispatcher returns the tool dispatcher.
func (sc *ServerContext) Dispatcher() *service.Dispatcher {
	return sc.dispatcher
}

// Settings returns the server settings.
func (sc *ServerContext) Settings() config.Settings {
	return sc.settings
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context. Safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}

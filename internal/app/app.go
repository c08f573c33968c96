// Package app provides application lifecycle management for the registry server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/stacklok/usb-ids-registry/internal/config"
)

// RegistryApp encapsulates all components needed to serve the registry.
// It provides lifecycle management and graceful shutdown.
type RegistryApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// listener is set before ready is closed
	listener net.Listener
	ready    chan struct{}

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start binds the listener, starts the background sync and serves HTTP.
// It blocks until the HTTP server stops or fails.
func (app *RegistryApp) Start() error {
	ln, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	app.listener = ln
	close(app.ready)

	go func() {
		if err := app.components.SyncCoordinator.Start(app.ctx); err != nil {
			slog.Error("Sync coordinator failed", "error", err)
		}
	}()

	slog.Info("Server listening", "address", ln.Addr().String())
	if err := app.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Ready is closed once Start has bound the listener
func (app *RegistryApp) Ready() <-chan struct{} {
	return app.ready
}

// Addr returns the bound listen address. It is nil until Ready is closed.
func (app *RegistryApp) Addr() net.Addr {
	select {
	case <-app.ready:
		return app.listener.Addr()
	default:
		return nil
	}
}

// Stop stops the sync coordinator and then shuts the HTTP server down,
// waiting at most timeout for in-flight requests
func (app *RegistryApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server")

	if err := app.components.SyncCoordinator.Stop(); err != nil {
		slog.Error("Failed to stop sync coordinator", "error", err)
	}

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *RegistryApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server
func (app *RegistryApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// GetComponents returns the wired application components
func (app *RegistryApp) GetComponents() *AppComponents {
	return app.components
}

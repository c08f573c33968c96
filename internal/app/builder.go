package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/usb-ids-registry/internal/api"
	"github.com/stacklok/usb-ids-registry/internal/config"
	"github.com/stacklok/usb-ids-registry/internal/service"
	pkgsync "github.com/stacklok/usb-ids-registry/internal/sync"
	"github.com/stacklok/usb-ids-registry/internal/sync/coordinator"
	"github.com/stacklok/usb-ids-registry/internal/telemetry"
)

const defaultHTTPAddress = ":8080"

// serverTimeouts bounds request handling. write must exceed request so the
// timeout middleware answers before the connection is cut.
type serverTimeouts struct {
	request time.Duration
	read    time.Duration
	write   time.Duration
	idle    time.Duration
}

var defaultTimeouts = serverTimeouts{
	request: 10 * time.Second,
	read:    10 * time.Second,
	write:   15 * time.Second,
	idle:    60 * time.Second,
}

// RegistryAppOptions is a function that configures the registry app builder
type RegistryAppOptions func(*registryAppConfig) error

// registryAppConfig collects the options for NewRegistryApp
type registryAppConfig struct {
	config *config.Config

	// Overrides, mostly used by tests
	syncManager     pkgsync.Manager
	telemetry       *telemetry.Telemetry
	refreshInterval time.Duration

	address     string
	middlewares []func(http.Handler) http.Handler
	timeouts    serverTimeouts
}

func newAppConfig(opts ...RegistryAppOptions) (*registryAppConfig, error) {
	b := &registryAppConfig{
		address:  defaultHTTPAddress,
		timeouts: defaultTimeouts,
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// NewRegistryApp wires the sync pipeline, the served registry holder and
// the HTTP server from the given options
func NewRegistryApp(ctx context.Context, opts ...RegistryAppOptions) (*RegistryApp, error) {
	b, err := newAppConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	if b.config == nil {
		return nil, errors.New("config cannot be nil")
	}

	cleanup, err := b.ensureSyncManager(ctx)
	if err != nil {
		return nil, err
	}

	components := b.components()
	handler, err := b.handler(components.RegistryService)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	return &RegistryApp{
		config:     b.config,
		components: components,
		httpServer: b.server(handler),
		ready:      make(chan struct{}),
		ctx:        appCtx,
		cancelFunc: func() {
			cancel()
			cleanup()
		},
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) RegistryAppOptions {
	return func(b *registryAppConfig) error {
		b.config = c
		return nil
	}
}

// WithAddress sets the listen address. The host must be empty, localhost
// or an IP literal.
func WithAddress(addr string) RegistryAppOptions {
	return func(b *registryAppConfig) error {
		if addr == "" {
			return errors.New("address cannot be empty")
		}
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", addr, err)
		}
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return fmt.Errorf("invalid port in address %q", addr)
		}
		if host != "" && host != "localhost" {
			if _, err := netip.ParseAddr(host); err != nil {
				return fmt.Errorf("invalid host in address %q: %w", addr, err)
			}
		}
		b.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) RegistryAppOptions {
	return func(b *registryAppConfig) error {
		b.middlewares = mw
		return nil
	}
}

// WithRefreshInterval overrides the configured sync interval.
// Zero keeps the configured value.
func WithRefreshInterval(d time.Duration) RegistryAppOptions {
	return func(b *registryAppConfig) error {
		if d < 0 {
			return fmt.Errorf("refresh interval cannot be negative: %s", d)
		}
		b.refreshInterval = d
		return nil
	}
}

// WithSyncManager injects the sync manager instead of building the pipeline
func WithSyncManager(sm pkgsync.Manager) RegistryAppOptions {
	return func(b *registryAppConfig) error {
		b.syncManager = sm
		return nil
	}
}

// WithTelemetry sets the providers used for HTTP tracing and metrics
func WithTelemetry(tel *telemetry.Telemetry) RegistryAppOptions {
	return func(b *registryAppConfig) error {
		b.telemetry = tel
		return nil
	}
}

// ensureSyncManager builds the pipeline unless a manager was injected and
// returns the function releasing what it built
func (b *registryAppConfig) ensureSyncManager(ctx context.Context) (func(), error) {
	cleanup := func() {}
	if b.syncManager == nil {
		pipeline, err := NewPipeline(ctx, b.config)
		if err != nil {
			return nil, fmt.Errorf("failed to build sync pipeline: %w", err)
		}
		b.syncManager = pipeline.Manager(true)
		if b.telemetry == nil {
			b.telemetry = pipeline.Telemetry()
		}
		cleanup = pipeline.Close
	}
	if b.telemetry == nil {
		b.telemetry = telemetry.NewNoOp()
	}
	return cleanup, nil
}

// interval returns the override when set, otherwise the configured sync interval
func (b *registryAppConfig) interval() time.Duration {
	if b.refreshInterval > 0 {
		return b.refreshInterval
	}
	return b.config.GetSyncInterval()
}

// components connects the coordinator to the service through a shared holder
func (b *registryAppConfig) components() *AppComponents {
	holder := service.NewHolder(nil)
	interval := b.interval()

	slog.Info("Sync components initialized", "refresh_interval", interval)

	return &AppComponents{
		SyncCoordinator: coordinator.New(b.syncManager, interval, holder.Set),
		Holder:          holder,
		RegistryService: service.New(holder),
	}
}

// handler builds the router, instrumenting it unless middlewares were replaced
func (b *registryAppConfig) handler(svc service.RegistryService) (http.Handler, error) {
	mw := b.middlewares
	if mw == nil {
		httpMetrics, err := telemetry.NewHTTPMetrics(b.telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
		}
		mw = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.timeouts.request),
			telemetry.TracingMiddleware(b.telemetry.TracerProvider()),
			httpMetrics.Middleware,
			api.LoggingMiddleware,
		}
	}

	return api.NewServer(svc,
		api.WithMiddlewares(mw...),
		api.WithMetricsHandler(b.telemetry.MetricsHandler()),
	), nil
}

func (b *registryAppConfig) server(handler http.Handler) *http.Server {
	slog.Info("HTTP server configured", "address", b.address)
	return &http.Server{
		Addr:         b.address,
		Handler:      handler,
		ReadTimeout:  b.timeouts.read,
		WriteTimeout: b.timeouts.write,
		IdleTimeout:  b.timeouts.idle,
	}
}

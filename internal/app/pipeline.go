package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/usb-ids-registry/internal/config"
	"github.com/stacklok/usb-ids-registry/internal/git"
	"github.com/stacklok/usb-ids-registry/internal/httpclient"
	"github.com/stacklok/usb-ids-registry/internal/resolver"
	"github.com/stacklok/usb-ids-registry/internal/snapshot"
	"github.com/stacklok/usb-ids-registry/internal/sources"
	"github.com/stacklok/usb-ids-registry/internal/status"
	pkgsync "github.com/stacklok/usb-ids-registry/internal/sync"
	"github.com/stacklok/usb-ids-registry/internal/telemetry"
)

const (
	// tracerName is the tracer used for sync and resolver spans
	tracerName = "github.com/stacklok/usb-ids-registry/pipeline"

	// telemetryShutdownTimeout bounds flushing of telemetry on exit
	telemetryShutdownTimeout = 5 * time.Second
)

// Pipeline holds the components shared by the fetch, sync and serve commands
type Pipeline struct {
	telemetry  *telemetry.Telemetry
	candidates []sources.SourceHandler
	store      snapshot.Store
	status     status.StatusPersistence
	resolver   *resolver.Resolver
	metrics    *telemetry.PipelineMetrics
	tracer     trace.Tracer
}

// PipelineOption configures NewPipeline
type PipelineOption func(*pipelineConfig)

type pipelineConfig struct {
	offline    bool
	httpClient httpclient.Client
	gitClient  git.Client
}

// WithOffline builds no candidate sources so only the snapshot is consulted
func WithOffline(offline bool) PipelineOption {
	return func(c *pipelineConfig) {
		c.offline = offline
	}
}

// WithHTTPClient overrides the HTTP client used by url sources
func WithHTTPClient(client httpclient.Client) PipelineOption {
	return func(c *pipelineConfig) {
		c.httpClient = client
	}
}

// WithGitClient overrides the git client used by git sources
func WithGitClient(client git.Client) PipelineOption {
	return func(c *pipelineConfig) {
		c.gitClient = client
	}
}

// NewPipeline wires sources, snapshot store, status persistence and
// telemetry from cfg. The caller must call Close.
func NewPipeline(ctx context.Context, cfg *config.Config, opts ...PipelineOption) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	pc := &pipelineConfig{}
	for _, opt := range opts {
		opt(pc)
	}

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return nil, err
	}

	metrics, err := telemetry.NewPipelineMetrics(tel.MeterProvider())
	if err != nil {
		shutdownTelemetry(tel)
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	var candidates []sources.SourceHandler
	if pc.offline {
		slog.Info("Offline mode, skipping all sources")
	} else {
		if pc.httpClient == nil {
			pc.httpClient = httpclient.NewDefaultClient(cfg.GetHTTPTimeout())
		}
		if pc.gitClient == nil {
			pc.gitClient = git.NewDefaultGitClient()
		}
		candidates, err = sources.NewSourceHandlerFactory(pc.httpClient, pc.gitClient).CreateHandlers(cfg.Sources)
		if err != nil {
			shutdownTelemetry(tel)
			return nil, fmt.Errorf("failed to create source handlers: %w", err)
		}
	}

	store, err := snapshot.NewStore(cfg.Snapshot)
	if err != nil {
		shutdownTelemetry(tel)
		return nil, fmt.Errorf("failed to create snapshot store: %w", err)
	}

	slog.Info("Pipeline initialized",
		"sources", len(candidates),
		"snapshot", store.Location(),
		"status_dir", cfg.GetStatusDir())

	tracer := tel.TracerProvider().Tracer(tracerName)
	return &Pipeline{
		telemetry:  tel,
		candidates: candidates,
		store:      store,
		status:     status.NewFileStatusPersistence(cfg.GetStatusDir()),
		resolver: resolver.New(
			resolver.WithTracer(tracer),
			resolver.WithMetrics(metrics),
		),
		metrics: metrics,
		tracer:  tracer,
	}, nil
}

// Manager builds a sync manager. Without persist the snapshot is only read
// and no status is recorded.
func (p *Pipeline) Manager(persist bool) pkgsync.Manager {
	opts := []pkgsync.Option{
		pkgsync.WithResolver(p.resolver),
		pkgsync.WithMetrics(p.metrics),
		pkgsync.WithTracer(p.tracer),
	}
	statusPersistence := p.status
	if !persist {
		opts = append(opts, pkgsync.WithReadOnly())
		statusPersistence = nil
	}
	return pkgsync.NewManager(p.candidates, p.store, statusPersistence, opts...)
}

// Candidates returns the ordered candidate sources
func (p *Pipeline) Candidates() []sources.SourceHandler {
	return p.candidates
}

// Telemetry returns the pipeline's telemetry providers
func (p *Pipeline) Telemetry() *telemetry.Telemetry {
	return p.telemetry
}

// Close flushes telemetry
func (p *Pipeline) Close() {
	shutdownTelemetry(p.telemetry)
}

func shutdownTelemetry(tel *telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		slog.Warn("Failed to shut down telemetry", "error", err)
	}
}

package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/usb-ids-registry/internal/otel"
	"github.com/stacklok/usb-ids-registry/internal/resolver"
	"github.com/stacklok/usb-ids-registry/internal/snapshot"
	"github.com/stacklok/usb-ids-registry/internal/sources"
	"github.com/stacklok/usb-ids-registry/internal/status"
	"github.com/stacklok/usb-ids-registry/internal/telemetry"
)

// Failure reasons carried by Error
const (
	ReasonNoDataAvailable = "NoDataAvailable"
	ReasonStorageFailed   = "StorageFailed"
)

// Status messages
const (
	messageInProgress       = "Sync in progress"
	messageCompleteNetwork  = "Sync completed successfully"
	messageCompleteSnapshot = "All sources failed, serving snapshot"
)

// provenanceNone labels metrics for syncs that produced no registry
const provenanceNone = "none"

// Error represents a sync failure with a machine readable reason
type Error struct {
	Err     error
	Message string
	Reason  string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Manager runs the fetch-and-save path: resolve a registry, persist it as
// the new snapshot when it came from the network, and record the outcome
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/stacklok/usb-ids-registry/internal/sync Manager
type Manager interface {
	// PerformSync resolves the registry and persists the result.
	// When the snapshot cannot be saved the resolved result is returned
	// together with an *Error.
	PerformSync(ctx context.Context) (*resolver.FetchResult, error)
}

// Option configures the default sync manager
type Option func(*defaultSyncManager)

// WithResolver sets the resolver used to pick a source
func WithResolver(r *resolver.Resolver) Option {
	return func(m *defaultSyncManager) {
		m.resolver = r
	}
}

// WithMetrics sets the instruments used to record sync outcomes
func WithMetrics(metrics *telemetry.PipelineMetrics) Option {
	return func(m *defaultSyncManager) {
		m.metrics = metrics
	}
}

// WithTracer sets the tracer used for sync spans
func WithTracer(tracer trace.Tracer) Option {
	return func(m *defaultSyncManager) {
		m.tracer = tracer
	}
}

// WithClock sets the clock used for status timestamps and durations
func WithClock(now func() time.Time) Option {
	return func(m *defaultSyncManager) {
		m.now = now
	}
}

// WithReadOnly disables saving network results to the snapshot store
func WithReadOnly() Option {
	return func(m *defaultSyncManager) {
		m.readOnly = true
	}
}

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	candidates        []sources.SourceHandler
	snapshots         snapshot.Store
	statusPersistence status.StatusPersistence
	resolver          *resolver.Resolver
	metrics           *telemetry.PipelineMetrics
	tracer            trace.Tracer
	now               func() time.Time
	readOnly          bool
}

// NewManager creates a sync manager over the given candidates and stores.
// store may be nil, in which case no snapshot is read or written.
func NewManager(
	candidates []sources.SourceHandler,
	store snapshot.Store,
	statusPersistence status.StatusPersistence,
	opts ...Option,
) Manager {
	m := &defaultSyncManager{
		candidates:        candidates,
		snapshots:         store,
		statusPersistence: statusPersistence,
		resolver:          resolver.New(),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PerformSync executes one complete sync
func (m *defaultSyncManager) PerformSync(ctx context.Context) (*resolver.FetchResult, error) {
	startTime := m.now()

	previous := m.loadStatus(ctx)
	syncStatus := &status.SyncStatus{
		SyncID:       uuid.NewString(),
		Phase:        status.SyncPhaseSyncing,
		Message:      messageInProgress,
		LastAttempt:  &startTime,
		LastSyncTime: previous.LastSyncTime,
		LastSyncHash: previous.LastSyncHash,
	}
	m.saveStatus(ctx, syncStatus)

	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.PerformSync",
		trace.WithAttributes(
			otel.AttrSyncID.String(syncStatus.SyncID),
			otel.AttrCandidateCount.Int(len(m.candidates)),
		),
	)
	defer span.End()

	slog.Info("Starting sync operation",
		"sync_id", syncStatus.SyncID,
		"candidates", len(m.candidates))

	result, err := m.resolver.Resolve(ctx, m.candidates, m.loader())
	if err != nil {
		syncStatus.Phase = status.SyncPhaseFailed
		syncStatus.Message = err.Error()
		var noData *resolver.NoDataError
		if errors.As(err, &noData) {
			syncStatus.FailedSources = noData.FailedSources()
		}
		m.saveStatus(context.WithoutCancel(ctx), syncStatus)
		m.metrics.RecordSyncDuration(ctx, provenanceNone, m.now().Sub(startTime), false)

		otel.RecordError(span, err)
		slog.Error("Sync failed", "sync_id", syncStatus.SyncID, "error", err)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Sync failed: %v", err),
			Reason:  ReasonNoDataAvailable,
		}
	}

	syncStatus.Provenance = string(result.Provenance)
	syncStatus.Source = result.Source
	syncStatus.VendorCount = result.Registry.VendorCount()
	syncStatus.DeviceCount = result.Registry.DeviceCount()
	syncStatus.FailedSources = result.FailedSources()

	var syncErr *Error
	if result.Provenance == resolver.ProvenanceNetwork {
		syncErr = m.saveSnapshot(ctx, result)
		if syncErr == nil {
			finished := m.now()
			syncStatus.LastSyncTime = &finished
			syncStatus.LastSyncHash = result.Hash
		}
	}

	switch {
	case syncErr != nil:
		syncStatus.Phase = status.SyncPhaseFailed
		syncStatus.Message = syncErr.Message
	case result.Provenance == resolver.ProvenanceSnapshot:
		syncStatus.Phase = status.SyncPhaseComplete
		syncStatus.Message = messageCompleteSnapshot
	default:
		syncStatus.Phase = status.SyncPhaseComplete
		syncStatus.Message = messageCompleteNetwork
	}
	m.saveStatus(context.WithoutCancel(ctx), syncStatus)

	m.metrics.RecordSyncDuration(ctx, string(result.Provenance), m.now().Sub(startTime), syncErr == nil)
	m.metrics.RecordRegistrySize(ctx, string(result.Provenance), syncStatus.VendorCount, syncStatus.DeviceCount)

	hashPreview := result.Hash
	if len(hashPreview) > 8 {
		hashPreview = hashPreview[:8]
	}
	slog.Info("Sync finished",
		"sync_id", syncStatus.SyncID,
		"phase", syncStatus.Phase,
		"provenance", result.Provenance,
		"source", result.Source,
		"vendors", syncStatus.VendorCount,
		"devices", syncStatus.DeviceCount,
		"failed_sources", len(syncStatus.FailedSources),
		"hash", hashPreview)

	if syncErr != nil {
		otel.RecordError(span, syncErr)
		return result, syncErr
	}
	return result, nil
}

// saveSnapshot overwrites the snapshot with a network result. It always writes,
// since the status file cannot tell whether the snapshot still exists.
func (m *defaultSyncManager) saveSnapshot(ctx context.Context, result *resolver.FetchResult) *Error {
	if m.snapshots == nil || m.readOnly {
		return nil
	}

	if err := m.snapshots.Save(ctx, result.Registry); err != nil {
		slog.Error("Failed to save snapshot", "snapshot", m.snapshots.Location(), "error", err)
		return &Error{
			Err:     err,
			Message: fmt.Sprintf("Snapshot save failed: %v", err),
			Reason:  ReasonStorageFailed,
		}
	}

	slog.Info("Snapshot saved", "snapshot", m.snapshots.Location())
	return nil
}

// loader returns the store as a snapshot loader, keeping a nil store nil
func (m *defaultSyncManager) loader() resolver.SnapshotLoader {
	if m.snapshots == nil {
		return nil
	}
	return m.snapshots
}

func (m *defaultSyncManager) loadStatus(ctx context.Context) *status.SyncStatus {
	if m.statusPersistence == nil {
		return &status.SyncStatus{}
	}
	previous, err := m.statusPersistence.LoadStatus(ctx)
	if err != nil || previous == nil {
		if err != nil {
			slog.Warn("Failed to load previous sync status, starting fresh", "error", err)
		}
		return &status.SyncStatus{}
	}
	return previous
}

func (m *defaultSyncManager) saveStatus(ctx context.Context, syncStatus *status.SyncStatus) {
	if m.statusPersistence == nil {
		return
	}
	if err := m.statusPersistence.SaveStatus(ctx, syncStatus); err != nil {
		slog.Warn("Failed to persist sync status",
			"sync_id", syncStatus.SyncID,
			"phase", syncStatus.Phase,
			"error", err)
	}
}

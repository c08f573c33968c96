package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/usb-ids-registry/internal/httpclient"
	"github.com/stacklok/usb-ids-registry/internal/registry"
	"github.com/stacklok/usb-ids-registry/internal/resolver"
	"github.com/stacklok/usb-ids-registry/internal/snapshot"
	snapshotmocks "github.com/stacklok/usb-ids-registry/internal/snapshot/mocks"
	"github.com/stacklok/usb-ids-registry/internal/sources"
	sourcemocks "github.com/stacklok/usb-ids-registry/internal/sources/mocks"
	"github.com/stacklok/usb-ids-registry/internal/status"
	statusmocks "github.com/stacklok/usb-ids-registry/internal/status/mocks"
)

const (
	testText         = "1d6b  Linux Foundation\n\t0002  2.0 root hub\n"
	testSnapshotPath = "usb.ids.json"
)

func textHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func testRegistry() registry.Registry {
	return registry.NewTestRegistry(registry.WithVendor(
		registry.NewTestVendor("1d6b", "Linux Foundation", registry.WithDevice("0002", "2.0 root hub")),
	))
}

type fixture struct {
	ctrl    *gomock.Controller
	store   *snapshotmocks.MockStore
	status  *statusmocks.MockStatusPersistence
	saved   []status.SyncStatus
	fixedAt time.Time
}

func newFixture(t *testing.T, previous *status.SyncStatus) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &fixture{
		ctrl:    ctrl,
		store:   snapshotmocks.NewMockStore(ctrl),
		status:  statusmocks.NewMockStatusPersistence(ctrl),
		fixedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	f.store.EXPECT().Location().Return(testSnapshotPath).AnyTimes()
	f.status.EXPECT().LoadStatus(gomock.Any()).Return(previous, nil).Times(1)
	f.status.EXPECT().SaveStatus(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, s *status.SyncStatus) error {
			f.saved = append(f.saved, *s)
			return nil
		}).AnyTimes()
	return f
}

func (f *fixture) source(name string, data []byte, err error) sources.SourceHandler {
	m := sourcemocks.NewMockSourceHandler(f.ctrl)
	m.EXPECT().Name().Return(name).AnyTimes()
	m.EXPECT().Fetch(gomock.Any()).Return(data, err).Times(1)
	return m
}

func (f *fixture) manager(candidates []sources.SourceHandler, opts ...Option) Manager {
	opts = append([]Option{WithClock(func() time.Time { return f.fixedAt })}, opts...)
	return NewManager(candidates, f.store, f.status, opts...)
}

func (f *fixture) final(t *testing.T) status.SyncStatus {
	t.Helper()
	require.NotEmpty(t, f.saved)
	return f.saved[len(f.saved)-1]
}

func TestPerformSync_NetworkSavesSnapshot(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &status.SyncStatus{})
	f.store.EXPECT().Save(gomock.Any(), testRegistry()).Return(nil).Times(1)

	mgr := f.manager([]sources.SourceHandler{f.source("systemd", []byte(testText), nil)})
	result, err := mgr.PerformSync(t.Context())

	require.NoError(t, err)
	assert.Equal(t, resolver.ProvenanceNetwork, result.Provenance)
	assert.Equal(t, testRegistry(), result.Registry)

	require.Len(t, f.saved, 2)
	assert.Equal(t, status.SyncPhaseSyncing, f.saved[0].Phase)
	assert.NotEmpty(t, f.saved[0].SyncID)

	final := f.final(t)
	assert.Equal(t, f.saved[0].SyncID, final.SyncID)
	assert.Equal(t, status.SyncPhaseComplete, final.Phase)
	assert.Equal(t, "network", final.Provenance)
	assert.Equal(t, "systemd", final.Source)
	assert.Equal(t, 1, final.VendorCount)
	assert.Equal(t, 1, final.DeviceCount)
	assert.Equal(t, textHash(testText), final.LastSyncHash)
	require.NotNil(t, final.LastSyncTime)
	assert.Equal(t, f.fixedAt, *final.LastSyncTime)
	assert.Empty(t, final.FailedSources)
}

func TestPerformSync_UnchangedHashStillSaves(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &status.SyncStatus{
		Phase:        status.SyncPhaseComplete,
		LastSyncHash: textHash(testText),
	})
	f.store.EXPECT().Save(gomock.Any(), testRegistry()).Return(nil).Times(1)

	mgr := f.manager([]sources.SourceHandler{f.source("systemd", []byte(testText), nil)})
	result, err := mgr.PerformSync(t.Context())

	require.NoError(t, err)
	assert.Equal(t, resolver.ProvenanceNetwork, result.Provenance)
	assert.Equal(t, status.SyncPhaseComplete, f.final(t).Phase)
}

func TestPerformSync_RestoresDeletedSnapshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	textPath := filepath.Join(dir, "usb.ids")
	snapshotPath := filepath.Join(dir, "snapshot", "usb.ids.json")
	require.NoError(t, os.WriteFile(textPath, []byte(testText), 0o600))

	store := snapshot.NewFileStore(snapshotPath)
	mgr := NewManager(
		[]sources.SourceHandler{sources.NewFileSourceHandler("local", textPath)},
		store,
		status.NewFileStatusPersistence(filepath.Join(dir, "status")),
	)

	_, err := mgr.PerformSync(t.Context())
	require.NoError(t, err)
	require.FileExists(t, snapshotPath)

	require.NoError(t, os.Remove(snapshotPath))

	_, err = mgr.PerformSync(t.Context())
	require.NoError(t, err)
	require.FileExists(t, snapshotPath, "an identical network text must still rewrite a missing snapshot")

	reg, err := store.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, testRegistry(), reg)
}

func TestPerformSync_ReadOnlySkipsSave(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &status.SyncStatus{})
	f.store.EXPECT().Save(gomock.Any(), gomock.Any()).Times(0)

	mgr := f.manager([]sources.SourceHandler{f.source("systemd", []byte(testText), nil)}, WithReadOnly())
	_, err := mgr.PerformSync(t.Context())

	require.NoError(t, err)
}

func TestPerformSync_FallsBackToSnapshot(t *testing.T) {
	t.Parallel()

	lastSync := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, &status.SyncStatus{
		LastSyncTime: &lastSync,
		LastSyncHash: "previous",
	})
	f.store.EXPECT().Load(gomock.Any()).Return(testRegistry(), nil).Times(1)
	f.store.EXPECT().Save(gomock.Any(), gomock.Any()).Times(0)

	mgr := f.manager([]sources.SourceHandler{
		f.source("systemd", nil, httpclient.NewHTTPError(503, "https://a", "Service Unavailable")),
		f.source("linux-usb", nil, httpclient.NewTransportError("http://b", errors.New("connection refused"))),
	})
	result, err := mgr.PerformSync(t.Context())

	require.NoError(t, err)
	assert.Equal(t, resolver.ProvenanceSnapshot, result.Provenance)
	assert.Equal(t, testRegistry(), result.Registry)

	final := f.final(t)
	assert.Equal(t, status.SyncPhaseComplete, final.Phase)
	assert.Equal(t, "snapshot", final.Provenance)
	assert.Equal(t, testSnapshotPath, final.Source)
	assert.Equal(t, []string{"systemd", "linux-usb"}, final.FailedSources)
	assert.Equal(t, "previous", final.LastSyncHash, "a snapshot sync must not move the last synced hash")
	require.NotNil(t, final.LastSyncTime)
	assert.Equal(t, lastSync, *final.LastSyncTime)
}

func TestPerformSync_NoDataAvailable(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &status.SyncStatus{})
	f.store.EXPECT().Load(gomock.Any()).Return(nil, snapshot.ErrNotFound).Times(1)

	mgr := f.manager([]sources.SourceHandler{
		f.source("systemd", nil, httpclient.NewHTTPError(404, "https://a", "Not Found")),
	})
	result, err := mgr.PerformSync(t.Context())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, resolver.ErrNoDataAvailable)
	assert.ErrorIs(t, err, snapshot.ErrNotFound)

	var syncErr *Error
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, ReasonNoDataAvailable, syncErr.Reason)

	final := f.final(t)
	assert.Equal(t, status.SyncPhaseFailed, final.Phase)
	assert.Equal(t, []string{"systemd"}, final.FailedSources)
	assert.Contains(t, final.Message, "no usb.ids data obtainable")
}

func TestPerformSync_SaveFailureKeepsResult(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &status.SyncStatus{LastSyncHash: "previous"})
	saveErr := errors.New("disk full")
	f.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(saveErr).Times(1)

	mgr := f.manager([]sources.SourceHandler{f.source("systemd", []byte(testText), nil)})
	result, err := mgr.PerformSync(t.Context())

	require.Error(t, err)
	require.NotNil(t, result, "a usable registry is returned even when it could not be saved")
	assert.Equal(t, resolver.ProvenanceNetwork, result.Provenance)
	assert.ErrorIs(t, err, saveErr)

	var syncErr *Error
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, ReasonStorageFailed, syncErr.Reason)

	final := f.final(t)
	assert.Equal(t, status.SyncPhaseFailed, final.Phase)
	assert.Equal(t, "previous", final.LastSyncHash)
}

func TestPerformSync_StatusLoadErrorStartsFresh(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := snapshotmocks.NewMockStore(ctrl)
	store.EXPECT().Location().Return(testSnapshotPath).AnyTimes()
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	persistence := statusmocks.NewMockStatusPersistence(ctrl)
	persistence.EXPECT().LoadStatus(gomock.Any()).Return(nil, errors.New("corrupt"))
	persistence.EXPECT().SaveStatus(gomock.Any(), gomock.Any()).Return(errors.New("read-only")).Times(2)

	src := sourcemocks.NewMockSourceHandler(ctrl)
	src.EXPECT().Name().Return("systemd").AnyTimes()
	src.EXPECT().Fetch(gomock.Any()).Return([]byte(testText), nil)

	result, err := NewManager([]sources.SourceHandler{src}, store, persistence).PerformSync(t.Context())

	require.NoError(t, err, "status persistence failures are logged, not returned")
	assert.Equal(t, resolver.ProvenanceNetwork, result.Provenance)
}

func TestPerformSync_WithoutStoreOrStatus(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	t.Run("network result", func(t *testing.T) {
		t.Parallel()

		src := sourcemocks.NewMockSourceHandler(ctrl)
		src.EXPECT().Name().Return("systemd").AnyTimes()
		src.EXPECT().Fetch(gomock.Any()).Return([]byte(testText), nil)

		result, err := NewManager([]sources.SourceHandler{src}, nil, nil).PerformSync(t.Context())

		require.NoError(t, err)
		assert.Equal(t, testRegistry(), result.Registry)
	})

	t.Run("no candidates and no store", func(t *testing.T) {
		t.Parallel()

		result, err := NewManager(nil, nil, nil).PerformSync(t.Context())

		assert.Nil(t, result)
		assert.ErrorIs(t, err, resolver.ErrNoDataAvailable)
	})
}

func TestPerformSync_RecordsSpan(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	f := newFixture(t, &status.SyncStatus{})
	f.store.EXPECT().Load(gomock.Any()).Return(nil, snapshot.ErrNotFound).Times(1)

	mgr := f.manager([]sources.SourceHandler{
		f.source("systemd", nil, httpclient.NewHTTPError(404, "https://a", "Not Found")),
	}, WithTracer(tp.Tracer("test")))
	_, err := mgr.PerformSync(t.Context())
	require.Error(t, err)

	var syncSpan *tracetest.SpanStub
	for i, span := range exporter.GetSpans() {
		if span.Name == "sync.PerformSync" {
			syncSpan = &exporter.GetSpans()[i]
		}
	}
	require.NotNil(t, syncSpan)
	assert.Equal(t, codes.Error, syncSpan.Status.Code)

	attrs := map[string]string{}
	for _, attr := range syncSpan.Attributes {
		attrs[string(attr.Key)] = attr.Value.Emit()
	}
	assert.Equal(t, f.final(t).SyncID, attrs["usb_ids.sync.id"])
	assert.Equal(t, "1", attrs["usb_ids.candidates"])
}

// Package sync runs the fetch-and-save path of the registry pipeline.
//
// A sync resolves the registry from the configured candidate sources,
// falling back to the snapshot when all of them fail. A registry that came
// from the network is written back as the new snapshot unless its text is
// identical to the one saved by the previous sync. The outcome is recorded
// through status.StatusPersistence:
//
//   - Syncing while the sources are tried
//   - Complete with provenance, source, counts and failed sources
//   - Failed when no data was obtainable or the snapshot save failed
//
// The Error type carries a Reason so callers can tell a missing registry
// (ReasonNoDataAvailable) from a registry that is usable but was not
// persisted (ReasonStorageFailed).
//
// The sync/coordinator subpackage repeats syncs on an interval for the
// serve command and publishes every usable result.
package sync

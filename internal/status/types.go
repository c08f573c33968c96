package status

import "time"

// SyncPhase represents the current phase of a synchronization operation
type SyncPhase string

const (
	// SyncPhaseSyncing means sync is currently in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means sync completed successfully
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means sync failed
	SyncPhaseFailed SyncPhase = "Failed"
)

// SyncStatus represents the outcome of the most recent sync
type SyncStatus struct {
	// SyncID identifies the most recent sync attempt
	SyncID string `yaml:"syncID,omitempty"`

	// Phase represents the current synchronization phase
	Phase SyncPhase `yaml:"phase"`

	// Message provides additional information about the sync status
	Message string `yaml:"message,omitempty"`

	// LastAttempt is the timestamp of the last sync attempt
	LastAttempt *time.Time `yaml:"lastAttempt,omitempty"`

	// LastSyncTime is the timestamp of the last successful network sync
	LastSyncTime *time.Time `yaml:"lastSyncTime,omitempty"`

	// LastSyncHash is the SHA-256 of the last registry text saved to the snapshot
	LastSyncHash string `yaml:"lastSyncHash,omitempty"`

	// Provenance is "network" or "snapshot"
	Provenance string `yaml:"provenance,omitempty"`

	// Source is the winning source name or snapshot location
	Source string `yaml:"source,omitempty"`

	VendorCount int `yaml:"vendorCount,omitempty"`
	DeviceCount int `yaml:"deviceCount,omitempty"`

	// FailedSources lists, in order, the sources that failed in the last sync
	FailedSources []string `yaml:"failedSources,omitempty"`
}

package app

import (
	"github.com/stacklok/usb-ids-registry/internal/service"
	"github.com/stacklok/usb-ids-registry/internal/sync/coordinator"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator runs the initial and periodic syncs
	SyncCoordinator coordinator.Coordinator

	// Holder is the currently served registry, swapped by each successful sync
	Holder *service.Holder

	// RegistryService answers lookups against the served registry
	RegistryService service.RegistryService
}

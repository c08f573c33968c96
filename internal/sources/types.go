package sources

import (
	"context"

	"github.com/stacklok/usb-ids-registry/internal/config"
)

//go:generate mockgen -destination=mocks/mock_source_handler.go -package=mocks -source=types.go SourceHandler,SourceHandlerFactory

// SourceHandler retrieves raw registry text from a single location
type SourceHandler interface {
	// Name identifies the source in logs, metrics and the attempt log
	Name() string

	// Fetch performs one retrieval attempt. It does not retry.
	Fetch(ctx context.Context) ([]byte, error)
}

// SourceHandlerFactory creates source handlers from configuration
type SourceHandlerFactory interface {
	// CreateHandler creates a source handler for a single source
	CreateHandler(cfg *config.SourceConfig) (SourceHandler, error)

	// CreateHandlers creates handlers for every source, preserving order
	CreateHandlers(cfgs []config.SourceConfig) ([]SourceHandler, error)
}

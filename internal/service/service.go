// Package service provides read access to the currently loaded registry
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/stacklok/usb-ids-registry/internal/registry"
	"github.com/stacklok/usb-ids-registry/internal/resolver"
)

var (
	// ErrNotReady is returned while no registry has been loaded
	ErrNotReady = errors.New("no registry data loaded")
	// ErrInvalidID is returned for IDs that are not four hexadecimal digits
	ErrInvalidID = errors.New("invalid id")
	// ErrVendorNotFound is returned when a vendor is not in the registry
	ErrVendorNotFound = errors.New("vendor not found")
	// ErrDeviceNotFound is returned when a vendor has no such device
	ErrDeviceNotFound = errors.New("device not found")
)

// RegistryProvider returns the most recent resolved registry, or nil
type RegistryProvider interface {
	Current() *resolver.FetchResult
}

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go RegistryService

// RegistryService defines the read operations served by the API
type RegistryService interface {
	// CheckReadiness returns ErrNotReady until a registry is loaded
	CheckReadiness(ctx context.Context) error

	// GetRegistry returns the current registry with its provenance
	GetRegistry(ctx context.Context) (*resolver.FetchResult, error)

	// GetVendor returns one vendor and its devices
	GetVendor(ctx context.Context, vendorID string) (registry.Vendor, error)

	// GetDevice returns one device of a vendor
	GetDevice(ctx context.Context, vendorID, deviceID string) (registry.Device, error)
}

type registryService struct {
	provider RegistryProvider
}

// New creates a RegistryService over provider
func New(provider RegistryProvider) RegistryService {
	return &registryService{provider: provider}
}

func (s *registryService) CheckReadiness(_ context.Context) error {
	if s.provider.Current() == nil {
		return ErrNotReady
	}
	return nil
}

func (s *registryService) GetRegistry(_ context.Context) (*resolver.FetchResult, error) {
	result := s.provider.Current()
	if result == nil {
		return nil, ErrNotReady
	}
	return result, nil
}

func (s *registryService) GetVendor(ctx context.Context, vendorID string) (registry.Vendor, error) {
	if !registry.IsValidID(vendorID) {
		return registry.Vendor{}, fmt.Errorf("%w: vendor %q", ErrInvalidID, vendorID)
	}
	result, err := s.GetRegistry(ctx)
	if err != nil {
		return registry.Vendor{}, err
	}
	vendor, ok := result.Registry.Vendor(vendorID)
	if !ok {
		return registry.Vendor{}, fmt.Errorf("%w: %s", ErrVendorNotFound, registry.CanonicalID(vendorID))
	}
	return vendor, nil
}

func (s *registryService) GetDevice(ctx context.Context, vendorID, deviceID string) (registry.Device, error) {
	if !registry.IsValidID(deviceID) {
		return registry.Device{}, fmt.Errorf("%w: device %q", ErrInvalidID, deviceID)
	}
	vendor, err := s.GetVendor(ctx, vendorID)
	if err != nil {
		return registry.Device{}, err
	}
	device, ok := vendor.Devices[registry.CanonicalID(deviceID)]
	if !ok {
		return registry.Device{}, fmt.Errorf("%w: %s:%s", ErrDeviceNotFound, vendor.ID, registry.CanonicalID(deviceID))
	}
	return device, nil
}

package registry

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// RegistryOption is a function that configures a Registry for testing
type RegistryOption func(Registry)

// VendorOption is a function that configures a Vendor for testing
type VendorOption func(*Vendor)

// NewTestRegistry creates an empty Registry for testing and applies any provided options
func NewTestRegistry(opts ...RegistryOption) Registry {
	reg := Registry{}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// WithVendor adds vendors to the registry, replacing any with the same ID
func WithVendor(vendors ...Vendor) RegistryOption {
	return func(reg Registry) {
		for _, v := range vendors {
			reg[v.ID] = v
		}
	}
}

// NewTestVendor creates a Vendor for testing with an empty device map
func NewTestVendor(id, name string, opts ...VendorOption) Vendor {
	v := Vendor{
		ID:      CanonicalID(id),
		Name:    name,
		Devices: map[string]Device{},
	}
	for _, opt := range opts {
		opt(&v)
	}
	return v
}

// WithDevice adds a device to the vendor
func WithDevice(id, name string) VendorOption {
	return func(v *Vendor) {
		canonical := CanonicalID(id)
		v.Devices[canonical] = Device{ID: canonical, Name: name}
	}
}

// RegistryToJSON marshals a registry to JSON, panicking on failure.
// Intended for test fixtures only.
func RegistryToJSON(reg Registry) []byte {
	data, err := json.Marshal(reg)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal registry: %v", err))
	}
	return data
}

// RegistryToText renders a registry in usb.ids format with vendors and
// devices sorted by ID. Intended for test fixtures served by fake mirrors.
func RegistryToText(reg Registry) string {
	var b strings.Builder
	b.WriteString("# generated test registry\n")

	vendorIDs := make([]string, 0, len(reg))
	for id := range reg {
		vendorIDs = append(vendorIDs, id)
	}
	sort.Strings(vendorIDs)

	for _, vid := range vendorIDs {
		v := reg[vid]
		fmt.Fprintf(&b, "%s  %s\n", v.ID, v.Name)

		deviceIDs := make([]string, 0, len(v.Devices))
		for id := range v.Devices {
			deviceIDs = append(deviceIDs, id)
		}
		sort.Strings(deviceIDs)

		for _, did := range deviceIDs {
			fmt.Fprintf(&b, "\t%s  %s\n", did, v.Devices[did].Name)
		}
	}
	return b.String()
}

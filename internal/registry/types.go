package registry

import (
	"maps"
	"strings"
)

// Device is a single device entry under a vendor
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Vendor is a vendor entry together with its devices
type Vendor struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Devices map[string]Device `json:"devices"`
}

// Registry maps a lowercase vendor ID to its Vendor record.
// A Registry is not modified after it has been returned to a caller.
type Registry map[string]Vendor

// VendorCount returns the number of vendors in the registry
func (r Registry) VendorCount() int {
	return len(r)
}

// DeviceCount returns the total number of devices across all vendors
func (r Registry) DeviceCount() int {
	total := 0
	for _, v := range r {
		total += len(v.Devices)
	}
	return total
}

// Vendor returns the vendor with the given ID. The lookup is case-insensitive.
func (r Registry) Vendor(vendorID string) (Vendor, bool) {
	v, ok := r[CanonicalID(vendorID)]
	return v, ok
}

// Lookup returns the device with the given vendor and device IDs.
// The lookup is case-insensitive on both IDs.
func (r Registry) Lookup(vendorID, deviceID string) (Device, bool) {
	v, ok := r.Vendor(vendorID)
	if !ok {
		return Device{}, false
	}
	d, ok := v.Devices[CanonicalID(deviceID)]
	return d, ok
}

// Normalize returns the registry with every vendor carrying a non-nil
// devices map. It is meant for registries decoded from JSON, where a
// missing or null "devices" field would otherwise produce a nil map.
// r is never modified; a copy is returned when any vendor needs filling.
// A nil registry normalizes to an empty one.
func Normalize(r Registry) Registry {
	if r == nil {
		return Registry{}
	}
	var out Registry
	for id, v := range r {
		if v.Devices != nil {
			continue
		}
		if out == nil {
			out = maps.Clone(r)
		}
		v.Devices = map[string]Device{}
		out[id] = v
	}
	if out == nil {
		return r
	}
	return out
}

// CanonicalID lowercases an ID and strips surrounding whitespace
func CanonicalID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// IsValidID reports whether id is exactly four hex digits, in either case
func IsValidID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if !isHex(id[i]) {
			return false
		}
	}
	return true
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// Package registry provides the data model for the USB ID registry and the
// parser for the line-oriented usb.ids text format.
//
// # Data Model
//
// A Registry maps a vendor ID to its Vendor record, and each Vendor maps a
// device ID to its Device record. IDs are four hex digits, canonicalized to
// lowercase:
//
//	reg := registry.Parse(text)
//	dev, ok := reg.Lookup("1D6B", "0002")
//
// Every Vendor always carries a non-nil Devices map. Registries decoded from
// JSON should be passed through Normalize to restore that guarantee.
//
// # Grammar
//
// The parser recognizes exactly one fixed grammar:
//
//   - Blank lines and lines whose first non-whitespace character is '#' are skipped.
//   - A line without a leading tab is a vendor line: four hex digits, one
//     whitespace separator, then the vendor name.
//   - A line with exactly one leading tab is a device line under the most
//     recent valid vendor line.
//   - Lines with two or more leading tabs (interfaces) are not modeled.
//
// A vendor line that doesn't match invalidates the current vendor, so device
// lines are dropped until the next valid vendor line. This keeps the class,
// language and HID sections at the end of usb.ids from leaking into the last
// vendor. The parser never fails; malformed lines are counted and skipped.
//
// # Test Utilities
//
// NewTestRegistry, NewTestVendor and their options build fixtures without
// hand-writing registry text:
//
//	reg := registry.NewTestRegistry(
//	    registry.WithVendor(registry.NewTestVendor("1d6b", "Linux Foundation",
//	        registry.WithDevice("0002", "2.0 root hub"),
//	    )),
//	)
package registry

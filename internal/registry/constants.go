package registry

const (
	// IDLength is the number of hex digits in a vendor or device ID
	IDLength = 4

	// DefaultFileName is the conventional name of the upstream registry file
	DefaultFileName = "usb.ids"
)

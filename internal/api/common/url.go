package common

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/usb-ids-registry/internal/registry"
)

// GetIDParam extracts a vendor or device ID from the route and validates it.
// The returned ID is canonical (lowercase).
func GetIDParam(r *http.Request, paramName string) (string, error) {
	decoded, err := url.PathUnescape(chi.URLParam(r, paramName))
	if err != nil {
		return "", fmt.Errorf("invalid URL encoding in %s", paramName)
	}

	if decoded == "" {
		return "", fmt.Errorf("%s cannot be empty", paramName)
	}

	if !registry.IsValidID(decoded) {
		return "", fmt.Errorf("%s must be %d hexadecimal digits, got %q", paramName, registry.IDLength, decoded)
	}

	return registry.CanonicalID(decoded), nil
}

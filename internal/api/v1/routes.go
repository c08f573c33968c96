// Package v1 provides the read-only REST handlers for the USB ID registry.
package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/usb-ids-registry/internal/api/common"
	"github.com/stacklok/usb-ids-registry/internal/registry"
	"github.com/stacklok/usb-ids-registry/internal/service"
	"github.com/stacklok/usb-ids-registry/internal/versions"
)

// Response headers describing where the served registry came from
const (
	HeaderProvenance = "X-Registry-Provenance"
	HeaderSource     = "X-Registry-Source"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string `json:"status"`
	Provenance string `json:"provenance,omitempty"`
}

// InfoResponse summarizes the registry currently served
type InfoResponse struct {
	Provenance    string   `json:"provenance"`
	Source        string   `json:"source"`
	Hash          string   `json:"hash,omitempty"`
	VendorCount   int      `json:"vendor_count"`
	DeviceCount   int      `json:"device_count"`
	FailedSources []string `json:"failed_sources,omitempty"`
}

// Routes holds the handlers for the registry API
type Routes struct {
	service service.RegistryService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc service.RegistryService) *Routes {
	return &Routes{service: svc}
}

// Router creates the router for the registry endpoints
func Router(svc service.RegistryService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()
	r.Get("/registry", routes.getRegistry)
	r.Get("/info", routes.getInfo)
	r.Get("/vendors/{vendorID}", routes.getVendor)
	r.Get("/vendors/{vendorID}/devices/{deviceID}", routes.getDevice)

	return r
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(svc service.RegistryService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()
	r.Get("/health", routes.health)
	r.Get("/version", versionHandler)

	return r
}

// health handles GET /health. It fails until a registry is loaded.
func (rr *Routes) health(w http.ResponseWriter, r *http.Request) {
	result, err := rr.service.GetRegistry(r.Context())
	if err != nil {
		common.WriteErrorResponse(w, "registry not ready: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	common.WriteJSONResponse(w, HealthResponse{Status: "ok", Provenance: string(result.Provenance)}, http.StatusOK)
}

// getRegistry handles GET /v1/registry
func (rr *Routes) getRegistry(w http.ResponseWriter, r *http.Request) {
	result, err := rr.service.GetRegistry(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set(HeaderProvenance, string(result.Provenance))
	w.Header().Set(HeaderSource, result.Source)
	common.WriteJSONResponse(w, result.Registry, http.StatusOK)
}

// getInfo handles GET /v1/info
func (rr *Routes) getInfo(w http.ResponseWriter, r *http.Request) {
	result, err := rr.service.GetRegistry(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set(HeaderProvenance, string(result.Provenance))
	common.WriteJSONResponse(w, InfoResponse{
		Provenance:    string(result.Provenance),
		Source:        result.Source,
		Hash:          result.Hash,
		VendorCount:   result.Registry.VendorCount(),
		DeviceCount:   result.Registry.DeviceCount(),
		FailedSources: result.FailedSources(),
	}, http.StatusOK)
}

// getVendor handles GET /v1/vendors/{vendorID}
func (rr *Routes) getVendor(w http.ResponseWriter, r *http.Request) {
	vendorID, err := common.GetIDParam(r, "vendorID")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	vendor, err := rr.service.GetVendor(r.Context(), vendorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, vendor, http.StatusOK)
}

// getDevice handles GET /v1/vendors/{vendorID}/devices/{deviceID}
func (rr *Routes) getDevice(w http.ResponseWriter, r *http.Request) {
	vendorID, err := common.GetIDParam(r, "vendorID")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	deviceID, err := common.GetIDParam(r, "deviceID")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	device, err := rr.service.GetDevice(r.Context(), vendorID, deviceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, deviceResponse{VendorID: vendorID, Device: device}, http.StatusOK)
}

// deviceResponse is a device together with the vendor it belongs to
type deviceResponse struct {
	VendorID string `json:"vendor_id"`
	registry.Device
}

// versionHandler handles GET /version
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}

// writeServiceError maps service errors to status codes
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidID):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrVendorNotFound), errors.Is(err, service.ErrDeviceNotFound):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrNotReady):
		common.WriteErrorResponse(w, err.Error(), http.StatusServiceUnavailable)
	default:
		slog.Error("Registry request failed", "error", err)
		common.WriteErrorResponse(w, "internal server error", http.StatusInternalServerError)
	}
}

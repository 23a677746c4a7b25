// Package httpapi exposes the registry over HTTP. Routes split into three
// surfaces: public reads, vendor self-service and admin operations.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/connectorhub/registry/internal/apperr"
	"github.com/connectorhub/registry/internal/metrics"
	"github.com/connectorhub/registry/internal/middleware"
	"github.com/connectorhub/registry/internal/registry/services"
	"github.com/connectorhub/registry/internal/registry/storage"
	"github.com/connectorhub/registry/pkg/logger"
)

// Handler serves the registry API.
type Handler struct {
	apps    *services.Apps
	vendors *services.Vendors
	auth    *services.Auth
	authMW  *middleware.AuthMiddleware
	metrics *metrics.Metrics
	log     *logger.Logger
}

// New creates the handler.
func New(apps *services.Apps, vendors *services.Vendors, auth *services.Auth,
	authMW *middleware.AuthMiddleware, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{apps: apps, vendors: vendors, auth: auth, authMW: authMW, metrics: m, log: log}
}

// Router builds the route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(h.metrics))
	r.Use(middleware.LoggingMiddleware(h.log))

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)

	// Public surface.
	r.HandleFunc("/apps", h.publicListApps).Methods(http.MethodGet)
	r.HandleFunc("/apps/{app}", h.publicGetApp).Methods(http.MethodGet)
	r.HandleFunc("/stacks", h.listStacks).Methods(http.MethodGet)
	r.HandleFunc("/vendors", h.listVendors).Methods(http.MethodGet)
	r.HandleFunc("/vendors/{vendor}", h.getVendor).Methods(http.MethodGet)

	// Identity surface.
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/signup", h.signUp).Methods(http.MethodPost)
	auth.HandleFunc("/confirm", h.confirm).Methods(http.MethodPost)
	auth.HandleFunc("/resend", h.resendConfirmation).Methods(http.MethodPost)
	auth.HandleFunc("/login", h.login).Methods(http.MethodPost)
	auth.HandleFunc("/forgot", h.forgotPassword).Methods(http.MethodPost)
	auth.HandleFunc("/forgot/confirm", h.confirmForgotPassword).Methods(http.MethodPost)

	profile := r.PathPrefix("/auth/profile").Subrouter()
	profile.Use(h.authMW.Handler)
	profile.HandleFunc("", h.profile).Methods(http.MethodGet)

	// Vendor self-service surface.
	vendorR := r.PathPrefix("/vendor").Subrouter()
	vendorR.Use(h.authMW.Handler, middleware.RequireVendor)
	vendorR.HandleFunc("/apps", h.createApp).Methods(http.MethodPost)
	vendorR.HandleFunc("/apps", h.listVendorApps).Methods(http.MethodGet)
	vendorR.HandleFunc("/apps/{app}", h.getVendorApp).Methods(http.MethodGet)
	vendorR.HandleFunc("/apps/{app}", h.updateVendorApp).Methods(http.MethodPatch)
	vendorR.HandleFunc("/apps/{app}", h.deleteVendorApp).Methods(http.MethodDelete)
	vendorR.HandleFunc("/apps/{app}/versions", h.listAppVersions).Methods(http.MethodGet)
	vendorR.HandleFunc("/apps/{app}/versions/{version}", h.getAppVersion).Methods(http.MethodGet)
	vendorR.HandleFunc("/apps/{app}/icon", h.requestIconUpload).Methods(http.MethodPost)

	// Admin surface.
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(h.authMW.Handler, middleware.RequireAdmin)
	admin.HandleFunc("/apps", h.adminListApps).Methods(http.MethodGet)
	admin.HandleFunc("/apps/{app}", h.adminGetApp).Methods(http.MethodGet)
	admin.HandleFunc("/apps/{app}", h.adminUpdateApp).Methods(http.MethodPatch)
	admin.HandleFunc("/apps/{app}/approve", h.approveApp).Methods(http.MethodPost)
	admin.HandleFunc("/changes", h.listChanges).Methods(http.MethodGet)
	admin.HandleFunc("/vendors", h.createVendor).Methods(http.MethodPost)
	admin.HandleFunc("/users/{email}", h.adminGetUser).Methods(http.MethodGet)
	admin.HandleFunc("/users/{email}/enable", h.adminEnableUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{email}/disable", h.adminDisableUser).Methods(http.MethodPost)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Helpers ----------------------------------------------------------------

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			h.log.WithError(err).Error("encode response")
		}
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).Error("internal error")
		message = "Internal server error"
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a request body strictly: unknown fields fail with a 400
// rather than being dropped.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.BadRequest("invalid request body: %v", err)
	}
	return nil
}

func session(r *http.Request) (string, string) {
	s, _ := middleware.SessionFromContext(r.Context())
	return s.Email, s.Vendor
}

func pageParams(r *http.Request) storage.Page {
	var page storage.Page
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Offset = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Limit = n
		}
	}
	return page
}

func versionParam(r *http.Request) (int, error) {
	raw := mux.Vars(r)["version"]
	version, err := strconv.Atoi(raw)
	if err != nil || version < 1 {
		return 0, apperr.BadRequest("invalid version %q", raw)
	}
	return version, nil
}

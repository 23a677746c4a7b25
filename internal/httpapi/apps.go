package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/connectorhub/registry/internal/apperr"
)

// --- Public surface ---------------------------------------------------------

func (h *Handler) publicListApps(w http.ResponseWriter, r *http.Request) {
	apps, err := h.apps.PublicList(r.Context(), pageParams(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, apps)
}

func (h *Handler) publicGetApp(w http.ResponseWriter, r *http.Request) {
	a, err := h.apps.PublicGet(r.Context(), mux.Vars(r)["app"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *Handler) listStacks(w http.ResponseWriter, r *http.Request) {
	stacks, err := h.apps.Stacks(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stacks)
}

func (h *Handler) listVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.vendors.List(r.Context(), pageParams(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, vendors)
}

func (h *Handler) getVendor(w http.ResponseWriter, r *http.Request) {
	v, err := h.vendors.Get(r.Context(), mux.Vars(r)["vendor"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, v)
}

// --- Vendor surface ---------------------------------------------------------

func (h *Handler) createApp(w http.ResponseWriter, r *http.Request) {
	var payload createAppPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	actor, vendorID := session(r)
	a, err := h.apps.Create(r.Context(), vendorID, actor, payload.ID, payload.toUpdate())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) listVendorApps(w http.ResponseWriter, r *http.Request) {
	_, vendorID := session(r)
	apps, err := h.apps.ListVendor(r.Context(), vendorID, pageParams(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, apps)
}

func (h *Handler) getVendorApp(w http.ResponseWriter, r *http.Request) {
	_, vendorID := session(r)
	a, err := h.apps.Get(r.Context(), vendorID, mux.Vars(r)["app"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *Handler) updateVendorApp(w http.ResponseWriter, r *http.Request) {
	var payload vendorAppPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	actor, vendorID := session(r)
	a, err := h.apps.Update(r.Context(), vendorID, mux.Vars(r)["app"], actor, payload.toUpdate())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *Handler) deleteVendorApp(w http.ResponseWriter, r *http.Request) {
	actor, vendorID := session(r)
	if err := h.apps.Delete(r.Context(), vendorID, mux.Vars(r)["app"], actor); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listAppVersions(w http.ResponseWriter, r *http.Request) {
	_, vendorID := session(r)
	versions, err := h.apps.Versions(r.Context(), vendorID, mux.Vars(r)["app"], pageParams(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, versions)
}

func (h *Handler) getAppVersion(w http.ResponseWriter, r *http.Request) {
	version, err := versionParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	_, vendorID := session(r)
	a, err := h.apps.GetVersion(r.Context(), vendorID, mux.Vars(r)["app"], version)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *Handler) requestIconUpload(w http.ResponseWriter, r *http.Request) {
	_, vendorID := session(r)
	result, err := h.apps.RequestIconUpload(r.Context(), vendorID, mux.Vars(r)["app"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, result)
}

// --- Admin surface ----------------------------------------------------------

func (h *Handler) adminListApps(w http.ResponseWriter, r *http.Request) {
	onlyUnapproved := r.URL.Query().Get("unapproved") == "1"
	apps, err := h.apps.AdminList(r.Context(), onlyUnapproved, pageParams(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, apps)
}

func (h *Handler) adminGetApp(w http.ResponseWriter, r *http.Request) {
	a, err := h.apps.AdminGet(r.Context(), mux.Vars(r)["app"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *Handler) adminUpdateApp(w http.ResponseWriter, r *http.Request) {
	var payload adminAppPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	actor, _ := session(r)
	a, err := h.apps.AdminUpdate(r.Context(), mux.Vars(r)["app"], actor, payload.toUpdate())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *Handler) approveApp(w http.ResponseWriter, r *http.Request) {
	actor, _ := session(r)
	a, err := h.apps.Approve(r.Context(), mux.Vars(r)["app"], actor)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *Handler) listChanges(w http.ResponseWriter, r *http.Request) {
	since, err := timeParam(r, "since")
	if err != nil {
		h.writeError(w, err)
		return
	}
	until, err := timeParam(r, "until")
	if err != nil {
		h.writeError(w, err)
		return
	}
	changes, err := h.apps.Changes(r.Context(), since, until)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, changes)
}

func (h *Handler) createVendor(w http.ResponseWriter, r *http.Request) {
	var payload vendorPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	v, err := h.vendors.Create(r.Context(), vendorFromPayload(payload))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, v)
}

func timeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperr.BadRequest("invalid %s: expected RFC 3339, got %q", name, raw)
	}
	return t, nil
}

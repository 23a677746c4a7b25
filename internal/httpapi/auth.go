package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/connectorhub/registry/internal/identity"
	"github.com/connectorhub/registry/internal/middleware"
)

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var payload signUpPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	user := identity.User{Email: payload.Email, Name: payload.Name, Vendor: payload.Vendor}
	if err := h.auth.SignUp(r.Context(), user, payload.Password); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"message": "confirmation code sent"})
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	var payload confirmPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.auth.Confirm(r.Context(), payload.Email, payload.Code); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "confirmed"})
}

func (h *Handler) resendConfirmation(w http.ResponseWriter, r *http.Request) {
	var payload emailPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.auth.ResendConfirmation(r.Context(), payload.Email); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "confirmation code sent"})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	result, err := h.auth.Login(r.Context(), identity.Credentials{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	s, _ := middleware.SessionFromContext(r.Context())
	user, err := h.auth.Profile(r.Context(), s.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) adminGetUser(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	user, err := h.auth.Profile(r.Context(), email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) adminEnableUser(w http.ResponseWriter, r *http.Request) {
	h.setUserEnabled(w, r, true)
}

func (h *Handler) adminDisableUser(w http.ResponseWriter, r *http.Request) {
	h.setUserEnabled(w, r, false)
}

func (h *Handler) setUserEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	email := mux.Vars(r)["email"]
	if err := h.auth.SetUserEnabled(r.Context(), email, enabled); err != nil {
		h.writeError(w, err)
		return
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "user " + state})
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload emailPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), payload.Email); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "reset code sent"})
}

func (h *Handler) confirmForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload resetPasswordPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.auth.ConfirmForgotPassword(r.Context(), payload.Email, payload.Code, payload.Password); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

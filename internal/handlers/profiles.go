package handlers

import (
	"net/http"

	"procurelink/internal/lifecycle"
)

// CreateProfileHandler registers the caller's profile; 409 if it exists.
func (h *Handler) CreateProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := callerID(w, r)
	if !ok {
		return
	}
	var in lifecycle.ProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.Svc.CreateProfile(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := callerID(w, r)
	if !ok {
		return
	}
	p, err := h.Svc.GetProfile(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := callerID(w, r)
	if !ok {
		return
	}
	var in lifecycle.ProfileUpdate
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.Svc.UpdateProfile(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

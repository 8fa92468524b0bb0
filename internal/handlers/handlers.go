package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"procurelink/internal/apierror"
	"procurelink/internal/auth"
	"procurelink/internal/lifecycle"
)

const maxBodyBytes = 1048576

// Handler wraps the workflow service for HTTP access.
type Handler struct {
	Svc Service
}

// NewHandler returns a Handler serving svc.
func NewHandler(svc Service) *Handler {
	return &Handler{Svc: svc}
}

// PingHandler answers "ok" for health checks.
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// parsePaginationParams reads limit and offset with defaults and bounds.
func parsePaginationParams(r *http.Request) lifecycle.Page {
	page := lifecycle.Page{Limit: 20}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		page.Limit = l
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		page.Offset = o
	}
	return page
}

// decodeJSON reads a size-limited JSON body into dst and writes the 400
// itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		apierror.WriteJSON(w, http.StatusBadRequest, apierror.NewValidation(map[string]string{
			typeErr.Field: "has the wrong type",
		}))
	case errors.As(err, &maxErr):
		apierror.Write(w, http.StatusRequestEntityTooLarge, "request body too large")
	default:
		apierror.Write(w, http.StatusBadRequest, "invalid JSON body")
	}
	return false
}

// uuidParam parses a chi path parameter. An id that is not a UUID cannot
// name any row, so it is reported as not found.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		apierror.Write(w, http.StatusNotFound, "not found")
		return uuid.Nil, false
	}
	return id, true
}

// callerID returns the authenticated subject or writes a 401.
func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		apierror.Write(w, http.StatusUnauthorized, "authentication required")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	apierror.WriteJSON(w, status, v)
}

// writeError maps workflow errors to status codes. Unclassified errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *lifecycle.ValidationError
	switch {
	case errors.As(err, &verr):
		apierror.WriteJSON(w, http.StatusBadRequest, apierror.NewValidation(verr.Fields))
	case errors.Is(err, lifecycle.ErrNotFound):
		apierror.Write(w, http.StatusNotFound, "not found")
	case errors.Is(err, lifecycle.ErrForbidden):
		apierror.Write(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, lifecycle.ErrConflict):
		apierror.Write(w, http.StatusConflict, conflictDetail(err))
	default:
		log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		apierror.Write(w, http.StatusInternalServerError, "internal server error")
	}
}

// conflictDetail keeps the state description but drops the sentinel suffix.
func conflictDetail(err error) string {
	return strings.TrimSuffix(err.Error(), ": "+lifecycle.ErrConflict.Error())
}

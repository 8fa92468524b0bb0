package testutils

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"procurelink/internal/auth"
)

// WithChiURLParams puts path parameters into the chi route context for tests
// that call handlers directly.
func WithChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for k, v := range params {
		chiCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

// AsUser marks the request as authenticated by id.
func AsUser(req *http.Request, id uuid.UUID) *http.Request {
	return req.WithContext(auth.WithUser(req.Context(), id))
}

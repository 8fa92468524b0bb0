// Package apierror is the JSON error envelope returned on every 4xx/5xx
// response. Internal error text never reaches the client.
package apierror

import (
	"encoding/json"
	"net/http"
)

// APIError is the canonical error body.
type APIError struct {
	Detail string `json:"detail"`
}

// New returns an error body with the given client-safe message.
func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError carries field-level messages.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

// NewValidation returns a 400 body keyed by field name.
func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// WriteJSON encodes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Write sends an APIError with msg.
func Write(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, New(msg))
}

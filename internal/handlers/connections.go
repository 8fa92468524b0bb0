package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"procurelink/internal/lifecycle"
)

type connectionRequest struct {
	CounterpartyID uuid.UUID `json:"counterparty_id"`
}

// RequestConnectionHandler handles POST /api/connections.
func (h *Handler) RequestConnectionHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	var req connectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CounterpartyID == uuid.Nil {
		writeError(w, r, &lifecycle.ValidationError{Fields: map[string]string{"counterparty_id": "is required"}})
		return
	}
	conn, err := h.Svc.RequestConnection(r.Context(), caller, req.CounterpartyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

func (h *Handler) GetConnectionsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	conns, err := h.Svc.ListConnections(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conns)
}

func (h *Handler) AcceptConnectionHandler(w http.ResponseWriter, r *http.Request) {
	h.respondConnection(w, r, true)
}

func (h *Handler) RejectConnectionHandler(w http.ResponseWriter, r *http.Request) {
	h.respondConnection(w, r, false)
}

func (h *Handler) respondConnection(w http.ResponseWriter, r *http.Request, accept bool) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "connectionId")
	if !ok {
		return
	}
	conn, err := h.Svc.RespondConnection(r.Context(), id, caller, accept)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

func (h *Handler) BlockConnectionHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "connectionId")
	if !ok {
		return
	}
	conn, err := h.Svc.BlockConnection(r.Context(), id, caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"procurelink/internal/lifecycle"
)

// CreateRFQHandler handles POST /api/rfqs.
func (h *Handler) CreateRFQHandler(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := callerID(w, r)
	if !ok {
		return
	}
	var in lifecycle.RFQInput
	if !decodeJSON(w, r, &in) {
		return
	}
	rfq, err := h.Svc.CreateRFQ(r.Context(), buyerID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rfq)
}

// GetRFQsHandler lists open RFQs. category may repeat or be comma separated.
func (h *Handler) GetRFQsHandler(w http.ResponseWriter, r *http.Request) {
	filter := lifecycle.RFQFilter{Page: parsePaginationParams(r)}
	for _, v := range r.URL.Query()["category"] {
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				filter.Categories = append(filter.Categories, c)
			}
		}
	}
	rfqs, err := h.Svc.ListOpenRFQs(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rfqs)
}

// GetUserRFQsHandler lists the caller's own RFQs in every status.
func (h *Handler) GetUserRFQsHandler(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := callerID(w, r)
	if !ok {
		return
	}
	rfqs, err := h.Svc.ListBuyerRFQs(r.Context(), buyerID, parsePaginationParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rfqs)
}

func (h *Handler) GetRFQHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	rfqID, ok := uuidParam(w, r, "rfqId")
	if !ok {
		return
	}
	rfq, err := h.Svc.GetRFQ(r.Context(), caller, rfqID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rfq)
}

// GetRFQQuotesHandler lists quotes on an RFQ as visible to the caller.
func (h *Handler) GetRFQQuotesHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	rfqID, ok := uuidParam(w, r, "rfqId")
	if !ok {
		return
	}
	quotes, err := h.Svc.ListQuotesForRFQ(r.Context(), caller, rfqID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

type inviteRequest struct {
	SupplierID uuid.UUID `json:"supplier_id"`
}

// InviteSupplierHandler handles POST /api/rfqs/{rfqId}/invitations.
func (h *Handler) InviteSupplierHandler(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := callerID(w, r)
	if !ok {
		return
	}
	rfqID, ok := uuidParam(w, r, "rfqId")
	if !ok {
		return
	}
	var req inviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SupplierID == uuid.Nil {
		writeError(w, r, &lifecycle.ValidationError{Fields: map[string]string{"supplier_id": "is required"}})
		return
	}
	inv, err := h.Svc.InviteSupplier(r.Context(), rfqID, buyerID, req.SupplierID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *Handler) GetInvitationsHandler(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := callerID(w, r)
	if !ok {
		return
	}
	invs, err := h.Svc.ListInvitations(r.Context(), supplierID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invs)
}

package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"procurelink/internal/lifecycle"
)

type submitQuoteRequest struct {
	RFQID uuid.UUID `json:"rfq_id"`
	lifecycle.QuoteTerms
}

// SubmitQuoteHandler handles POST /api/quotes.
func (h *Handler) SubmitQuoteHandler(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req submitQuoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RFQID == uuid.Nil {
		writeError(w, r, &lifecycle.ValidationError{Fields: map[string]string{"rfq_id": "is required"}})
		return
	}
	quote, err := h.Svc.SubmitQuote(r.Context(), req.RFQID, supplierID, req.QuoteTerms)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quote)
}

// AcceptQuoteHandler handles POST /api/rfqs/{rfqId}/quotes/{quoteId}/accept
// and returns the purchase order it creates.
func (h *Handler) AcceptQuoteHandler(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := callerID(w, r)
	if !ok {
		return
	}
	rfqID, ok := uuidParam(w, r, "rfqId")
	if !ok {
		return
	}
	quoteID, ok := uuidParam(w, r, "quoteId")
	if !ok {
		return
	}
	order, err := h.Svc.AcceptQuote(r.Context(), rfqID, quoteID, buyerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) RejectQuoteHandler(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := callerID(w, r)
	if !ok {
		return
	}
	quoteID, ok := uuidParam(w, r, "quoteId")
	if !ok {
		return
	}
	quote, err := h.Svc.RejectQuote(r.Context(), quoteID, buyerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// GetUserQuotesHandler lists quotes the caller submitted.
func (h *Handler) GetUserQuotesHandler(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := callerID(w, r)
	if !ok {
		return
	}
	quotes, err := h.Svc.ListSupplierQuotes(r.Context(), supplierID, parsePaginationParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

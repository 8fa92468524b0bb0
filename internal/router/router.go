package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"procurelink/internal/auth"
	"procurelink/internal/handlers"
	"procurelink/internal/ratelimit"
)

// Limits are the per-route rate limits.
type Limits struct {
	RFQCreate   ratelimit.Config
	QuoteSubmit ratelimit.Config
	RFQList     ratelimit.Config
}

// DefaultLimits: 20 RFQs per hour and 50 quotes per hour per user, 100 public
// list reads per minute per IP.
func DefaultLimits() Limits {
	return Limits{
		RFQCreate:   ratelimit.Config{MaxRequests: 20, Interval: time.Hour},
		QuoteSubmit: ratelimit.Config{MaxRequests: 50, Interval: time.Hour},
		RFQList:     ratelimit.Config{MaxRequests: 100, Interval: time.Minute},
	}
}

// New wires every route. verifier guards the authenticated group.
func New(h *handlers.Handler, verifier *auth.Verifier, limiter ratelimit.Limiter, limits Limits) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)
		r.With(ratelimit.Middleware(limiter, limits.RFQList, ratelimit.ByIP, "rfq-list")).
			Get("/rfqs", h.GetRFQsHandler)

		r.Group(func(r chi.Router) {
			r.Use(verifier.Middleware)

			// profiles
			r.Post("/profiles", h.CreateProfileHandler)
			r.Get("/profiles/me", h.GetProfileHandler)
			r.Patch("/profiles/me", h.UpdateProfileHandler)

			// rfqs
			r.With(ratelimit.Middleware(limiter, limits.RFQCreate, ratelimit.ByUser, "rfq-create")).
				Post("/rfqs", h.CreateRFQHandler)
			r.Get("/rfqs/mine", h.GetUserRFQsHandler)
			r.Get("/rfqs/{rfqId}", h.GetRFQHandler)
			r.Get("/rfqs/{rfqId}/quotes", h.GetRFQQuotesHandler)
			r.Post("/rfqs/{rfqId}/quotes/{quoteId}/accept", h.AcceptQuoteHandler)
			r.Post("/rfqs/{rfqId}/invitations", h.InviteSupplierHandler)
			r.Get("/invitations", h.GetInvitationsHandler)

			// quotes
			r.With(ratelimit.Middleware(limiter, limits.QuoteSubmit, ratelimit.ByUser, "quote-submit")).
				Post("/quotes", h.SubmitQuoteHandler)
			r.Get("/quotes/mine", h.GetUserQuotesHandler)
			r.Post("/quotes/{quoteId}/reject", h.RejectQuoteHandler)

			// orders
			r.Get("/orders", h.GetOrdersHandler)
			r.Get("/orders/{orderId}", h.GetOrderHandler)
			r.Post("/orders/{orderId}/fulfill", h.FulfillOrderHandler)
			r.Post("/orders/{orderId}/cancel", h.CancelOrderHandler)

			// connections
			r.Post("/connections", h.RequestConnectionHandler)
			r.Get("/connections", h.GetConnectionsHandler)
			r.Post("/connections/{connectionId}/accept", h.AcceptConnectionHandler)
			r.Post("/connections/{connectionId}/reject", h.RejectConnectionHandler)
			r.Post("/connections/{connectionId}/block", h.BlockConnectionHandler)
		})
	})
	return r
}

// requestLogger logs one line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	})
}

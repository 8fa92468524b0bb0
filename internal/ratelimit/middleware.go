package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"procurelink/internal/apierror"
	"procurelink/internal/auth"
)

// KeyFunc extracts the identity to count a request against. ok=false skips
// limiting for the request.
type KeyFunc func(r *http.Request) (key string, ok bool)

// ByIP keys on the client address; mount after middleware.RealIP.
func ByIP(r *http.Request) (string, bool) {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host, host != ""
}

// ByUser keys on the authenticated subject.
func ByUser(r *http.Request) (string, bool) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		return "", false
	}
	return id.String(), true
}

// Middleware limits requests per key. Backend errors let the request through.
func Middleware(l Limiter, cfg Config, key KeyFunc, prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := key(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			res, err := l.Check(r.Context(), prefix+":"+id, cfg)
			if err != nil {
				log.Warn().Err(err).Str("limiter", prefix).Msg("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", res.ResetAt.UTC().Format(time.RFC3339))
			if !res.Allowed {
				retry := int(math.Ceil(res.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.Itoa(retry))
				apierror.Write(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"address-book/pkg/logging"
)

// RequestIDHeader carries the correlation id in both directions.
const RequestIDHeader = "X-Request-ID"

// requestID reuses a client-supplied X-Request-ID or mints a UUID, echoes it
// back and stores it in the request context for the logger.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// accessLog logs one line per request after it completes.
func accessLog(log *logging.ComponentLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			log.Ctx(r.Context()).Debug("request",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.String("client_ip", clientIP(r)))
		})
	}
}

// clientIP extracts the real client IP from the request.
// Handles X-Forwarded-For and X-Real-IP headers for reverse proxy scenarios
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

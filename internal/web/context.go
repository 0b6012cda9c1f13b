package web

import (
	"net"
	"net/http"

	"github.com/JonMunkholm/csvmaps/internal/audit"
)

// requestMetadata stores the client IP and User-Agent for audit entries.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithRequestInfo(r.Context(), clientIP(r), r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP strips the port from RemoteAddr, which TrustedRealIP has already
// resolved.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// AdminAuth guards admin endpoints with a single bearer token checked
// against a bcrypt hash (generated with cmd/admin-token). An empty hash
// disables the endpoints entirely; config validation rejects that in
// production.
func AdminAuth(tokenHash string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				writeAuthError(w, http.StatusForbidden, "Forbidden", "Admin endpoints are disabled")
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized", "Missing or malformed Authorization header")
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
				slog.Warn("admin auth rejected",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("remote_addr", r.RemoteAddr),
				)
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized", "Invalid admin token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"type":"https://deeptown-tracker.matesxs.dev/errors/unauthorized","title":"` + title + `","status":` + statusString(status) + `,"detail":"` + detail + `"}`))
}

func statusString(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "401"
	case http.StatusForbidden:
		return "403"
	default:
		return "500"
	}
}

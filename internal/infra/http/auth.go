package http

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// AdminAuthMiddleware проверяет заголовок Authorization: Bearer <token>.
// Пустой token отключает проверку.
func AdminAuthMiddleware(token string) func(http.Handler) http.Handler {
	expected := sha256.Sum256([]byte(token))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			header := r.Header.Get("Authorization")
			provided, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || provided == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
			got := sha256.Sum256([]byte(provided))
			if subtle.ConstantTimeCompare(got[:], expected[:]) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID возвращает request ID из контекста chi.
func RequestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

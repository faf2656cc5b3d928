package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"net/http"
	"strings"
)

// TokenAuthMiddleware пропускает запросы с заголовком "Authorization: Bearer <token>".
// Пустой token отключает проверку.
func TokenAuthMiddleware(token string) func(http.Handler) http.Handler {
	expected := sha256.Sum256([]byte(token))
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, "token отсутствует", "")
				return
			}
			sum := sha256.Sum256([]byte(got))
			if !hmac.Equal(sum[:], expected[:]) {
				writeError(w, http.StatusUnauthorized, "token недействителен", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, value, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

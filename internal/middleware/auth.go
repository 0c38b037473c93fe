package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vidstream/backend/internal/auth"
)

// TokenVerifier validates a bearer access token and returns the user id it
// was issued to.
type TokenVerifier interface {
	Verify(accessToken string) (string, error)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// RequireUser rejects requests that do not carry a valid access token and
// stores the authenticated user id on the request context.
func RequireUser(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w, "authentication required")
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				unauthorized(w, "invalid or expired access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalUser attaches the user id when a valid access token is present and
// lets anonymous or invalid-token requests through unchanged. Read-only
// endpoints use it so engagement flags reflect the viewer when known.
func OptionalUser(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if userID, err := verifier.Verify(token); err == nil {
					r = r.WithContext(auth.WithUserID(r.Context(), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": http.StatusUnauthorized,
		"message":    message,
		"success":    false,
	})
}

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Kohanchuk66/anime-back/internal/auth"
	"github.com/Kohanchuk66/anime-back/internal/models"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity returns the verified claims attached by RequireAuth or
// OptionalAuth, or nil for anonymous requests.
func Identity(ctx context.Context) *auth.IdentityClaims {
	claims, _ := ctx.Value(identityKey).(*auth.IdentityClaims)
	return claims
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RequireAuth verifies the bearer access token and attaches the identity to
// the request context. Expired tokens are distinguished from invalid ones so
// clients know to refresh rather than re-login.
func RequireAuth(issuer *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Message: "Неавторизовано, ви повинні виконати вхід!"})
				return
			}
			claims, err := issuer.VerifyAccessToken(token)
			if err != nil {
				if err == auth.ErrTokenExpired {
					writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Message: "Токен доступу застарів, оновіть сесію!"})
					return
				}
				writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Message: "Токен доступу недійсний!"})
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches an identity when a valid bearer token is present and
// proceeds anonymously otherwise. Read endpoints use it to personalize
// output without demanding a login.
func OptionalAuth(issuer *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if claims, err := issuer.VerifyAccessToken(token); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), identityKey, claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects authenticated callers whose role is not in the allowed
// set. It must run after RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := Identity(r.Context())
			if claims == nil {
				writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Message: "Неавторизовано, ви повинні виконати вхід!"})
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				writeJSON(w, http.StatusForbidden, models.ErrorResponse{Message: "Недостатньо прав для виконання цієї дії!"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package auth

import (
	"context"
	"net/http"
	"strings"
)

// FrontTokenCookie is the cookie carrying the front client's session
// token.
const FrontTokenCookie = "front-token"

type claimsContextKey struct{}

// ClaimsFromContext returns the access claims attached by the token
// guard, or false when the request was not guarded.
func ClaimsFromContext(ctx context.Context) (*AccessClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*AccessClaims)
	return claims, ok
}

// RequireToken is the token guard middleware. It extracts the session
// token from the Authorization bearer header or, failing that, the
// front-token cookie (the header wins when both are present), verifies
// it, and attaches the claims to the request context. Any verification
// failure stops the request with a uniform unauthorized response; the
// guarded handler is never invoked.
func RequireToken(verifier *LocalTokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if cookie, err := r.Cookie(FrontTokenCookie); err == nil {
					token = cookie.Value
				}
			}
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

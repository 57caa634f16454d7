package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"

	"github.com/famledger/famledger/internal/access"
	"github.com/famledger/famledger/internal/models"
	"github.com/famledger/famledger/internal/services"
	"github.com/famledger/famledger/internal/utils"
)

// AuthMiddleware checks for a valid JWT token and adds its claims to
// the request context. Tokens arrive in the Authorization header or,
// for WebSocket upgrades, in a token query parameter.
func AuthMiddleware(jwtSecretKey []byte, auth services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Parse and validate the token
			claims := &models.Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return jwtSecretKey, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Signed-out tokens stay invalid until they expire
			if auth != nil && auth.IsTokenRevoked(r.Context(), claims.Id) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := utils.SetClaimsToContext(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// AccessMiddleware gates data routes on the caller's resolved access
// state: only admin and approved principals pass. Everyone else gets
// the state back in the error body so the client can explain why.
func AccessMiddleware(resolver *access.Resolver, users services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := ResolveRequest(r, resolver, users)
			if !state.Allowed() {
				if state == access.StatusNoAuth {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				http.Error(w, "Access "+string(state), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminMiddleware restricts a route to the administrator identity.
func AdminMiddleware(resolver *access.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := utils.GetClaimsFromContext(r.Context())
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			identity := &access.Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}
			if !resolver.IsAdmin(identity) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ResolveRequest evaluates the caller's access state from the request
// context. The profile is re-read on every call so admin decisions
// and expiry take effect without re-login.
func ResolveRequest(r *http.Request, resolver *access.Resolver, users services.UserService) access.Status {
	claims, err := utils.GetClaimsFromContext(r.Context())
	if err != nil {
		return access.StatusNoAuth
	}
	identity := &access.Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}
	return resolver.ResolveFresh(identity, users)
}

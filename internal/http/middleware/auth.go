package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/memestream/memestream-service/internal/utils/jwt"
	"github.com/memestream/memestream-service/internal/utils/response"
)

type contextKey string

const UserIDKey contextKey = "userID"

// AuthMiddleware validates the bearer token and injects the user id into the
// request context. Signature and expiry are checked separately so an
// authentic-but-expired token gets its own message.
//
// The session ledger is deliberately not consulted here: logout flips the
// session row, but an already-issued token stays usable until it expires.
// Enforcing revocation would cost a DB lookup on every authenticated call.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("Authorization header required")))
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("Invalid authorization header format")))
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == "" {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("Token not provided")))
				return
			}

			claims, err := jwt.DecodeToken(token, jwtSecret)
			if err != nil {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("Invalid token")))
				return
			}

			if claims.ExpiresAt < time.Now().Unix() {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("Token expired")))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext extracts the authenticated user id set by AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	// OwnerScopeKey holds the per-user partition key under which all of a
	// user's products are stored and queried.
	OwnerScopeKey contextKey = "owner_scope"
)

// DeviceIDHeader identifies an anonymous session. The client generates a
// stable random id once and sends it on every request.
const DeviceIDHeader = "X-Device-ID"

// OwnerScopeMiddleware resolves the request's owner scope before any
// repository call is made. A valid bearer token maps to the authenticated
// user; when anonymous sessions are allowed, a device id is an acceptable
// fallback identity. Requests with neither are rejected.
func OwnerScopeMiddleware(jwtSecret string, allowAnonymous bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")

			if authHeader != "" {
				scope, ok := resolveTokenScope(w, authHeader, jwtSecret, logger)
				if !ok {
					return
				}
				next.ServeHTTP(w, r.WithContext(withOwnerScope(r.Context(), scope)))
				return
			}

			if allowAnonymous {
				if deviceID := strings.TrimSpace(r.Header.Get(DeviceIDHeader)); deviceID != "" {
					scope := "anon:" + deviceID
					next.ServeHTTP(w, r.WithContext(withOwnerScope(r.Context(), scope)))
					return
				}
			}

			logger.Debug("Request carries no identity",
				zap.Bool("anonymous_allowed", allowAnonymous),
			)
			RespondWithError(w, http.StatusUnauthorized, "missing authorization")
		})
	}
}

func resolveTokenScope(w http.ResponseWriter, authHeader, jwtSecret string, logger *zap.Logger) (string, bool) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		logger.Debug("Invalid authorization header format")
		RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
		return "", false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})

	if err != nil {
		logger.Debug("Token validation failed", zap.Error(err))
		if err == jwt.ErrTokenExpired {
			RespondWithError(w, http.StatusUnauthorized, "token expired")
		} else {
			RespondWithError(w, http.StatusUnauthorized, "invalid token")
		}
		return "", false
	}

	if !token.Valid {
		RespondWithError(w, http.StatusUnauthorized, "invalid token")
		return "", false
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		logger.Debug("Token has no subject claim", zap.Error(err))
		RespondWithError(w, http.StatusUnauthorized, "invalid token")
		return "", false
	}

	return "user:" + subject, true
}

func withOwnerScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, OwnerScopeKey, scope)
}

// GetOwnerScope extracts the resolved owner scope from the request context.
func GetOwnerScope(ctx context.Context) (string, bool) {
	scope, ok := ctx.Value(OwnerScopeKey).(string)
	return scope, ok && scope != ""
}

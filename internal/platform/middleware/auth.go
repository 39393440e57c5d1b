package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// OfficerClaims carries the identity asserted by the platform's auth service.
type OfficerClaims struct {
	OfficerID string
	Roles     []string
}

// Validator validates bearer tokens issued by the platform.
type Validator interface {
	ValidateToken(tokenString string) (*OfficerClaims, error)
}

type contextKeyOfficerID struct{}
type contextKeyRoles struct{}

// Exported for use in handlers.
var (
	ContextKeyOfficerID = contextKeyOfficerID{}
	ContextKeyRoles     = contextKeyRoles{}
)

// GetOfficerID retrieves the authenticated officer ID from the context.
func GetOfficerID(ctx context.Context) string {
	id, ok := ctx.Value(ContextKeyOfficerID).(string)
	if !ok {
		return ""
	}
	return id
}

// GetRoles retrieves the authenticated officer's roles from the context.
func GetRoles(ctx context.Context) []string {
	roles, ok := ctx.Value(ContextKeyRoles).([]string)
	if !ok {
		return nil
	}
	return roles
}

// JWTValidator validates HMAC-signed tokens with the shared platform key.
type JWTValidator struct {
	signingKey []byte
}

func NewJWTValidator(signingKey string) *JWTValidator {
	return &JWTValidator{signingKey: []byte(signingKey)}
}

type officerJWTClaims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func (v *JWTValidator) ValidateToken(tokenString string) (*OfficerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &officerJWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*officerJWTClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return &OfficerClaims{OfficerID: claims.Subject, Roles: claims.Roles}, nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// officer identity in the request context.
func RequireAuth(validator Validator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			const bearerPrefix = "Bearer "
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, ContextKeyOfficerID, claims.OfficerID)
			ctx = context.WithValue(ctx, ContextKeyRoles, claims.Roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}

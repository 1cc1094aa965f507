package appMiddleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/go-poi-walks/internal/api"
)

type contextKey string

const (
	UserIDKey   contextKey = "userID"
	UserRoleKey contextKey = "userRole"
)

// RoleAdmin may ingest places.
const RoleAdmin = "admin"

// Claims carried by access tokens. Tokens are issued outside this service.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// MinSecretBytes is the shortest HMAC secret Authenticate will serve.
const MinSecretBytes = 32

var placeholderSecrets = []string{"change-me", "changeme", "secret", "your-secret-key"}

// ErrWeakSecret is returned by CheckSecret for empty, placeholder or short secrets.
var ErrWeakSecret = errors.New("jwt secret is empty, a placeholder or shorter than 32 bytes")

// CheckSecret reports whether secret is fit to verify admin tokens.
func CheckSecret(secret string) error {
	if len(secret) < MinSecretBytes {
		return ErrWeakSecret
	}
	for _, p := range placeholderSecrets {
		if strings.EqualFold(secret, p) {
			return ErrWeakSecret
		}
	}
	return nil
}

// leeway absorbs clock skew between the token issuer and this service.
const leeway = 30 * time.Second

// Authenticate validates the Bearer token against secret and stores the
// user id and role in the request context. Only HMAC signed tokens are
// accepted and every failure is a 401. An empty secret rejects every token.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithLeeway(leeway),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (interface{}, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(secret) == 0 {
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication is not configured")
				return
			}

			raw, err := bearerToken(r)
			if err != nil {
				api.ErrorResponse(w, r, http.StatusUnauthorized, err.Error())
				return
			}

			claims := &Claims{}
			if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
				slog.DebugContext(r.Context(), "Rejected access token", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("authorization header required")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("authorization header format must be Bearer {token}")
	}
	return strings.TrimSpace(token), nil
}

// RequireRole rejects requests whose authenticated role differs from role.
// It must run after Authenticate.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := GetUserRoleFromContext(r.Context())
			if !ok || got != role {
				api.ErrorResponse(w, r, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}

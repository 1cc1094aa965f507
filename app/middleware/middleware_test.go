package appMiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-poi-walks/config"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, role string, expiresIn time.Duration) string {
	t.Helper()
	claims := Claims{
		UserID: "user-1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func unsignedToken(t *testing.T) string {
	t.Helper()
	claims := Claims{UserID: "user-1", Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	s, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return s
}

func noExpiryToken(t *testing.T) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "user-1", Role: RoleAdmin}).SignedString(testSecret)
	require.NoError(t, err)
	return s
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	var gotUser string
	protected := Authenticate(testSecret)(RequireRole(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "no header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", want: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + signToken(t, []byte("other"), RoleAdmin, time.Hour), want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + signToken(t, testSecret, RoleAdmin, -time.Hour), want: http.StatusUnauthorized},
		{name: "unsigned token", header: "Bearer " + unsignedToken(t), want: http.StatusUnauthorized},
		{name: "no expiry", header: "Bearer " + noExpiryToken(t), want: http.StatusUnauthorized},
		{name: "expired within leeway", header: "Bearer " + signToken(t, testSecret, RoleAdmin, -10*time.Second), want: http.StatusNoContent},
		{name: "not admin", header: "Bearer " + signToken(t, testSecret, "user", time.Hour), want: http.StatusForbidden},
		{name: "admin", header: "Bearer " + signToken(t, testSecret, RoleAdmin, time.Hour), want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/places", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Equal(t, "user-1", gotUser)
}

func TestCheckSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{name: "empty", secret: "", wantErr: true},
		{name: "placeholder", secret: "change-me", wantErr: true},
		{name: "short", secret: "0123456789abcdef", wantErr: true},
		{name: "long placeholder-free", secret: "k3Yq9vLx2PzR7tWm4NcB8hJd6FsG1aUe", wantErr: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSecret(tt.secret)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrWeakSecret)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheckSecret_EmbeddedConfigDefault(t *testing.T) {
	cfg, err := config.InitConfig()
	require.NoError(t, err)
	if cfg.Auth.JWTSecret != "" {
		t.Skip("AUTH_JWT_SECRET set in the environment")
	}
	assert.ErrorIs(t, CheckSecret(cfg.Auth.JWTSecret), ErrWeakSecret)
}

func TestAuthenticate_EmptySecretRejectsEverything(t *testing.T) {
	called := false
	protected := Authenticate(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	for _, secret := range [][]byte{[]byte("change-me"), testSecret} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/walks/recent", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, secret, RoleAdmin, time.Hour))
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	assert.False(t, called)
}

package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appMiddleware "github.com/FACorreiaa/go-poi-walks/app/middleware"
	"github.com/FACorreiaa/go-poi-walks/internal/api/places"
	"github.com/FACorreiaa/go-poi-walks/internal/api/recents"
	"github.com/FACorreiaa/go-poi-walks/internal/api/walk"
	"github.com/FACorreiaa/go-poi-walks/internal/types"
)

type stubWalks struct{}

func (stubWalks) PlanWalk(context.Context, types.WalkRequest) (*types.WalkResponse, error) {
	return &types.WalkResponse{WalkingPath: []types.PlaceResponse{}, Explanation: []string{types.NoMatchMessage}}, nil
}

type stubPlaces struct{}

func (stubPlaces) IngestPlaces(_ context.Context, in []types.PlaceInput) (*types.IngestPlacesResponse, error) {
	return &types.IngestPlacesResponse{Ingested: len(in), IDs: []int{in[0].ID}}, nil
}

type stubRecents struct{}

func (stubRecents) GetRecentWalks(context.Context, int) (*types.RecentWalksResponse, error) {
	return &types.RecentWalksResponse{Walks: []types.WalkInteraction{}}, nil
}

var testSecret = []byte("router-test-secret")

func newTestRouter(requests int) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return SetupRouter(&Config{
		WalkHandler:            walk.NewHandler(stubWalks{}, logger),
		PlacesHandler:          places.NewHandler(stubPlaces{}, logger),
		RecentsHandler:         recents.NewHandler(stubRecents{}, logger),
		AuthenticateMiddleware: appMiddleware.Authenticate(testSecret),
		RateLimitRequests:      requests,
		RateLimitWindow:        time.Minute,
	})
}

func token(t *testing.T, role string) string {
	t.Helper()
	claims := appMiddleware.Claims{
		UserID: "u-1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return s
}

const walkBody = `{"prompt":"quiet park","time_for_walk":1,"latitude":56.3,"longitude":44.0}`

func TestSetupRouter_Ping(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestSetupRouter_WalkRateLimit(t *testing.T) {
	r := newTestRouter(3)

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/walks", strings.NewReader(walkBody))
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// A different client keeps its own budget.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/walks", strings.NewReader(walkBody))
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetupRouter_AdminPlaces(t *testing.T) {
	body := `{"places":[{"id":7,"title":"Museum","description":"Old tanks","latitude":56.3,"longitude":44.0}]}`

	tests := []struct {
		name       string
		auth       string
		wantStatus int
	}{
		{name: "no token", auth: "", wantStatus: http.StatusUnauthorized},
		{name: "not admin", auth: "Bearer " + token(t, "user"), wantStatus: http.StatusForbidden},
		{name: "admin", auth: "Bearer " + token(t, appMiddleware.RoleAdmin), wantStatus: http.StatusCreated},
	}

	r := newTestRouter(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/places", strings.NewReader(body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestSetupRouter_AdminRecentWalks(t *testing.T) {
	r := newTestRouter(0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/walks/recent", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/walks/recent?limit=5", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, appMiddleware.RoleAdmin))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetupRouter_AdminRoutesUnmountedWithoutAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := SetupRouter(&Config{
		WalkHandler:    walk.NewHandler(stubWalks{}, logger),
		PlacesHandler:  places.NewHandler(stubPlaces{}, logger),
		RecentsHandler: recents.NewHandler(stubRecents{}, logger),
	})

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/admin/places"},
		{http.MethodGet, "/api/v1/admin/walks/recent"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader("[]"))
		req.Header.Set("Authorization", "Bearer "+token(t, appMiddleware.RoleAdmin))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
	}
}

func TestSetupRouter_UnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/walks", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

package walk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-poi-walks/internal/types"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) PlanWalk(ctx context.Context, req types.WalkRequest) (*types.WalkResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*types.WalkResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestHandler() (*Handler, *MockService) {
	svc := new(MockService)
	return NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil))), svc
}

func postWalk(h *Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/walks", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.PlanWalk(rec, req)
	return rec
}

func TestHandler_PlanWalk(t *testing.T) {
	validBody := `{"prompt":"beer and old tanks","time_for_walk":5,"latitude":14.88,"longitude":88.41}`

	t.Run("success", func(t *testing.T) {
		h, svc := newTestHandler()
		walkingTime := 42
		svc.On("PlanWalk", mock.Anything, mock.MatchedBy(func(r types.WalkRequest) bool {
			return r.Prompt == "beer and old tanks" && r.TimeForWalk == 5 && *r.Latitude == 14.88 && *r.Longitude == 88.41
		})).Return(&types.WalkResponse{
			WalkingTime:   &walkingTime,
			BudgetMinutes: 300,
			WalkingPath:   []types.PlaceResponse{{ID: 3, Title: "Brewery", Description: "Craft beer"}},
			Explanation:   []string{"For your request, the brewery fits."},
		}, nil).Once()

		rec := postWalk(h, validBody)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		for _, key := range []string{"walking_time", "walking_path", "explanation"} {
			assert.Contains(t, body, key)
		}
		assert.Equal(t, float64(42), body["walking_time"])
		svc.AssertExpectations(t)
	})

	t.Run("no match keeps walking_time null", func(t *testing.T) {
		h, svc := newTestHandler()
		svc.On("PlanWalk", mock.Anything, mock.Anything).Return(&types.WalkResponse{
			BudgetMinutes: 300,
			WalkingPath:   []types.PlaceResponse{},
			Explanation:   []string{types.NoMatchMessage},
		}, nil)

		rec := postWalk(h, validBody)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"walking_time":null`)
		assert.Contains(t, rec.Body.String(), `"walking_path":[]`)
		assert.Contains(t, rec.Body.String(), types.NoMatchMessage)
	})

	invalid := []struct {
		name string
		body string
	}{
		{name: "time_for_walk is not a number", body: `{"prompt":"x","time_for_walk":"Gool","latitude":14.88,"longitude":88.41}`},
		{name: "latitude is not a number", body: `{"prompt":"x","time_for_walk":5,"latitude":"Slots","longitude":88.41}`},
		{name: "prompt too long", body: fmt.Sprintf(`{"prompt":%q,"time_for_walk":5,"latitude":14.88,"longitude":88.41}`, strings.Repeat("Tank", 51))},
		{name: "prompt missing", body: `{"time_for_walk":5,"latitude":14.88,"longitude":88.41}`},
		{name: "prompt blank", body: `{"prompt":"   ","time_for_walk":5,"latitude":14.88,"longitude":88.41}`},
		{name: "time_for_walk above 24", body: `{"prompt":"x","time_for_walk":25,"latitude":14.88,"longitude":88.41}`},
		{name: "time_for_walk zero", body: `{"prompt":"x","time_for_walk":0,"latitude":14.88,"longitude":88.41}`},
		{name: "latitude out of range", body: `{"prompt":"x","time_for_walk":5,"latitude":91,"longitude":88.41}`},
		{name: "longitude out of range", body: `{"prompt":"x","time_for_walk":5,"latitude":14.88,"longitude":-181}`},
		{name: "longitude missing", body: `{"prompt":"x","time_for_walk":5,"latitude":14.88}`},
		{name: "unknown field", body: `{"prompt":"x","time_for_walk":5,"latitude":14.88,"longitude":88.41,"city":"NN"}`},
		{name: "empty body", body: ``},
	}
	for _, tc := range invalid {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			h, svc := newTestHandler()
			rec := postWalk(h, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			svc.AssertNotCalled(t, "PlanWalk", mock.Anything, mock.Anything)
		})
	}

	t.Run("zero coordinates are valid", func(t *testing.T) {
		h, svc := newTestHandler()
		svc.On("PlanWalk", mock.Anything, mock.Anything).Return(&types.WalkResponse{WalkingPath: []types.PlaceResponse{}, Explanation: []string{}}, nil)

		rec := postWalk(h, `{"prompt":"x","time_for_walk":1,"latitude":0,"longitude":0}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	failures := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "embedding", err: fmt.Errorf("%w: boom", ErrEmbeddingFailed), wantStatus: http.StatusInternalServerError},
		{name: "search", err: fmt.Errorf("%w: boom", ErrSearchFailed), wantStatus: http.StatusInternalServerError},
		{name: "explanation", err: fmt.Errorf("%w: boom", ErrExplanationFailed), wantStatus: http.StatusInternalServerError},
		{name: "breaker open", err: fmt.Errorf("%w: %w", ErrEmbeddingFailed, gobreaker.ErrOpenState), wantStatus: http.StatusServiceUnavailable},
		{name: "deadline", err: fmt.Errorf("plan walk: %w", context.DeadlineExceeded), wantStatus: http.StatusGatewayTimeout},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}
	for _, tc := range failures {
		t.Run("maps "+tc.name+" failure", func(t *testing.T) {
			h, svc := newTestHandler()
			svc.On("PlanWalk", mock.Anything, mock.Anything).Return(nil, tc.err)

			rec := postWalk(h, validBody)
			assert.Equal(t, tc.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.NotContains(t, body["error"], "boom")
		})
	}
}

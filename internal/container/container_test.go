package container

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-poi-walks/config"
	"github.com/FACorreiaa/go-poi-walks/internal/planner"
)

type stubClient struct{}

func (stubClient) GenerateContent(context.Context, string, *genai.GenerateContentConfig) (string, error) {
	return "fits", nil
}

func (stubClient) EmbedContent(_ context.Context, _, _ string, dim int) ([]float32, error) {
	return make([]float32, dim), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.InitConfig()
	require.NoError(t, err)
	return &cfg
}

func TestNewOptimizer(t *testing.T) {
	t.Run("missing assets fall back to zero tables", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Assets.TravelTimesPath = filepath.Join(t.TempDir(), "absent.json")
		cfg.Assets.DwellTimesPath = filepath.Join(t.TempDir(), "absent.csv")
		cfg.Assets.MatrixDim = 3

		o := NewOptimizer(context.Background(), cfg, testLogger())
		require.NotNil(t, o)

		score, duration := o.Evaluate([]planner.Candidate{{ID: 0}, {ID: 2}}, planner.Point{})
		assert.Equal(t, 0.0, duration)
		assert.Equal(t, 0.0, score)
	})

	t.Run("loads tables and planner settings", func(t *testing.T) {
		dir := t.TempDir()
		travel := filepath.Join(dir, "travel.json")
		dwell := filepath.Join(dir, "dwell.csv")
		require.NoError(t, os.WriteFile(travel, []byte(`[[0,600],[600,0]]`), 0o600))
		require.NoError(t, os.WriteFile(dwell, []byte("id,title,time\n0,a,15\n1,b,30\n"), 0o600))

		cfg := testConfig(t)
		cfg.Assets.TravelTimesPath = travel
		cfg.Assets.DwellTimesPath = dwell
		cfg.Assets.MatrixDim = 2
		cfg.Planner.MaxStops = 3
		cfg.Planner.SlackMinutes = 0
		cfg.Planner.TieBreak = string(planner.TieBreakDuration)

		o := NewOptimizer(context.Background(), cfg, testLogger())

		assert.Equal(t, planner.Config{MaxStops: 3, MaxShift: 4, Slack: 0, TieBreak: planner.TieBreakDuration}, o.Config())
		_, duration := o.Evaluate([]planner.Candidate{{ID: 0, Latitude: 0, Longitude: 0}, {ID: 1, Latitude: 0, Longitude: 0}}, planner.Point{})
		assert.Equal(t, 55.0, duration)
	})
}

func TestNewContainer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Assets.TravelTimesPath = filepath.Join(t.TempDir(), "absent.json")
	cfg.Assets.DwellTimesPath = filepath.Join(t.TempDir(), "absent.csv")

	c := newContainer(context.Background(), cfg, nil, stubClient{}, testLogger())

	assert.NotNil(t, c.WalkHandler)
	assert.NotNil(t, c.PlacesHandler)
	assert.NotNil(t, c.PlacesService)
	assert.NotNil(t, c.RecentsHandler)
	assert.Equal(t, cfg.Planner.MaxStops, c.Optimizer.Config().MaxStops)
	c.Close()
}

func TestNewContainer_RequiresAPIKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.APIKey = ""

	_, err := NewContainer(context.Background(), cfg, nil, testLogger())
	assert.Error(t, err)
}

func TestNewOptimizer_OriginEstimator(t *testing.T) {
	cfg := testConfig(t)
	cfg.Assets.TravelTimesPath = filepath.Join(t.TempDir(), "absent.json")
	cfg.Assets.DwellTimesPath = filepath.Join(t.TempDir(), "absent.csv")
	cfg.Assets.MatrixDim = 1

	from := planner.Point{Lat: 56.3284, Lon: 44.0025}
	stop := []planner.Candidate{{ID: 0, Latitude: 56.3183, Longitude: 43.9951}}

	cfg.Planner.OriginEstimator = "haversine"
	_, haversine := NewOptimizer(context.Background(), cfg, testLogger()).Evaluate(stop, from)

	cfg.Planner.OriginEstimator = "unknown"
	_, fallback := NewOptimizer(context.Background(), cfg, testLogger()).Evaluate(stop, from)

	planar := planner.NewPlanarEstimator(cfg.Planner.MetersPerMinute).Minutes(from, stop[0].Location())
	assert.InDelta(t, planar, fallback, 1e-9)
	assert.Less(t, haversine, fallback)
}

func TestNewOptimizer_UnknownTieBreak(t *testing.T) {
	cfg := testConfig(t)
	cfg.Assets.TravelTimesPath = filepath.Join(t.TempDir(), "absent.json")
	cfg.Assets.DwellTimesPath = filepath.Join(t.TempDir(), "absent.csv")
	cfg.Assets.MatrixDim = 1
	cfg.Planner.TieBreak = "durration"

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	o := NewOptimizer(context.Background(), cfg, logger)
	assert.Equal(t, planner.TieBreakFirstFound, o.Config().TieBreak)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "Unknown tie-break rule")
	assert.Contains(t, buf.String(), "tie_break=durration")
}

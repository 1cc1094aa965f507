package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := InitConfig()
		require.NoError(t, err)

		assert.Equal(t, 5, cfg.Planner.MaxStops)
		assert.Equal(t, 4, cfg.Planner.MaxShift)
		assert.Equal(t, 1.0, cfg.Planner.SlackMinutes)
		assert.Equal(t, 258, cfg.Assets.MatrixDim)
		assert.Equal(t, 10, cfg.Search.TopK)
		assert.Equal(t, time.Second, cfg.RateLimit.Window)
		assert.Equal(t, 60.0, cfg.BudgetMinutesPerUnit())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PLANNER_SLACK_MINUTES", "60")
		t.Setenv("PLANNER_BUDGET_UNIT", "minutes")
		t.Setenv("GOOGLE_GEMINI_API_KEY", "secret")

		cfg, err := InitConfig()
		require.NoError(t, err)
		assert.Equal(t, 60.0, cfg.Planner.SlackMinutes)
		assert.Equal(t, 1.0, cfg.BudgetMinutesPerUnit())
		assert.Equal(t, "secret", cfg.LLM.APIKey)
	})
}

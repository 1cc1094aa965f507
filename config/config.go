package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Assets struct {
		TravelTimesPath string `mapstructure:"travel_times_path"`
		DwellTimesPath  string `mapstructure:"dwell_times_path"`
		MatrixDim       int    `mapstructure:"matrix_dim"`
	} `mapstructure:"assets"`
	Planner struct {
		MaxStops        int     `mapstructure:"max_stops"`
		MaxShift        int     `mapstructure:"max_shift"`
		SlackMinutes    float64 `mapstructure:"slack_minutes"`
		MetersPerMinute float64 `mapstructure:"meters_per_minute"`
		OriginEstimator string  `mapstructure:"origin_estimator"`
		BudgetUnit      string  `mapstructure:"budget_unit"`
		TieBreak        string  `mapstructure:"tie_break"`
	} `mapstructure:"planner"`
	Search struct {
		TopK int `mapstructure:"top_k"`
	} `mapstructure:"search"`
	LLM struct {
		APIKey         string        `mapstructure:"api_key"`
		Model          string        `mapstructure:"model"`
		EmbeddingModel string        `mapstructure:"embedding_model"`
		EmbeddingDim   int           `mapstructure:"embedding_dim"`
		MaxConcurrency int           `mapstructure:"max_concurrency"`
		CacheTTL       time.Duration `mapstructure:"cache_ttl"`
		Breaker        struct {
			FailureThreshold uint32        `mapstructure:"failure_threshold"`
			Timeout          time.Duration `mapstructure:"timeout"`
		} `mapstructure:"breaker"`
	} `mapstructure:"llm"`
	RateLimit struct {
		Requests int           `mapstructure:"requests"`
		Window   time.Duration `mapstructure:"window"`
	} `mapstructure:"rate_limit"`
	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
	} `mapstructure:"auth"`
}

// BudgetMinutesPerUnit converts the request's time_for_walk into minutes.
func (c Config) BudgetMinutesPerUnit() float64 {
	if strings.EqualFold(c.Planner.BudgetUnit, "minutes") {
		return 1
	}
	return 60
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// PLANNER_SLACK_MINUTES overrides planner.slack_minutes, and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

// bindEnv registers the keys most often overridden in deployments. Unmarshal
// only sees environment values for keys viper already knows about.
func bindEnv(v *viper.Viper) {
	keys := []string{
		"repositories.postgres.host",
		"repositories.postgres.port",
		"repositories.postgres.username",
		"repositories.postgres.password",
		"repositories.postgres.db",
		"assets.travel_times_path",
		"assets.dwell_times_path",
		"planner.slack_minutes",
		"planner.budget_unit",
		"planner.origin_estimator",
		"llm.model",
		"llm.embedding_model",
		"auth.jwt_secret",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	_ = v.BindEnv("llm.api_key", "GOOGLE_GEMINI_API_KEY")
}

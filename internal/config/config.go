package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// TrackingConfig holds every decision threshold used by the progress
// analyzer and the calorie adjustment engine. All values are tunable
// without code changes; zero values fall back to the defaults below.
type TrackingConfig struct {
	PlateauEpsilonKg      float64 `json:"plateau_epsilon_kg"`       // default 0.2
	PlateauWeeks          int     `json:"plateau_weeks"`            // default 2
	OffTrackVarianceFrac  float64 `json:"off_track_variance_frac"`  // default 0.5
	SlowProgressFrac      float64 `json:"slow_progress_frac"`       // default 0.4
	MaintainToleranceKg   float64 `json:"maintain_tolerance_kg"`    // default 2.0
	TooFastKgPerWeek      float64 `json:"too_fast_kg_per_week"`     // default 1.0
	FastProgressFactor    float64 `json:"fast_progress_factor"`     // default 2.0
	PlateauDeltaKcal      int     `json:"plateau_delta_kcal"`       // default -100
	SlowProgressDeltaKcal int     `json:"slow_progress_delta_kcal"` // default -150
	TooFastDeltaKcal      int     `json:"too_fast_delta_kcal"`      // default +100
	MinCalories           int     `json:"min_calories"`             // default 1200
	SeniorAge             int     `json:"senior_age"`               // default 65
	SeniorBMRFactor       float64 `json:"senior_bmr_factor"`        // default 1.15
}

type NarrativeConfig struct {
	ModelURL       string `json:"model_url"`
	ModelName      string `json:"model_name"`
	TimeoutSeconds int    `json:"timeout_seconds"`  // default 8
	SessionTTLMin  int    `json:"session_ttl_min"`  // default 60
	MaxSessionMsgs int    `json:"max_session_msgs"` // default 20
}

type Config struct {
	Server struct {
		Host      string `json:"host"`
		Port      int    `json:"port"`
		Subpath   string `json:"subpath"`
		JWTSecret string `json:"jwtSecret"`
	} `json:"server"`
	Postgres struct {
		DSN string `json:"dsn"`
	} `json:"postgres"`
	Redis struct {
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	} `json:"redis"`
	Tracking  TrackingConfig  `json:"tracking"`
	Narrative NarrativeConfig `json:"narrative"`
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// LoadConfig reads config.json from disk (singleton)
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		raw, err := os.ReadFile(path)
		if err != nil {
			cfgErr = fmt.Errorf("failed to read config file: %w", err)
			return
		}
		var c Config
		if err := json.Unmarshal(raw, &c); err != nil {
			cfgErr = fmt.Errorf("invalid config format: %w", err)
			return
		}
		// Minimal validation
		if c.Server.JWTSecret == "" {
			cfgErr = errors.New("jwtSecret must be set in config")
			return
		}
		// Secrets may come from the environment instead of config.json
		if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
			c.Postgres.DSN = dsn
		}
		c.Tracking.ApplyDefaults()
		c.Narrative.ApplyDefaults()
		cfg = &c
	})
	return cfg, cfgErr
}

// GetConfig returns the loaded config (must call LoadConfig first)
func GetConfig() *Config {
	return cfg
}

// ApplyDefaults fills in the documented default for any threshold left zero.
func (t *TrackingConfig) ApplyDefaults() {
	if t.PlateauEpsilonKg == 0 {
		t.PlateauEpsilonKg = 0.2
	}
	if t.PlateauWeeks == 0 {
		t.PlateauWeeks = 2
	}
	if t.OffTrackVarianceFrac == 0 {
		t.OffTrackVarianceFrac = 0.5
	}
	if t.SlowProgressFrac == 0 {
		t.SlowProgressFrac = 0.4
	}
	if t.MaintainToleranceKg == 0 {
		t.MaintainToleranceKg = 2.0
	}
	if t.TooFastKgPerWeek == 0 {
		t.TooFastKgPerWeek = 1.0
	}
	if t.FastProgressFactor == 0 {
		t.FastProgressFactor = 2.0
	}
	if t.PlateauDeltaKcal == 0 {
		t.PlateauDeltaKcal = -100
	}
	if t.SlowProgressDeltaKcal == 0 {
		t.SlowProgressDeltaKcal = -150
	}
	if t.TooFastDeltaKcal == 0 {
		t.TooFastDeltaKcal = 100
	}
	if t.MinCalories == 0 {
		t.MinCalories = 1200
	}
	if t.SeniorAge == 0 {
		t.SeniorAge = 65
	}
	if t.SeniorBMRFactor == 0 {
		t.SeniorBMRFactor = 1.15
	}
}

func (n *NarrativeConfig) ApplyDefaults() {
	if n.TimeoutSeconds == 0 {
		n.TimeoutSeconds = 8
	}
	if n.SessionTTLMin == 0 {
		n.SessionTTLMin = 60
	}
	if n.MaxSessionMsgs == 0 {
		n.MaxSessionMsgs = 20
	}
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}

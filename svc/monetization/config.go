package monetization

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the engine's runtime configuration, loaded from environment
// variables with sane defaults for an on-device deployment.
type Config struct {
	// DataDir is where the entitlement and ad-frequency documents live.
	DataDir string `env:"MONETIZE_DATA_DIR" envDefault:"./data"`
	// TrialDays is the length of the free trial.
	TrialDays int `env:"MONETIZE_TRIAL_DAYS" envDefault:"7"`
	// AdRetentionDays controls pruning of stale ad placement records.
	AdRetentionDays int `env:"MONETIZE_AD_RETENTION_DAYS" envDefault:"30"`
	// RestoreCooldown throttles restore-purchase attempts.
	RestoreCooldown time.Duration `env:"MONETIZE_RESTORE_COOLDOWN" envDefault:"1h"`
	// PlacementsFile optionally overrides the built-in ad placement table.
	PlacementsFile string `env:"MONETIZE_PLACEMENTS_FILE"`
}

// LoadConfig reads the configuration from the environment, loading a .env
// file first when one exists.
func LoadConfig() (Config, error) {
	// The .env file is optional; absence is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	if cfg.TrialDays <= 0 {
		return Config{}, errors.Join(ErrInvalidConfig, errors.New("trial days must be positive"))
	}
	if cfg.RestoreCooldown <= 0 {
		return Config{}, errors.Join(ErrInvalidConfig, errors.New("restore cooldown must be positive"))
	}
	return cfg, nil
}

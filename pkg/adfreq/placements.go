package adfreq

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Format identifies how an ad placement renders.
type Format string

const (
	FormatBanner       Format = "banner"
	FormatInterstitial Format = "interstitial"
	FormatRewarded     Format = "rewarded"
)

// PlacementConfig is static, per-placement frequency configuration. It is
// configuration data, not user state: the mutable impression counters live
// in Record.
type PlacementConfig struct {
	ID                  string `yaml:"id"`
	Format              Format `yaml:"format"`
	MaxDailyImpressions int    `yaml:"max_daily_impressions"`
	MinIntervalMinutes  int    `yaml:"min_interval_minutes"`
}

// MinInterval returns the minimum spacing between impressions.
func (c PlacementConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMinutes) * time.Minute
}

type placementsFile struct {
	Placements []PlacementConfig `yaml:"placements"`
}

//go:embed placements.yaml
var defaultPlacementsYAML []byte

// DefaultPlacements returns the built-in placement table.
func DefaultPlacements() (map[string]PlacementConfig, error) {
	return parsePlacements(defaultPlacementsYAML)
}

// LoadPlacements reads a placement table from a YAML file, falling back to
// the built-in defaults when path is empty.
func LoadPlacements(path string) (map[string]PlacementConfig, error) {
	if path == "" {
		return DefaultPlacements()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidPlacementConfig, err)
	}
	return parsePlacements(data)
}

func parsePlacements(data []byte) (map[string]PlacementConfig, error) {
	var f placementsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Join(ErrInvalidPlacementConfig, err)
	}
	if len(f.Placements) == 0 {
		return nil, errors.Join(ErrInvalidPlacementConfig, errors.New("no placements defined"))
	}

	out := make(map[string]PlacementConfig, len(f.Placements))
	for _, p := range f.Placements {
		if p.ID == "" {
			return nil, errors.Join(ErrInvalidPlacementConfig, errors.New("placement without id"))
		}
		if p.MaxDailyImpressions <= 0 {
			return nil, errors.Join(ErrInvalidPlacementConfig,
				fmt.Errorf("placement %q: max_daily_impressions must be positive", p.ID))
		}
		if p.MinIntervalMinutes < 0 {
			return nil, errors.Join(ErrInvalidPlacementConfig,
				fmt.Errorf("placement %q: min_interval_minutes cannot be negative", p.ID))
		}
		if _, exists := out[p.ID]; exists {
			return nil, errors.Join(ErrInvalidPlacementConfig,
				fmt.Errorf("duplicate placement %q", p.ID))
		}
		out[p.ID] = p
	}
	return out, nil
}

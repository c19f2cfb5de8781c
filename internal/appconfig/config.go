package appconfig

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int          `mapstructure:"config_version" yaml:"config_version"`
	Box           BoxConfig    `mapstructure:"box" yaml:"box"`
	Font          FontConfig   `mapstructure:"font" yaml:"font"`
	Player        PlayerConfig `mapstructure:"player" yaml:"player"`
	Output        OutputConfig `mapstructure:"output" yaml:"output"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// BoxConfig sizes the dialogue box in measurer units.
type BoxConfig struct {
	Width         float64 `mapstructure:"width" yaml:"width"`
	Height        float64 `mapstructure:"height" yaml:"height"`
	ConfirmAction string  `mapstructure:"confirm_action" yaml:"confirm_action"`
	Turbo         bool    `mapstructure:"turbo" yaml:"turbo"`
}

// FontConfig selects the measurer. A positive Advance uses a monospace grid
// with LineHeight; otherwise Path is loaded at Size points.
type FontConfig struct {
	Path           string  `mapstructure:"path" yaml:"path"`
	Size           float64 `mapstructure:"size" yaml:"size"`
	Advance        float64 `mapstructure:"advance" yaml:"advance"`
	LineHeight     float64 `mapstructure:"line_height" yaml:"line_height"`
	LineSeparation float64 `mapstructure:"line_separation" yaml:"line_separation"`
}

// Monospace reports whether the font section describes a fixed grid.
func (f FontConfig) Monospace() bool { return f.Advance > 0 }

// PlayerConfig controls headless playback.
type PlayerConfig struct {
	TickMS            int `mapstructure:"tick_ms" yaml:"tick_ms"`
	SpeedMS           int `mapstructure:"speed_ms" yaml:"speed_ms"`
	ConfirmEveryTicks int `mapstructure:"confirm_every_ticks" yaml:"confirm_every_ticks"`
	MaxTicks          int `mapstructure:"max_ticks" yaml:"max_ticks"`
}

// Tick returns the tick interval.
func (p PlayerConfig) Tick() time.Duration { return time.Duration(p.TickMS) * time.Millisecond }

// Speed returns the default reveal interval of script text.
func (p PlayerConfig) Speed() time.Duration { return time.Duration(p.SpeedMS) * time.Millisecond }

// OutputConfig controls transcript output.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Dir    string `mapstructure:"dir" yaml:"dir"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Box: BoxConfig{
			Width:         120,
			Height:        20,
			ConfirmAction: "confirm",
		},
		Font: FontConfig{
			Path:           "embed:go-regular",
			Size:           12,
			LineHeight:     1,
			LineSeparation: 1,
		},
		Player: PlayerConfig{
			TickMS:            16,
			SpeedMS:           30,
			ConfirmEveryTicks: 30,
			MaxTicks:          100000,
		},
		Output: OutputConfig{
			Format: "json",
			Dir:    ".",
		},
	}
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "parley", "config.yaml"), nil
}

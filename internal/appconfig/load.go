package appconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("box.width", cfg.Box.Width)
	v.SetDefault("box.height", cfg.Box.Height)
	v.SetDefault("box.confirm_action", cfg.Box.ConfirmAction)
	v.SetDefault("box.turbo", cfg.Box.Turbo)
	v.SetDefault("font.path", cfg.Font.Path)
	v.SetDefault("font.size", cfg.Font.Size)
	v.SetDefault("font.advance", cfg.Font.Advance)
	v.SetDefault("font.line_height", cfg.Font.LineHeight)
	v.SetDefault("font.line_separation", cfg.Font.LineSeparation)
	v.SetDefault("player.tick_ms", cfg.Player.TickMS)
	v.SetDefault("player.speed_ms", cfg.Player.SpeedMS)
	v.SetDefault("player.confirm_every_ticks", cfg.Player.ConfirmEveryTicks)
	v.SetDefault("player.max_ticks", cfg.Player.MaxTicks)
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("output.dir", cfg.Output.Dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	} else {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values playback depends on.
func Validate(cfg Config) error {
	if cfg.Box.Width <= 0 || cfg.Box.Height <= 0 {
		return fmt.Errorf("box.width and box.height must be positive (got %gx%g)", cfg.Box.Width, cfg.Box.Height)
	}
	if cfg.Player.TickMS <= 0 {
		return fmt.Errorf("player.tick_ms must be positive (got %d)", cfg.Player.TickMS)
	}
	if cfg.Player.SpeedMS < 0 {
		return fmt.Errorf("player.speed_ms must not be negative (got %d)", cfg.Player.SpeedMS)
	}
	if cfg.Font.Monospace() {
		if cfg.Font.LineHeight <= 0 {
			return fmt.Errorf("font.line_height must be positive for a monospace font")
		}
	} else if cfg.Font.Size <= 0 {
		return fmt.Errorf("font.size must be positive (got %g)", cfg.Font.Size)
	}
	if cfg.Font.LineSeparation < 0 {
		return fmt.Errorf("font.line_separation must not be negative")
	}
	switch cfg.Output.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("unsupported output.format %q", cfg.Output.Format)
	}
	return nil
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

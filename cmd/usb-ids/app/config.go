package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stacklok/usb-ids-registry/internal/config"
)

// bindFlag binds a flag to viper, logging rather than failing on error
func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		slog.Error("Error binding flag", "flag", key, "error", err)
	}
}

// loadConfig loads the configuration file, or the built-in defaults when path is empty
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		slog.Info("No configuration file given, using built-in mirrors")
		return config.Default(), nil
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration",
		"path", path,
		"sources", len(cfg.Sources))
	return cfg, nil
}

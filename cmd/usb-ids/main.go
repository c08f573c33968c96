// Package main is the entry point for the usb-ids registry tool.
package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/stacklok/usb-ids-registry/cmd/usb-ids/app"
	"github.com/stacklok/usb-ids-registry/internal/config"
	"github.com/stacklok/usb-ids-registry/internal/logging"
)

func main() {
	// A missing .env file is normal
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	// stdout is reserved for registry JSON
	logging.Setup(os.Stderr, config.EnvPrefix)

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

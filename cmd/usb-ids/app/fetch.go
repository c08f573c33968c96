package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	registryapp "github.com/stacklok/usb-ids-registry/internal/app"
	"github.com/stacklok/usb-ids-registry/internal/registry"
	"github.com/stacklok/usb-ids-registry/internal/resolver"
	"github.com/stacklok/usb-ids-registry/internal/snapshot"
)

func newFetchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Resolve the registry and print it as JSON",
		Long: `Fetch tries each configured mirror in order and prints the first registry that
downloads successfully as JSON. When every mirror fails the last saved snapshot
is printed instead. The command exits non-zero when neither is available.

With --save a registry fetched from a mirror also replaces the snapshot.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd, v)
		},
	}

	cmd.Flags().StringP("output", "o", "", "Write the registry JSON to this file instead of stdout")
	cmd.Flags().Bool("save", false, "Save a registry fetched from a mirror as the new snapshot")
	cmd.Flags().Bool("offline", false, "Skip all mirrors and read only the snapshot")
	bindFlag(v, "output", cmd.Flags().Lookup("output"))
	bindFlag(v, "save", cmd.Flags().Lookup("save"))
	bindFlag(v, "offline", cmd.Flags().Lookup("offline"))

	return cmd
}

func runFetch(cmd *cobra.Command, v *viper.Viper) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(v.GetString("config"))
	if err != nil {
		return err
	}

	p, err := registryapp.NewPipeline(ctx, cfg, registryapp.WithOffline(v.GetBool("offline")))
	if err != nil {
		return err
	}
	defer p.Close()

	result, syncErr := p.Manager(v.GetBool("save")).PerformSync(ctx)
	if result == nil {
		if errors.Is(syncErr, resolver.ErrNoDataAvailable) {
			slog.Error("No usb.ids data could be obtained", "error", syncErr)
		}
		return syncErr
	}

	logResult(result)

	if err := writeRegistry(cmd.OutOrStdout(), v.GetString("output"), result.Registry); err != nil {
		return err
	}

	// The registry was delivered but the snapshot could not be updated
	return syncErr
}

// writeRegistry encodes reg as indented JSON to path, or to w when path is empty
func writeRegistry(w io.Writer, path string, reg registry.Registry) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = w.Write(data)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := snapshot.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	slog.Info("Registry written", "path", path)
	return nil
}

// logResult reports where the registry came from
func logResult(result *resolver.FetchResult) {
	attrs := []any{
		"provenance", result.Provenance,
		"source", result.Source,
		"vendors", result.Registry.VendorCount(),
		"devices", result.Registry.DeviceCount(),
	}
	if failed := result.FailedSources(); len(failed) > 0 {
		attrs = append(attrs, "failed_sources", failed)
	}

	if result.Provenance == resolver.ProvenanceSnapshot {
		slog.Warn("Registry resolved from snapshot", attrs...)
		return
	}
	slog.Info("Registry resolved", attrs...)
}

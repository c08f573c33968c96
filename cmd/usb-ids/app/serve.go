package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	registryapp "github.com/stacklok/usb-ids-registry/internal/app"
)

const defaultGracefulTimeout = 30 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the registry over a read-only HTTP API",
		Long: `Serve resolves the registry, exposes it over HTTP and, when a refresh interval
is set, re-syncs in the background. A refreshed registry replaces the served
one atomically; a failed refresh keeps serving the previous registry.

Endpoints:
  GET /health
  GET /version
  GET /metrics (when telemetry.metrics.prometheus is set)
  GET /v1/registry
  GET /v1/info
  GET /v1/vendors/{vendorID}
  GET /v1/vendors/{vendorID}/devices/{deviceID}`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	cmd.Flags().String("address", ":8080", "Address to listen on")
	cmd.Flags().Duration("refresh-interval", 0, "Re-sync interval; overrides syncPolicy.interval, 0 keeps the configured value")
	bindFlag(v, "address", cmd.Flags().Lookup("address"))
	bindFlag(v, "refresh-interval", cmd.Flags().Lookup("refresh-interval"))

	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(v.GetString("config"))
	if err != nil {
		return err
	}

	app, err := registryapp.NewRegistryApp(ctx,
		registryapp.WithConfig(cfg),
		registryapp.WithAddress(v.GetString("address")),
		registryapp.WithRefreshInterval(v.GetDuration("refresh-interval")),
	)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(app.Start)
	g.Go(func() error {
		<-gctx.Done()
		return app.Stop(defaultGracefulTimeout)
	})

	return g.Wait()
}

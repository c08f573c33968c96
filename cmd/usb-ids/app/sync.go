package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	registryapp "github.com/stacklok/usb-ids-registry/internal/app"
)

func newSyncCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the snapshot from the configured mirrors",
		Long: `Sync resolves the registry like fetch, saves a registry fetched from a mirror
as the new snapshot, and records the outcome in the status directory.
Nothing is printed; the outcome is logged.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(v.GetString("config"))
			if err != nil {
				return err
			}

			p, err := registryapp.NewPipeline(ctx, cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			result, err := p.Manager(true).PerformSync(ctx)
			if result != nil {
				logResult(result)
			}
			return err
		},
	}
}

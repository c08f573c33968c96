// Package app provides the commands of the usb-ids tool.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/usb-ids-registry/internal/config"
	"github.com/stacklok/usb-ids-registry/internal/versions"
)

// NewRootCmd creates a new root command for usb-ids. Flags can also be set
// through USB_IDS_* environment variables.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:               "usb-ids",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "USB ID registry ingestion",
		Long: `usb-ids fetches the usb.ids hardware ID registry from an ordered list of mirrors,
parses it into a vendor and device map, and keeps a last-known-good snapshot
for when no mirror is reachable.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML); built-in mirrors are used when empty")
	bindFlag(v, "config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(newFetchCmd(v))
	rootCmd.AddCommand(newSyncCmd(v))
	rootCmd.AddCommand(newServeCmd(v))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to read format flag: %w", err)
			}

			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), info.String())
			return err
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}

package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/TFMV/springgraph/config"
)

var (
	version string
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the springgraph CLI.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "springgraph",
		Short:        "springgraph animates force-directed graph layouts",
		Long:         `springgraph lays out graphs with a spring simulation and animates them in the terminal, a desktop window or a browser.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)

			cfg := config.Default()
			if cmd.Annotations[skipConfigLoad] == "" {
				var err error
				if cfg, err = config.Load(configPath); err != nil {
					return err
				}
				logger.Debug("config loaded", "path", configPath, "palette", cfg.Palette)
			}

			cmd.SetContext(withConfig(withLogger(cmd.Context(), logger), cfg))
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("springgraph %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/springgraph/config.toml)")

	root.AddCommand(newViewCmd())
	root.AddCommand(newWindowCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newSettleCmd())
	root.AddCommand(newConfigCmd())

	return root
}

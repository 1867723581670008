package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/gettools/internal/app"
	"github.com/oshokin/gettools/internal/config"
)

var (
	//nolint:gochecknoglobals // Cobra command requires a global definition.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file.",
		// The configuration is not loaded for its own management commands.
		PersistentPreRun: func(*cobra.Command, []string) {},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	configInitCmd = &cobra.Command{
		Use:   "init [path]",
		Short: fmt.Sprintf("Write a configuration file with default settings (default path is '%s').", config.DefaultConfigFilename),
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var path string
			if len(args) > 0 {
				path = args[0]
			}

			force, _ := cmd.Flags().GetBool("force")

			app.ExecuteConfigInitCommand(cmd.Context(), path, force)
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to register subcommands.
func init() {
	configInitCmd.Flags().BoolP("force", "f", false, "overwrite an existing configuration file.")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/gettools/internal/app"
)

var (
	//nolint:gochecknoglobals // Cobra command requires a global definition.
	versionsCmd = &cobra.Command{
		Use:   "versions",
		Short: "List the product versions published on the CDS, newest last.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			app.ExecuteVersionsCommand(cmd.Context(), appConfig, cmd.OutOrStdout())
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	buildsCmd = &cobra.Command{
		Use:   "builds <version>",
		Short: "List the builds published for a product version, newest last.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			app.ExecuteBuildsCommand(cmd.Context(), appConfig, args[0], cmd.OutOrStdout())
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to register subcommands.
func init() {
	rootCmd.AddCommand(versionsCmd, buildsCmd)
}

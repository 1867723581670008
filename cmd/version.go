package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/gettools/internal/version"
)

//nolint:gochecknoglobals // Cobra command requires a global definition.
var versionCmd = &cobra.Command{
	Use:              "version",
	Short:            "Print the version, commit, and build time.",
	Args:             cobra.NoArgs,
	PersistentPreRun: func(*cobra.Command, []string) {},
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full()) //nolint:errcheck // Nothing to do if stdout is gone.
	},
}

//nolint:gochecknoinits // Cobra requires the init function to register subcommands.
func init() {
	rootCmd.AddCommand(versionCmd)
}

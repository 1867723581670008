package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/gettools/internal/app"
	"github.com/oshokin/gettools/internal/config"
	"github.com/oshokin/gettools/internal/logger"
	"github.com/oshokin/gettools/internal/version"
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "gettools [flags]",
		Short: "Download the darwin tools ISO images from the vendor CDS.",
		Long: `gettools downloads the core archive of a desktop hypervisor release from the vendor CDS
and extracts the guest tools images from it:
- darwin.iso
- darwinPre15.iso

Both images are placed into the tools folder, and every intermediate archive is removed.
The release, the architecture, and the download speed can be changed with flags or a config file.`,
		Args:             cobra.NoArgs,
		Version:          version.Short(),
		PersistentPreRun: initConfig,
		Run: func(cmd *cobra.Command, _ []string) {
			app.ExecuteRootCommand(cmd.Context(), appConfig)
		},
	}
)

// Execute executes the root command.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)

	defer func() {
		_ = logger.Logger().Sync()
	}()

	defer stop()

	done := make(chan struct{})

	go func() {
		defer close(done)
		defer stop()

		err := rootCmd.ExecuteContext(ctx)
		cobra.CheckErr(err)
	}()

	// The command owns the cleanup of partial downloads, so it must finish even after a signal.
	<-done
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	rootCmdPersistentFlags := rootCmd.PersistentFlags()

	rootCmdPersistentFlags.StringVarP(
		&configFilenameFromFlag,
		"config",
		"c",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename))

	rootCmdPersistentFlags.StringP(
		"log-level",
		"l",
		"",
		"log level: debug, info, warn, error.")

	rootCmdFlags := rootCmd.Flags()

	rootCmdFlags.StringP(
		"output",
		"o",
		"",
		"tools directory (it is emptied before every run).")

	rootCmdFlags.String(
		"product-version",
		"",
		fmt.Sprintf("product version to take the tools from, or '%s'.", config.LatestVersion))

	rootCmdFlags.String(
		"build",
		"",
		"build number of the product version (empty means the newest build).")

	rootCmdFlags.String(
		"arch",
		"",
		"architecture folder of the ISO images.")

	rootCmdFlags.StringP(
		"speed-limit",
		"s",
		"",
		"set download speed limit, for example: 500 kbps, 1 mbps, 1.5 mbps.")

	rootCmdFlags.Bool(
		"no-progress",
		false,
		"disable the download progress bar.")
}

func initConfig(cmd *cobra.Command, _ []string) {
	var err error

	appConfig, err = config.LoadConfig(configFilenameFromFlag)
	if err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}

	if err = bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
		logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
	}

	logger.SetLevel(appConfig.ParsedLogLevel)
}

// bindFlagsToConfig copies the changed flags into cfg and validates the result.
// Flags that a command doesn't define are ignored.
func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	stringFlags := []struct {
		name   string
		target *string
	}{
		{name: "output", target: &cfg.OutputPath},
		{name: "product-version", target: &cfg.ProductVersion},
		{name: "build", target: &cfg.Build},
		{name: "arch", target: &cfg.Arch},
		{name: "speed-limit", target: &cfg.DownloadSpeedLimit},
		{name: "log-level", target: &cfg.LogLevel},
	}

	for _, f := range stringFlags {
		if flag := flags.Lookup(f.name); flag != nil && flag.Changed {
			*f.target, _ = flags.GetString(f.name)
		}
	}

	if flag := flags.Lookup("no-progress"); flag != nil && flag.Changed {
		noProgress, _ := flags.GetBool("no-progress")
		cfg.ShowProgress = !noProgress
	}

	return config.ValidateConfig(cfg)
}

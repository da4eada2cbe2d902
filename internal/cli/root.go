package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/payhub-dev/payhub/internal/cli/commands"
	"github.com/payhub-dev/payhub/internal/config"
	"github.com/payhub-dev/payhub/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the payhub command tree around opts
func NewRootCmd(opts *commands.Options) *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "payhub",
		Short: "PayHub - account management for the Payment Hub",
		Long: `PayHub CLI - sign in, register and manage your Payment Hub account.

Servers are listed in payhub.json (or payhub.yaml); without one the server
comes from --server, PAYHUB_API_URL or http://localhost:8081/api/v1/auth.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.Logging.Level
			if logLevel != "" {
				level = logLevel
			}
			logger.InitWithWriter(opts.Err, level, cfg.Logging.Format)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.Server, "server", "", "Server alias or auth API URL")
	flags.StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error); overrides PAYHUB_LOG_LEVEL")
	flags.BoolVar(&opts.NoSpinner, "no-spinner", false, "Do not show the progress spinner")
	flags.BoolVar(&opts.SecureStorage, "secure-storage", false, "Keep the access token in the OS keyring")
	flags.BoolVar(&opts.Ephemeral, "ephemeral", false, "Keep the session in memory only")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(opts.Out, "payhub version %s\n", version)
		},
	})
	commands.AddCommands(rootCmd, opts)

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	opts := commands.NewOptions()
	if err := NewRootCmd(opts).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/payhub-dev/payhub/internal/cli/userconfig"
)

// NewSecureStorageCmd creates the secure-storage command
func NewSecureStorageCmd(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:       "secure-storage [on|off]",
		Short:     "Keep the access token in the OS keyring",
		Long:      "Without an argument, prints whether the access token is kept in the OS keyring. Sign in again after switching.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cfg, err := userconfig.Load()
				if err != nil {
					return err
				}
				fmt.Fprintf(o.Out, "secure storage: %s\n", onOff(cfg.SecureStorage))
				return nil
			}

			enabled := args[0] == "on"
			if err := userconfig.SetSecureStorage(enabled); err != nil {
				return fmt.Errorf("failed to save storage preference: %w", err)
			}
			fmt.Fprintf(o.Out, "✓ secure storage %s\n", onOff(enabled))
			return nil
		},
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

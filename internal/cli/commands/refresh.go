package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRefreshCmd creates the refresh command
func NewRefreshCmd(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored token for a fresh one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.connect()
			if err != nil {
				return err
			}

			if err := e.session.RefreshToken(cmd.Context()); err != nil {
				return fmt.Errorf("failed to refresh token: %w", err)
			}

			fmt.Fprintln(o.Out, "✓ Token refreshed")
			if p, ok := e.session.Claims(); ok && p.ExpiresAt != nil {
				fmt.Fprintf(o.Out, "  Expires: %s\n", p.ExpiresAt.Local().Format("2006-01-02 15:04:05 MST"))
			}
			return nil
		},
	}
}

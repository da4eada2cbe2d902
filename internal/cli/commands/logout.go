package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.connect()
			if err != nil {
				return err
			}

			if err := e.session.Logout(); err != nil {
				return fmt.Errorf("logout incomplete: %w", err)
			}
			fmt.Fprintf(o.Out, "✓ Logged out of %s\n", e.server.Alias)
			return nil
		},
	}
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/payhub-dev/payhub/internal/auth"
	"github.com/payhub-dev/payhub/internal/cli/client"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(o *Options) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.connect()
			if err != nil {
				return err
			}
			if err := requireSession(e); err != nil {
				return err
			}

			user := e.session.CurrentUser()
			if !offline {
				if user, err = e.session.Profile(cmd.Context()); err != nil {
					if client.IsUnauthorized(err) {
						return fmt.Errorf("session rejected by the server, run 'payhub login' to sign in again: %w", err)
					}
					return fmt.Errorf("failed to fetch profile: %w", err)
				}
			}

			printIdentity(o, user)
			if e.session.IsTokenExpired() {
				fmt.Fprintln(o.Out, "  Token: expired (run 'payhub refresh' or 'payhub login')")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Use the stored user details instead of asking the server")
	return cmd
}

func printIdentity(o *Options, user *auth.Identity) {
	if user == nil {
		fmt.Fprintln(o.Out, "No user details stored")
		return
	}
	fmt.Fprintf(o.Out, "%s <%s>\n", user.FullName(), user.Email)
	if user.ID != "" {
		fmt.Fprintf(o.Out, "  ID: %s\n", user.ID)
	}
	if !user.IsActive {
		fmt.Fprintln(o.Out, "  Status: inactive")
	}
}

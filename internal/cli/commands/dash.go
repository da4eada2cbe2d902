package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDashCmd creates the dash command
func NewDashCmd(o *Options) *cobra.Command {
	var google bool

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open the web dashboard in browser",
		Long: `Open the web dashboard in browser.

With --google the Google sign-in page of the server is opened instead. After
signing in there, adopt the issued token with 'payhub login --token <token>'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.connect()
			if err != nil {
				return err
			}

			target := e.server.DashboardURL()
			if google {
				target = e.client.GoogleLoginURL()
			}
			if target == "" {
				return fmt.Errorf("no dashboard URL for %s; set \"dashboard\" in payhub.json", e.server.Alias)
			}

			fmt.Fprintf(o.Out, "Opening %s...\n", target)
			if err := o.OpenBrowser(target); err != nil {
				return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, target)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&google, "google", false, "Open the Google sign-in page")
	return cmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/payhub-dev/payhub/internal/cli/client"
)

// NewProfileCmd creates the profile command group
func NewProfileCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}
	cmd.AddCommand(newProfileUpdateCmd(o))
	return cmd
}

func newProfileUpdateCmd(o *Options) *cobra.Command {
	var update client.ProfileUpdate

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields",
		Example: `  $ payhub profile update --first-name Ada
  $ payhub profile update --email ada@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if update == (client.ProfileUpdate{}) {
				return fmt.Errorf("nothing to update (use --first-name, --last-name or --email)")
			}

			e, err := o.connect()
			if err != nil {
				return err
			}
			if err := requireSession(e); err != nil {
				return err
			}

			user, err := e.session.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return fmt.Errorf("failed to update profile: %w", err)
			}
			fmt.Fprintln(o.Out, "✓ Profile updated")
			printIdentity(o, user)
			return nil
		},
	}

	cmd.Flags().StringVar(&update.FirstName, "first-name", "", "New first name")
	cmd.Flags().StringVar(&update.LastName, "last-name", "", "New last name")
	cmd.Flags().StringVar(&update.Email, "email", "", "New email address")
	return cmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVerifyEmailCmd creates the verify-email command
func NewVerifyEmailCmd(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email <token>",
		Short: "Confirm an email address with the token from the verification email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.connect()
			if err != nil {
				return err
			}
			resp, err := e.session.VerifyEmail(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to verify email: %w", err)
			}
			printMessage(o, resp, "Email verified")
			return nil
		},
	}
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/payhub-dev/payhub/internal/cli/client"
)

// NewPasswordCmd creates the password command group
func NewPasswordCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Reset or change your password",
	}
	cmd.AddCommand(newPasswordForgotCmd(o), newPasswordResetCmd(o), newPasswordChangeCmd(o))
	return cmd
}

func newPasswordForgotCmd(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "forgot <email>",
		Short: "Send a password reset email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.connect()
			if err != nil {
				return err
			}
			resp, err := e.session.ForgotPassword(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to request password reset: %w", err)
			}
			printMessage(o, resp, "Password reset email sent to "+args[0])
			return nil
		},
	}
}

func newPasswordResetCmd(o *Options) *cobra.Command {
	var newPassword string

	cmd := &cobra.Command{
		Use:   "reset <reset-token>",
		Short: "Set a new password with the token from the reset email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.connect()
			if err != nil {
				return err
			}
			if newPassword == "" {
				if newPassword, err = o.prompt("New password"); err != nil {
					return err
				}
			}
			resp, err := e.session.ResetPassword(cmd.Context(), args[0], newPassword)
			if err != nil {
				return fmt.Errorf("failed to reset password: %w", err)
			}
			printMessage(o, resp, "Password reset")
			return nil
		},
	}

	cmd.Flags().StringVar(&newPassword, "new-password", "", "New password (will prompt if not provided)")
	return cmd
}

func newPasswordChangeCmd(o *Options) *cobra.Command {
	var oldPassword, newPassword string

	cmd := &cobra.Command{
		Use:   "change",
		Short: "Change the password of the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.connect()
			if err != nil {
				return err
			}
			if err := requireSession(e); err != nil {
				return err
			}
			if oldPassword == "" {
				if oldPassword, err = o.prompt("Current password"); err != nil {
					return err
				}
			}
			if newPassword == "" {
				if newPassword, err = o.prompt("New password"); err != nil {
					return err
				}
			}
			resp, err := e.session.ChangePassword(cmd.Context(), oldPassword, newPassword)
			if err != nil {
				return fmt.Errorf("failed to change password: %w", err)
			}
			printMessage(o, resp, "Password changed")
			return nil
		},
	}

	cmd.Flags().StringVar(&oldPassword, "old-password", "", "Current password (will prompt if not provided)")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "New password (will prompt if not provided)")
	return cmd
}

// printMessage prints the server's message, or fallback when it sent none
func printMessage(o *Options, resp *client.MessageResponse, fallback string) {
	text := fallback
	if resp != nil && resp.Message != "" {
		text = resp.Message
	}
	fmt.Fprintf(o.Out, "✓ %s\n", text)
}

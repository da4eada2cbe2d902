package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/payhub-dev/payhub/internal/forms"
)

type loginFlags struct {
	email    string
	password string
	token    string
	remember bool
}

// NewLoginCmd creates the login command
func NewLoginCmd(o *Options) *cobra.Command {
	var flags loginFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a PayHub server",
		Long: `Sign in to a PayHub server.

The password is prompted for when neither --password nor PAYHUB_PASSWORD is
set. With --remember the email is saved and pre-filled next time.

A token issued out of band (for example after signing in with Google in the
browser) can be adopted with --token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), o, flags, cmd.Flags().Changed("remember"))
		},
	}

	cmd.Flags().StringVar(&flags.email, "email", "", "Email address (or set PAYHUB_EMAIL)")
	cmd.Flags().StringVar(&flags.password, "password", "", "Password (or set PAYHUB_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&flags.token, "token", "", "Adopt an access token issued by the server")
	cmd.Flags().BoolVar(&flags.remember, "remember", false, "Remember the email address")

	return cmd
}

func runLogin(ctx context.Context, o *Options, flags loginFlags, rememberSet bool) error {
	e, err := o.connect()
	if err != nil {
		return err
	}

	if flags.token != "" {
		user, err := e.session.AdoptToken(flags.token)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Fprintln(o.Out, "✓ Token accepted")
		fmt.Fprintf(o.Out, "  User: %s (%s)\n", user.FullName(), user.Email)
		return nil
	}

	ctrl, flush := e.controller()

	email := flags.email
	if email == "" {
		email = e.cfg.Credentials.Email
	}
	remember := flags.remember
	if email == "" && ctrl.LoadRememberedEmail() {
		email = ctrl.LoginForm().Email
		if !rememberSet {
			remember = true
		}
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or PAYHUB_EMAIL env var)")
	}

	password := flags.password
	if password == "" {
		password = e.cfg.Credentials.Password
	}
	if password == "" {
		password, err = o.prompt("Password")
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(o.Out, "Logging in to %s...\n", e.server.Label())

	ctrl.SetLoginForm(forms.LoginForm{Email: email, Password: password, RememberMe: remember})
	if err := ctrl.SubmitLogin(ctx); err != nil {
		return formError("login failed", err)
	}

	fmt.Fprintln(o.Out, "✓ Login successful!")
	if user := e.session.CurrentUser(); user != nil {
		fmt.Fprintf(o.Out, "  User: %s (%s)\n", user.FullName(), user.Email)
	}
	if p, ok := e.session.Claims(); ok && len(p.Roles) > 0 {
		fmt.Fprintf(o.Out, "  Roles: %s\n", strings.Join(sortedRoles(p.Roles.Slice()), ", "))
	}
	flush()
	return nil
}

// formError renders validation failures as the form message plus the
// failed fields
func formError(action string, err error) error {
	if verrs, ok := forms.AsValidationErrors(err); ok {
		return fmt.Errorf("%s: %s (%s)", action, forms.InvalidFormMessage, strings.TrimPrefix(verrs.Error(), "invalid form: "))
	}
	return fmt.Errorf("%s: %w", action, err)
}

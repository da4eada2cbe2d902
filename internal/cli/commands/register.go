package commands

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/payhub-dev/payhub/internal/forms"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd(o *Options) *cobra.Command {
	var form forms.RegisterForm
	var interactive bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a PayHub account",
		Long: `Create a PayHub account.

Missing fields are prompted for when --interactive is set; otherwise every
required field must be given as a flag.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				if err := promptRegisterForm(o, &form); err != nil {
					return err
				}
			}
			return runRegister(cmd.Context(), o, form)
		},
	}

	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&form.Username, "username", "", "Username (letters, digits, - and _)")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.PhoneNumber, "phone", "", "Phone number (optional)")
	cmd.Flags().StringVar(&form.PasswordHash, "password", "", "Password (min 8 characters with upper, lower and digit)")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "Password confirmation")
	cmd.Flags().BoolVar(&form.AgreeTerms, "agree-terms", false, "Accept the terms of service")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt for missing fields")

	return cmd
}

func runRegister(ctx context.Context, o *Options, form forms.RegisterForm) error {
	e, err := o.connect()
	if err != nil {
		return err
	}

	ctrl, flush := e.controller()
	ctrl.SwitchTab(forms.TabRegister)
	ctrl.SetRegisterForm(form)

	fmt.Fprintf(o.Out, "Registering %s on %s...\n", form.Email, e.server.Label())
	if err := ctrl.SubmitRegister(ctx); err != nil {
		return formError("registration failed", err)
	}

	flush()
	if e.session.IsAuthenticated() {
		fmt.Fprintf(o.Out, "Signed in as %s\n", e.session.FullName())
		return nil
	}
	fmt.Fprintf(o.Out, "Run 'payhub login --email %s' to sign in\n", ctrl.LoginForm().Email)
	return nil
}

// promptRegisterForm asks for every empty field of form
func promptRegisterForm(o *Options, form *forms.RegisterForm) error {
	text := []struct {
		label string
		value *string
	}{
		{"First name", &form.FirstName},
		{"Last name", &form.LastName},
		{"Username", &form.Username},
		{"Email", &form.Email},
		{"Phone number (optional)", &form.PhoneNumber},
	}
	for _, f := range text {
		if *f.value != "" {
			continue
		}
		prompt := promptui.Prompt{Label: f.label}
		v, err := prompt.Run()
		if err != nil {
			return fmt.Errorf("registration cancelled: %w", err)
		}
		*f.value = v
	}

	var err error
	if form.PasswordHash == "" {
		if form.PasswordHash, err = o.prompt("Password"); err != nil {
			return err
		}
	}
	if form.ConfirmPassword == "" {
		if form.ConfirmPassword, err = o.prompt("Confirm password"); err != nil {
			return err
		}
	}

	if !form.AgreeTerms {
		confirm := promptui.Prompt{Label: "Do you agree to the terms of service", IsConfirm: true}
		if _, err := confirm.Run(); err == nil {
			form.AgreeTerms = true
		}
	}
	return nil
}

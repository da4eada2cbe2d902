package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/payhub-dev/payhub/internal/auth"
	"github.com/payhub-dev/payhub/internal/session"
)

var errRolesMissing = errors.New("required roles not present in token")

// NewTokenCmd creates the token command group
func NewTokenCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect the stored access token",
		Long: `Inspect the stored access token.

Claims are decoded WITHOUT verifying the signature. They are shown for
information only; the server decides what the token grants.`,
	}
	cmd.AddCommand(newTokenInspectCmd(o), newTokenRolesCmd(o))
	return cmd
}

func newTokenInspectCmd(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [token]",
		Short: "Print the decoded claims of a token (default: the stored one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			} else {
				e, err := o.connect()
				if err != nil {
					return err
				}
				if raw = e.session.Token(); raw == "" {
					return session.ErrNotAuthenticated
				}
			}

			p, ok := auth.Decode(raw)
			if !ok {
				return session.ErrInvalidToken
			}
			printPayload(o, p, time.Now())
			return nil
		},
	}
}

func newTokenRolesCmd(o *Options) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "roles [role...]",
		Short: "List the token's roles, or check for some of them",
		Long: `List the token's roles, or check for some of them.

With role arguments the command fails unless the token lists at least one of
them (or all of them with --all).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.connect()
			if err != nil {
				return err
			}
			if err := requireSession(e); err != nil {
				return err
			}

			if len(args) == 0 {
				p, ok := e.session.Claims()
				if !ok {
					return session.ErrInvalidToken
				}
				for _, r := range sortedRoles(p.Roles.Slice()) {
					fmt.Fprintln(o.Out, r)
				}
				return nil
			}

			granted := e.session.HasAnyRole(args...)
			if all {
				granted = e.session.HasAllRoles(args...)
			}
			if !granted {
				return fmt.Errorf("%w: %s", errRolesMissing, strings.Join(args, ", "))
			}
			fmt.Fprintln(o.Out, "✓ granted")
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Require every listed role instead of any")
	return cmd
}

func printPayload(o *Options, p *auth.Payload, now time.Time) {
	const layout = "2006-01-02 15:04:05 MST"

	fmt.Fprintf(o.Out, "Subject:    %s\n", p.Subject)
	if p.UserID != "" {
		fmt.Fprintf(o.Out, "User ID:    %s\n", p.UserID)
	}
	if name := strings.TrimSpace(p.FirstName + " " + p.LastName); name != "" {
		fmt.Fprintf(o.Out, "Name:       %s\n", name)
	}
	if p.IssuedAt != nil {
		fmt.Fprintf(o.Out, "Issued at:  %s\n", p.IssuedAt.Local().Format(layout))
	}
	switch {
	case p.ExpiresAt == nil:
		fmt.Fprintln(o.Out, "Expires at: never set (treated as expired)")
	case p.Expired(now):
		fmt.Fprintf(o.Out, "Expires at: %s (expired)\n", p.ExpiresAt.Local().Format(layout))
	default:
		fmt.Fprintf(o.Out, "Expires at: %s (in %s)\n", p.ExpiresAt.Local().Format(layout), p.ExpiresAt.Sub(now).Round(time.Second))
	}
	if len(p.Roles) > 0 {
		fmt.Fprintf(o.Out, "Roles:      %s\n", strings.Join(sortedRoles(p.Roles.Slice()), ", "))
	}
	fmt.Fprintln(o.Out, "(signature not verified)")
}

func sortedRoles(roles []string) []string {
	sort.Strings(roles)
	return roles
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/payhub-dev/payhub/internal/cli/config"
	"github.com/payhub-dev/payhub/internal/cli/serverselect"
	"github.com/payhub-dev/payhub/internal/cli/userconfig"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-server [url-or-alias]",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ payhub select-server                                     # Interactive selection
  $ payhub select-server http://localhost:8081/api/v1/auth   # Select by URL
  $ payhub select-server prod                                # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectServer(o, urlOrAlias)
		},
	}

	return cmd
}

func runSelectServer(o *Options, urlOrAlias string) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'payhub init' to create a configuration file", err)
	}

	var server *config.Server

	if urlOrAlias != "" {
		server, err = cfg.GetServerByURLOrAlias(urlOrAlias)
		if err != nil {
			return err
		}
	} else {
		server, err = serverselect.PromptServerSelection(cfg)
		if err != nil {
			return err
		}
	}

	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Fprintf(o.Out, "Selected server: %s\n", server.Label())
	return nil
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/payhub-dev/payhub/internal/cli/config"
)

// NewInitCmd creates the init command
func NewInitCmd(o *Options) *cobra.Command {
	var useYAML bool

	cmd := &cobra.Command{
		Use:   "init <api-url>",
		Short: "Add a PayHub server to the project config",
		Example: `  $ payhub init http://localhost:8081/api/v1/auth
  $ payhub init https://api.payhub.io/api/v1/auth --yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(o, args[0], useYAML)
		},
	}

	cmd.Flags().BoolVar(&useYAML, "yaml", false, "Create payhub.yaml instead of payhub.json")
	return cmd
}

func runInit(o *Options, apiURL string, useYAML bool) error {
	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := ""
	for _, name := range []string{config.ConfigFileName, config.YAMLConfigFileName} {
		candidate := filepath.Join(currentDir, name)
		if _, err := os.Stat(candidate); err == nil {
			configPath = candidate
			break
		}
	}

	var cfg *config.Config
	isNewConfig := configPath == ""

	if isNewConfig {
		name := config.ConfigFileName
		if useYAML {
			name = config.YAMLConfigFileName
		}
		configPath = filepath.Join(currentDir, name)
		cfg = &config.Config{Servers: []config.Server{}}
	} else {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintf(o.Out, "Found existing %s\n", filepath.Base(configPath))
	}

	server, added := cfg.AddServer(apiURL)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if !added {
		fmt.Fprintf(o.Out, "Server %s already exists in %s\n", server.URL, filepath.Base(configPath))
	} else {
		if err := config.Save(configPath, cfg); err != nil {
			return err
		}

		if isNewConfig {
			fmt.Fprintf(o.Out, "✓ Created ./%s with server %s (%s)\n", filepath.Base(configPath), server.URL, server.Alias)
		} else {
			fmt.Fprintf(o.Out, "✓ Added server %s (%s) to ./%s\n", server.URL, server.Alias, filepath.Base(configPath))
		}
	}

	fmt.Fprintln(o.Out, "\nNext steps:")
	fmt.Fprintln(o.Out, "  1. Run 'payhub register' to create an account")
	fmt.Fprintln(o.Out, "  2. Run 'payhub login' to authenticate")

	return nil
}

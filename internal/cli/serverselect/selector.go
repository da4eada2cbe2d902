package serverselect

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/manifoldco/promptui"

	"github.com/payhub-dev/payhub/internal/cli/config"
	"github.com/payhub-dev/payhub/internal/cli/userconfig"
	"github.com/payhub-dev/payhub/internal/logger"
)

// Resolve picks the server for a command. Without a project config the
// server flag is used as a URL, then fallbackURL (environment or built-in
// default).
func Resolve(serverFlag, fallbackURL string) (*config.Server, error) {
	cfg, err := config.LoadFromCurrentDir()
	if errors.Is(err, config.ErrNotFound) {
		target := serverFlag
		if target == "" {
			target = fallbackURL
		}
		return adHocServer(target)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return ResolveServer(cfg, serverFlag)
}

// ResolveServer determines which server to use based on the following priority:
// 1. If the server flag is provided, use that server (alias or URL)
// 2. If user has a selected server in their local config, use that
// 3. If only one server in project config, use that
// 4. Otherwise, prompt user to select a server interactively
func ResolveServer(projectConfig *config.Config, serverFlag string) (*config.Server, error) {
	// Priority 1: explicit flag; a URL not listed in the project config is used as is
	if serverFlag != "" {
		server, err := projectConfig.GetServerByURLOrAlias(serverFlag)
		if err == nil {
			return server, nil
		}
		if adHoc, urlErr := adHocServer(serverFlag); urlErr == nil {
			return adHoc, nil
		}
		return nil, err
	}

	// Priority 2: Use selected server from user config
	selectedURL, err := userconfig.GetSelectedServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selectedURL != "" {
		server, err := projectConfig.GetServerByURL(selectedURL)
		if err != nil {
			// Selected server no longer exists in project config, clear it and continue
			_ = userconfig.SetSelectedServer("")
		} else {
			return server, nil
		}
	}

	// Priority 3: If only one server, use it automatically
	if len(projectConfig.Servers) == 1 {
		return remember(&projectConfig.Servers[0]), nil
	}

	// Priority 4: Prompt user to select a server
	server, err := PromptServerSelection(projectConfig)
	if err != nil {
		return nil, err
	}
	return remember(server), nil
}

// remember stores server as the selection; failing to save is not fatal
func remember(server *config.Server) *config.Server {
	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		log := logger.GetLogger()
		log.Warn().Err(err).Str("server", server.Alias).Msg("Failed to save selected server")
	}
	return server
}

// PromptServerSelection shows an interactive prompt for the user to select a server
func PromptServerSelection(projectConfig *config.Config) (*config.Server, error) {
	if len(projectConfig.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in payhub.json")
	}

	type serverOption struct {
		Label  string
		Server *config.Server
	}

	options := make([]serverOption, len(projectConfig.Servers))
	for i := range projectConfig.Servers {
		server := &projectConfig.Servers[i]
		options[i] = serverOption{
			Label:  server.Label(),
			Server: server,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a server",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}

	return options[index].Server, nil
}

// adHocServer describes a server given only by its API URL
func adHocServer(rawURL string) (*config.Server, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("'%s' is not a server alias or an http(s) URL", rawURL)
	}
	return &config.Server{Alias: u.Host, URL: rawURL}, nil
}

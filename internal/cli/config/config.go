package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName     = "payhub.json"
	YAMLConfigFileName = "payhub.yaml"
)

// configFileNames are searched in this order in every directory
var configFileNames = []string{ConfigFileName, YAMLConfigFileName, "payhub.yml"}

// ErrNotFound is returned when no project config exists in the current
// directory or any parent
var ErrNotFound = errors.New("payhub.json not found")

// Server represents one PayHub auth API
type Server struct {
	Alias     string `json:"alias" yaml:"alias" validate:"required"`
	URL       string `json:"url" yaml:"url" validate:"required,url"`
	Dashboard string `json:"dashboard,omitempty" yaml:"dashboard,omitempty" validate:"omitempty,url"`
}

// DashboardURL returns the web dashboard for the server. Without an explicit
// value it is /dashboard on the API's origin.
func (s Server) DashboardURL() string {
	if s.Dashboard != "" {
		return s.Dashboard
	}
	u, err := url.Parse(s.URL)
	if err != nil || u.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s://%s/dashboard", u.Scheme, u.Host)
}

// Label is the display form used in prompts and messages
func (s Server) Label() string {
	return fmt.Sprintf("%s (%s)", s.Alias, s.URL)
}

// Config represents the project configuration file
type Config struct {
	Servers []Server `json:"servers" yaml:"servers" validate:"dive"`
}

// DefaultConfig returns a configuration with one example server
func DefaultConfig() *Config {
	return &Config{
		Servers: []Server{
			{
				Alias: "local",
				URL:   "http://localhost:8081/api/v1/auth",
			},
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks server URLs and that aliases are unique
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool, len(c.Servers))
	for _, s := range c.Servers {
		if seen[s.Alias] {
			return fmt.Errorf("invalid config: duplicate server alias '%s'", s.Alias)
		}
		seen[s.Alias] = true
	}
	return nil
}

// FindConfigFile searches for payhub.json (or payhub.yaml) in the current
// directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := currentDir
	for {
		for _, name := range configFileNames {
			configPath := filepath.Join(dir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w in %s or any parent directory", ErrNotFound, currentDir)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads the configuration file; the format follows the extension
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetServerByAlias returns a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s' not found", alias)
}

// GetServerByURL returns a server by its API URL, ignoring a trailing slash
func (c *Config) GetServerByURL(rawURL string) (*Server, error) {
	want := strings.TrimRight(rawURL, "/")
	for i := range c.Servers {
		if strings.TrimRight(c.Servers[i].URL, "/") == want {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with URL '%s' not found", rawURL)
}

// GetServerByURLOrAlias finds a server by API URL or alias
func (c *Config) GetServerByURLOrAlias(urlOrAlias string) (*Server, error) {
	if s, err := c.GetServerByURL(urlOrAlias); err == nil {
		return s, nil
	}
	if s, err := c.GetServerByAlias(urlOrAlias); err == nil {
		return s, nil
	}
	return nil, fmt.Errorf("server with URL or alias '%s' not found", urlOrAlias)
}

// GetDefaultServer returns the first server in the list
func (c *Config) GetDefaultServer() (*Server, error) {
	if len(c.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in payhub.json")
	}
	return &c.Servers[0], nil
}

// AddServer appends a server for rawURL unless one already exists. The
// first server is called "local", later ones "server-N".
func (c *Config) AddServer(rawURL string) (*Server, bool) {
	if s, err := c.GetServerByURL(rawURL); err == nil {
		return s, false
	}

	alias := "local"
	if len(c.Servers) > 0 {
		alias = fmt.Sprintf("server-%d", len(c.Servers)+1)
	}
	c.Servers = append(c.Servers, Server{Alias: alias, URL: strings.TrimRight(rawURL, "/")})
	return &c.Servers[len(c.Servers)-1], true
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all bugreport configuration.
type Config struct {
	// CLI is the tool whose command logs we inspect.
	CLI CLIConfig `yaml:"cli"`

	// Issues configures where bug reports are filed.
	Issues IssuesConfig `yaml:"issues"`

	// Plugins configures plugin issue routing.
	Plugins PluginsConfig `yaml:"plugins"`

	// Logging configures bugreport's own diagnostics.
	Logging LoggingConfig `yaml:"logging"`
}

// CLIConfig describes the CLI whose feedback we collect.
type CLIConfig struct {
	// Name is the binary name prefixed to reconstructed commands.
	Name string `yaml:"name"`

	// CommandLogDir is the directory of per-invocation log files.
	CommandLogDir string `yaml:"command_log_dir"`

	// GetStartedURL and QuestionsURL are shown in the intro banner.
	GetStartedURL string `yaml:"get_started_url"`
	QuestionsURL  string `yaml:"questions_url"`
}

// IssuesConfig configures issue-creation URLs.
type IssuesConfig struct {
	// PrettyURL is the short link shown to the user.
	PrettyURL string `yaml:"pretty_url"`

	// RawURL is the direct new-issue endpoint used for the prefilled link.
	// Short links do not survive long query strings.
	RawURL string `yaml:"raw_url"`

	// MaxURLLength caps the prefilled issue URL.
	MaxURLLength int `yaml:"max_url_length"`
}

// PluginsConfig configures plugin issue routing.
type PluginsConfig struct {
	// PrettyURL / RawURL are the fallback plugin-repo issue links.
	PrettyURL string `yaml:"pretty_url"`
	RawURL    string `yaml:"raw_url"`

	// IndexPath points at the repository index used to resolve a plugin
	// to its own issue tracker.
	IndexPath string `yaml:"index_path"`
}

// LoggingConfig configures bugreport's own logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Most browsers cap URLs at roughly 2000 characters.
const defaultMaxURLLength = 2035

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		CLI: CLIConfig{
			Name:          "avq",
			CommandLogDir: filepath.Join(home, ".avq", "commands"),
			GetStartedURL: "https://avq.dev/get-started",
			QuestionsURL:  "https://stackoverflow.com/questions/tagged/avq",
		},
		Issues: IssuesConfig{
			PrettyURL:    "https://avq.dev/issues",
			RawURL:       "https://github.com/avq-tools/avq/issues/new",
			MaxURLLength: defaultMaxURLLength,
		},
		Plugins: PluginsConfig{
			PrettyURL: "https://avq.dev/plugins/issues",
			RawURL:    "https://github.com/avq-tools/avq-plugins/issues/new",
			IndexPath: filepath.Join(home, ".avq", "repository-index.json"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bugreport.yaml"
	}
	return filepath.Join(home, ".config", "bugreport", "config.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Defaults when no config file exists
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	if cfg.Issues.MaxURLLength <= 0 {
		cfg.Issues.MaxURLLength = defaultMaxURLLength
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("BUGREPORT_COMMAND_LOG_DIR"); dir != "" {
		c.CLI.CommandLogDir = dir
	}
	if name := os.Getenv("BUGREPORT_CLI_NAME"); name != "" {
		c.CLI.Name = name
	}
	if url := os.Getenv("BUGREPORT_ISSUES_URL"); url != "" {
		c.Issues.RawURL = url
	}
	if path := os.Getenv("BUGREPORT_REPO_INDEX"); path != "" {
		c.Plugins.IndexPath = path
	}
}

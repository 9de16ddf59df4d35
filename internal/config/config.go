package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete standin configuration
type Config struct {
	Persona   PersonaConfig   `yaml:"persona"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Tools     ToolsConfig     `yaml:"tools"`
	Pushover  PushoverConfig  `yaml:"pushover"`
	Questions QuestionsConfig `yaml:"questions"`
	Server    ServerConfig    `yaml:"server"`
	MCP       MCPConfig       `yaml:"mcp"`
}

// PersonaConfig identifies who the agent speaks as and where the profile
// text lives.
type PersonaConfig struct {
	Name        string `yaml:"name"`
	SummaryFile string `yaml:"summary_file"`
	ProfileFile string `yaml:"profile_file"` // optional extended profile text
}

// OpenAIConfig configures the reasoning model. Values support ${VAR}
// expansion so secrets can stay in the environment.
type OpenAIConfig struct {
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	EvaluatorModel string  `yaml:"evaluator_model"` // defaults to Model
	Temperature    float32 `yaml:"temperature"`
	MaxRounds      int     `yaml:"max_rounds"`
}

// ToolsConfig configures tool dispatch.
type ToolsConfig struct {
	Execution string `yaml:"execution"` // "sequential" (default) or "parallel"
}

// PushoverConfig configures push notifications. Leave empty to disable.
type PushoverConfig struct {
	Token string `yaml:"token"`
	User  string `yaml:"user"`
}

// QuestionsConfig configures the unknown-question store.
type QuestionsConfig struct {
	Database string `yaml:"database"`
}

// ServerConfig configures the HTTP chat transport.
type ServerConfig struct {
	Address        string        `yaml:"address"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// MCPConfig contains MCP-specific settings
type MCPConfig struct {
	Servers []MCPServerConfig `yaml:"servers"`
}

// MCPServerConfig defines a single MCP server
type MCPServerConfig struct {
	Name      string            `yaml:"name"`      // Unique server identifier
	Transport string            `yaml:"transport"` // "stdio" (only supported transport)
	Command   string            `yaml:"command"`   // Executable to run
	Args      []string          `yaml:"args"`      // Command arguments
	Env       map[string]string `yaml:"env"`       // Environment variables with ${VAR} support
	Disabled  bool              `yaml:"disabled"`  // Skip this server if true
}

// Load reads and parses the YAML config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	cfg.expandSecrets()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config with fallback to default locations
// Checks: ./standin.yaml, ./configs/standin.yaml, ~/.config/standin/standin.yaml, /etc/standin/standin.yaml
func LoadWithDefaults() (*Config, error) {
	locations := []string{
		"./standin.yaml",
		"./configs/standin.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".config", "standin", "standin.yaml"))
	}

	locations = append(locations, "/etc/standin/standin.yaml")

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return Load(loc)
		}
	}

	// No config found - return defaults (not an error); flags and env can
	// still supply everything a command needs.
	cfg := &Config{}
	cfg.expandSecrets()
	cfg.applyDefaults()
	return cfg, nil
}

// expandSecrets resolves ${VAR} references in secret-bearing fields, and
// falls back to the conventional environment variables when unset.
func (c *Config) expandSecrets() {
	c.OpenAI.APIKey = ExpandEnv(c.OpenAI.APIKey)
	c.OpenAI.BaseURL = ExpandEnv(c.OpenAI.BaseURL)
	c.Pushover.Token = ExpandEnv(c.Pushover.Token)
	c.Pushover.User = ExpandEnv(c.Pushover.User)

	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = os.Getenv("OPENAI_API_BASE_URL")
	}
	if c.Pushover.Token == "" {
		c.Pushover.Token = os.Getenv("PUSHOVER_TOKEN")
	}
	if c.Pushover.User == "" {
		c.Pushover.User = os.Getenv("PUSHOVER_USER")
	}
}

func (c *Config) applyDefaults() {
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.EvaluatorModel == "" {
		c.OpenAI.EvaluatorModel = c.OpenAI.Model
	}
	if c.OpenAI.MaxRounds == 0 {
		c.OpenAI.MaxRounds = 8
	}
	if c.OpenAI.Temperature == 0 {
		c.OpenAI.Temperature = 0.7
	}
	if c.Tools.Execution == "" {
		c.Tools.Execution = "sequential"
	}
	if c.Questions.Database == "" {
		c.Questions.Database = "standin.db"
	}
	if c.Server.Address == "" {
		c.Server.Address = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 2 * time.Minute
	}
}

// Validate checks config correctness
func (c *Config) Validate() error {
	if c.OpenAI.MaxRounds < 1 {
		return fmt.Errorf("openai.max_rounds must be at least 1")
	}

	if (c.Pushover.Token == "") != (c.Pushover.User == "") {
		return fmt.Errorf("pushover requires both token and user (or neither)")
	}

	if c.Tools.Execution != "sequential" && c.Tools.Execution != "parallel" {
		return fmt.Errorf("tools.execution must be \"sequential\" or \"parallel\", got %q", c.Tools.Execution)
	}

	// Check for duplicate server names
	names := make(map[string]bool)
	for i, server := range c.MCP.Servers {
		if server.Name == "" {
			return fmt.Errorf("mcp server #%d: name cannot be empty", i+1)
		}

		if names[server.Name] {
			return fmt.Errorf("duplicate mcp server name: %s", server.Name)
		}
		names[server.Name] = true

		if err := server.Validate(); err != nil {
			return fmt.Errorf("mcp server %s: %w", server.Name, err)
		}
	}

	return nil
}

// Validate checks a single server config
func (s *MCPServerConfig) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	// Validate server name matches OpenAI tool name requirements
	// Pattern: ^[a-zA-Z0-9_-]+$
	for _, ch := range s.Name {
		if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-') {
			return fmt.Errorf("server name '%s' contains invalid character '%c' (only alphanumeric, underscore, and hyphen allowed)", s.Name, ch)
		}
	}

	if s.Transport == "" {
		return fmt.Errorf("transport is required")
	}

	if s.Transport != "stdio" {
		return fmt.Errorf("unsupported transport: %s (only 'stdio' is supported)", s.Transport)
	}

	if s.Command == "" {
		return fmt.Errorf("command is required")
	}

	return nil
}

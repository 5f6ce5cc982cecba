// Package config loads the LabTA service configuration from a YAML file,
// applies environment variable overrides, and exposes typed accessors for
// the string-encoded durations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all LabTA configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// DataDir is the directory holding problems.json, sessions.json,
	// the knowledge files, and the log directory.
	DataDir string `yaml:"data_dir"`

	// HTTP server
	Server ServerConfig `yaml:"server"`

	// Sandbox execution
	Sandbox SandboxConfig `yaml:"sandbox"`

	// LLM oracle
	LLM LLMConfig `yaml:"llm"`

	// Priority analyzer behavior
	Analyzer AnalyzerConfig `yaml:"analyzer"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	ReadTimeout  string   `yaml:"read_timeout"`
	WriteTimeout string   `yaml:"write_timeout"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// SandboxConfig configures the per-submission container sandbox.
type SandboxConfig struct {
	// Image is the pre-built runner image bundling all toolchains.
	Image string `yaml:"image"`

	// Timeout is the wall-clock budget for one container invocation.
	Timeout string `yaml:"timeout"`

	// MemoryBytes is the hard container memory cap.
	MemoryBytes int64 `yaml:"memory_bytes"`

	// CPUs is the fractional CPU share (docker --cpus).
	CPUs float64 `yaml:"cpus"`

	// WorkspaceRoot is where per-job directories are created.
	WorkspaceRoot string `yaml:"workspace_root"`

	// MountPath is the fixed in-container path the workspace is bound to.
	MountPath string `yaml:"mount_path"`

	// MaxConcurrent bounds how many containers may run at once.
	MaxConcurrent int64 `yaml:"max_concurrent"`

	// MaxOutputBytes caps captured stdout/stderr per stream.
	MaxOutputBytes int64 `yaml:"max_output_bytes"`
}

// LLMConfig configures the hint oracle.
type LLMConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Timeout    string `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
}

// AnalyzerConfig configures the priority analyzer.
type AnalyzerConfig struct {
	// OverrideRuntime extends the priority override from LOGIC_ERROR to
	// RUNTIME_ERROR classifications. Off by default.
	OverrideRuntime bool `yaml:"override_runtime"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
	JSONFormat bool            `yaml:"json_format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "labta",
		Version: "1.0.0",
		DataDir: "data",

		Server: ServerConfig{
			Addr:         ":8000",
			ReadTimeout:  "30s",
			WriteTimeout: "120s",
			AllowOrigins: []string{"*"},
		},

		Sandbox: SandboxConfig{
			Image:          "lab-ta-runner",
			Timeout:        "5s",
			MemoryBytes:    256 * 1024 * 1024,
			CPUs:           0.5,
			WorkspaceRoot:  "temp_workspace",
			MountPath:      "/app",
			MaxConcurrent:  8,
			MaxOutputBytes: 1024 * 1024,
		},

		LLM: LLMConfig{
			BaseURL:    "https://generativelanguage.googleapis.com/v1beta",
			Model:      "gemini-2.0-flash",
			Timeout:    "60s",
			MaxRetries: 3,
		},

		Analyzer: AnalyzerConfig{
			OverrideRuntime: false,
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

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
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if addr := os.Getenv("LABTA_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if dir := os.Getenv("LABTA_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if image := os.Getenv("LABTA_SANDBOX_IMAGE"); image != "" {
		c.Sandbox.Image = image
	}
}

// ProblemsFile returns the path of the problem catalog.
func (c *Config) ProblemsFile() string {
	return filepath.Join(c.DataDir, "problems.json")
}

// SessionsFile returns the path of the persisted session store.
func (c *Config) SessionsFile() string {
	return filepath.Join(c.DataDir, "sessions.json")
}

// KnowledgeFiles returns the knowledge base files merged at startup: the
// priority dictionary and the lab manual citation index.
func (c *Config) KnowledgeFiles() []string {
	return []string{
		filepath.Join(c.DataDir, "error_dictionary.json"),
		filepath.Join(c.DataDir, "lab_manual_index.json"),
	}
}

// GetSandboxTimeout returns the container wall-clock budget as a duration.
func (c *Config) GetSandboxTimeout() time.Duration {
	d, err := time.ParseDuration(c.Sandbox.Timeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetReadTimeout returns the HTTP read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ReadTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetWriteTimeout returns the HTTP write timeout as a duration.
func (c *Config) GetWriteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.WriteTimeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

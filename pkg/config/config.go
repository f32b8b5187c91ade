// Package config handles pipeline configuration loading and validation
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shepherdjerred/conductor/pkg/types"
)

// CheckConfig declares one independent tier-0 check
type CheckConfig struct {
	Name    string   `json:"name" yaml:"name"`
	Command []string `json:"command" yaml:"command"`
	// Blocking checks fail the run; advisory checks only warn
	Blocking bool `json:"blocking" yaml:"blocking"`
}

// DeployConfig declares one application deployment task
type DeployConfig struct {
	Name    string   `json:"name" yaml:"name"`
	Command []string `json:"command" yaml:"command"`
	// VersionKey, when set, records this deploy in the versions file on success
	VersionKey string `json:"versionKey,omitempty" yaml:"versionKey,omitempty"`
}

// RegistryConfig declares the artifact registry
type RegistryConfig struct {
	Host       string `json:"host" yaml:"host"`
	Repository string `json:"repository" yaml:"repository"`
}

// ReleaseConfig declares the release workflow inputs
type ReleaseConfig struct {
	Branch       string   `json:"branch" yaml:"branch"`
	VersionsFile string   `json:"versionsFile" yaml:"versionsFile"`
	// BinaryProjects lists projects whose release tags carry downloadable binaries
	BinaryProjects []string `json:"binaryProjects,omitempty" yaml:"binaryProjects,omitempty"`
	DocsDir        string   `json:"docsDir,omitempty" yaml:"docsDir,omitempty"`
	DocsBucket     string   `json:"docsBucket,omitempty" yaml:"docsBucket,omitempty"`
}

// NotificationConfig represents notification preferences
type NotificationConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	File  string `json:"file" yaml:"file"`
	Level string `json:"level" yaml:"level"`
}

// PipelineConfig is the main configuration, read from conductor.yaml
type PipelineConfig struct {
	Version       string              `json:"version" yaml:"version"`
	Repo          string              `json:"repo" yaml:"repo"`
	Environment   types.Environment   `json:"environment" yaml:"environment"`
	VersionOnly   bool                `json:"versionOnly" yaml:"versionOnly"`
	Checks        []CheckConfig       `json:"checks" yaml:"checks"`
	Deploys       []DeployConfig      `json:"deploys" yaml:"deploys"`
	Registry      *RegistryConfig     `json:"registry,omitempty" yaml:"registry,omitempty"`
	Release       *ReleaseConfig      `json:"release,omitempty" yaml:"release,omitempty"`
	Notifications *NotificationConfig `json:"notifications,omitempty" yaml:"notifications,omitempty"`
	Logging       *LoggingConfig      `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// Manager handles configuration operations
type Manager struct{}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{}
}

// LoadConfig loads configuration from a file. JSON is tried first, then YAML.
func (m *Manager) LoadConfig(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg PipelineConfig

	if err := json.Unmarshal(data, &cfg); err == nil {
		return m.validateConfig(&cfg)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config as JSON or YAML: %w", err)
	}
	return m.validateConfig(&cfg)
}

func (m *Manager) validateConfig(cfg *PipelineConfig) (*PipelineConfig, error) {
	if cfg.Version == "" {
		return nil, fmt.Errorf("config version is required")
	}
	if cfg.Repo == "" {
		return nil, fmt.Errorf("repo is required")
	}

	if cfg.Environment == "" {
		cfg.Environment = types.EnvironmentDevelopment
	}
	switch cfg.Environment {
	case types.EnvironmentProduction, types.EnvironmentDevelopment:
	default:
		return nil, fmt.Errorf("unknown environment: %s", cfg.Environment)
	}

	seen := make(map[string]bool)
	for _, check := range cfg.Checks {
		if check.Name == "" {
			return nil, fmt.Errorf("check name is required")
		}
		if len(check.Command) == 0 {
			return nil, fmt.Errorf("check %s has no command", check.Name)
		}
		if seen[check.Name] {
			return nil, fmt.Errorf("duplicate check name: %s", check.Name)
		}
		seen[check.Name] = true
	}

	seen = make(map[string]bool)
	for _, deploy := range cfg.Deploys {
		if deploy.Name == "" {
			return nil, fmt.Errorf("deploy name is required")
		}
		if len(deploy.Command) == 0 {
			return nil, fmt.Errorf("deploy %s has no command", deploy.Name)
		}
		if seen[deploy.Name] {
			return nil, fmt.Errorf("duplicate deploy name: %s", deploy.Name)
		}
		seen[deploy.Name] = true
	}

	return cfg, nil
}

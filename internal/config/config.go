// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package config handles application configuration: where the batch tool
// lives, how long an invocation may run, the log level, and the SSH hosts that
// can run the tool remotely.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultTool is the executable name used when nothing else is configured.
	DefaultTool = "carisbatch"
	// DefaultTimeout bounds a single batch tool invocation.
	DefaultTimeout = time.Hour

	envTool   = "CARISBATCH_TOOL"
	envConfig = "CARISBATCH_CONFIG"
)

// SSHHost is a processing server that has the batch tool installed.
type SSHHost struct {
	// Name is the unique identifier for this host configuration
	Name string `yaml:"name" json:"name"`

	// Hostname is the server address (IP or domain)
	Hostname string `yaml:"hostname" json:"hostname"`

	User string `yaml:"user" json:"user"`

	// Port defaults to 22 when zero
	Port int `yaml:"port,omitempty" json:"port,omitempty"`

	KeyPath string `yaml:"key_path,omitempty" json:"key_path,omitempty"`

	// Password is an optional authentication method (plaintext, discouraged)
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// Tool is the batch tool path on the remote host. Empty means DefaultTool
	// resolved through the remote PATH.
	Tool string `yaml:"tool,omitempty" json:"tool,omitempty"`

	Disabled bool `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// RemoteTool returns the executable to invoke on the host.
func (h SSHHost) RemoteTool() string {
	if h.Tool == "" {
		return DefaultTool
	}
	return h.Tool
}

// Config represents the top-level application configuration
type Config struct {
	// Tool is the local batch tool executable (optional, discovered otherwise)
	Tool string `yaml:"tool,omitempty" json:"tool,omitempty"`

	// TimeoutValue is a Go duration string such as "90m"
	TimeoutValue string `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	LogLevel string `yaml:"log_level,omitempty" json:"log_level,omitempty"`

	// DefaultHost names the SSH host used when --host is not given. Empty
	// means run locally.
	DefaultHost string `yaml:"default_host,omitempty" json:"default_host,omitempty"`

	SSHHosts []SSHHost `yaml:"ssh_hosts" json:"ssh_hosts"`
}

// Timeout returns the configured invocation timeout or DefaultTimeout.
func (c Config) Timeout() (time.Duration, error) {
	if strings.TrimSpace(c.TimeoutValue) == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.TimeoutValue)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.TimeoutValue, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid timeout %q: must be positive", c.TimeoutValue)
	}
	return d, nil
}

// Host finds an enabled SSH host by name.
func (c Config) Host(name string) (SSHHost, error) {
	for _, h := range c.SSHHosts {
		if h.Name == name {
			if h.Disabled {
				return SSHHost{}, fmt.Errorf("ssh host '%s' is disabled", name)
			}
			return h, nil
		}
	}
	return SSHHost{}, fmt.Errorf("ssh host '%s' not found in configuration", name)
}

// EnabledHosts returns the hosts that are not disabled.
func (c Config) EnabledHosts() []SSHHost {
	return slices.DeleteFunc(slices.Clone(c.SSHHosts), func(h SSHHost) bool {
		return h.Disabled
	})
}

// ToolFromEnv returns the tool path set through the environment, if any.
func ToolFromEnv() string {
	return strings.TrimSpace(os.Getenv(envTool))
}

func DefaultConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(envConfig)); p != "" {
		return p, nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "carisbatch", "config.yaml"), nil
}

func LoadConfig() (Config, error) {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadConfigFrom(configPath)
}

// LoadConfigFrom reads a configuration file. A missing file yields an empty
// configuration.
func LoadConfigFrom(configPath string) (Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	if _, err := cfg.Timeout(); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", configPath, err)
	}

	return cfg, nil
}

func EnsureConfigDir() error {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	configDir := filepath.Dir(configPath)
	err = os.MkdirAll(configDir, 0750) // rwxr-x---
	if err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}
	return nil
}

func SaveConfig(cfg Config) error {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return err
	}

	err = EnsureConfigDir()
	if err != nil {
		return err
	}
	return SaveConfigTo(configPath, cfg)
}

// SaveConfigTo writes cfg as YAML with permissions rw-r----- (0640).
func SaveConfigTo(configPath string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configPath, data, 0640)
	if err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configPath, err)
	}

	return nil
}

func ResolvePath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path, fmt.Errorf("could not get user home directory to resolve path '%s': %w", path, err)
	}

	return filepath.Join(homeDir, path[2:]), nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// PotentialHost is a host entry found in ~/.ssh/config that could be turned
// into a processing server definition.
type PotentialHost struct {
	Alias    string `json:"alias"`
	Hostname string `json:"hostname"`
	User     string `json:"user"`
	Port     int    `json:"port,omitempty"`
	KeyPath  string `json:"key_path,omitempty"`
}

func DefaultSSHConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ssh", "config"), nil
}

func ParseSSHConfig() ([]PotentialHost, error) {
	sshConfigPath, err := DefaultSSHConfigPath()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(sshConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []PotentialHost{}, nil
		}
		return nil, fmt.Errorf("failed to open ssh config file %s: %w", sshConfigPath, err)
	}
	defer f.Close()

	hosts, err := DecodeSSHConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh config file %s: %w", sshConfigPath, err)
	}
	return hosts, nil
}

// DecodeSSHConfig extracts concrete hosts (no wildcards) that have both a
// hostname and a user.
func DecodeSSHConfig(r io.Reader) ([]PotentialHost, error) {
	cfg, err := ssh_config.Decode(r)
	if err != nil {
		return nil, err
	}

	var potentialHosts []PotentialHost
	for _, host := range cfg.Hosts {
		if len(host.Patterns) == 0 {
			continue
		}
		alias := host.Patterns[0].String()
		if strings.ContainsAny(alias, "*?!") {
			continue
		}

		hostname, _ := cfg.Get(alias, "HostName")
		user, _ := cfg.Get(alias, "User")
		portStr, _ := cfg.Get(alias, "Port")
		keyPath, _ := cfg.Get(alias, "IdentityFile")

		if hostname == "" {
			hostname = alias
		}

		port := 22
		if portStr != "" {
			if p, err := strconv.Atoi(portStr); err == nil {
				port = p
			}
		}

		if resolved, err := ResolvePath(keyPath); err == nil {
			keyPath = resolved
		}

		if user != "" {
			potentialHosts = append(potentialHosts, PotentialHost{
				Alias:    alias,
				Hostname: hostname,
				User:     user,
				Port:     port,
				KeyPath:  keyPath,
			})
		}
	}

	return potentialHosts, nil
}

// ToSSHHost converts an imported entry into a host definition. tool may be
// empty to rely on the remote PATH.
func (p PotentialHost) ToSSHHost(uniqueName, tool string) (SSHHost, error) {
	if p.Hostname == "" || p.User == "" {
		return SSHHost{}, fmt.Errorf("cannot convert potential host '%s' with missing hostname or user", p.Alias)
	}
	if uniqueName == "" {
		uniqueName = p.Alias
	}

	return SSHHost{
		Name:     uniqueName,
		Hostname: p.Hostname,
		User:     p.User,
		Port:     p.Port,
		KeyPath:  p.KeyPath,
		Tool:     tool,
	}, nil
}

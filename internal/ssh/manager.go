// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package ssh keeps a pool of SSH connections to the processing servers that
// run the batch tool remotely.
package ssh

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"carisbatch/internal/config"
	"carisbatch/internal/logger"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

const dialTimeout = 10 * time.Second

// Manager hands out one client per configured host and reuses it across
// invocations. It is safe for concurrent use.
type Manager struct {
	clients   map[string]*ssh.Client
	agentConn net.Conn
	mu        sync.Mutex
}

func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]*ssh.Client),
	}
}

// GetClient returns a live client for host, dialing when there is no pooled
// connection or the pooled one stopped answering keepalives.
func (m *Manager) GetClient(ctx context.Context, host config.SSHHost) (*ssh.Client, error) {
	m.mu.Lock()
	client, found := m.clients[host.Name]
	if found {
		if _, _, err := client.SendRequest("keepalive@openssh.com", true, nil); err == nil {
			m.mu.Unlock()
			return client, nil
		}
		logger.Debug("Dropping stale ssh client", "host", host.Name)
		_ = client.Close()
		delete(m.clients, host.Name)
	}
	m.mu.Unlock()

	newClient, err := m.dial(ctx, host)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another goroutine may have dialed the same host meanwhile
	if existing, found := m.clients[host.Name]; found {
		_ = newClient.Close()
		return existing, nil
	}
	m.clients[host.Name] = newClient
	return newClient, nil
}

func (m *Manager) dial(ctx context.Context, host config.SSHHost) (*ssh.Client, error) {
	authMethods, err := m.authMethods(host)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare auth methods for %s: %w", host.Name, err)
	}
	if len(authMethods) == 0 {
		return nil, fmt.Errorf("no suitable authentication method found for %s (key, agent, or password required)", host.Name)
	}

	hostKeyCallback, err := hostKeyCallback()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare host key verification for %s: %w", host.Name, err)
	}

	sshConfig := &ssh.ClientConfig{
		User:            host.User,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         dialTimeout,
	}

	port := host.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(host.Hostname, fmt.Sprint(port))

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ssh host %s (%s): %w", host.Name, addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, sshConfig)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s (%s) failed: %w", host.Name, addr, err)
	}
	logger.Info("Connected to processing server", "host", host.Name, "addr", addr)
	return ssh.NewClient(c, chans, reqs), nil
}

// authMethods tries, in order: the configured private key, the SSH agent,
// then a configured password.
func (m *Manager) authMethods(host config.SSHHost) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if host.KeyPath != "" {
		keyPath, err := config.ResolvePath(host.KeyPath)
		if err != nil {
			logger.Warn("Could not resolve key path", "key_path", host.KeyPath, "error", err)
			keyPath = host.KeyPath
		}

		key, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key file %s: %w", keyPath, err)
		}

		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			if _, ok := err.(*ssh.PassphraseMissingError); !ok {
				return nil, fmt.Errorf("failed to parse private key file %s: %w", keyPath, err)
			}
			logger.Warn("Skipping passphrase-protected key; use the ssh agent instead", "key_path", keyPath)
		} else {
			methods = append(methods, ssh.PublicKeys(signer))
		}
	}

	if socket := os.Getenv("SSH_AUTH_SOCK"); socket != "" {
		m.mu.Lock()
		if m.agentConn == nil {
			if conn, err := net.Dial("unix", socket); err == nil {
				m.agentConn = conn
			}
		}
		conn := m.agentConn
		m.mu.Unlock()
		if conn != nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	if host.Password != "" {
		methods = append(methods, ssh.Password(host.Password))
	}

	return methods, nil
}

// CloseAll closes every pooled connection and the agent socket.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, client := range m.clients {
		if err := client.Close(); err != nil {
			logger.Errorf("Error closing SSH client for %s: %v", name, err)
		}
		delete(m.clients, name)
	}
	if m.agentConn != nil {
		_ = m.agentConn.Close()
		m.agentConn = nil
	}
}

// Close drops the pooled connection to one host.
func (m *Manager) Close(hostName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if client, found := m.clients[hostName]; found {
		if err := client.Close(); err != nil {
			logger.Errorf("Error closing SSH client for %s: %v", hostName, err)
		}
		delete(m.clients, hostName)
	}
}

// hostKeyCallback verifies against ~/.ssh/known_hosts. Only a missing file
// falls back to accepting any key.
func hostKeyCallback() (ssh.HostKeyCallback, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory for known_hosts: %w", err)
	}
	knownHostsPath := filepath.Join(homeDir, ".ssh", "known_hosts")

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("known_hosts not found, host keys will not be verified", "path", knownHostsPath)
			return ssh.InsecureIgnoreHostKey(), nil
		}
		return nil, fmt.Errorf("failed to load known_hosts file %s: %w", knownHostsPath, err)
	}
	return callback, nil
}

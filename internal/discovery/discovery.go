// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package discovery locates the batch tool, both on this machine and on the
// configured processing servers.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"carisbatch/internal/config"
	"carisbatch/internal/logger"
	"carisbatch/internal/runner"
	"carisbatch/internal/util"

	"golang.org/x/sync/semaphore"
)

// maxConcurrentProbes limits how many hosts are probed at once.
const maxConcurrentProbes = 8

// ErrToolNotFound is returned when no batch tool executable can be located.
var ErrToolNotFound = errors.New("carisbatch executable not found")

// Source records how a tool was found.
type Source string

const (
	SourceConfig  Source = "config"
	SourceEnv     Source = "env"
	SourcePath    Source = "path"
	SourceInstall Source = "install"
	SourceRemote  Source = "remote"
)

// Tool is a located batch tool executable.
type Tool struct {
	Path       string
	Source     Source
	ServerName string          // "local" or the SSH host name
	HostConfig *config.SSHHost // nil if local
}

// Identifier returns "local:<path>" or "<host>:<path>".
func (t Tool) Identifier() string {
	return fmt.Sprintf("%s:%s", t.ServerName, t.Path)
}

// IsRemote reports whether the tool lives on an SSH host.
func (t Tool) IsRemote() bool {
	return t.HostConfig != nil
}

// Hooks for tests.
var (
	lookPath        = exec.LookPath
	statFile        = os.Stat
	globFiles       = filepath.Glob
	installPatterns = defaultInstallPatterns
)

func defaultInstallPatterns() []string {
	if runtime.GOOS == "windows" {
		roots := []string{os.Getenv("ProgramFiles"), os.Getenv("ProgramFiles(x86)")}
		var patterns []string
		for _, root := range roots {
			if root != "" {
				patterns = append(patterns, filepath.Join(root, "CARIS", "*", "*", "bin", "carisbatch.exe"))
			}
		}
		if len(patterns) == 0 {
			patterns = append(patterns, `C:\Program Files\CARIS\*\*\bin\carisbatch.exe`)
		}
		return patterns
	}
	return []string{
		"/opt/caris/*/bin/carisbatch",
		"/opt/caris/*/*/bin/carisbatch",
		"/usr/local/caris/*/bin/carisbatch",
	}
}

// FindTool resolves the local batch tool: the configured tool, then the
// CARISBATCH_TOOL environment variable, then PATH, then the standard install
// locations (newest version wins). A configured or environment path that
// does not exist is an error; there is no fallback past it.
func FindTool(cfg config.Config) (Tool, error) {
	logger.Debug("Locating batch tool")

	for _, explicit := range []struct {
		value  string
		source Source
	}{
		{cfg.Tool, SourceConfig},
		{config.ToolFromEnv(), SourceEnv},
	} {
		if explicit.value == "" {
			continue
		}
		path, err := resolveExplicit(explicit.value)
		if err != nil {
			logger.Error("Configured batch tool is invalid", "source", explicit.source, "tool", explicit.value, "error", err)
			return Tool{}, fmt.Errorf("%s tool '%s' is invalid: %w", explicit.source, explicit.value, err)
		}
		logger.Info("Using batch tool", "path", path, "source", explicit.source)
		return Tool{Path: path, Source: explicit.source, ServerName: "local"}, nil
	}

	if path, err := lookPath(config.DefaultTool); err == nil {
		logger.Info("Using batch tool from PATH", "path", path)
		return Tool{Path: path, Source: SourcePath, ServerName: "local"}, nil
	}

	var candidates []string
	for _, pattern := range installPatterns() {
		matches, err := globFiles(pattern)
		if err != nil {
			logger.Warn("Bad install pattern", "pattern", pattern, "error", err)
			continue
		}
		candidates = append(candidates, matches...)
	}
	logger.Debug("Checked install locations", "candidates", candidates)
	if len(candidates) > 0 {
		slices.Sort(candidates)
		path := candidates[len(candidates)-1]
		logger.Info("Using installed batch tool", "path", path)
		return Tool{Path: path, Source: SourceInstall, ServerName: "local"}, nil
	}

	return Tool{}, ErrToolNotFound
}

func resolveExplicit(value string) (string, error) {
	path, err := config.ResolvePath(value)
	if err != nil {
		return "", err
	}
	if !strings.ContainsAny(path, `/\`) {
		return lookPath(path)
	}
	info, err := statFile(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	return path, nil
}

// ExecutorFactory returns the executor used to probe one host.
type ExecutorFactory func(host config.SSHHost) runner.Executor

// FindRemoteTools probes every enabled host concurrently with `command -v`.
// Each located tool is sent on the first channel, each failure on the second;
// the third is closed once every probe has finished.
func FindRemoteTools(ctx context.Context, hosts []config.SSHHost, newExecutor ExecutorFactory) (<-chan Tool, <-chan error, <-chan struct{}) {
	toolChan := make(chan Tool, len(hosts))
	errorChan := make(chan error, len(hosts))
	doneChan := make(chan struct{})

	sem := semaphore.NewWeighted(maxConcurrentProbes)
	var wg sync.WaitGroup

	for i := range hosts {
		hc := hosts[i]
		if hc.Disabled {
			logger.Debug("Skipping disabled host", "host_name", hc.Name)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				errorChan <- fmt.Errorf("failed to acquire semaphore for %s: %w", hc.Name, err)
				return
			}
			defer sem.Release(1)

			tool, err := ProbeHost(ctx, hc, newExecutor(hc))
			if err != nil {
				logger.Error("Remote tool probe failed", "host_name", hc.Name, "hostname", hc.Hostname, "error", err)
				errorChan <- err
				return
			}
			logger.Info("Remote tool found", "host_name", hc.Name, "path", tool.Path)
			toolChan <- tool
		}()
	}

	go func() {
		wg.Wait()
		close(toolChan)
		close(errorChan)
		close(doneChan)
	}()

	return toolChan, errorChan, doneChan
}

// ProbeHost asks the host's shell where its batch tool is.
func ProbeHost(ctx context.Context, host config.SSHHost, executor runner.Executor) (Tool, error) {
	probe := "command -v " + util.QuoteArgForShell(host.RemoteTool())
	out, err := executor.Exec(ctx, probe)
	if err != nil {
		return Tool{}, fmt.Errorf("probe failed for %s: %w", host.Name, err)
	}
	path, _, _ := strings.Cut(strings.TrimSpace(out.Stdout), "\n")
	path = strings.TrimSpace(path)
	if out.ExitCode != 0 || path == "" {
		return Tool{}, fmt.Errorf("%w on %s (looked for %s)", ErrToolNotFound, host.Name, host.RemoteTool())
	}
	hc := host
	return Tool{Path: path, Source: SourceRemote, ServerName: host.Name, HostConfig: &hc}, nil
}

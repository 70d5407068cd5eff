// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package logger wraps log/slog with the application's defaults: JSON records
// appended to a log file under the XDG state directory, mirrored to stderr
// when running as a CLI.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	defaultLogger *slog.Logger
	level         = new(slog.LevelVar)
	mu            sync.RWMutex
)

// getLogFilePath determines the path for the application log file based on XDG spec.
func getLogFilePath() (string, error) {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not get user home directory: %w", err)
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}

	return filepath.Join(stateDir, "carisbatch", "app.log"), nil
}

func openLogFile() (io.Writer, string, error) {
	logFilePath, err := getLogFilePath()
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0750); err != nil {
		return nil, logFilePath, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return nil, logFilePath, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, logFilePath, nil
}

// InitLogger configures the default logger. The TUI owns the terminal, so it
// logs to the file only; the CLI also writes to stderr. levelName is one of
// debug, info, warn or error; anything else means info.
func InitLogger(isTUI bool, levelName string) {
	SetLevel(levelName)

	var writers []io.Writer
	file, path, err := openLogFile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled (%s): %v\n", path, err)
	} else {
		writers = append(writers, file)
	}
	if !isTUI || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	SetLogger(slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: level})))
	Debug("Logging configured", "file", path, "stderr", !isTUI)
}

// SetLevel changes the minimum level of the default logger.
func SetLevel(levelName string) {
	switch strings.ToLower(strings.TrimSpace(levelName)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

// SetLogger replaces the default logger instance, for example with a
// discarding logger in tests.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

// Logger returns the configured logger. Before InitLogger is called it
// writes text records to stderr at the current level.
func Logger() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return defaultLogger
}

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Infof logs a formatted informational message.
// Note: slog prefers structured logging over formatted strings.
func Infof(format string, v ...interface{}) {
	Logger().Info(fmt.Sprintf(format, v...))
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

func Errorf(format string, v ...interface{}) {
	Logger().Error(fmt.Sprintf(format, v...))
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

func Debugf(format string, v ...interface{}) {
	Logger().Debug(fmt.Sprintf(format, v...))
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func Warnf(format string, v ...interface{}) {
	Logger().Warn(fmt.Sprintf(format, v...))
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package cli

import (
	"errors"
	"net/http"
	"time"

	"carisbatch/internal/api"
	"carisbatch/internal/logger"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts an HTTP server exposing the operation catalog, command line
previews, operation runs and SSH host management under /api.`,
	Example: "  cb serve\n  cb serve --addr 127.0.0.1:9090",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runWebServer()
	},
}

// runWebServer starts the HTTP server and blocks until it fails.
func runWebServer() {
	timeout, err := cfg.Timeout()
	if err != nil {
		fail("%v", err)
	}
	t := targets(false)

	router := mux.NewRouter()
	api.RegisterOperationRoutes(router, api.Backend{
		Tool:        t.LocalTool,
		Timeout:     timeout,
		DefaultHost: cfg.DefaultHost,
		Executor:    t.For,
	})
	api.RegisterSSHRoutes(router)

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	statusColor.Printf("Starting API server on %s\n", identifierColor.Sprint(serveAddr))
	logger.Info("Starting API server", "addr", serveAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fail("server stopped: %v", err)
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

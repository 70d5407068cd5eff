// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"carisbatch/internal/config"

	"github.com/gorilla/mux"
)

// RegisterSSHRoutes registers the API routes for SSH host configuration.
func RegisterSSHRoutes(router *mux.Router) {
	router.HandleFunc("/api/ssh/hosts", listSSHHostsHandler).Methods("GET")
	router.HandleFunc("/api/ssh/hosts", addSSHHostHandler).Methods("POST")
	router.HandleFunc("/api/ssh/hosts/{name}", getSSHHostHandler).Methods("GET")
	router.HandleFunc("/api/ssh/hosts/{name}", updateSSHHostHandler).Methods("PUT")
	router.HandleFunc("/api/ssh/hosts/{name}", deleteSSHHostHandler).Methods("DELETE")
	router.HandleFunc("/api/ssh/import", importSSHHostsHandler).Methods("GET")
}

// redacted hides stored passwords from API responses.
func redacted(h config.SSHHost) config.SSHHost {
	if h.Password != "" {
		h.Password = "********"
	}
	return h
}

func validateHost(h config.SSHHost) error {
	var missing []string
	if strings.TrimSpace(h.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(h.Hostname) == "" {
		missing = append(missing, "hostname")
	}
	if strings.TrimSpace(h.User) == "" {
		missing = append(missing, "user")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if h.Port < 0 || h.Port > 65535 {
		return fmt.Errorf("invalid port %d", h.Port)
	}
	return nil
}

func listSSHHostsHandler(w http.ResponseWriter, r *http.Request) {
	cfg, err := config.LoadConfig()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("error loading config: %w", err))
		return
	}

	hosts := make([]config.SSHHost, len(cfg.SSHHosts))
	for i, h := range cfg.SSHHosts {
		hosts[i] = redacted(h)
	}
	writeJSONResponse(w, http.StatusOK, hosts)
}

func addSSHHostHandler(w http.ResponseWriter, r *http.Request) {
	var newHost config.SSHHost
	if err := json.NewDecoder(r.Body).Decode(&newHost); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := validateHost(newHost); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("error loading config: %w", err))
		return
	}
	if _, err := cfg.Host(newHost.Name); err == nil || strings.Contains(err.Error(), "disabled") {
		writeError(w, http.StatusConflict, fmt.Errorf("ssh host '%s' already exists", newHost.Name))
		return
	}

	cfg.SSHHosts = append(cfg.SSHHosts, newHost)
	if err := config.SaveConfig(cfg); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("error saving config: %w", err))
		return
	}
	writeJSONResponse(w, http.StatusCreated, redacted(newHost))
}

func getSSHHostHandler(w http.ResponseWriter, r *http.Request) {
	hostName := mux.Vars(r)["name"]

	cfg, err := config.LoadConfig()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("error loading config: %w", err))
		return
	}
	for _, host := range cfg.SSHHosts {
		if host.Name == hostName {
			writeJSONResponse(w, http.StatusOK, redacted(host))
			return
		}
	}
	writeError(w, http.StatusNotFound, errors.New("ssh host not found"))
}

// updateSSHHostHandler replaces a host. An omitted or redacted password keeps
// the stored one.
func updateSSHHostHandler(w http.ResponseWriter, r *http.Request) {
	hostName := mux.Vars(r)["name"]

	var updatedHost config.SSHHost
	if err := json.NewDecoder(r.Body).Decode(&updatedHost); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if updatedHost.Name == "" {
		updatedHost.Name = hostName
	}
	if err := validateHost(updatedHost); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("error loading config: %w", err))
		return
	}

	found := false
	for i, host := range cfg.SSHHosts {
		if host.Name == hostName {
			if updatedHost.Password == "" || updatedHost.Password == redacted(host).Password {
				updatedHost.Password = host.Password
			}
			cfg.SSHHosts[i] = updatedHost
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, errors.New("ssh host not found"))
		return
	}

	if err := config.SaveConfig(cfg); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("error saving config: %w", err))
		return
	}
	writeJSONResponse(w, http.StatusOK, redacted(updatedHost))
}

func deleteSSHHostHandler(w http.ResponseWriter, r *http.Request) {
	hostName := mux.Vars(r)["name"]

	cfg, err := config.LoadConfig()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("error loading config: %w", err))
		return
	}

	newSSHHosts := []config.SSHHost{}
	found := false
	for _, host := range cfg.SSHHosts {
		if host.Name == hostName {
			found = true
			continue
		}
		newSSHHosts = append(newSSHHosts, host)
	}
	if !found {
		writeError(w, http.StatusNotFound, errors.New("ssh host not found"))
		return
	}

	cfg.SSHHosts = newSSHHosts
	if err := config.SaveConfig(cfg); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("error saving config: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// importSSHHostsHandler lists the entries of ~/.ssh/config that could be
// imported. Nothing is saved.
func importSSHHostsHandler(w http.ResponseWriter, r *http.Request) {
	potential, err := config.ParseSSHConfig()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("error reading ssh config: %w", err))
		return
	}
	writeJSONResponse(w, http.StatusOK, potential)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package api implements the HTTP API: browsing the operation catalog,
// previewing command lines, running operations, and managing SSH hosts.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"carisbatch/batch"
	"carisbatch/catalog"
	"carisbatch/internal/logger"
	"carisbatch/internal/runner"

	"github.com/gorilla/mux"
)

// Backend decides where and how operations run.
type Backend struct {
	// Tool is the local batch tool executable.
	Tool string
	// Timeout applies when a request sets none.
	Timeout time.Duration
	// DefaultHost is used when a request names no host. Empty means local.
	DefaultHost string
	// Executor returns the executor and tool path for a host. An empty host
	// name means this machine.
	Executor func(host string) (runner.Executor, string, error)
}

// SettingInfo describes one option of an operation.
type SettingInfo struct {
	Name       string `json:"name"`
	Flag       string `json:"flag"`
	Default    any    `json:"default"`
	Repeatable bool   `json:"repeatable,omitempty"`
}

// OperationSummary is the list view of a catalog entry.
type OperationSummary struct {
	Command   string   `json:"command"`
	Group     string   `json:"group"`
	Summary   string   `json:"summary"`
	OptionKey string   `json:"option_key,omitempty"`
	Variants  []string `json:"variants,omitempty"`
}

// OperationDetail adds every setting of every variant.
type OperationDetail struct {
	OperationSummary
	Common          []SettingInfo            `json:"common"`
	VariantSettings map[string][]SettingInfo `json:"variant_settings,omitempty"`
}

func summarize(d *catalog.Descriptor) OperationSummary {
	s := OperationSummary{
		Command:   d.Command,
		Group:     d.Group,
		Summary:   d.Summary,
		OptionKey: d.OptionKey,
	}
	if d.Discriminated() {
		s.Variants = d.VariantNames()
	}
	return s
}

func settingInfos(defaults catalog.Defaults) []SettingInfo {
	out := make([]SettingInfo, len(defaults))
	for i, s := range defaults {
		out[i] = SettingInfo{
			Name:       s.Name,
			Flag:       batch.FlagName(s.Name),
			Default:    s.Default,
			Repeatable: batch.IsRepeatable(s.Name),
		}
	}
	return out
}

func detail(d *catalog.Descriptor) OperationDetail {
	out := OperationDetail{OperationSummary: summarize(d), Common: settingInfos(d.Common)}
	if d.Discriminated() {
		out.VariantSettings = make(map[string][]SettingInfo)
		for _, name := range d.VariantNames() {
			defaults, _ := d.Variant(name)
			out.VariantSettings[name] = settingInfos(defaults)
		}
	}
	return out
}

// RegisterOperationRoutes registers the catalog and execution routes.
func RegisterOperationRoutes(router *mux.Router, backend Backend) {
	h := &operationHandlers{backend: backend}
	router.HandleFunc("/api/groups", h.listGroups).Methods("GET")
	router.HandleFunc("/api/operations", h.listOperations).Methods("GET")
	router.HandleFunc("/api/operations/{name}", h.getOperation).Methods("GET")
	router.HandleFunc("/api/operations/{name}/command", h.buildCommand).Methods("POST")
	router.HandleFunc("/api/operations/{name}/run", h.runOperation).Methods("POST")
}

type operationHandlers struct {
	backend Backend
}

// writeJSONResponse writes data as JSON with CORS headers.
func writeJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSONResponse(w, status, map[string]string{"error": err.Error()})
}

func (h *operationHandlers) listGroups(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, catalog.Groups())
}

// listOperations serves GET /api/operations. The optional group query
// parameter restricts the list to one product area.
func (h *operationHandlers) listOperations(w http.ResponseWriter, r *http.Request) {
	descriptors := catalog.All()
	if group := r.URL.Query().Get("group"); group != "" {
		descriptors = catalog.InGroup(group)
	}
	out := make([]OperationSummary, len(descriptors))
	for i, d := range descriptors {
		out[i] = summarize(d)
	}
	writeJSONResponse(w, http.StatusOK, out)
}

func (h *operationHandlers) getOperation(w http.ResponseWriter, r *http.Request) {
	d, ok := catalog.Lookup(mux.Vars(r)["name"])
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", batch.ErrUnknownOperation, mux.Vars(r)["name"]))
		return
	}
	writeJSONResponse(w, http.StatusOK, detail(d))
}

// OperationRequest is the body of the command and run endpoints.
type OperationRequest struct {
	Input       string         `json:"input"`
	Output      string         `json:"output"`
	InputAsURI  bool           `json:"input_as_uri"`
	OutputAsURI bool           `json:"output_as_uri"`
	Vessel      []string       `json:"vessel"`
	Day         []string       `json:"day"`
	Line        []string       `json:"line"`
	FilesToLoad []string       `json:"files_to_load"`
	Settings    map[string]any `json:"settings"`
	Timeout     string         `json:"timeout"`
	Host        string         `json:"host"`
}

// decodeOperationRequest keeps JSON numbers verbatim so 10 stays "10" on the
// command line rather than becoming a float.
func decodeOperationRequest(r *http.Request) (OperationRequest, error) {
	var req OperationRequest
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r.Body); err != nil {
		return req, fmt.Errorf("failed to read request body: %w", err)
	}
	if buf.Len() == 0 {
		return req, nil
	}
	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	return req, nil
}

func (h *operationHandlers) operation(r *http.Request, req OperationRequest, tool string) (*batch.Operation, int, error) {
	op, err := batch.New(mux.Vars(r)["name"])
	if err != nil {
		return nil, http.StatusNotFound, err
	}
	op.Input, op.Output = req.Input, req.Output
	op.InputAsURI, op.OutputAsURI = req.InputAsURI, req.OutputAsURI
	op.Vessels, op.Days, op.Lines = req.Vessel, req.Day, req.Line
	op.FilesToLoad = req.FilesToLoad
	op.Tool = tool

	if len(req.Settings) > 0 || op.Descriptor().Discriminated() {
		if err := op.Configure(batch.Settings(req.Settings)); err != nil {
			return nil, http.StatusBadRequest, err
		}
	}
	return op, http.StatusOK, nil
}

// buildCommand serves POST /api/operations/{name}/command and returns the
// command line without running it.
//
// Response:
//   - 200 OK with {"command": ..., "args": [...]}
//   - 400 Bad Request for invalid settings or missing paths
//   - 404 Not Found for an unknown operation
func (h *operationHandlers) buildCommand(w http.ResponseWriter, r *http.Request) {
	req, err := decodeOperationRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	op, status, err := h.operation(r, req, h.backend.Tool)
	if err != nil {
		writeError(w, status, err)
		return
	}
	args, err := op.Args()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	line, _ := op.CommandLine()
	writeJSONResponse(w, http.StatusOK, map[string]any{"command": line, "args": args})
}

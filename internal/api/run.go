// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"carisbatch/batch"
	"carisbatch/internal/logger"
	"carisbatch/internal/runner"
)

// RunResponse is the outcome of a run request.
type RunResponse struct {
	batch.Result
	Host     string `json:"host,omitempty"`
	TimedOut bool   `json:"timed_out"`
	Error    string `json:"error,omitempty"`
}

// runOperation serves POST /api/operations/{name}/run. The request blocks
// until the tool exits or the timeout expires.
//
// The body's host field picks an SSH host; empty falls back to the backend's
// default host, and that to this machine.
//
// Response:
//   - 200 OK with the run result, whatever the tool's exit code
//   - 400 Bad Request for invalid settings, timeout or host
//   - 404 Not Found for an unknown operation
func (h *operationHandlers) runOperation(w http.ResponseWriter, r *http.Request) {
	req, err := decodeOperationRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	timeout := h.backend.Timeout
	if req.Timeout != "" {
		timeout, err = time.ParseDuration(req.Timeout)
		if err != nil || timeout <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid timeout %q", req.Timeout))
			return
		}
	}

	host := req.Host
	if host == "" {
		host = h.backend.DefaultHost
	}
	var exec runner.Executor
	tool := h.backend.Tool
	if h.backend.Executor != nil {
		exec, tool, err = h.backend.Executor(host)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	} else if host != "" {
		writeError(w, http.StatusBadRequest, errors.New("remote execution is not available"))
		return
	}

	op, status, err := h.operation(r, req, tool)
	if err != nil {
		writeError(w, status, err)
		return
	}
	op.Executor = exec

	logger.Info("API run request", "operation", op.String(), "host", host, "timeout", timeout)
	res := op.Run(r.Context(), timeout)
	resp := RunResponse{Result: res, Host: host, TimedOut: res.TimedOut()}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

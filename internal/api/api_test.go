// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"carisbatch/batch"
	"carisbatch/internal/config"
	"carisbatch/internal/runner"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type APISuite struct {
	suite.Suite
	router *mux.Router
	lines  []string
	hosts  []string
}

func (s *APISuite) SetupTest() {
	s.lines, s.hosts = nil, nil
	s.T().Setenv("CARISBATCH_CONFIG", filepath.Join(s.T().TempDir(), "config.yaml"))

	s.router = mux.NewRouter()
	RegisterOperationRoutes(s.router, Backend{
		Tool:    "carisbatch",
		Timeout: time.Minute,
		Executor: func(host string) (runner.Executor, string, error) {
			if host == "missing" {
				return nil, "", errors.New("ssh host 'missing' not found in configuration")
			}
			s.hosts = append(s.hosts, host)
			tool := "carisbatch"
			if host != "" {
				tool = "/opt/caris/bin/carisbatch"
			}
			return runner.ExecutorFunc(func(ctx context.Context, line string) (runner.Output, error) {
				s.lines = append(s.lines, line)
				if strings.Contains(line, "slow.csar") {
					<-ctx.Done()
					return runner.Output{}, ctx.Err()
				}
				return runner.Output{ExitCode: 0, Stdout: "done"}, nil
			}), tool, nil
		},
	})
	RegisterSSHRoutes(s.router)
}

func (s *APISuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *APISuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *APISuite) TestListOperations() {
	rec := s.do("GET", "/api/operations", "")
	s.Equal(http.StatusOK, rec.Code)

	var ops []OperationSummary
	s.decode(rec, &ops)
	s.Len(ops, 134)
}

func (s *APISuite) TestListOperationsByGroup() {
	rec := s.do("GET", "/api/operations?group=compose", "")
	s.Equal(http.StatusOK, rec.Code)

	var ops []OperationSummary
	s.decode(rec, &ops)
	s.Len(ops, 5)
	for _, op := range ops {
		s.Equal("compose", op.Group)
	}
}

func (s *APISuite) TestListGroups() {
	var groups []string
	s.decode(s.do("GET", "/api/groups", ""), &groups)
	s.Contains(groups, "hips")
}

func (s *APISuite) TestGetOperation() {
	rec := s.do("GET", "/api/operations/thinpoints", "")
	s.Equal(http.StatusOK, rec.Code)

	var d OperationDetail
	s.decode(rec, &d)
	s.Equal("ThinPoints", d.Command)
	s.Equal("method", d.OptionKey)
	s.Equal([]string{"RANDOM", "MINIMUM_DISTANCE", "APPLY_BIAS"}, d.Variants)
	s.Equal("--include-band", d.Common[1].Flag)
	s.True(d.Common[1].Repeatable)
	s.Equal("percentage", d.VariantSettings["RANDOM"][0].Name)
}

func (s *APISuite) TestGetUnknownOperation() {
	rec := s.do("GET", "/api/operations/NoSuchThing", "")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Contains(rec.Body.String(), "unknown operation")
}

func (s *APISuite) TestBuildCommandKeepsIntegers() {
	rec := s.do("POST", "/api/operations/ThinPoints/command",
		`{"input": "in.csar", "output": "out.csar", "settings": {"method": "RANDOM", "percentage": 10}}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Command string   `json:"command"`
		Args    []string `json:"args"`
	}
	s.decode(rec, &body)
	s.Equal(`carisbatch --run ThinPoints --method "RANDOM" --percentage "10" "in.csar" "out.csar"`, body.Command)
	s.Equal("carisbatch", body.Args[0])
	s.Empty(s.lines)
}

func (s *APISuite) TestBuildCommandOmitsZeroNumbers() {
	rec := s.do("POST", "/api/operations/ThinPoints/command",
		`{"input": "in.csar", "output": "out.csar", "settings": {"method": "RANDOM", "percentage": 0}}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Command string `json:"command"`
	}
	s.decode(rec, &body)
	s.Equal(`carisbatch --run ThinPoints --method "RANDOM" "in.csar" "out.csar"`, body.Command)
}

func (s *APISuite) TestBuildCommandErrors() {
	rec := s.do("POST", "/api/operations/ThinPoints/command", `{"input": "in.csar", "settings": {"method": "BOGUS"}}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "BOGUS")

	rec = s.do("POST", "/api/operations/TileRaster/command", `{}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), batch.ErrNotConfigured.Error())

	rec = s.do("POST", "/api/operations/TileRaster/command", `{"inptu": "a"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestRunLocal() {
	rec := s.do("POST", "/api/operations/TileRaster/run", `{"input": "in.csar", "settings": {"size": 512}}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp RunResponse
	s.decode(rec, &resp)
	s.Equal(0, resp.ExitCode)
	s.Equal("done", resp.Stdout)
	s.Equal(`carisbatch --run TileRaster --size "512" "in.csar"`, resp.CommandLine)
	s.Equal([]string{""}, s.hosts)
}

func (s *APISuite) TestRunOnHostUsesRemoteTool() {
	rec := s.do("POST", "/api/operations/TileRaster/run", `{"input": "in.csar", "host": "proc1"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp RunResponse
	s.decode(rec, &resp)
	s.Equal("proc1", resp.Host)
	s.Equal(`/opt/caris/bin/carisbatch --run TileRaster "in.csar"`, resp.CommandLine)
}

func (s *APISuite) TestRunTimeout() {
	rec := s.do("POST", "/api/operations/TileRaster/run", `{"input": "slow.csar", "timeout": "20ms"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp RunResponse
	s.decode(rec, &resp)
	s.Equal(batch.ExitTimeout, resp.ExitCode)
	s.Equal(batch.TimeoutMessage, resp.Stderr)
	s.True(resp.TimedOut)
	s.NotEmpty(resp.Error)
}

func (s *APISuite) TestRunRejectsBadRequests() {
	s.Equal(http.StatusBadRequest, s.do("POST", "/api/operations/TileRaster/run", `{"input": "a", "timeout": "-1s"}`).Code)
	s.Equal(http.StatusBadRequest, s.do("POST", "/api/operations/TileRaster/run", `{"input": "a", "host": "missing"}`).Code)
	s.Equal(http.StatusNotFound, s.do("POST", "/api/operations/Nope/run", `{"input": "a"}`).Code)
}

func (s *APISuite) TestSSHHostLifecycle() {
	rec := s.do("POST", "/api/ssh/hosts", `{"name": "proc1", "hostname": "10.0.0.1", "user": "hydro", "password": "secret"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.NotContains(rec.Body.String(), "secret")

	s.Equal(http.StatusConflict, s.do("POST", "/api/ssh/hosts", `{"name": "proc1", "hostname": "h", "user": "u"}`).Code)
	s.Equal(http.StatusBadRequest, s.do("POST", "/api/ssh/hosts", `{"name": "proc2"}`).Code)

	rec = s.do("PUT", "/api/ssh/hosts/proc1", `{"hostname": "10.0.0.9", "user": "hydro", "password": "********", "tool": "/opt/caris/bin/carisbatch"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	cfg, err := config.LoadConfig()
	s.Require().NoError(err)
	s.Require().Len(cfg.SSHHosts, 1)
	s.Equal("10.0.0.9", cfg.SSHHosts[0].Hostname)
	s.Equal("secret", cfg.SSHHosts[0].Password)

	var hosts []config.SSHHost
	s.decode(s.do("GET", "/api/ssh/hosts", ""), &hosts)
	s.Require().Len(hosts, 1)
	s.Equal("********", hosts[0].Password)

	s.Equal(http.StatusNoContent, s.do("DELETE", "/api/ssh/hosts/proc1", "").Code)
	s.Equal(http.StatusNotFound, s.do("GET", "/api/ssh/hosts/proc1", "").Code)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func TestRunWithoutExecutorFactory(t *testing.T) {
	router := mux.NewRouter()
	RegisterOperationRoutes(router, Backend{Tool: "carisbatch"})

	req := httptest.NewRequest("POST", "/api/operations/TileRaster/run", strings.NewReader(`{"input": "a", "host": "proc1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "remote execution")
}

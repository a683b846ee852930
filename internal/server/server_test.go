package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soc-pilot/drc/internal/checker"
	"github.com/soc-pilot/drc/internal/component"
	"github.com/soc-pilot/drc/internal/diagram"
	"github.com/soc-pilot/drc/internal/logger"
	"github.com/soc-pilot/drc/internal/metrics"
	"github.com/soc-pilot/drc/internal/result"
	"github.com/soc-pilot/drc/internal/service"
	"github.com/soc-pilot/drc/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var quietLog = logger.NewWriter(io.Discard, logger.Config{})

type downLib struct{}

func (downLib) EnsureInitialized(context.Context) error { return errors.New("offline") }
func (downLib) GetAllComponents() []diagram.ArchitecturalComponent { return nil }

func setupTestServer(t *testing.T, lib checker.Library, cfg Config) *Server {
	t.Helper()
	m := metrics.New(nil)
	c := checker.New(lib).WithLogger(quietLog).WithObserver(m)
	svc := service.New(c, store.NewMemoryStore(), quietLog, checker.DefaultOptions()).OnStoreError(m.StoreError)
	return New(svc, m, quietLog, cfg)
}

func testLibrary(t *testing.T) checker.Library {
	t.Helper()
	lib, err := component.Builtin()
	require.NoError(t, err)
	return lib
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

const overlapBody = `{
  "diagram": {
    "nodes": [
      {"id": "mem1", "type": "sram", "data": {"addressMapping": {"baseAddress": "0x80000000", "addressSpace": "1GB"}}},
      {"id": "mem2", "type": "sram", "data": {"addressMapping": {"baseAddress": 2415919104, "addressSpace": "256MB"}}}
    ],
    "edges": []
  },
  "options": {"checkOptionalPorts": false, "unknownKey": true}
}`

func TestHealth(t *testing.T) {
	s := setupTestServer(t, testLibrary(t), DefaultConfig())
	w := do(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRules(t *testing.T) {
	s := setupTestServer(t, testLibrary(t), DefaultConfig())
	w := do(s, http.MethodGet, "/v1/rules", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Rules []checker.RuleMeta `json:"rules"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Rules, 27)
	assert.Equal(t, "DRC-CONN-001", resp.Rules[0].ID)
}

func TestCheckLifecycle(t *testing.T) {
	s := setupTestServer(t, testLibrary(t), DefaultConfig())

	w := do(s, http.MethodGet, "/v1/projects/p1/drc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(s, http.MethodPost, "/v1/projects/p1/drc", overlapBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res result.DRCResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "p1", res.ProjectID)
	assert.False(t, res.Passed)
	require.NotEmpty(t, res.Findings)
	assert.Equal(t, "DRC-ADDR-001", res.Findings[0].RuleID)

	w = do(s, http.MethodGet, "/v1/projects/p1/drc", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stored result.DRCResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.Equal(t, res.ID, stored.ID)

	w = do(s, http.MethodDelete, "/v1/projects/p1/drc", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(s, http.MethodGet, "/v1/projects/p1/drc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheck_BadInput(t *testing.T) {
	s := setupTestServer(t, testLibrary(t), DefaultConfig())

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"diagram": `},
		{"missing edges", `{"diagram": {"nodes": []}}`},
		{"missing diagram", `{}`},
		{"bad direction", `{"diagram": {"nodes": [{"id": "a", "data": {"interfaces": [{"id": "i", "direction": "sideways"}]}}], "edges": []}}`},
		{"bad options", `{"diagram": {"nodes": [], "edges": []}, "options": {"maxFanOut": "many"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, http.MethodPost, "/v1/projects/p1/drc", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestCheck_LibraryUnavailable(t *testing.T) {
	s := setupTestServer(t, downLib{}, DefaultConfig())
	w := do(s, http.MethodPost, "/v1/projects/p1/drc", overlapBody)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "offline")
}

func TestNormalizeEndpoint(t *testing.T) {
	s := setupTestServer(t, testLibrary(t), DefaultConfig())
	body := `{
	  "apply": true,
	  "diagram": {
	    "nodes": [{"id": "cpu", "data": {"componentId": "cortex-a53"}}, {"id": "ddr", "data": {"componentId": "ddr4-controller"}}],
	    "edges": [{"id": "e1", "source": "ddr", "sourceHandle": "s0", "target": "cpu", "targetHandle": "m0"}]
	  }
	}`
	w := do(s, http.MethodPost, "/v1/normalize", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp NormalizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Validation.Issues, 1)
	assert.Equal(t, diagram.IssueReversedConnection, resp.Validation.Issues[0].Type)
	require.NotNil(t, resp.Diagram)
	assert.Equal(t, "cpu", resp.Diagram.Edges[0].Source)
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 0.001
	cfg.Burst = 1
	s := setupTestServer(t, testLibrary(t), cfg)

	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/v1/rules", "").Code)
	w := do(s, http.MethodGet, "/v1/rules", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/healthz", "").Code, "health is not limited")
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t, testLibrary(t), DefaultConfig())
	do(s, http.MethodPost, "/v1/projects/p1/drc", overlapBody)

	w := do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "drc_checks_total")
	assert.Contains(t, w.Body.String(), `path="/v1/projects/:projectId/drc"`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(diagram.ErrInvalidDiagram))
	assert.Equal(t, http.StatusBadRequest, StatusFor(service.ErrInvalidRequest))
	assert.Equal(t, http.StatusNotFound, StatusFor(store.ErrNotFound))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(checker.ErrLibraryUnavailable))
	assert.Equal(t, http.StatusGatewayTimeout, StatusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}

func TestRequestBodyIsJSON(t *testing.T) {
	s := setupTestServer(t, testLibrary(t), DefaultConfig())
	req := httptest.NewRequest(http.MethodPost, "/v1/projects/p1/drc", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/soc-pilot/drc/internal/checker"
	"github.com/soc-pilot/drc/internal/component"
	"github.com/soc-pilot/drc/internal/config"
	"github.com/soc-pilot/drc/internal/diagram"
	"github.com/soc-pilot/drc/internal/logger"
	"github.com/soc-pilot/drc/internal/result"
	"github.com/soc-pilot/drc/internal/server"
	"github.com/soc-pilot/drc/internal/service"
	"github.com/soc-pilot/drc/internal/store"
)

// LambdaEvent is the invocation payload (e.g. from API Gateway).
type LambdaEvent struct {
	Body      string          `json:"body"` // {"diagram": ..., "components": [...]} (raw or base64 if isBase64)
	IsBase64  bool            `json:"isBase64,omitempty"`
	ProjectID string          `json:"projectId"`
	Options   json.RawMessage `json:"options,omitempty"`
}

// LambdaResponse is returned to the client (API Gateway).
type LambdaResponse struct {
	StatusCode int               `json:"statusCode"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
	Report     *result.DRCResult `json:"report,omitempty"`
}

// APIGatewayResponse is the shape expected by API Gateway proxy integration (body = JSON string).
type APIGatewayResponse struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
}

type app struct {
	svc *service.Service
	log *slog.Logger
}

// newApp wires a service over the configured library and an in-memory store;
// reports live only as long as the warm container.
func newApp(cfg *config.Config) (*app, error) {
	log := logger.New(cfg.Log)
	lib, err := component.Open(cfg.Library.Dir, log)
	if err != nil {
		return nil, err
	}
	c := checker.New(lib).WithLogger(log)
	return &app{svc: service.New(c, store.NewMemoryStore(), log, cfg.DRC), log: log}, nil
}

func (a *app) handler(ctx context.Context, event LambdaEvent) (APIGatewayResponse, error) {
	body := event.Body
	if event.IsBase64 {
		dec, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return fail(http.StatusBadRequest, "invalid base64 body: "+err.Error()), nil
		}
		body = string(dec)
	}

	var req service.CheckRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return fail(http.StatusBadRequest, fmt.Sprintf("%v: %v", diagram.ErrInvalidDiagram, err)), nil
	}
	if len(event.Options) > 0 {
		req.Options = event.Options
	}

	res, err := a.svc.Check(ctx, event.ProjectID, req)
	if err != nil {
		status := server.StatusFor(err)
		if status >= http.StatusInternalServerError {
			a.log.Error("drc check failed", "project_id", event.ProjectID, "error", err)
		}
		return fail(status, err.Error()), nil
	}
	return wrap(LambdaResponse{StatusCode: http.StatusOK, Success: res.Passed, Report: res}), nil
}

func fail(status int, msg string) APIGatewayResponse {
	return wrap(LambdaResponse{StatusCode: status, Error: msg})
}

func wrap(out LambdaResponse) APIGatewayResponse {
	bodyBytes, _ := json.Marshal(out)
	return APIGatewayResponse{
		StatusCode: out.StatusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(bodyBytes),
	}
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logger.Default.Error("load config", "error", err)
		panic(err)
	}
	a, err := newApp(cfg)
	if err != nil {
		logger.Default.Error("init drc service", "error", err)
		panic(err)
	}
	lambda.Start(a.handler)
}

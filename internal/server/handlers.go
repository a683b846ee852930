package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soc-pilot/drc/internal/checker"
	"github.com/soc-pilot/drc/internal/diagram"
	"github.com/soc-pilot/drc/internal/service"
	"github.com/soc-pilot/drc/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

// NormalizeRequest is the body of POST /v1/normalize.
type NormalizeRequest struct {
	Diagram    *diagram.Diagram                 `json:"diagram"`
	Components []diagram.ArchitecturalComponent `json:"components,omitempty"`
	Apply      bool                             `json:"apply"`
}

// NormalizeResponse carries the issues and, when requested, the fixed diagram.
type NormalizeResponse struct {
	Validation diagram.ValidationResult `json:"validation"`
	Diagram    *diagram.Diagram         `json:"diagram,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": s.svc.Catalog()})
}

func (s *Server) handleNormalize(c *gin.Context) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.Join(diagram.ErrInvalidDiagram, err))
		return
	}
	res, fixed, err := s.svc.Normalize(c.Request.Context(), req.Diagram, req.Components, req.Apply)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NormalizeResponse{Validation: res, Diagram: fixed})
}

func (s *Server) handleCheck(c *gin.Context) {
	var req service.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.Join(diagram.ErrInvalidDiagram, err))
		return
	}
	res, err := s.svc.Check(c.Request.Context(), c.Param("projectId"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleGetReport(c *gin.Context) {
	res, err := s.svc.Report(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleDeleteReport(c *gin.Context) {
	if err := s.svc.Delete(c.Request.Context(), c.Param("projectId")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.FullPath(), "project_id", c.Param("projectId"), "error", err)
	}
	c.AbortWithStatusJSON(status, errorBody{Error: err.Error()})
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, diagram.ErrInvalidDiagram), errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, checker.ErrLibraryUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

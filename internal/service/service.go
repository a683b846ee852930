// Package service is the calling layer around the checker: it owns report
// persistence and collapses identical in-flight checks.
package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/soc-pilot/drc/internal/checker"
	"github.com/soc-pilot/drc/internal/diagram"
	"github.com/soc-pilot/drc/internal/logger"
	"github.com/soc-pilot/drc/internal/result"
	"github.com/soc-pilot/drc/internal/store"
)

// ErrInvalidRequest marks request errors outside the diagram itself.
var ErrInvalidRequest = errors.New("invalid request")

// CheckRequest is the body of a check call. Options holds a partial options
// object layered over the service defaults; unknown keys are ignored.
type CheckRequest struct {
	Diagram    *diagram.Diagram                 `json:"diagram"`
	Components []diagram.ArchitecturalComponent `json:"components,omitempty"`
	Options    json.RawMessage                  `json:"options,omitempty"`
}

// Service runs checks and keeps the latest report per project.
type Service struct {
	checker  *checker.Checker
	store    store.ReportStore
	log      *slog.Logger
	defaults checker.Options

	// inflight shares one evaluation between identical concurrent requests.
	inflight singleflight.Group

	mu       sync.Mutex
	projects map[string]*project

	onStoreError func(op string)
}

// project orders the store writes of one project's checks. Every request takes
// a sequence number when it deletes the stale report; only the newest request
// may write, so an older diagram never overwrites a newer one.
type project struct {
	mu     sync.Mutex
	latest uint64
	refs   int
}

// New returns a service. A nil log uses logger.Default.
func New(c *checker.Checker, s store.ReportStore, log *slog.Logger, defaults checker.Options) *Service {
	if log == nil {
		log = logger.Default
	}
	return &Service{
		checker:      c,
		store:        s,
		log:          log,
		defaults:     defaults,
		projects:     make(map[string]*project),
		onStoreError: func(string) {},
	}
}

// OnStoreError registers a hook called for every tolerated store failure.
func (s *Service) OnStoreError(fn func(op string)) *Service {
	s.onStoreError = fn
	return s
}

// Defaults returns the default evaluation options.
func (s *Service) Defaults() checker.Options {
	return s.defaults
}

// ResolveOptions layers a partial JSON options object over the defaults.
func (s *Service) ResolveOptions(raw json.RawMessage) (checker.Options, error) {
	opts := s.defaults
	opts.ReservedRegions = append([]checker.ReservedRegion(nil), s.defaults.ReservedRegions...)
	opts.DisabledRules = append([]string(nil), s.defaults.DisabledRules...)
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return opts, nil
	}
	if err := json.Unmarshal(raw, &opts); err != nil {
		return opts, fmt.Errorf("%w: options: %v", ErrInvalidRequest, err)
	}
	return opts, nil
}

// Check deletes the stale report, runs the check and stores the new report.
// A failed write is logged and counted; the computed report is still returned.
// When a newer check for the same project started meanwhile, the report is
// returned but not stored. Library failures propagate.
func (s *Service) Check(ctx context.Context, projectID string, req CheckRequest) (*result.DRCResult, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", ErrInvalidRequest)
	}
	if err := diagram.CheckShape(req.Diagram); err != nil {
		return nil, err
	}
	opts, err := s.ResolveOptions(req.Options)
	if err != nil {
		return nil, err
	}
	key, err := flightKey(projectID, req.Diagram, req.Components, opts)
	if err != nil {
		return nil, err
	}

	p := s.acquire(projectID)
	defer s.release(projectID, p)
	seq := s.begin(ctx, projectID, p)

	v, err, shared := s.inflight.Do(key, func() (any, error) {
		return s.evaluate(ctx, projectID, req, opts)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("drc check shared with in-flight request", "project_id", projectID)
	}
	res := v.(*result.DRCResult).Clone()
	s.commit(ctx, projectID, p, seq, res)
	return res, nil
}

func (s *Service) acquire(projectID string) *project {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		p = &project{}
		s.projects[projectID] = p
	}
	p.refs++
	return p
}

func (s *Service) release(projectID string, p *project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.refs--
	if p.refs == 0 {
		delete(s.projects, projectID)
	}
}

// begin claims the next sequence number and deletes the stale report.
func (s *Service) begin(ctx context.Context, projectID string, p *project) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest++
	if err := s.store.Delete(ctx, projectID); err != nil {
		s.log.Warn("failed to delete stale drc report", "project_id", projectID, "error", err)
		s.onStoreError("delete")
	}
	return p.latest
}

// commit stores res unless a newer check for the project has begun.
func (s *Service) commit(ctx context.Context, projectID string, p *project, seq uint64, res *result.DRCResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.latest {
		s.log.Debug("drc report superseded by a newer check", "project_id", projectID, "report_id", res.ID)
		return
	}
	if err := s.store.Put(ctx, projectID, res); err != nil {
		s.log.Error("failed to store drc report", "project_id", projectID, "report_id", res.ID, "error", err)
		s.onStoreError("put")
	}
}

func (s *Service) evaluate(ctx context.Context, projectID string, req CheckRequest, opts checker.Options) (*result.DRCResult, error) {
	res, err := s.checker.Check(ctx, req.Diagram, req.Components, opts)
	if err != nil {
		return nil, err
	}
	res.ProjectID = projectID
	s.log.Info("drc check complete",
		"project_id", projectID,
		"passed", res.Passed,
		"critical", res.Summary.Critical,
		"duration_ms", res.DurationMs)
	return res, nil
}

// Report returns the stored report for a project (store.ErrNotFound when absent).
func (s *Service) Report(ctx context.Context, projectID string) (*result.DRCResult, error) {
	res, err := s.store.Get(ctx, projectID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.onStoreError("get")
	}
	return res, err
}

// Delete removes the stored report for a project.
func (s *Service) Delete(ctx context.Context, projectID string) error {
	if err := s.store.Delete(ctx, projectID); err != nil {
		s.onStoreError("delete")
		return err
	}
	return nil
}

// Normalize returns the normalizer verdict and, when apply is set, the fixed
// diagram.
func (s *Service) Normalize(ctx context.Context, d *diagram.Diagram, components []diagram.ArchitecturalComponent, apply bool) (diagram.ValidationResult, *diagram.Diagram, error) {
	fixed, res, err := s.checker.Normalize(ctx, d, components)
	if err != nil {
		return res, nil, err
	}
	if !apply {
		return res, nil, nil
	}
	return res, fixed, nil
}

// Catalog lists the rules the checker runs.
func (s *Service) Catalog() []checker.RuleMeta {
	return s.checker.Catalog()
}

func flightKey(projectID string, d *diagram.Diagram, comps []diagram.ArchitecturalComponent, opts checker.Options) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	if err := enc.Encode(comps); err != nil {
		return "", fmt.Errorf("%w: components: %v", ErrInvalidRequest, err)
	}
	if err := enc.Encode(opts); err != nil {
		return "", fmt.Errorf("%w: options: %v", ErrInvalidRequest, err)
	}
	return projectID + "/" + d.Digest() + "/" + hex.EncodeToString(h.Sum(nil)), nil
}

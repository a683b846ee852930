package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/soc-pilot/drc/internal/diagram"
	"github.com/soc-pilot/drc/internal/graph"
	"github.com/soc-pilot/drc/internal/logger"
	"github.com/soc-pilot/drc/internal/registry"
	"github.com/soc-pilot/drc/internal/result"
	_ "github.com/soc-pilot/drc/internal/rules" // register rules
)

// ErrLibraryUnavailable is returned when the component library cannot be initialized.
var ErrLibraryUnavailable = errors.New("component library unavailable")

// EngineMeta describes the synthetic finding emitted when a rule fails.
var EngineMeta = registry.Meta{
	ID:          "DRC-ENGINE-001",
	Name:        "Rule execution failure",
	Description: "A rule failed to run; the report is incomplete.",
	Severity:    result.Info,
	Category:    result.Custom,
}

// Library is the component library collaborator.
type Library interface {
	EnsureInitialized(ctx context.Context) error
	GetAllComponents() []diagram.ArchitecturalComponent
}

// Observer receives evaluation telemetry.
type Observer interface {
	RuleEvaluated(ruleID string, elapsed time.Duration, failed bool)
	CheckCompleted(res *result.DRCResult)
}

type nopObserver struct{}

func (nopObserver) RuleEvaluated(string, time.Duration, bool) {}
func (nopObserver) CheckCompleted(*result.DRCResult) {}

// Checker runs the normalizer and the rule battery over a diagram.
type Checker struct {
	reg *registry.Registry
	lib Library
	log *slog.Logger
	obs Observer
	now func() time.Time
}

// New returns a checker backed by lib. A nil lib means callers always pass
// the full component list.
func New(lib Library) *Checker {
	return &Checker{
		reg: registry.Default,
		lib: lib,
		log: logger.Default,
		obs: nopObserver{},
		now: time.Now,
	}
}

// WithRegistry swaps the rule registry.
func (c *Checker) WithRegistry(r *registry.Registry) *Checker {
	c.reg = r
	return c
}

// WithLogger sets the logger.
func (c *Checker) WithLogger(l *slog.Logger) *Checker {
	c.log = l
	return c
}

// WithObserver sets the telemetry sink.
func (c *Checker) WithObserver(o Observer) *Checker {
	c.obs = o
	return c
}

// Catalog lists every rule, including the synthetic engine rule.
func (c *Checker) Catalog() []registry.Meta {
	return append(c.reg.Catalog(), EngineMeta)
}

// Components waits for the library and returns caller-supplied components
// followed by the library's, so caller definitions win on lookup.
func (c *Checker) Components(ctx context.Context, supplied []diagram.ArchitecturalComponent) ([]diagram.ArchitecturalComponent, error) {
	if c.lib == nil {
		return supplied, nil
	}
	if err := c.lib.EnsureInitialized(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLibraryUnavailable, err)
	}
	all := c.lib.GetAllComponents()
	out := make([]diagram.ArchitecturalComponent, 0, len(supplied)+len(all))
	out = append(out, supplied...)
	return append(out, all...), nil
}

// Check validates the diagram shape, resolves components and evaluates every
// enabled rule. Rule failures never abort the battery: they are recorded and
// the report comes back with Complete set to false.
func (c *Checker) Check(ctx context.Context, d *diagram.Diagram, supplied []diagram.ArchitecturalComponent, opts Options) (*result.DRCResult, error) {
	if err := diagram.CheckShape(d); err != nil {
		return nil, err
	}
	components, err := c.Components(ctx, supplied)
	if err != nil {
		return nil, err
	}
	return c.Evaluate(ctx, d, components, opts)
}

// Normalize validates the diagram against library-resolved interfaces and
// returns the issues with a fixed deep copy. The input is never mutated.
func (c *Checker) Normalize(ctx context.Context, d *diagram.Diagram, supplied []diagram.ArchitecturalComponent) (*diagram.Diagram, diagram.ValidationResult, error) {
	if err := diagram.CheckShape(d); err != nil {
		return nil, diagram.ValidationResult{}, err
	}
	components, err := c.Components(ctx, supplied)
	if err != nil {
		return nil, diagram.ValidationResult{}, err
	}
	fixed, res := diagram.NewNormalizer(graph.NewCatalog(components).Interfaces).Normalize(d)
	return fixed, res, nil
}

// Evaluate runs the pipeline on an already validated diagram.
func (c *Checker) Evaluate(ctx context.Context, d *diagram.Diagram, components []diagram.ArchitecturalComponent, opts Options) (*result.DRCResult, error) {
	start := c.now()
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = runtime.NumCPU()
	}
	if opts.MaxParallel > maxParallelCap {
		opts.MaxParallel = maxParallelCap
	}

	// 1. Normalize against library-resolved interfaces
	catalog := graph.NewCatalog(components)
	fixed, validation := diagram.NewNormalizer(catalog.Interfaces).Normalize(d)
	target := d
	if opts.AutoFix {
		target = fixed
	}

	// 2. Index and split the battery into phases
	idx := graph.Build(target, components)
	rctx := registry.NewContext(idx, opts)
	var sequential, parallel []registry.Rule
	for _, rule := range c.reg.List() {
		m := rule.Meta()
		if opts.Disabled(m.ID) {
			continue
		}
		if m.Category == result.Connectivity {
			sequential = append(sequential, rule)
		} else {
			parallel = append(parallel, rule)
		}
	}

	type ruleOutput struct {
		findings []result.Finding
		err      *result.RuleError
	}
	outputs := make([]ruleOutput, len(sequential)+len(parallel))

	// 3. Connectivity rules run first, in order, and mark broken edges
	for i, rule := range sequential {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, rerr := c.run(rule, rctx)
		outputs[i] = ruleOutput{f, rerr}
	}

	// 4. Remaining rules only read the context; run them in parallel
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxParallel)
	for i, rule := range parallel {
		slot := len(sequential) + i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, rerr := c.run(rule, rctx)
			outputs[slot] = ruleOutput{f, rerr}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 5. Reassemble in catalog order
	var findings []result.Finding
	var ruleErrors []result.RuleError
	for _, o := range outputs {
		findings = append(findings, o.findings...)
		if o.err != nil {
			ruleErrors = append(ruleErrors, *o.err)
		}
	}
	for _, re := range ruleErrors {
		findings = append(findings, EngineMeta.Finding(
			fmt.Sprintf("rule %s failed: %s", re.RuleID, re.Message), nil,
			"Report this rule failure; the remaining rules still ran"))
	}

	res := result.Aggregate(findings, len(outputs), c.now())
	res.ID = uuid.NewString()
	res.DiagramDigest = d.Digest()
	res.NormalizationIssues = validation.Issues
	res.RuleErrors = ruleErrors
	res.Complete = len(ruleErrors) == 0
	res.DurationMs = c.now().Sub(start).Milliseconds()

	c.obs.CheckCompleted(&res)
	c.log.Debug("drc check complete",
		"digest", res.DiagramDigest,
		"rules", res.TotalChecks,
		"critical", res.Summary.Critical,
		"passed", res.Passed,
		"duration_ms", res.DurationMs)
	return &res, nil
}

func (c *Checker) run(rule registry.Rule, rctx *registry.Context) (findings []result.Finding, rerr *result.RuleError) {
	id := rule.Meta().ID
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			findings = nil
			rerr = &result.RuleError{RuleID: id, Message: fmt.Sprint(r)}
			c.log.Warn("rule panicked", "rule_id", id, "error", rerr.Message)
		}
		c.obs.RuleEvaluated(id, time.Since(start), rerr != nil)
	}()
	return rule.Check(rctx), nil
}

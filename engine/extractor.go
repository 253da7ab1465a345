// Package engine provides the main extraction engine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	fx "github.com/gofhir/extractor"
	"github.com/gofhir/extractor/facade"
	"github.com/gofhir/extractor/ground"
	"github.com/gofhir/extractor/loader"
	"github.com/gofhir/extractor/service"
	"github.com/gofhir/extractor/window"
)

// Target names one (model, facade) pair to extract from a document.
type Target struct {
	// Model is the resource type name, e.g. "Observation".
	Model string
	// Facade is the registered view key, e.g. "core" or "vitals".
	Facade string
}

func (t Target) String() string {
	return t.Model + "/" + t.Facade
}

// Extractor coordinates extraction runs: it resolves targets to subset
// schemas, splits documents into windows, schedules provider calls
// under the configured budgets, and merges windowed results.
type Extractor struct {
	// Configuration
	options *fx.Options

	// Services
	provider  service.Provider
	models    service.ModelService
	resolver  *facade.Resolver
	grounder  *ground.Grounder
	evaluator service.FHIRPathEvaluator

	// Metrics
	metrics *fx.Metrics

	logger *zap.Logger
}

// New creates an Extractor backed by the given provider. A nil models
// service falls back to the built-in catalog. Configuration is
// validated here, before any provider call can happen.
func New(provider service.Provider, models service.ModelService, opts ...fx.Option) (*Extractor, error) {
	if provider == nil {
		return nil, fx.ErrNoProvider
	}

	options := fx.DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}

	if models == nil {
		models = loader.NewInMemoryModelService()
	}

	return &Extractor{
		options:   options,
		provider:  provider,
		models:    models,
		resolver:  facade.NewResolver(models),
		grounder:  ground.New(options.FuzzyThreshold, options.FuzzyLengthSlack),
		evaluator: service.NewFHIRPathAdapter(),
		metrics:   fx.NewMetrics(),
		logger:    options.Logger,
	}, nil
}

// resolved is a target bound to its subset schema and reconstructor.
type resolved struct {
	target Target
	schema *facade.SubsetSchema
	recon  *facade.Reconstructor
}

// ExtractDocument extracts every target from the document and returns
// the merged result. Unknown targets fail before any provider call.
// The run honors the configured total deadline: when it elapses,
// completed windows are kept and the result is marked timed out.
func (e *Extractor) ExtractDocument(ctx context.Context, text string, targets ...Target) (*fx.Result, error) {
	start := time.Now()

	if len(targets) == 0 {
		return nil, fmt.Errorf("extract: no targets given")
	}

	// Resolve all targets up front. Zero provider calls are made when
	// any target is unknown.
	bound := make([]resolved, 0, len(targets))
	for _, t := range targets {
		schema, recon, err := e.resolver.Resolve(ctx, t.Model, t.Facade)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", t, err)
		}
		bound = append(bound, resolved{target: t, schema: schema, recon: recon})
	}

	runCtx := ctx
	if e.options.TotalTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.options.TotalTimeout)
		defer cancel()
	}

	result := fx.AcquireResult()
	for _, b := range bound {
		result.DeclareType(b.target.Model)
	}

	windows := window.Split(len(text), e.options.WindowSize, e.options.WindowOverlap, e.options.SingleWindowThreshold)

	e.logger.Debug("extraction run starting",
		zap.String("run_id", result.RunID),
		zap.Int("targets", len(bound)),
		zap.Int("windows", len(windows)),
		zap.Int("doc_len", len(text)))

	// One task per (target, window), scheduled FIFO under the
	// concurrency bound.
	tasks := make([]*task, 0, len(bound)*len(windows))
	for _, b := range bound {
		for _, w := range windows {
			tasks = append(tasks, &task{
				target:    b.target,
				schema:    b.schema,
				recon:     b.recon,
				window:    w,
				text:      text,
				grounder:  e.grounder,
				provider:  e.provider,
				evaluator: e.evaluator,
				metrics:   e.metrics,
				logger:    e.logger,
			})
		}
	}

	sched := newScheduler(e.options.Concurrency, e.options.WindowTimeout, e.logger)
	outcome := sched.run(runCtx, tasks, result)
	if outcome.fatal != nil {
		result.Release()
		e.metrics.RecordRun(fx.StatusPartial)
		return nil, outcome.fatal
	}

	e.merge(result, bound, len(text))

	result.Status = runStatus(runCtx, result, outcome)
	e.metrics.RecordRun(result.Status)

	e.logger.Info("extraction run finished",
		zap.String("run_id", result.RunID),
		zap.String("status", string(result.Status)),
		zap.Int("extractions", result.TotalCount()),
		zap.Int("issues", len(result.Issues)),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// ExtractFacade extracts a single target and returns its best instance:
// grounded before ungrounded, then earliest in the document. Returns
// nil without error when the document yields nothing. An unknown model
// or facade fails with zero provider calls.
func (e *Extractor) ExtractFacade(ctx context.Context, text, model, facadeKey string) (*fx.ExtractionResult, error) {
	result, err := e.ExtractDocument(ctx, text, Target{Model: model, Facade: facadeKey})
	if err != nil {
		return nil, err
	}
	defer result.Release()

	list := result.Extractions[model]
	if len(list) == 0 {
		return nil, nil
	}
	// Merge already ordered grounded-first, earliest-first.
	return list[0], nil
}

// merge dedupes each type's windowed results, orders them, and applies
// the per-type cap.
func (e *Extractor) merge(result *fx.Result, bound []resolved, docLen int) {
	seen := make(map[string]bool, len(bound))
	for _, b := range bound {
		if seen[b.target.Model] {
			continue
		}
		seen[b.target.Model] = true

		list := result.Extractions[b.target.Model]
		list = dedupe(list)
		sortExtractions(list, docLen)
		if e.options.MaxItemsPerType > 0 && len(list) > e.options.MaxItemsPerType {
			dropped := len(list) - e.options.MaxItemsPerType
			list = list[:e.options.MaxItemsPerType]
			result.AddIssue(fx.Issue{
				Severity:    fx.SeverityWarning,
				Code:        fx.IssueTypeProcessing,
				Diagnostics: fmt.Sprintf("dropped %d results over the per-type cap of %d", dropped, e.options.MaxItemsPerType),
				Model:       b.target.Model,
				Window:      -1,
			})
		}
		result.SetExtractions(b.target.Model, list)
	}
}

// sortExtractions orders grounded results by first citation offset,
// then window, with ungrounded results after them.
func sortExtractions(list []*fx.ExtractionResult, docLen int) {
	sort.SliceStable(list, func(i, j int) bool {
		gi, gj := list[i].Grounded(), list[j].Grounded()
		if gi != gj {
			return gi
		}
		oi, oj := list[i].FirstOffset(docLen), list[j].FirstOffset(docLen)
		if oi != oj {
			return oi < oj
		}
		return list[i].WindowIndex < list[j].WindowIndex
	})
}

// runStatus derives the run's completion status.
func runStatus(ctx context.Context, result *fx.Result, outcome schedulerOutcome) fx.RunStatus {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || outcome.deadlineHit {
		return fx.StatusTimedOut
	}
	if outcome.degraded || result.HasErrors() {
		return fx.StatusPartial
	}
	for _, issue := range result.Issues {
		if issue.Code == fx.IssueTypeTimeout {
			return fx.StatusPartial
		}
	}
	return fx.StatusComplete
}

// Metrics returns the extractor's metrics.
func (e *Extractor) Metrics() *fx.Metrics {
	return e.metrics
}

// Options returns the extractor's options.
func (e *Extractor) Options() *fx.Options {
	return e.options
}

// Models returns the model service backing this extractor.
func (e *Extractor) Models() service.ModelService {
	return e.models
}

// Registry returns the facade registry, for registering custom views.
func (e *Extractor) Registry() *facade.Registry {
	return e.resolver.Registry()
}

// Evaluator returns the FHIRPath evaluator used for reconstruction
// round-trip checks.
func (e *Extractor) Evaluator() service.FHIRPathEvaluator {
	return e.evaluator
}

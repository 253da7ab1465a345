package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	fx "github.com/gofhir/extractor"
	"github.com/gofhir/extractor/facade"
	"github.com/gofhir/extractor/ground"
	"github.com/gofhir/extractor/service"
	"github.com/gofhir/extractor/window"
)

// task is one unit of work: extract one target from one window. A task
// makes exactly one provider call, validates the candidates it gets
// back, grounds their citations against the window text, and lifts the
// survivors into document-global coordinates.
type task struct {
	target Target
	schema *facade.SubsetSchema
	recon  *facade.Reconstructor
	window window.Spec
	text   string

	grounder  *ground.Grounder
	provider  service.Provider
	evaluator service.FHIRPathEvaluator
	metrics   *fx.Metrics
	logger    *zap.Logger
}

// taskOutput is what one task contributes to the run.
type taskOutput struct {
	items  []*fx.ExtractionResult
	issues []fx.Issue
	// err is set only for failures that abort the task itself. Invalid
	// candidates and grounding misses are issues, not errors.
	err error
}

// run executes the task. ctx carries the per-window deadline.
func (t *task) run(ctx context.Context) taskOutput {
	start := time.Now()
	windowText := t.text[t.window.Start:t.window.End]

	candidates, err := t.provider.Generate(ctx, t.schema.ProviderSchema(), windowText)
	t.metrics.RecordProviderCall(err)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			t.metrics.RecordTask(t.target.Model, time.Since(start), 0, true)
			return taskOutput{issues: []fx.Issue{{
				Severity:    fx.SeverityWarning,
				Code:        fx.IssueTypeTimeout,
				Diagnostics: fmt.Sprintf("window deadline elapsed after %v", time.Since(start).Round(time.Millisecond)),
				Model:       t.target.Model,
				Window:      t.window.Index,
			}}}
		}
		t.metrics.RecordTaskFailure()
		return taskOutput{
			issues: []fx.Issue{{
				Severity:    fx.SeverityError,
				Code:        fx.IssueTypeProvider,
				Diagnostics: err.Error(),
				Model:       t.target.Model,
				Window:      t.window.Index,
			}},
			err: err,
		}
	}

	out := taskOutput{}
	// Per-field hints persist across the window's candidates: a value
	// repeated by later candidates walks forward from where the
	// previous citation for that field ended, so each occurrence in
	// the text grounds to its own interval.
	hints := make(map[string]int, len(t.schema.Fields))
	for _, cand := range candidates {
		classified := t.schema.Classify(cand)
		t.metrics.RecordCandidate(classified.Valid())
		if !classified.Valid() {
			out.issues = append(out.issues, fx.Issue{
				Severity:    fx.SeverityError,
				Code:        fx.IssueTypeValidation,
				Diagnostics: strings.Join(classified.Errors(), "; "),
				Model:       t.target.Model,
				Window:      t.window.Index,
			})
			continue
		}

		item, issues := t.buildResult(ctx, classified, windowText, hints)
		out.items = append(out.items, item)
		out.issues = append(out.issues, issues...)
	}

	t.metrics.RecordTask(t.target.Model, time.Since(start), len(out.items), false)
	t.logger.Debug("window task finished",
		zap.String("target", t.target.String()),
		zap.Int("window", t.window.Index),
		zap.Int("candidates", len(candidates)),
		zap.Int("kept", len(out.items)),
		zap.Duration("elapsed", time.Since(start)))
	return out
}

// buildResult grounds one validated candidate and reconstructs its
// instance. Grounding misses keep the value and flag the citation.
// hints carries per-field grounding positions across the window's
// candidates and is advanced here on every hit.
func (t *task) buildResult(ctx context.Context, classified facade.Classified, windowText string, hints map[string]int) (*fx.ExtractionResult, []fx.Issue) {
	payload := classified.Payload()
	var issues []fx.Issue

	citations := make([]fx.Citation, 0, len(payload))
	for _, f := range t.schema.Fields {
		if _, ok := payload[f.Path]; !ok {
			continue
		}
		if !f.Textual() {
			continue
		}
		snippet := classified.Snippet(f.Path)
		if snippet == "" {
			continue
		}

		cite := fx.Citation{FieldPath: f.FullPath, Snippet: snippet}
		iv, outcome := t.grounder.Ground(windowText, snippet, hints[f.Path])
		switch outcome {
		case ground.Exact:
			t.metrics.RecordGrounding(fx.GroundedExact)
		case ground.Fuzzy:
			t.metrics.RecordGrounding(fx.GroundedFuzzy)
		case ground.Miss:
			t.metrics.RecordGrounding(fx.GroundingMiss)
		}
		if outcome != ground.Miss {
			hints[f.Path] = iv.End
			// Translate to document-global coordinates.
			global := fx.CharInterval{
				Start: iv.Start + t.window.Start,
				End:   iv.End + t.window.Start,
			}
			cite.Interval = &global
		} else {
			issues = append(issues, fx.Issue{
				Severity:    fx.SeverityWarning,
				Code:        fx.IssueTypeGrounding,
				Diagnostics: fmt.Sprintf("snippet %q not located in window", truncate(snippet, 80)),
				Model:       t.target.Model,
				FieldPath:   f.Path,
				Window:      t.window.Index,
			})
		}
		citations = append(citations, cite)
	}

	instance := t.recon.Reconstruct(payload)
	issues = append(issues, t.verifyReconstruction(ctx, payload, instance)...)

	return &fx.ExtractionResult{
		ResourceType: t.target.Model,
		Facade:       t.target.Facade,
		Instance:     instance,
		Citations:    citations,
		WindowIndex:  t.window.Index,
	}, issues
}

// verifyReconstruction projects the reconstructed instance back onto
// the facade's field set via FHIRPath and checks that every payload
// field survived the round trip. A field that cannot be selected from
// its own instance is a reconstruction defect worth surfacing.
func (t *task) verifyReconstruction(ctx context.Context, payload, instance map[string]any) []fx.Issue {
	projected, err := t.recon.Project(ctx, t.evaluator, instance)
	if err != nil {
		return []fx.Issue{{
			Severity:    fx.SeverityWarning,
			Code:        fx.IssueTypeProcessing,
			Diagnostics: fmt.Sprintf("round-trip projection failed: %v", err),
			Model:       t.target.Model,
			Window:      t.window.Index,
		}}
	}

	var issues []fx.Issue
	for path := range payload {
		if _, ok := projected[path]; !ok {
			issues = append(issues, fx.Issue{
				Severity:    fx.SeverityWarning,
				Code:        fx.IssueTypeProcessing,
				Diagnostics: fmt.Sprintf("field %q lost during reconstruction round trip", path),
				Model:       t.target.Model,
				FieldPath:   path,
				Window:      t.window.Index,
			})
		}
	}
	return issues
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

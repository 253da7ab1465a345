package worker

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	fx "github.com/gofhir/extractor"
	"github.com/gofhir/extractor/engine"
)

// stubExtractor counts calls and returns a one-item result per document.
type stubExtractor struct {
	calls atomic.Int64
	delay time.Duration
	err   error
}

func (s *stubExtractor) ExtractDocument(ctx context.Context, text string, targets ...engine.Target) (*fx.Result, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.err != nil {
		return nil, s.err
	}

	result := fx.AcquireResult()
	for _, t := range targets {
		result.DeclareType(t.Model)
		result.Add(t.Model, &fx.ExtractionResult{
			ResourceType: t.Model,
			Facade:       t.Facade,
			Instance:     map[string]any{"resourceType": t.Model, "note": text},
		})
	}
	result.Status = fx.StatusComplete
	return result, nil
}

var obsTargets = []engine.Target{{Model: "Observation", Facade: "core"}}

func TestPoolProcessesJobs(t *testing.T) {
	stub := &stubExtractor{}
	pool := NewPool(stub, 4, obsTargets)

	const jobs = 12
	for i := 0; i < jobs; i++ {
		if !pool.Submit(Job{ID: string(rune('a' + i)), Text: "note"}) {
			t.Fatalf("Submit %d failed", i)
		}
	}

	batch := pool.CloseAndWait()

	if batch.TotalJobs != jobs {
		t.Errorf("TotalJobs = %d; want %d", batch.TotalJobs, jobs)
	}
	if batch.CompletedJobs != jobs {
		t.Errorf("CompletedJobs = %d; want %d", batch.CompletedJobs, jobs)
	}
	if len(batch.Results) != jobs {
		t.Errorf("got %d results; want %d", len(batch.Results), jobs)
	}
	if got := stub.calls.Load(); got != jobs {
		t.Errorf("extractor called %d times; want %d", got, jobs)
	}
	if batch.HasErrors() {
		t.Error("batch should have no errors")
	}
	if batch.TotalExtractions() != jobs {
		t.Errorf("TotalExtractions = %d; want %d", batch.TotalExtractions(), jobs)
	}
}

func TestPoolResultsChannel(t *testing.T) {
	stub := &stubExtractor{}
	pool := NewPool(stub, 2, obsTargets)

	pool.Submit(Job{ID: "one", Text: "first note"})

	select {
	case res := <-pool.Results():
		if res.ID != "one" {
			t.Errorf("result ID = %q; want one", res.ID)
		}
		if res.Error != nil {
			t.Errorf("unexpected error: %v", res.Error)
		}
		if res.Result.Count("Observation") != 1 {
			t.Errorf("Observation count = %d; want 1", res.Result.Count("Observation"))
		}
		res.Result.Release()
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}

	pool.Close()
}

func TestPoolJobTargetsOverrideDefaults(t *testing.T) {
	var seen atomic.Value
	ext := extractorFunc(func(ctx context.Context, text string, targets ...engine.Target) (*fx.Result, error) {
		seen.Store(targets[0].Model)
		r := fx.AcquireResult()
		r.DeclareType(targets[0].Model)
		return r, nil
	})

	pool := NewPool(ext, 1, obsTargets)
	pool.Submit(Job{ID: "j", Text: "note", Targets: []engine.Target{{Model: "Condition", Facade: "core"}}})
	batch := pool.CloseAndWait()

	if len(batch.Results) != 1 {
		t.Fatalf("got %d results", len(batch.Results))
	}
	if got := seen.Load(); got != "Condition" {
		t.Errorf("extractor saw model %v; job targets must override pool defaults", got)
	}
}

// extractorFunc adapts a function to the Extractor interface.
type extractorFunc func(ctx context.Context, text string, targets ...engine.Target) (*fx.Result, error)

func (f extractorFunc) ExtractDocument(ctx context.Context, text string, targets ...engine.Target) (*fx.Result, error) {
	return f(ctx, text, targets...)
}

func TestPoolNoExtractor(t *testing.T) {
	pool := NewPool(nil, 1, obsTargets)
	pool.Submit(Job{ID: "j", Text: "note"})
	batch := pool.CloseAndWait()

	if len(batch.Results) != 1 {
		t.Fatalf("got %d results", len(batch.Results))
	}
	if !errors.Is(batch.Results[0].Error, ErrNoExtractor) {
		t.Errorf("error = %v; want ErrNoExtractor", batch.Results[0].Error)
	}
	if !batch.HasErrors() {
		t.Error("HasErrors should report the failure")
	}
}

func TestPoolSubmitAfterClose(t *testing.T) {
	pool := NewPool(&stubExtractor{}, 1, obsTargets)
	pool.Close()

	if pool.Submit(Job{ID: "late", Text: "note"}) {
		t.Error("Submit after Close must return false")
	}
	if pool.SubmitAsync(Job{ID: "late", Text: "note"}) {
		t.Error("SubmitAsync after Close must return false")
	}
}

func TestPoolStats(t *testing.T) {
	stub := &stubExtractor{}
	pool := NewPool(stub, 3, obsTargets)

	for i := 0; i < 5; i++ {
		pool.Submit(Job{ID: "j", Text: "note"})
	}
	pool.CloseAndWait()

	stats := pool.Stats()
	if stats.Workers != 3 {
		t.Errorf("Workers = %d; want 3", stats.Workers)
	}
	if stats.JobsSubmitted != 5 {
		t.Errorf("JobsSubmitted = %d; want 5", stats.JobsSubmitted)
	}
	if stats.JobsCompleted != 5 {
		t.Errorf("JobsCompleted = %d; want 5", stats.JobsCompleted)
	}
}

func TestPoolDefaultWorkerCount(t *testing.T) {
	pool := NewPool(&stubExtractor{}, 0, obsTargets)
	defer pool.Close()

	if pool.Stats().Workers <= 0 {
		t.Errorf("Workers = %d; want > 0", pool.Stats().Workers)
	}
}

func TestPoolErrorPropagation(t *testing.T) {
	wantErr := errors.New("provider down")
	pool := NewPool(&stubExtractor{err: wantErr}, 2, obsTargets)

	pool.Submit(Job{ID: "j", Text: "note"})
	batch := pool.CloseAndWait()

	if len(batch.Results) != 1 {
		t.Fatalf("got %d results", len(batch.Results))
	}
	if !errors.Is(batch.Results[0].Error, wantErr) {
		t.Errorf("error = %v; want %v", batch.Results[0].Error, wantErr)
	}
	if !strings.Contains(batch.Results[0].Error.Error(), "provider down") {
		t.Errorf("error text = %q", batch.Results[0].Error.Error())
	}
}

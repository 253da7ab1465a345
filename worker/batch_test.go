package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExtractBatchEmpty(t *testing.T) {
	be := NewBatchExtractor(&stubExtractor{}, obsTargets, 2)
	batch := be.ExtractBatch(context.Background(), nil)

	if len(batch.Results) != 0 {
		t.Errorf("got %d results; want 0", len(batch.Results))
	}
	if batch.HasErrors() {
		t.Error("empty batch has no errors")
	}
}

func TestExtractBatchSequential(t *testing.T) {
	// Two documents stay on the sequential path.
	stub := &stubExtractor{}
	be := NewBatchExtractor(stub, obsTargets, 4)

	batch := be.ExtractBatch(context.Background(), []string{"note one", "note two"})

	if batch.TotalJobs != 2 || batch.CompletedJobs != 2 {
		t.Errorf("jobs = %d/%d; want 2/2", batch.CompletedJobs, batch.TotalJobs)
	}
	if stub.calls.Load() != 2 {
		t.Errorf("extractor called %d times; want 2", stub.calls.Load())
	}
}

func TestExtractBatchParallelOrder(t *testing.T) {
	docs := make([]string, 9)
	for i := range docs {
		docs[i] = fmt.Sprintf("clinical note %d", i)
	}

	be := NewBatchExtractor(&stubExtractor{}, obsTargets, 3)
	batch := be.ExtractBatch(context.Background(), docs)

	if len(batch.Results) != len(docs) {
		t.Fatalf("got %d results; want %d", len(batch.Results), len(docs))
	}
	// Results come back in input order regardless of which worker ran
	// each document.
	for i, r := range batch.Results {
		wantID := fmt.Sprintf("doc-%d", i)
		if r.ID != wantID {
			t.Errorf("Results[%d].ID = %q; want %q", i, r.ID, wantID)
		}
		wantNote := docs[i]
		if got := r.Result.Extractions["Observation"][0].Instance["note"]; got != wantNote {
			t.Errorf("Results[%d] note = %v; want %q", i, got, wantNote)
		}
	}
	if batch.TotalExtractions() != len(docs) {
		t.Errorf("TotalExtractions = %d; want %d", batch.TotalExtractions(), len(docs))
	}
}

func TestExtractBatchNoExtractor(t *testing.T) {
	be := NewBatchExtractor(nil, obsTargets, 2)
	batch := be.ExtractBatch(context.Background(), []string{"note"})

	if len(batch.Results) != 1 {
		t.Fatalf("got %d results", len(batch.Results))
	}
	if !errors.Is(batch.Results[0].Error, ErrNoExtractor) {
		t.Errorf("error = %v; want ErrNoExtractor", batch.Results[0].Error)
	}
}

func TestExtractBatchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	be := NewBatchExtractor(&stubExtractor{delay: time.Second}, obsTargets, 2)
	docs := make([]string, 8)
	for i := range docs {
		docs[i] = "note"
	}

	start := time.Now()
	batch := be.ExtractBatch(ctx, docs)
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("batch took %v with a canceled context", elapsed)
	}
	if batch.TotalJobs != len(docs) {
		t.Errorf("TotalJobs = %d; want %d", batch.TotalJobs, len(docs))
	}
	if batch.CompletedJobs == len(docs) {
		// Dispatch raced cancellation; at minimum the remaining jobs
		// must have failed fast with the context error.
		for _, r := range batch.Results {
			if r.Error == nil {
				t.Fatal("canceled run completed without error")
			}
		}
	}
}

func TestExtractBatchMixedFailures(t *testing.T) {
	wantErr := errors.New("backend down")
	be := NewBatchExtractor(&stubExtractor{err: wantErr}, obsTargets, 2)

	batch := be.ExtractBatch(context.Background(), []string{"a", "b", "c", "d"})

	if !batch.HasErrors() {
		t.Error("HasErrors should report failing jobs")
	}
	if batch.TotalExtractions() != 0 {
		t.Errorf("TotalExtractions = %d; want 0", batch.TotalExtractions())
	}
	for _, r := range batch.Results {
		if !errors.Is(r.Error, wantErr) {
			t.Errorf("job %s error = %v; want %v", r.ID, r.Error, wantErr)
		}
	}
}

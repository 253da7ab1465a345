package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	fx "github.com/gofhir/extractor"
	"github.com/gofhir/extractor/engine"
)

// BatchExtractor provides a one-shot interface for extracting a batch
// of documents without managing a pool.
type BatchExtractor struct {
	extractor Extractor
	targets   []engine.Target
	workers   int
}

// NewBatchExtractor creates a batch extractor.
// If workers <= 0, it defaults to runtime.NumCPU().
func NewBatchExtractor(extractor Extractor, targets []engine.Target, workers int) *BatchExtractor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &BatchExtractor{
		extractor: extractor,
		targets:   targets,
		workers:   workers,
	}
}

// ExtractBatch extracts all documents in parallel and returns results
// in input order.
func (be *BatchExtractor) ExtractBatch(ctx context.Context, documents []string) *BatchResult {
	if len(documents) == 0 {
		return &BatchResult{Results: make([]*JobResult, 0)}
	}

	// Small batches skip the fan-out machinery.
	if len(documents) <= 2 {
		return be.extractSequential(ctx, documents)
	}

	return be.extractParallel(ctx, documents)
}

func (be *BatchExtractor) extractSequential(ctx context.Context, documents []string) *BatchResult {
	results := make([]*JobResult, 0, len(documents))

	for i, doc := range documents {
		select {
		case <-ctx.Done():
			return &BatchResult{
				Results:       results,
				TotalJobs:     len(documents),
				CompletedJobs: len(results),
			}
		default:
		}

		results = append(results, be.extractOne(ctx, i, doc))
	}

	return &BatchResult{
		Results:       results,
		TotalJobs:     len(documents),
		CompletedJobs: len(results),
	}
}

func (be *BatchExtractor) extractParallel(ctx context.Context, documents []string) *BatchResult {
	workers := be.workers
	if workers > len(documents) {
		workers = len(documents)
	}

	results := make([]*JobResult, len(documents))
	jobs := make(chan int)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = be.extractOne(ctx, idx, documents[idx])
			}
		}()
	}

	completed := 0
dispatch:
	for i := range documents {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
			completed++
		}
	}
	close(jobs)
	wg.Wait()

	var total int64
	kept := make([]*JobResult, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		kept = append(kept, r)
		total += r.Duration
	}

	return &BatchResult{
		Results:       kept,
		TotalJobs:     len(documents),
		CompletedJobs: len(kept),
		TotalDuration: total,
	}
}

func (be *BatchExtractor) extractOne(ctx context.Context, idx int, text string) *JobResult {
	start := time.Now()

	var (
		run *fx.Result
		err error
	)
	if be.extractor == nil {
		err = ErrNoExtractor
	} else {
		run, err = be.extractor.ExtractDocument(ctx, text, be.targets...)
	}

	return &JobResult{
		ID:       fmt.Sprintf("doc-%d", idx),
		Result:   run,
		Error:    err,
		Duration: time.Since(start).Nanoseconds(),
	}
}

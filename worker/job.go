package worker

import (
	fx "github.com/gofhir/extractor"
	"github.com/gofhir/extractor/engine"
)

// Job is one document to extract.
type Job struct {
	// ID identifies the document in results.
	ID string

	// Text is the document's source text.
	Text string

	// Targets overrides the pool's default targets when non-empty.
	Targets []engine.Target
}

// JobResult is the outcome of extracting one document.
type JobResult struct {
	// ID matches the Job.ID that produced this result.
	ID string

	// Result is the extraction run outcome.
	Result *fx.Result

	// Error is set when the run failed outright.
	Error error

	// Duration is the extraction time in nanoseconds.
	Duration int64
}

// BatchResult aggregates results from multiple jobs.
type BatchResult struct {
	// Results contains all job results.
	Results []*JobResult

	// TotalJobs is the number of jobs submitted.
	TotalJobs int

	// CompletedJobs is the number of jobs completed, including errors.
	CompletedJobs int

	// TotalDuration is the cumulative extraction time in nanoseconds.
	TotalDuration int64
}

// HasErrors reports whether any job failed or recorded error issues.
func (br *BatchResult) HasErrors() bool {
	for _, r := range br.Results {
		if r.Error != nil {
			return true
		}
		if r.Result != nil && r.Result.HasErrors() {
			return true
		}
	}
	return false
}

// TotalExtractions counts extracted instances across all jobs.
func (br *BatchResult) TotalExtractions() int {
	n := 0
	for _, r := range br.Results {
		if r.Result != nil {
			n += r.Result.TotalCount()
		}
	}
	return n
}

package fhirextractor

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// CharInterval is a half-open character range [Start, End) into a
// source document. Invariant: 0 <= Start <= End <= document length.
type CharInterval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the interval length.
func (iv CharInterval) Len() int {
	return iv.End - iv.Start
}

// ValidFor reports whether the interval satisfies its bounds invariant
// for a document of the given length.
func (iv CharInterval) ValidFor(docLen int) bool {
	return 0 <= iv.Start && iv.Start <= iv.End && iv.End <= docLen
}

// String returns the interval as "[start, end)".
func (iv CharInterval) String() string {
	return fmt.Sprintf("[%d, %d)", iv.Start, iv.End)
}

// Citation evidences where one extracted field value originated in the
// source document. A nil Interval means grounding failed; the value is
// retained but flagged ungrounded.
type Citation struct {
	// FieldPath is the facade field the snippet supports,
	// e.g. "Observation.valueString".
	FieldPath string `json:"fieldPath"`

	// Snippet is the provider's self-reported source text for the value.
	Snippet string `json:"snippet"`

	// Interval is the located character range in document-global
	// coordinates, or nil when the snippet could not be located.
	Interval *CharInterval `json:"interval,omitempty"`
}

// Grounded reports whether the citation was located in the source text.
func (c Citation) Grounded() bool {
	return c.Interval != nil
}

// ExtractionResult is one validated instance of a target model plus its
// ordered citations.
type ExtractionResult struct {
	// ResourceType is the target model name, e.g. "Observation".
	ResourceType string `json:"resourceType"`

	// Facade is the facade key the instance was extracted through.
	Facade string `json:"facade,omitempty"`

	// Instance is the reconstructed resource: the validated subset
	// payload mapped back into a partially populated full instance.
	Instance map[string]any `json:"instance"`

	// Citations are ordered by facade field order.
	Citations []Citation `json:"citations,omitempty"`

	// WindowIndex is the window the instance was extracted from.
	WindowIndex int `json:"windowIndex"`
}

// Grounded reports whether at least one citation was located.
func (r *ExtractionResult) Grounded() bool {
	for _, c := range r.Citations {
		if c.Grounded() {
			return true
		}
	}
	return false
}

// FirstOffset returns the smallest grounded citation offset, or the
// document length substitute maxOffset when nothing grounded. Used for
// the deterministic earliest-by-offset result order.
func (r *ExtractionResult) FirstOffset(maxOffset int) int {
	first := maxOffset
	for _, c := range r.Citations {
		if c.Interval != nil && c.Interval.Start < first {
			first = c.Interval.Start
		}
	}
	return first
}

// RunStatus reports how completely a run finished.
type RunStatus string

const (
	// StatusComplete means every (target, window) task finished.
	StatusComplete RunStatus = "complete"
	// StatusPartial means some tasks failed or candidates were dropped,
	// and the remainder completed.
	StatusPartial RunStatus = "partial"
	// StatusTimedOut means the total deadline elapsed before all tasks
	// finished; completed work is retained.
	StatusTimedOut RunStatus = "timed-out"
)

// Result is the outcome of one extraction run: per-type result lists, a
// status side-channel, and the issues observed along the way.
// Use Release() to return it to the pool when done.
type Result struct {
	// RunID correlates logs and results for one invocation.
	RunID string `json:"runId"`

	// Status reports full, partial, or timed-out completion.
	Status RunStatus `json:"status"`

	// Extractions maps resource type name to its extracted instances.
	// A requested type always has an entry; an empty list is valid
	// success, not failure.
	Extractions map[string][]*ExtractionResult `json:"extractions"`

	// Issues contains every non-fatal event recorded during the run.
	Issues []Issue `json:"issues,omitempty"`

	// mu protects concurrent appends while tasks are in flight.
	mu sync.Mutex
}

// resultPool holds reusable Result instances.
var resultPool = sync.Pool{
	New: func() any {
		return &Result{
			Extractions: make(map[string][]*ExtractionResult, 4),
			Issues:      make([]Issue, 0, 8),
		}
	},
}

// AcquireResult gets a Result from the pool with a fresh run ID.
func AcquireResult() *Result {
	r := resultPool.Get().(*Result)
	r.Reset()
	r.RunID = uuid.NewString()
	return r
}

// Release returns the Result to the pool.
// After calling Release, the Result must not be used.
func (r *Result) Release() {
	if r == nil {
		return
	}
	if cap(r.Issues) <= 1024 {
		resultPool.Put(r)
	}
}

// Reset clears the result for reuse.
func (r *Result) Reset() {
	r.RunID = ""
	r.Status = StatusComplete
	for k := range r.Extractions {
		delete(r.Extractions, k)
	}
	r.Issues = r.Issues[:0]
}

// DeclareType registers a requested resource type so the mapping always
// carries an entry for it, even when nothing is extracted.
func (r *Result) DeclareType(resourceType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Extractions[resourceType]; !ok {
		r.Extractions[resourceType] = []*ExtractionResult{}
	}
}

// Add appends an extraction for a resource type.
// This method is safe for concurrent use.
func (r *Result) Add(resourceType string, res *ExtractionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Extractions[resourceType] = append(r.Extractions[resourceType], res)
}

// SetExtractions replaces the result list for a resource type. Used by
// the merge step after dedupe and capping.
func (r *Result) SetExtractions(resourceType string, list []*ExtractionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Extractions[resourceType] = list
}

// AddIssue records an issue on the result.
// This method is safe for concurrent use.
func (r *Result) AddIssue(issue Issue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Issues = append(r.Issues, issue)
}

// Count returns the number of extractions for a resource type.
func (r *Result) Count(resourceType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Extractions[resourceType])
}

// TotalCount returns the number of extractions across all types.
func (r *Result) TotalCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, list := range r.Extractions {
		n += len(list)
	}
	return n
}

// HasErrors returns true if any error issues were recorded.
func (r *Result) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, issue := range r.Issues {
		if issue.IsError() {
			return true
		}
	}
	return false
}

// Errors returns all error issues.
func (r *Result) Errors() []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []Issue
	for _, issue := range r.Issues {
		if issue.IsError() {
			errs = append(errs, issue)
		}
	}
	return errs
}

// Warnings returns all warning issues.
func (r *Result) Warnings() []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	var warns []Issue
	for _, issue := range r.Issues {
		if issue.IsWarning() {
			warns = append(warns, issue)
		}
	}
	return warns
}

package fhirextractor

import (
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Option configures the extraction engine.
type Option func(*Options)

// Options holds all configuration for the extraction engine.
type Options struct {
	// Concurrency bounds the number of extraction tasks in flight
	// across the cross product of targets and windows. Must be > 0.
	Concurrency int

	// WindowTimeout is the deadline for a single (target, window) task.
	// A timed-out window contributes zero results and is recorded as a
	// partial-completion issue, never an error. Use 0 for no timeout.
	WindowTimeout time.Duration

	// TotalTimeout is the overall deadline for a run. When it elapses
	// the engine stops waiting, keeps everything that completed, and
	// marks the run StatusTimedOut. Use 0 for no deadline.
	TotalTimeout time.Duration

	// MaxItemsPerType caps the number of results kept per resource
	// type after cross-window merge. Use 0 for unlimited.
	MaxItemsPerType int

	// Windowing granularity.
	WindowSize    int
	WindowOverlap int

	// SingleWindowThreshold is the document length below which the
	// whole document is processed as one window.
	SingleWindowThreshold int

	// FuzzyThreshold is the maximum edit distance for a non-exact
	// grounding match, expressed as a fraction of snippet length.
	FuzzyThreshold float64

	// FuzzyLengthSlack is how much a candidate document window may
	// differ in length from the snippet during fuzzy grounding,
	// expressed as a fraction of snippet length.
	FuzzyLengthSlack float64

	// EnablePooling reuses Result instances via sync.Pool. Pooled
	// results require calling Release() when done.
	EnablePooling bool

	// Logger receives structured engine logs. Defaults to a no-op
	// logger so the library is silent unless configured.
	Logger *zap.Logger
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		Concurrency:     runtime.NumCPU(),
		WindowTimeout:   30 * time.Second,
		TotalTimeout:    0, // no overall deadline
		MaxItemsPerType: 0, // unlimited

		WindowSize:            4000,
		WindowOverlap:         400,
		SingleWindowThreshold: 6000,

		FuzzyThreshold:   0.2,
		FuzzyLengthSlack: 0.2,

		EnablePooling: true,
		Logger:        zap.NewNop(),
	}
}

// Validate checks the options before any provider call is made.
func (o *Options) Validate() error {
	if o.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be > 0, got %d", ErrInvalidConfig, o.Concurrency)
	}
	if o.WindowSize <= 0 {
		return fmt.Errorf("%w: window size must be > 0, got %d", ErrInvalidConfig, o.WindowSize)
	}
	if o.WindowOverlap < 0 || o.WindowOverlap >= o.WindowSize {
		return fmt.Errorf("%w: window overlap must be in [0, window size), got %d", ErrInvalidConfig, o.WindowOverlap)
	}
	if o.MaxItemsPerType < 0 {
		return fmt.Errorf("%w: max items per type must be >= 0, got %d", ErrInvalidConfig, o.MaxItemsPerType)
	}
	if o.FuzzyThreshold < 0 || o.FuzzyThreshold > 1 {
		return fmt.Errorf("%w: fuzzy threshold must be in [0, 1], got %g", ErrInvalidConfig, o.FuzzyThreshold)
	}
	if o.FuzzyLengthSlack < 0 || o.FuzzyLengthSlack > 1 {
		return fmt.Errorf("%w: fuzzy length slack must be in [0, 1], got %g", ErrInvalidConfig, o.FuzzyLengthSlack)
	}
	return nil
}

// --- Concurrency and Deadline Options ---

// WithConcurrency bounds the number of in-flight extraction tasks.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		o.Concurrency = n
	}
}

// WithWindowTimeout sets the per-window task deadline.
// Use 0 for no timeout.
func WithWindowTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.WindowTimeout = timeout
	}
}

// WithTotalTimeout sets the overall run deadline.
// Use 0 for no deadline.
func WithTotalTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.TotalTimeout = timeout
	}
}

// --- Result Options ---

// WithMaxItemsPerType caps results kept per resource type after merge.
// Use 0 for unlimited.
func WithMaxItemsPerType(n int) Option {
	return func(o *Options) {
		o.MaxItemsPerType = n
	}
}

// WithPooling enables or disables Result pooling.
// Pooling reduces GC pressure but requires calling Release() on results.
func WithPooling(enable bool) Option {
	return func(o *Options) {
		o.EnablePooling = enable
	}
}

// --- Windowing Options ---

// WithWindowSize sets the window size in characters.
func WithWindowSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.WindowSize = size
		}
	}
}

// WithWindowOverlap sets the overlap between consecutive windows.
// Overlap prevents losing entities straddling a window boundary.
func WithWindowOverlap(overlap int) Option {
	return func(o *Options) {
		if overlap >= 0 {
			o.WindowOverlap = overlap
		}
	}
}

// WithSingleWindowThreshold sets the document length below which the
// whole document is processed as a single window.
func WithSingleWindowThreshold(threshold int) Option {
	return func(o *Options) {
		if threshold > 0 {
			o.SingleWindowThreshold = threshold
		}
	}
}

// --- Grounding Options ---

// WithFuzzyThreshold sets the edit-distance tolerance for non-exact
// grounding, as a fraction of snippet length. The default of 0.2
// accepts a match when at most one fifth of the snippet differs after
// normalization.
func WithFuzzyThreshold(fraction float64) Option {
	return func(o *Options) {
		o.FuzzyThreshold = fraction
	}
}

// WithFuzzyLengthSlack sets how far a candidate span may differ in
// length from the snippet during fuzzy grounding.
func WithFuzzyLengthSlack(fraction float64) Option {
	return func(o *Options) {
		o.FuzzyLengthSlack = fraction
	}
}

// --- Logging Options ---

// WithLogger sets the structured logger used by the engine.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// --- Presets ---

// FastOptions returns options tuned for throughput: wide concurrency,
// short window deadlines, exact-match-only grounding.
func FastOptions() []Option {
	return []Option{
		WithConcurrency(2 * runtime.NumCPU()),
		WithWindowTimeout(10 * time.Second),
		WithFuzzyThreshold(0),
	}
}

// ThoroughOptions returns options tuned for recall: generous deadlines,
// larger overlap, and a permissive fuzzy threshold.
func ThoroughOptions() []Option {
	return []Option{
		WithWindowTimeout(2 * time.Minute),
		WithWindowOverlap(800),
		WithFuzzyThreshold(0.3),
	}
}

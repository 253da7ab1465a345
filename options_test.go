package fhirextractor

import (
	"errors"
	"runtime"
	"testing"
	"time"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Concurrency != runtime.NumCPU() {
		t.Errorf("Concurrency = %d; want %d", opts.Concurrency, runtime.NumCPU())
	}
	if opts.WindowTimeout != 30*time.Second {
		t.Errorf("WindowTimeout = %v; want 30s", opts.WindowTimeout)
	}
	if opts.TotalTimeout != 0 {
		t.Errorf("TotalTimeout = %v; want 0", opts.TotalTimeout)
	}
	if opts.MaxItemsPerType != 0 {
		t.Errorf("MaxItemsPerType = %d; want 0", opts.MaxItemsPerType)
	}

	if opts.WindowSize != 4000 {
		t.Errorf("WindowSize = %d; want 4000", opts.WindowSize)
	}
	if opts.WindowOverlap != 400 {
		t.Errorf("WindowOverlap = %d; want 400", opts.WindowOverlap)
	}
	if opts.SingleWindowThreshold != 6000 {
		t.Errorf("SingleWindowThreshold = %d; want 6000", opts.SingleWindowThreshold)
	}

	if opts.FuzzyThreshold != 0.2 {
		t.Errorf("FuzzyThreshold = %g; want 0.2", opts.FuzzyThreshold)
	}
	if opts.FuzzyLengthSlack != 0.2 {
		t.Errorf("FuzzyLengthSlack = %g; want 0.2", opts.FuzzyLengthSlack)
	}

	if opts.EnablePooling != true {
		t.Error("EnablePooling should be true by default")
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a no-op logger, not nil")
	}

	if err := opts.Validate(); err != nil {
		t.Errorf("default options should validate, got %v", err)
	}
}

func TestOptionsApplication(t *testing.T) {
	opts := DefaultOptions()

	for _, opt := range []Option{
		WithConcurrency(8),
		WithWindowTimeout(5 * time.Second),
		WithTotalTimeout(time.Minute),
		WithMaxItemsPerType(10),
		WithWindowSize(2000),
		WithWindowOverlap(200),
		WithSingleWindowThreshold(3000),
		WithFuzzyThreshold(0.1),
		WithFuzzyLengthSlack(0.3),
		WithPooling(false),
	} {
		opt(opts)
	}

	if opts.Concurrency != 8 {
		t.Errorf("Concurrency = %d; want 8", opts.Concurrency)
	}
	if opts.WindowTimeout != 5*time.Second {
		t.Errorf("WindowTimeout = %v; want 5s", opts.WindowTimeout)
	}
	if opts.TotalTimeout != time.Minute {
		t.Errorf("TotalTimeout = %v; want 1m", opts.TotalTimeout)
	}
	if opts.MaxItemsPerType != 10 {
		t.Errorf("MaxItemsPerType = %d; want 10", opts.MaxItemsPerType)
	}
	if opts.WindowSize != 2000 {
		t.Errorf("WindowSize = %d; want 2000", opts.WindowSize)
	}
	if opts.WindowOverlap != 200 {
		t.Errorf("WindowOverlap = %d; want 200", opts.WindowOverlap)
	}
	if opts.SingleWindowThreshold != 3000 {
		t.Errorf("SingleWindowThreshold = %d; want 3000", opts.SingleWindowThreshold)
	}
	if opts.FuzzyThreshold != 0.1 {
		t.Errorf("FuzzyThreshold = %g; want 0.1", opts.FuzzyThreshold)
	}
	if opts.FuzzyLengthSlack != 0.3 {
		t.Errorf("FuzzyLengthSlack = %g; want 0.3", opts.FuzzyLengthSlack)
	}
	if opts.EnablePooling {
		t.Error("EnablePooling should be false after WithPooling(false)")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero concurrency", func(o *Options) { o.Concurrency = 0 }},
		{"negative concurrency", func(o *Options) { o.Concurrency = -1 }},
		{"zero window size", func(o *Options) { o.WindowSize = 0 }},
		{"negative overlap", func(o *Options) { o.WindowOverlap = -1 }},
		{"overlap >= window size", func(o *Options) { o.WindowOverlap = o.WindowSize }},
		{"negative max items", func(o *Options) { o.MaxItemsPerType = -1 }},
		{"fuzzy threshold > 1", func(o *Options) { o.FuzzyThreshold = 1.5 }},
		{"negative fuzzy threshold", func(o *Options) { o.FuzzyThreshold = -0.1 }},
		{"length slack > 1", func(o *Options) { o.FuzzyLengthSlack = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(opts)
			err := opts.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error should wrap ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	opts := DefaultOptions()
	for _, opt := range FastOptions() {
		opt(opts)
	}
	if opts.FuzzyThreshold != 0 {
		t.Errorf("fast preset FuzzyThreshold = %g; want 0", opts.FuzzyThreshold)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("fast preset should validate, got %v", err)
	}

	opts = DefaultOptions()
	for _, opt := range ThoroughOptions() {
		opt(opts)
	}
	if opts.WindowOverlap != 800 {
		t.Errorf("thorough preset WindowOverlap = %d; want 800", opts.WindowOverlap)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("thorough preset should validate, got %v", err)
	}
}

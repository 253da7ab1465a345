// Package main implements the fhir-extract CLI tool.
// It reads clinical text and emits extracted FHIR resource instances
// with character-level citations into the source text.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	fx "github.com/gofhir/extractor"
	"github.com/gofhir/extractor/engine"
	"github.com/gofhir/extractor/provider/gemini"
	"github.com/gofhir/extractor/worker"
)

const usage = `fhir-extract - Clinical Text Extraction

Usage:
  fhir-extract [options] <file>...
  fhir-extract [options] -           (read from stdin)
  cat note.txt | fhir-extract -      (pipe input)

Requires GEMINI_API_KEY in the environment or a .env file.

Examples:
  fhir-extract note.txt
  fhir-extract -targets Observation/vitals,MedicationStatement/core note.txt
  fhir-extract -output json -max-items 20 note.txt
  fhir-extract -timeout 30s *.txt
  cat note.txt | fhir-extract -

Options:
`

// OutputFormat specifies the output format.
type OutputFormat string

// Output format constants.
const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// Config holds CLI configuration
type Config struct {
	Targets       []engine.Target
	Output        OutputFormat
	Model         string
	Concurrency   int
	Timeout       time.Duration
	WindowTimeout time.Duration
	MaxItems      int
	Workers       int
	Quiet         bool
	Verbose       bool
	ShowVersion   bool
	Help          bool
	Files         []string
}

// ExtractionOutput represents the JSON output structure for one document
type ExtractionOutput struct {
	Document    string                           `json:"document"`
	RunID       string                           `json:"runId,omitempty"`
	Status      string                           `json:"status"`
	Extractions map[string][]*fx.ExtractionResult `json:"extractions,omitempty"`
	Issues      []fx.Issue                       `json:"issues,omitempty"`
	Error       string                           `json:"error,omitempty"`
	Duration    string                           `json:"duration"`
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("fhir-extract v%s\n", fx.Version)
		os.Exit(0)
	}

	if config.Help || len(config.Files) == 0 {
		flag.Usage()
		os.Exit(0)
	}

	os.Exit(run(config))
}

func parseFlags() *Config {
	config := &Config{
		Output: OutputText,
	}

	var targets, output string

	flag.StringVar(&targets, "targets", "Observation/core", "Target model/facade pairs, comma-separated (e.g. Observation/vitals,Condition/core)")
	flag.StringVar(&output, "output", "text", "Output format: text, json")
	flag.StringVar(&config.Model, "model", "", "Gemini model name (default per provider)")
	flag.IntVar(&config.Concurrency, "concurrency", 0, "Max extraction tasks in flight (0 = number of CPUs)")
	flag.DurationVar(&config.Timeout, "timeout", 0, "Total deadline per document (0 = none)")
	flag.DurationVar(&config.WindowTimeout, "window-timeout", 30*time.Second, "Deadline per window task")
	flag.IntVar(&config.MaxItems, "max-items", 0, "Max results per resource type (0 = unlimited)")
	flag.IntVar(&config.Workers, "workers", 0, "Parallel documents (0 = number of CPUs)")
	flag.BoolVar(&config.Quiet, "quiet", false, "Only show results")
	flag.BoolVar(&config.Verbose, "verbose", false, "Show engine logs")
	flag.BoolVar(&config.ShowVersion, "v", false, "Show version")
	flag.BoolVar(&config.Help, "help", false, "Show help")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}

	flag.Parse()

	for _, spec := range strings.Split(targets, ",") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		parts := strings.SplitN(spec, "/", 2)
		t := engine.Target{Model: parts[0], Facade: "core"}
		if len(parts) == 2 && parts[1] != "" {
			t.Facade = parts[1]
		}
		config.Targets = append(config.Targets, t)
	}

	switch strings.ToLower(output) {
	case "json":
		config.Output = OutputJSON
	default:
		config.Output = OutputText
	}

	config.Files = flag.Args()

	return config
}

func run(config *Config) int {
	// .env is optional; the environment wins over it.
	_ = godotenv.Load()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY is not set")
		return 1
	}

	logger := zap.NewNop()
	if config.Verbose {
		dev, err := zap.NewDevelopment()
		if err == nil {
			logger = dev
		}
		defer logger.Sync()
	}

	providerConfig := gemini.DefaultConfig(apiKey)
	if config.Model != "" {
		providerConfig.Model = config.Model
	}
	providerConfig.Logger = logger
	provider := gemini.NewWithConfig(providerConfig)

	opts := []fx.Option{
		fx.WithWindowTimeout(config.WindowTimeout),
		fx.WithLogger(logger),
	}
	if config.Concurrency > 0 {
		opts = append(opts, fx.WithConcurrency(config.Concurrency))
	}
	if config.Timeout > 0 {
		opts = append(opts, fx.WithTotalTimeout(config.Timeout))
	}
	if config.MaxItems > 0 {
		opts = append(opts, fx.WithMaxItemsPerType(config.MaxItems))
	}

	ext, err := engine.New(provider, nil, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize extractor: %v\n", err)
		return 1
	}

	names, texts, readErrors := readDocuments(config.Files)
	if len(texts) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no readable input")
		return 1
	}

	if !config.Quiet {
		fmt.Fprintf(os.Stderr, "Extracting %d target(s) from %d document(s)...\n", len(config.Targets), len(texts))
	}

	batch := worker.NewBatchExtractor(ext, config.Targets, config.Workers)
	result := batch.ExtractBatch(context.Background(), texts)

	outputs := make([]ExtractionOutput, 0, len(result.Results))
	hasErrors := readErrors
	for i, jr := range result.Results {
		name := "stdin"
		if i < len(names) {
			name = names[i]
		}
		out := ExtractionOutput{
			Document: name,
			Duration: time.Duration(jr.Duration).String(),
		}
		if jr.Error != nil {
			out.Error = jr.Error.Error()
			out.Status = "failed"
			hasErrors = true
		} else {
			out.RunID = jr.Result.RunID
			out.Status = string(jr.Result.Status)
			out.Extractions = jr.Result.Extractions
			out.Issues = jr.Result.Issues
			if jr.Result.HasErrors() {
				hasErrors = true
			}
		}
		outputs = append(outputs, out)
	}

	if config.Output == OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outputs); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
			return 1
		}
	} else {
		for i, out := range outputs {
			printText(out, texts[i], config.Quiet)
		}
	}

	if hasErrors {
		return 1
	}
	return 0
}

// readDocuments loads all inputs, expanding glob patterns and reading
// "-" from stdin. It reports whether any input failed to load.
func readDocuments(files []string) (names []string, texts []string, hadErrors bool) {
	for _, file := range files {
		if file == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
				hadErrors = true
				continue
			}
			names = append(names, "stdin")
			texts = append(texts, string(data))
			continue
		}

		matches, err := filepath.Glob(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error with pattern '%s': %v\n", file, err)
			hadErrors = true
			continue
		}
		if len(matches) == 0 {
			fmt.Fprintf(os.Stderr, "No files match pattern: %s\n", file)
			hadErrors = true
			continue
		}

		for _, match := range matches {
			data, err := os.ReadFile(match)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", match, err)
				hadErrors = true
				continue
			}
			names = append(names, match)
			texts = append(texts, string(data))
		}
	}
	return names, texts, hadErrors
}

func printText(out ExtractionOutput, text string, quiet bool) {
	fmt.Printf("== %s (%s, %s)\n", out.Document, out.Status, out.Duration)
	if out.Error != "" {
		fmt.Printf("  error: %s\n", out.Error)
		return
	}

	for resourceType, items := range out.Extractions {
		for _, item := range items {
			fmt.Printf("  %s [window %d]\n", resourceType, item.WindowIndex)
			for _, cite := range item.Citations {
				if cite.Grounded() {
					fmt.Printf("    %-40s %q at %s\n", cite.FieldPath, snippetAt(text, *cite.Interval), cite.Interval)
				} else {
					fmt.Printf("    %-40s %q (not located)\n", cite.FieldPath, cite.Snippet)
				}
			}
		}
	}

	if !quiet {
		for _, issue := range out.Issues {
			fmt.Printf("  issue: %s\n", issue)
		}
	}
	fmt.Println()
}

func snippetAt(text string, iv fx.CharInterval) string {
	if !iv.ValidFor(len(text)) {
		return ""
	}
	return text[iv.Start:iv.End]
}

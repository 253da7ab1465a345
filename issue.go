package fhirextractor

import "fmt"

// IssueSeverity represents the severity of an extraction issue.
type IssueSeverity string

const (
	// SeverityError indicates a failure that excluded data from the
	// result (an invalid candidate, a failed provider call).
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates degraded output that was still kept
	// (an ungrounded citation, a timed-out window).
	SeverityWarning IssueSeverity = "warning"
	// SeverityInformation indicates informational feedback.
	SeverityInformation IssueSeverity = "information"
)

// IssueType classifies extraction issues.
type IssueType string

const (
	// IssueTypeValidation indicates provider output that violated the
	// subset schema. The offending candidate is excluded; the task is
	// not failed.
	IssueTypeValidation IssueType = "validation"
	// IssueTypeGrounding indicates a snippet that could not be located
	// in the source document. The value is kept, flagged ungrounded.
	IssueTypeGrounding IssueType = "grounding"
	// IssueTypeTimeout indicates a window or run deadline elapsed.
	IssueTypeTimeout IssueType = "timeout"
	// IssueTypeProvider indicates a mid-run provider failure isolated
	// to one task.
	IssueTypeProvider IssueType = "provider"
	// IssueTypeProcessing indicates an internal processing error.
	IssueTypeProcessing IssueType = "processing"
)

// Issue records a single non-fatal event observed during a run.
type Issue struct {
	// Severity of the issue
	Severity IssueSeverity `json:"severity"`

	// Code identifying the type of issue
	Code IssueType `json:"code"`

	// Diagnostics contains human-readable details
	Diagnostics string `json:"diagnostics,omitempty"`

	// Model is the resource type the issue relates to, if any
	Model string `json:"model,omitempty"`

	// FieldPath is the facade field the issue relates to, if any
	FieldPath string `json:"fieldPath,omitempty"`

	// Window is the index of the window the issue occurred in, -1 when
	// not window-scoped
	Window int `json:"window,omitempty"`
}

// IsError returns true if this is an error issue.
func (i Issue) IsError() bool {
	return i.Severity == SeverityError
}

// IsWarning returns true if this is a warning.
func (i Issue) IsWarning() bool {
	return i.Severity == SeverityWarning
}

// String returns a human-readable representation of the issue.
func (i Issue) String() string {
	scope := i.Model
	if i.FieldPath != "" {
		scope = scope + "." + i.FieldPath
	}
	if scope != "" {
		return fmt.Sprintf("[%s] %s (%s): %s", i.Severity, i.Code, scope, i.Diagnostics)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Code, i.Diagnostics)
}

// Package types defines the core records and tagged enums for picket.
package types

import (
	"fmt"
	"time"
)

// Issue represents a unit of trackable work claimed and resolved by agents.
type Issue struct {
	IssueID      string     `json:"issue_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Priority     Priority   `json:"priority"`
	Status       Status     `json:"status"`
	WorkStatus   WorkStatus `json:"work_status"`
	LockedBy     string     `json:"locked_by,omitempty"`
	Project      string     `json:"project,omitempty"`
	IssueType    string     `json:"issue_type,omitempty"`
	Location     string     `json:"location,omitempty"`
	RootCause    string     `json:"root_cause,omitempty"`
	RequiredFix  string     `json:"required_fix,omitempty"`
	AttemptCount int        `json:"attempt_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Validate checks if the issue has valid field values
func (i *Issue) Validate() error {
	if len(i.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(i.Description) == 0 {
		return fmt.Errorf("description is required")
	}
	if !i.Priority.IsValid() {
		return fmt.Errorf("invalid priority: %s", i.Priority)
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", i.Status)
	}
	if !i.WorkStatus.IsValid() {
		return fmt.Errorf("invalid work status: %s", i.WorkStatus)
	}
	if i.AttemptCount < 0 {
		return fmt.Errorf("attempt_count cannot be negative")
	}
	if i.WorkStatus == WorkAvailable && i.LockedBy != "" {
		return fmt.Errorf("locked_by must be empty while available")
	}
	if i.WorkStatus == WorkLocked && i.LockedBy == "" {
		return fmt.Errorf("locked_by is required while locked")
	}
	return nil
}

// Priority represents how urgent an issue is
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
)

// IsValid checks if the priority value is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium:
		return true
	}
	return false
}

// Status represents the lifecycle state of an issue
type Status string

const (
	StatusOutstanding Status = "outstanding"
	StatusInProgress  Status = "in_progress"
	StatusResolved    Status = "resolved"
	StatusFailed      Status = "failed"
)

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusOutstanding, StatusInProgress, StatusResolved, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions
// except idempotent re-submission of the same value.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusFailed
}

// WorkStatus represents the lock state of an issue, distinct from Status
type WorkStatus string

const (
	WorkAvailable WorkStatus = "available"
	WorkLocked    WorkStatus = "locked"
)

// IsValid checks if the work status value is valid
func (w WorkStatus) IsValid() bool {
	switch w {
	case WorkAvailable, WorkLocked:
		return true
	}
	return false
}

// ThreadEntry is an immutable audit record attached to an issue
type ThreadEntry struct {
	ID        int64     `json:"id"`
	IssueID   string    `json:"issue_id"`
	EntryType EntryType `json:"entry_type"`
	Author    string    `json:"author"`
	Body      string    `json:"body,omitempty"`
	Payload   string    `json:"payload,omitempty"` // JSON for report entries
	CreatedAt time.Time `json:"created_at"`
}

// EntryType categorizes thread entries
type EntryType string

const (
	EntryCreated      EntryType = "created"
	EntryComment      EntryType = "comment"
	EntryStatusChange EntryType = "status_change"
	EntryCheckout     EntryType = "checkout"
	EntryRelease      EntryType = "release"
	EntryReport       EntryType = "report"
)

// IsValid checks if the entry type value is valid
func (e EntryType) IsValid() bool {
	switch e {
	case EntryCreated, EntryComment, EntryStatusChange, EntryCheckout, EntryRelease, EntryReport:
		return true
	}
	return false
}

// OutcomeResult is the interpreted portion of a report
type OutcomeResult string

const (
	OutcomeSuccess OutcomeResult = "SUCCESS"
	OutcomeFailure OutcomeResult = "FAILURE"
)

// IsValid checks if the outcome result value is valid
func (o OutcomeResult) IsValid() bool {
	return o == OutcomeSuccess || o == OutcomeFailure
}

// Report is a structured resolution attempt submitted on completion.
// The engine interprets only Outcome.Result; the remaining fields are
// stored verbatim as the thread entry payload.
type Report struct {
	AttemptNumber  int            `json:"attempt_number"`
	Analysis       Analysis       `json:"analysis"`
	Implementation Implementation `json:"implementation"`
	TestResults    TestResults    `json:"test_results"`
	Outcome        Outcome        `json:"outcome"`
}

// Validate checks the interpreted portion of the report
func (r *Report) Validate() error {
	if r.AttemptNumber < 1 {
		return fmt.Errorf("attempt_number must be positive (got %d)", r.AttemptNumber)
	}
	if !r.Outcome.Result.IsValid() {
		return fmt.Errorf("invalid outcome result: %q", r.Outcome.Result)
	}
	return nil
}

// Analysis describes the agent's understanding of the issue
type Analysis struct {
	Understanding string `json:"understanding,omitempty"`
	Approach      string `json:"approach,omitempty"`
	Scope         string `json:"scope,omitempty"`
}

// FileChange records one file touched during an attempt
type FileChange struct {
	File      string   `json:"file"`
	Operation string   `json:"operation,omitempty"`
	Changes   []string `json:"changes,omitempty"`
}

// Implementation describes the changes applied during an attempt
type Implementation struct {
	FilesModified  []FileChange `json:"files_modified,omitempty"`
	ChangesApplied []string     `json:"changes_applied,omitempty"`
	Reasoning      string       `json:"reasoning,omitempty"`
}

// TestResult records a single targeted test run
type TestResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// SuiteSummary summarizes a full test suite run
type SuiteSummary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// TestResults describes the validation performed for an attempt
type TestResults struct {
	TargetedTests []TestResult    `json:"targeted_tests,omitempty"`
	FullSuite     SuiteSummary    `json:"full_suite_results"`
	Validation    map[string]bool `json:"validation_status,omitempty"`
}

// Outcome carries the attempt verdict
type Outcome struct {
	Result     OutcomeResult `json:"result"`
	Assessment string        `json:"assessment,omitempty"`
	NextSteps  string        `json:"next_steps,omitempty"`
}

// Statistics provides aggregate counts, recomputed fresh on every call
type Statistics struct {
	Total       int `json:"total"`
	Outstanding int `json:"outstanding"`
	InProgress  int `json:"in_progress"`
	Resolved    int `json:"resolved"`
	Failed      int `json:"failed"`
	Critical    int `json:"critical"`
	High        int `json:"high"`
	Medium      int `json:"medium"`
	Locked      int `json:"locked"`
}

// IssueFilter is used to filter issue queries
type IssueFilter struct {
	Status     *Status
	Priority   *Priority
	Project    *string
	WorkStatus *WorkStatus
	Limit      int
}

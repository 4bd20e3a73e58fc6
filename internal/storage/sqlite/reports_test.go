package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/picket-dev/picket/internal/storage"
	"github.com/picket-dev/picket/internal/types"
)

func newTestReport(attempt int, result types.OutcomeResult) *types.Report {
	return &types.Report{
		AttemptNumber: attempt,
		Analysis: types.Analysis{
			Understanding: "nil map write in the config loader",
			Approach:      "initialize the map before first use",
		},
		Implementation: types.Implementation{
			FilesModified: []types.FileChange{
				{File: "internal/config/loader.go", Operation: "modify", Changes: []string{"init settings map"}},
			},
			ChangesApplied: []string{"guard added"},
		},
		TestResults: types.TestResults{
			TargetedTests: []types.TestResult{{Name: "TestLoaderEmptyConfig", Passed: result == types.OutcomeSuccess}},
			FullSuite:     types.SuiteSummary{Total: 42, Passed: 42},
			Validation:    map[string]bool{"lint": true},
		},
		Outcome: types.Outcome{
			Result:     result,
			Assessment: "see analysis",
		},
	}
}

func TestSubmitReportSuccess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	issue := mustCreate(t, store, newTestIssue("fixable"))

	if err := store.CheckoutIssue(ctx, issue.IssueID, "agent-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.SubmitReport(ctx, issue.IssueID, newTestReport(1, types.OutcomeSuccess), "agent-1"); err != nil {
		t.Fatalf("SubmitReport() failed: %v", err)
	}

	got, err := store.GetIssue(ctx, issue.IssueID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != types.StatusResolved {
		t.Errorf("status = %s, want resolved", got.Status)
	}
	// Success resolves but does not release; unlocking is explicit.
	if got.WorkStatus != types.WorkLocked || got.LockedBy != "agent-1" {
		t.Errorf("lock state after success = %s/%q, want locked/agent-1", got.WorkStatus, got.LockedBy)
	}
	if got.AttemptCount != 0 {
		t.Errorf("attempt_count = %d after success, want 0", got.AttemptCount)
	}
}

func TestSubmitReportFailure(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	issue := mustCreate(t, store, newTestIssue("stubborn"))

	if err := store.CheckoutIssue(ctx, issue.IssueID, "agent-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.SubmitReport(ctx, issue.IssueID, newTestReport(1, types.OutcomeFailure), "agent-1"); err != nil {
		t.Fatalf("SubmitReport() failed: %v", err)
	}

	got, err := store.GetIssue(ctx, issue.IssueID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != types.StatusOutstanding {
		t.Errorf("status = %s, want outstanding", got.Status)
	}
	if got.WorkStatus != types.WorkAvailable || got.LockedBy != "" {
		t.Errorf("failed attempt left lock %s/%q", got.WorkStatus, got.LockedBy)
	}
	if got.AttemptCount != 1 {
		t.Errorf("attempt_count = %d, want 1", got.AttemptCount)
	}

	// A different agent can pick it up again.
	if err := store.CheckoutIssue(ctx, issue.IssueID, "agent-2"); err != nil {
		t.Errorf("re-checkout after failure = %v", err)
	}
}

func TestSubmitReportMaxAttempts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.SetConfig(ctx, "max_attempts", "2"); err != nil {
		t.Fatal(err)
	}
	issue := mustCreate(t, store, newTestIssue("doomed"))

	for attempt := 1; attempt <= 2; attempt++ {
		if err := store.CheckoutIssue(ctx, issue.IssueID, "agent-1"); err != nil {
			t.Fatalf("checkout %d failed: %v", attempt, err)
		}
		if err := store.SubmitReport(ctx, issue.IssueID, newTestReport(attempt, types.OutcomeFailure), "agent-1"); err != nil {
			t.Fatalf("report %d failed: %v", attempt, err)
		}
	}

	got, err := store.GetIssue(ctx, issue.IssueID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != types.StatusFailed {
		t.Errorf("status after exhausting attempts = %s, want failed", got.Status)
	}
	if got.AttemptCount != 2 {
		t.Errorf("attempt_count = %d, want 2", got.AttemptCount)
	}

	// Terminal: no further transitions.
	err = store.UpdateStatus(ctx, issue.IssueID, types.StatusOutstanding, "agent-1", false)
	if !errors.Is(err, storage.ErrInvalidStatus) {
		t.Errorf("reopening failed issue = %v, want ErrInvalidStatus", err)
	}
}

func TestSubmitReportValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	issue := mustCreate(t, store, newTestIssue("picky"))

	tests := []struct {
		name   string
		report *types.Report
	}{
		{"zero attempt", newTestReport(0, types.OutcomeSuccess)},
		{"bad outcome", newTestReport(1, "PARTIAL")},
		{"empty outcome", newTestReport(1, "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SubmitReport(ctx, issue.IssueID, tt.report, "agent-1")
			if !errors.Is(err, storage.ErrConstraint) {
				t.Errorf("SubmitReport() = %v, want ErrConstraint", err)
			}
		})
	}

	// Rejected reports leave no thread entries behind the creation record.
	thread, err := store.GetThread(ctx, issue.IssueID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(thread) != 1 {
		t.Errorf("thread has %d entries after rejected reports, want 1", len(thread))
	}
}

func TestSubmitReportNotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.SubmitReport(context.Background(), "pk-deadbeef0000", newTestReport(1, types.OutcomeSuccess), "agent-1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("SubmitReport(missing) = %v, want ErrNotFound", err)
	}
}

func TestReportPayloadPreserved(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	issue := mustCreate(t, store, newTestIssue("archived verbatim"))

	want := newTestReport(1, types.OutcomeSuccess)
	if err := store.SubmitReport(ctx, issue.IssueID, want, "agent-1"); err != nil {
		t.Fatal(err)
	}

	thread, err := store.GetThread(ctx, issue.IssueID, 0)
	if err != nil {
		t.Fatal(err)
	}
	var payload string
	for _, e := range thread {
		if e.EntryType == types.EntryReport {
			payload = e.Payload
		}
	}
	if payload == "" {
		t.Fatal("no report entry in thread")
	}

	var got types.Report
	if err := json.Unmarshal([]byte(payload), &got); err != nil {
		t.Fatalf("report payload is not valid JSON: %v", err)
	}
	if diff := cmp.Diff(want, &got); diff != "" {
		t.Errorf("stored report differs (-want +got):\n%s", diff)
	}
}

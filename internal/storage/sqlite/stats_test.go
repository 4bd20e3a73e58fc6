package sqlite

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/picket-dev/picket/internal/types"
)

func TestGetStatistics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	empty, err := store.GetStatistics(ctx)
	if err != nil {
		t.Fatalf("GetStatistics() failed: %v", err)
	}
	if diff := cmp.Diff(&types.Statistics{}, empty); diff != "" {
		t.Errorf("empty store stats (-want +got):\n%s", diff)
	}

	crit := newTestIssue("critical one")
	crit.Priority = types.PriorityCritical
	mustCreate(t, store, crit)

	high := newTestIssue("high one")
	high.Priority = types.PriorityHigh
	mustCreate(t, store, high)

	med := newTestIssue("medium one")
	mustCreate(t, store, med)

	if err := store.CheckoutIssue(ctx, crit.IssueID, "agent-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateStatus(ctx, high.IssueID, types.StatusResolved, "agent-1", false); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetStatistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := &types.Statistics{
		Total:       3,
		Outstanding: 2,
		Resolved:    1,
		Critical:    1,
		High:        1,
		Medium:      1,
		Locked:      1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}

	// Fresh on every call: the next write shows up immediately.
	if err := store.ReleaseIssue(ctx, crit.IssueID, "agent-1"); err != nil {
		t.Fatal(err)
	}
	got, err = store.GetStatistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Locked != 0 {
		t.Errorf("Locked = %d after release, want 0", got.Locked)
	}
}

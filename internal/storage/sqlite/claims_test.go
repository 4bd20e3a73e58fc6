package sqlite

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/picket-dev/picket/internal/storage"
	"github.com/picket-dev/picket/internal/types"
)

func TestCheckoutIssue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	issue := mustCreate(t, store, newTestIssue("claimable"))

	if err := store.CheckoutIssue(ctx, issue.IssueID, "agent-1"); err != nil {
		t.Fatalf("CheckoutIssue() failed: %v", err)
	}

	got, err := store.GetIssue(ctx, issue.IssueID)
	if err != nil {
		t.Fatal(err)
	}
	if got.WorkStatus != types.WorkLocked {
		t.Errorf("work_status = %s, want locked", got.WorkStatus)
	}
	if got.LockedBy != "agent-1" {
		t.Errorf("locked_by = %q, want agent-1", got.LockedBy)
	}
	// Checkout locks but never advances status.
	if got.Status != types.StatusOutstanding {
		t.Errorf("status = %s, want outstanding", got.Status)
	}
}

func TestCheckoutAlreadyLocked(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	issue := mustCreate(t, store, newTestIssue("contested"))

	if err := store.CheckoutIssue(ctx, issue.IssueID, "agent-1"); err != nil {
		t.Fatal(err)
	}

	err := store.CheckoutIssue(ctx, issue.IssueID, "agent-2")
	if !errors.Is(err, storage.ErrAlreadyLocked) {
		t.Fatalf("second checkout = %v, want ErrAlreadyLocked", err)
	}
	if !strings.Contains(err.Error(), "agent-1") {
		t.Errorf("error %q does not name the holder", err)
	}

	// The losing attempt must not disturb the winner's lock.
	got, _ := store.GetIssue(ctx, issue.IssueID)
	if got.LockedBy != "agent-1" {
		t.Errorf("locked_by = %q after failed steal", got.LockedBy)
	}
}

func TestCheckoutNotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.CheckoutIssue(context.Background(), "pk-deadbeef0000", "agent-1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("CheckoutIssue(missing) = %v, want ErrNotFound", err)
	}
}

func TestCheckoutExclusivity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	issue := mustCreate(t, store, newTestIssue("race target"))

	const agents = 5
	var wg sync.WaitGroup
	errs := make([]error, agents)
	for i := 0; i < agents; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = store.CheckoutIssue(ctx, issue.IssueID, string(rune('a'+n)))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, storage.ErrAlreadyLocked):
		default:
			t.Errorf("unexpected checkout error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("%d concurrent checkouts succeeded, want exactly 1", winners)
	}

	got, err := store.GetIssue(ctx, issue.IssueID)
	if err != nil {
		t.Fatal(err)
	}
	if got.WorkStatus != types.WorkLocked || got.LockedBy == "" {
		t.Errorf("issue not cleanly locked after race: %s/%q", got.WorkStatus, got.LockedBy)
	}
}

func TestReleaseIssue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	issue := mustCreate(t, store, newTestIssue("releasable"))

	if err := store.CheckoutIssue(ctx, issue.IssueID, "agent-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.ReleaseIssue(ctx, issue.IssueID, "agent-1"); err != nil {
		t.Fatalf("ReleaseIssue() failed: %v", err)
	}

	got, _ := store.GetIssue(ctx, issue.IssueID)
	if got.WorkStatus != types.WorkAvailable || got.LockedBy != "" {
		t.Errorf("issue not released: %s/%q", got.WorkStatus, got.LockedBy)
	}

	// Releasing an available issue is a no-op, not an error.
	if err := store.ReleaseIssue(ctx, issue.IssueID, "agent-1"); err != nil {
		t.Errorf("redundant release = %v, want nil", err)
	}

	// After release the issue is claimable again.
	if err := store.CheckoutIssue(ctx, issue.IssueID, "agent-2"); err != nil {
		t.Errorf("re-checkout after release failed: %v", err)
	}
}

func TestReleaseNotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.ReleaseIssue(context.Background(), "pk-deadbeef0000", "agent-1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("ReleaseIssue(missing) = %v, want ErrNotFound", err)
	}
}

func TestCheckoutThreadEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	issue := mustCreate(t, store, newTestIssue("audited"))

	if err := store.CheckoutIssue(ctx, issue.IssueID, "agent-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.ReleaseIssue(ctx, issue.IssueID, "agent-1"); err != nil {
		t.Fatal(err)
	}

	thread, err := store.GetThread(ctx, issue.IssueID, 0)
	if err != nil {
		t.Fatal(err)
	}
	var kinds []types.EntryType
	for _, e := range thread {
		kinds = append(kinds, e.EntryType)
	}
	want := []types.EntryType{types.EntryCreated, types.EntryCheckout, types.EntryRelease}
	if len(kinds) != len(want) {
		t.Fatalf("thread has %d entries, want %d: %v", len(kinds), len(want), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("entry %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

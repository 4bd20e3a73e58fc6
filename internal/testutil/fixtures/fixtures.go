// Package fixtures provides realistic seed data for tests, benchmarks, and
// the pk seed command.
package fixtures

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/picket-dev/picket/internal/storage"
	"github.com/picket-dev/picket/internal/types"
)

var issueTitles = []string{
	"nil pointer dereference in config loader",
	"race between cache eviction and refresh",
	"goroutine leak on connection timeout",
	"off-by-one in pagination cursor",
	"unchecked error in file close path",
	"stale read after transaction rollback",
	"memory growth under sustained load",
	"deadlock between writer and checkpointer",
	"incorrect retry backoff on transient failures",
	"missing validation on user-supplied path",
}

var projects = []string{
	"gateway",
	"scheduler",
	"storage",
	"api",
}

var issueTypes = []string{
	"bug",
	"regression",
	"flaky-test",
}

// Config controls the distribution of generated issues.
type Config struct {
	Count    int
	RandSeed int64
}

// DefaultConfig returns the distribution used by `pk seed`.
func DefaultConfig(count int) Config {
	return Config{Count: count, RandSeed: 42}
}

// Generate fills a store with deterministic, realistic issues. Reused seeds
// reproduce the same dataset, so benchmarks and tests are comparable.
func Generate(ctx context.Context, store storage.Storage, cfg Config) error {
	rng := rand.New(rand.NewSource(cfg.RandSeed))

	for i := 0; i < cfg.Count; i++ {
		title := fmt.Sprintf("%s (#%d)", issueTitles[i%len(issueTitles)], i+1)
		project := projects[rng.Intn(len(projects))]
		issue := &types.Issue{
			Title:       title,
			Description: fmt.Sprintf("Seeded issue: %s", title),
			Priority:    randomPriority(rng),
			Project:     project,
			IssueType:   issueTypes[rng.Intn(len(issueTypes))],
			Location:    fmt.Sprintf("internal/%s/handler.go:%d", project, rng.Intn(400)+1),
		}
		if err := store.CreateIssue(ctx, issue, "fixture"); err != nil {
			return fmt.Errorf("failed to seed issue %d: %w", i+1, err)
		}
	}
	return nil
}

// randomPriority returns a priority with a realistic distribution:
// critical 15%, high 35%, medium 50%.
func randomPriority(rng *rand.Rand) types.Priority {
	r := rng.Intn(100)
	switch {
	case r < 15:
		return types.PriorityCritical
	case r < 50:
		return types.PriorityHigh
	default:
		return types.PriorityMedium
	}
}

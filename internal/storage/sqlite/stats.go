package sqlite

import (
	"context"
	"fmt"

	"github.com/picket-dev/picket/internal/types"
)

// GetStatistics computes aggregate counts in one query. Always fresh; the
// caller sees every write committed before the read.
func (s *Store) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	var stats types.Statistics
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'outstanding' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'in_progress' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'resolved' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN priority = 'critical' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN priority = 'high' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN priority = 'medium' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN work_status = 'locked' THEN 1 ELSE 0 END), 0)
		FROM issues
	`).Scan(
		&stats.Total,
		&stats.Outstanding, &stats.InProgress, &stats.Resolved, &stats.Failed,
		&stats.Critical, &stats.High, &stats.Medium,
		&stats.Locked,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", mapError(err))
	}
	return &stats, nil
}

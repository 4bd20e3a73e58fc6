package sqlite

import (
	"strings"

	"github.com/google/uuid"
)

// generateIssueID produces a globally unique, immutable issue ID of the form
// <prefix>-<12 hex>. Random IDs need no cross-process counter coordination.
func generateIssueID(prefix string) string {
	if prefix == "" {
		prefix = DefaultIssuePrefix
	}
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + raw[:12]
}

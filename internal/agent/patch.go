package agent

import (
	"strings"

	"labta/internal/diffeng"
)

// SourcePatch computes the minimal unified diff that rewrites the
// student's source into the corrected program, one context line per hunk.
// Returns nil when the trimmed sources are identical.
func SourcePatch(userCode, fixedCode string) *string {
	diff := diffeng.DefaultEngine.Unified(
		strings.TrimSpace(userCode),
		strings.TrimSpace(fixedCode),
		1,
	)
	if diff == "" {
		return nil
	}
	return &diff
}

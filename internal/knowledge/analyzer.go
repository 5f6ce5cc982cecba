package knowledge

import (
	"strings"

	"labta/internal/types"
)

// Match is the winning analyzer hit: the error class that best explains the
// raw logs and the pre-written hint attached to its pattern.
type Match struct {
	Type     types.Status
	Priority int
	Hint     string
}

// Analyze scans the concatenated logs against every catalog pattern and
// returns the match with the lowest numeric priority. Ties are broken by
// catalog order. It is a pure function of its inputs.
func Analyze(logs []string, catalog []CatalogEntry) (Match, bool) {
	joined := strings.Join(logs, "\n")

	best := Match{}
	found := false
	for _, entry := range catalog {
		if !entry.Pattern.MatchString(joined) {
			continue
		}
		if !found || entry.Priority < best.Priority {
			best = Match{
				Type:     types.Status(entry.Type),
				Priority: entry.Priority,
				Hint:     entry.Hint,
			}
			found = true
		}
	}
	return best, found
}

// Overridable reports whether a coarse status may be rewritten by an
// analyzer match. Only logic errors qualify; runtime errors qualify too
// when the override_runtime flag is set.
func Overridable(status types.Status, overrideRuntime bool) bool {
	if status == types.StatusLogicError {
		return true
	}
	return overrideRuntime && status == types.StatusRuntimeError
}

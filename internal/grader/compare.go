// Package grader runs the hidden test cases of a problem against a
// submission and produces the coarse verdict plus its evidence.
package grader

import (
	"strings"

	"labta/internal/diffeng"
)

// Comparison is the result of comparing actual program output against the
// expected output of a test case.
type Comparison struct {
	// Equal is true when the whitespace-trimmed strings match exactly.
	Equal bool

	// Report is the human-readable line diff. Lines are tagged
	// EXPECTED (missing from the actual output), ACTUAL (surplus), and
	// MATCH (identical).
	Report string
}

// Compare trims both strings and produces a line-based comparison report.
// Equality is exact after trimming; there is no tolerant numeric matching.
func Compare(expected, actual string) Comparison {
	expected = strings.TrimSpace(expected)
	actual = strings.TrimSpace(actual)

	if expected == actual {
		return Comparison{Equal: true}
	}

	lines := diffeng.DefaultEngine.Lines(expected, actual)

	var report []string
	hasDiff := false
	for _, line := range lines {
		switch line.Type {
		case diffeng.LineRemoved:
			report = append(report, "EXPECTED: "+line.Content)
			hasDiff = true
		case diffeng.LineAdded:
			report = append(report, "ACTUAL:   "+line.Content)
			hasDiff = true
		default:
			report = append(report, "MATCH:    "+line.Content)
		}
	}

	if !hasDiff {
		// The strings differ but no whole line changed.
		return Comparison{Report: "Hidden character mismatch."}
	}
	return Comparison{Report: strings.Join(report, "\n")}
}

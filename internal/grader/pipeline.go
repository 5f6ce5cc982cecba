package grader

import (
	"context"
	"fmt"
	"strings"

	"labta/internal/language"
	"labta/internal/logging"
	"labta/internal/problems"
	"labta/internal/sandbox"
	"labta/internal/types"
)

// Fixed evidence strings for resource-exhaustion outcomes.
const (
	evidenceTimeout     = "Code took too long."
	evidenceMemoryLimit = "Memory limit exceeded."
	evidenceSegfault    = "Memory Access Violation"
	evidenceNoOutput    = "Program exited cleanly but produced no output."
)

// WarningPrefix marks log lines carrying stderr captured from a clean-exit
// run. Only these lines are scanned by the priority analyzer; phase markers
// and failure banners are narration, not evidence.
const WarningPrefix = "Warning Stream: "

// Warnings filters the investigation logs down to the warning-stream lines.
func Warnings(logs []string) []string {
	var out []string
	for _, line := range logs {
		if strings.HasPrefix(line, WarningPrefix) {
			out = append(out, line)
		}
	}
	return out
}

// Investigator runs a submission against the hidden cases of a problem,
// short-circuiting on the first non-success.
type Investigator struct {
	exec    *language.Executor
	catalog *problems.Catalog
}

// NewInvestigator creates an investigation pipeline over the given driver
// executor and problem catalog.
func NewInvestigator(exec *language.Executor, catalog *problems.Catalog) *Investigator {
	return &Investigator{exec: exec, catalog: catalog}
}

// Investigate runs the hidden cases in declared order and returns the phase
// logs, the coarse status, and the evidence for the first failure.
// Evidence is nil on SUCCESS.
func (inv *Investigator) Investigate(ctx context.Context, sub types.Submission) ([]string, types.Status, types.Evidence) {
	logs := []string{
		fmt.Sprintf("Phase 1: Initializing Docker Sandbox for %s...", strings.ToUpper(string(sub.Language))),
	}

	driver := language.ForLanguage(sub.Language)
	if driver == nil {
		return logs, types.StatusSystemError, types.TextEvidence("Language unsupported")
	}
	problem, ok := inv.catalog.Get(sub.ProblemID)
	if !ok {
		return logs, types.StatusSystemError, types.TextEvidence("Problem ID missing")
	}

	logs = append(logs, fmt.Sprintf("Phase 2: Loading %d isolated test cases...", len(problem.HiddenCases)))

	for i, tc := range problem.HiddenCases {
		logs = append(logs, fmt.Sprintf("Phase 3: Running Test Case #%d...", i+1))

		res, err := inv.exec.Execute(ctx, driver, sub.Source, tc.Input)
		if err != nil {
			logging.Grader("case %d: execution infrastructure failed: %v", i+1, err)
			return logs, types.StatusSystemError, types.TextEvidence(err.Error())
		}

		// Warnings that survived a clean exit go into the logs so the
		// priority analyzer can see them behind a later logic mismatch.
		if res.ExitCode == 0 && !res.IsPreClassified() {
			if warn := strings.TrimSpace(res.Stderr); warn != "" {
				logs = append(logs, WarningPrefix+warn)
			}
		}

		if status, evidence, failed := classify(res, tc.Output); failed {
			if status == types.StatusLogicError {
				logs = append(logs, "Failure: Logic Mismatch.")
			}
			return logs, status, evidence
		}
	}

	logs = append(logs, "Result: Passed all hidden test cases.")
	return logs, types.StatusSuccess, nil
}

// classify applies the decision ladder to one driver result. The third
// return value is false when the case passed and iteration should continue.
func classify(res *language.DriverResult, expected string) (types.Status, types.Evidence, bool) {
	// 1. Pre-classified driver status propagates verbatim.
	if res.IsPreClassified() {
		return res.Pre, types.TextEvidence(strings.TrimSpace(res.Stderr)), true
	}

	// 2. Canonical exit codes.
	switch res.ExitCode {
	case sandbox.ExitTimeout:
		return types.StatusTimeLimit, types.TextEvidence(evidenceTimeout), true
	case sandbox.ExitOOMKilled:
		return types.StatusMemoryLimit, types.TextEvidence(evidenceMemoryLimit), true
	case sandbox.ExitSegfault:
		return types.StatusSegfault, types.TextEvidence(evidenceSegfault), true
	}

	// 3. Any other non-zero exit.
	if res.ExitCode != 0 {
		return types.StatusRuntimeError, types.TextEvidence(strings.TrimSpace(res.Stderr)), true
	}

	actual := strings.TrimSpace(res.Stdout)
	want := strings.TrimSpace(expected)

	// 4. Clean exit, empty stdout, non-empty expectation.
	if actual == "" && want != "" {
		return types.StatusInputOutputError, types.TextEvidence(evidenceNoOutput), true
	}

	// 5. Clean exit, wrong output.
	if cmp := Compare(want, actual); !cmp.Equal {
		return types.StatusLogicError, types.DiffEvidence{
			Expected: want,
			Actual:   actual,
			Diff:     cmp.Report,
		}, true
	}

	// 6. Case passed.
	return types.StatusSuccess, nil, false
}

// Package types holds the shared domain types of the grading service:
// the submission record, the closed outcome enumeration, and the evidence
// payloads attached to non-success outcomes.
package types

// Language identifies a supported submission language.
type Language string

const (
	LangC      Language = "c"
	LangCPP    Language = "cpp"
	LangPython Language = "python"
	LangJava   Language = "java"
)

// Status is the closed enumeration of investigation outcomes.
type Status string

const (
	StatusSuccess Status = "SUCCESS"

	// Pre-run diagnostics.
	StatusSyntaxError      Status = "SYNTAX_ERROR"
	StatusCompilationError Status = "COMPILATION_ERROR"

	// Runtime failures.
	StatusRuntimeError Status = "RUNTIME_ERROR"
	StatusSegfault     Status = "SEGFAULT_ERROR"
	StatusTypeError    Status = "TYPE_ERROR"

	// Resource exhaustion.
	StatusTimeLimit   Status = "TIME_LIMIT_EXCEEDED"
	StatusMemoryLimit Status = "MEMORY_LIMIT_EXCEEDED"

	// Output verdicts.
	StatusInputOutputError Status = "INPUT_OUTPUT_ERROR"
	StatusLogicError       Status = "LOGIC_ERROR"

	// Missing driver or missing problem.
	StatusSystemError Status = "SYSTEM_ERROR"
)

// IsSuccess reports whether s is the passing outcome.
func (s Status) IsSuccess() bool { return s == StatusSuccess }

// Submission is the ephemeral input record for one investigation.
type Submission struct {
	UserID    string   `json:"user_id"`
	ProblemID string   `json:"problem_id"`
	Language  Language `json:"language"`
	Source    string   `json:"code"`
}

// TestCase is a single input/output pair. Hidden cases are compared after
// trimming leading and trailing whitespace line by line.
type TestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Evidence describes why an outcome was not SUCCESS. Exactly one of the
// concrete types below is attached to a failing investigation.
type Evidence interface {
	evidence()
	// Display returns the evidence as a single string suitable for
	// embedding in a hint prompt.
	Display() string
}

// TextEvidence carries compile, runtime, and resource-exhaustion text.
type TextEvidence string

func (TextEvidence) evidence()         {}
func (e TextEvidence) Display() string { return string(e) }

// DiffEvidence carries the structured output mismatch for LOGIC_ERROR.
type DiffEvidence struct {
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Diff     string `json:"diff"`
}

func (DiffEvidence) evidence() {}

func (e DiffEvidence) Display() string {
	return "Expected:\n" + e.Expected + "\nActual:\n" + e.Actual
}

// Diagnostic is the normalized first-error record extracted from raw
// toolchain stderr. "?" denotes an unknown line or column.
type Diagnostic struct {
	Line    string `json:"line"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Raw     string `json:"raw"`
}

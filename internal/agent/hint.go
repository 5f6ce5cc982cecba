package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"labta/internal/knowledge"
	"labta/internal/logging"
	"labta/internal/types"
)

// MsgSuccess is the fixed hint for a passing submission.
const MsgSuccess = "Congratulations! You are ready for the next challenge."

// Request carries everything the orchestrator needs to produce one hint.
type Request struct {
	Code     string
	Language types.Language
	Status   types.Status
	Attempt  int
	Evidence string
}

// Result is the hint bundle attached to a grading response. Patch is nil
// unless the direct disclosure level produced a distinct fixed program.
type Result struct {
	Hint     string
	Citation string
	Patch    *string
}

// Orchestrator selects the disclosure level from the attempt counter,
// builds the oracle prompt, and post-processes the reply.
type Orchestrator struct {
	oracle Oracle
	base   *knowledge.Base
}

// NewOrchestrator wires the hint pipeline over an oracle and the merged
// knowledge base.
func NewOrchestrator(oracle Oracle, base *knowledge.Base) *Orchestrator {
	return &Orchestrator{oracle: oracle, base: base}
}

// structuredReply is the JSON shape requested at the direct level.
type structuredReply struct {
	Hint      string `json:"hint"`
	FixedCode string `json:"fixed_code"`
}

// Greedy span from the first '{' to the last '}'.
var jsonSpan = regexp.MustCompile(`(?s)\{.*\}`)

// Hint produces the hint bundle for one recorded outcome. A successful
// submission short-circuits to the fixed congratulation without consulting
// the oracle.
func (o *Orchestrator) Hint(ctx context.Context, req Request) Result {
	if req.Status.IsSuccess() {
		return Result{Hint: MsgSuccess}
	}

	entry := o.base.Lookup(string(req.Status))
	prompt, expectJSON := o.buildPrompt(req, entry)

	raw, err := o.oracle.Complete(ctx, prompt)
	if err != nil {
		logging.Agent("oracle completion failed: %v", err)
		return Result{Hint: MsgConnection, Citation: entry.Citation}
	}

	result := Result{Hint: raw, Citation: entry.Citation}
	if !expectJSON {
		return result
	}

	span := jsonSpan.FindString(raw)
	if span == "" {
		return result
	}
	var reply structuredReply
	if err := json.Unmarshal([]byte(span), &reply); err != nil {
		// Malformed structured reply: surface the raw text as-is.
		return result
	}

	result.Hint = reply.Hint
	if result.Hint == "" {
		result.Hint = "Check your logic."
	}
	if reply.FixedCode != "" {
		result.Patch = SourcePatch(req.Code, reply.FixedCode)
	}
	return result
}

// buildPrompt renders the three-level disclosure prompt. The boolean is
// true when a structured JSON reply was requested.
func (o *Orchestrator) buildPrompt(req Request, entry knowledge.Entry) (string, bool) {
	var strategy, outputInstruction string
	expectJSON := false

	switch {
	case req.Attempt <= 1:
		strategy = "Attempt #1. BE VAGUE. Hint at the concept only (e.g., 'Check your loop limits'). " +
			"Do NOT reveal the solution or line numbers."
		outputInstruction = "Return the hint as plain text (Max 1 sentence)."

	case req.Attempt == 2:
		strategy = "Attempt #2. BE SPECIFIC. Point out the exact line or variable causing the issue. " +
			"Explain WHY it is wrong, but do not write the fix yet."
		outputInstruction = "Return the hint as plain text (Max 2 sentences)."

	default:
		strategy = "Attempt #3. BE DIRECT. The student is stuck. " +
			"1. Briefly state the fix (e.g. 'Initialize sum to 0'). " +
			"2. Provide the 'fixed_code' with that change applied."
		outputInstruction = "Return a JSON object with keys:\n" +
			"- 'hint': A concise explanation (Max 1-2 sentences. NO headers/lists).\n" +
			"- 'fixed_code': The student's code with the minimal fix applied."
		expectJSON = true
	}

	var b strings.Builder
	b.WriteString("You are LabTA.\n\n")
	fmt.Fprintf(&b, "[CONTEXT]\nLanguage: %s\nCode:\n%s\n\n", req.Language, req.Code)
	fmt.Fprintf(&b, "[ERROR DATA]\nError Context: %s\n\n", req.Evidence)
	fmt.Fprintf(&b, "[KNOWLEDGE BASE]\nConcept: %s\nRecommended Hint Style: %q\n\n", entry.Concept, entry.HintTemplate)
	fmt.Fprintf(&b, "[INSTRUCTION]\n%s\n\n", strategy)
	b.WriteString("[CONSTRAINT]\n" +
		"Do not \"think out loud\". Do not output \"Here is a breakdown\" or \"Reasoning\".\n" +
		"Just provide the final output requested.\n\n")
	fmt.Fprintf(&b, "[OUTPUT FORMAT]\n%s\n", outputInstruction)

	return b.String(), expectJSON
}

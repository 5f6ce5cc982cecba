// Package diffeng provides line-based diff computation using the
// sergi/go-diff library: flat line operations for output comparison reports
// and unified hunk rendering for minimal source patches.
package diffeng

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType represents the type of diff line.
type LineType int

const (
	LineContext LineType = iota // Unchanged line
	LineAdded                   // Present only in the new text
	LineRemoved                 // Present only in the old text
)

// Line is a single line operation.
type Line struct {
	Content string
	Type    LineType
}

// Hunk is a group of changes with surrounding context.
type Hunk struct {
	OldStart int // 1-based; 0 for pure insertions at the top
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// Engine computes line-level diffs.
type Engine struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewEngine creates a diff engine tuned for code and program output.
func NewEngine() *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0 // Disable timeout for accuracy
	return &Engine{dmp: dmp}
}

// DefaultEngine is a singleton engine for general use.
var DefaultEngine = NewEngine()

// operation is a line op annotated with the 0-based line counters of both
// sides at the point the op is consumed.
type operation struct {
	typ     LineType
	oldLine int
	newLine int
	content string
}

// operations converts the two texts into a flat list of line operations.
// Uses a line-level reduction to avoid newline boundary artifacts.
func (e *Engine) operations(oldText, newText string) []operation {
	a, b, lineArray := e.dmp.DiffLinesToChars(oldText, newText)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCleanupSemantic(diffs)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	ops := make([]operation, 0)
	oldLine := 0
	newLine := 0

	for _, d := range diffs {
		lines := strings.Split(d.Text, "\n")
		// Remove the trailing empty element produced by a final newline.
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}

		for _, line := range lines {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				ops = append(ops, operation{typ: LineContext, oldLine: oldLine, newLine: newLine, content: line})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				ops = append(ops, operation{typ: LineRemoved, oldLine: oldLine, newLine: newLine, content: line})
				oldLine++
			case diffmatchpatch.DiffInsert:
				ops = append(ops, operation{typ: LineAdded, oldLine: oldLine, newLine: newLine, content: line})
				newLine++
			}
		}
	}

	return ops
}

// Lines returns the flat line operations between two texts.
func (e *Engine) Lines(oldText, newText string) []Line {
	ops := e.operations(oldText, newText)
	lines := make([]Line, len(ops))
	for i, op := range ops {
		lines[i] = Line{Content: op.content, Type: op.typ}
	}
	return lines
}

// HasChanges reports whether the two texts differ at line level.
func (e *Engine) HasChanges(oldText, newText string) bool {
	for _, op := range e.operations(oldText, newText) {
		if op.typ != LineContext {
			return true
		}
	}
	return false
}

// Hunks groups the line operations into hunks with the given number of
// context lines around each change.
func (e *Engine) Hunks(oldText, newText string, contextLines int) []Hunk {
	ops := e.operations(oldText, newText)

	// Collect [start, end) op ranges around changes and merge overlaps.
	type span struct{ start, end int }
	var spans []span
	for i, op := range ops {
		if op.typ == LineContext {
			continue
		}
		start := i - contextLines
		if start < 0 {
			start = 0
		}
		end := i + contextLines + 1
		if end > len(ops) {
			end = len(ops)
		}
		if n := len(spans); n > 0 && start <= spans[n-1].end {
			if end > spans[n-1].end {
				spans[n-1].end = end
			}
			continue
		}
		spans = append(spans, span{start, end})
	}

	hunks := make([]Hunk, 0, len(spans))
	for _, s := range spans {
		h := Hunk{
			OldStart: ops[s.start].oldLine + 1,
			NewStart: ops[s.start].newLine + 1,
		}
		for _, op := range ops[s.start:s.end] {
			h.Lines = append(h.Lines, Line{Content: op.content, Type: op.typ})
			if op.typ == LineRemoved || op.typ == LineContext {
				h.OldCount++
			}
			if op.typ == LineAdded || op.typ == LineContext {
				h.NewCount++
			}
		}
		// Unified convention: a zero-length side starts one line earlier.
		if h.OldCount == 0 {
			h.OldStart--
		}
		if h.NewCount == 0 {
			h.NewStart--
		}
		hunks = append(hunks, h)
	}

	return hunks
}

// Unified renders the hunks between two texts as a unified diff body:
// "@@" headers and +/-/space lines, without the two-line file header.
// Returns "" when the texts are line-identical.
func (e *Engine) Unified(oldText, newText string, contextLines int) string {
	hunks := e.Hunks(oldText, newText, contextLines)
	if len(hunks) == 0 {
		return ""
	}

	var b strings.Builder
	for i, h := range hunks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("@@ -%s +%s @@", rangeSpec(h.OldStart, h.OldCount), rangeSpec(h.NewStart, h.NewCount)))
		for _, line := range h.Lines {
			b.WriteString("\n")
			switch line.Type {
			case LineAdded:
				b.WriteString("+")
			case LineRemoved:
				b.WriteString("-")
			default:
				b.WriteString(" ")
			}
			b.WriteString(line.Content)
		}
	}
	return b.String()
}

// rangeSpec formats a unified diff range, eliding ",1" per convention.
func rangeSpec(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

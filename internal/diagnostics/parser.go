// Package diagnostics normalizes raw compiler and interpreter stderr into a
// structured first-error record per language.
package diagnostics

import (
	"regexp"
	"strings"

	"labta/internal/types"
)

// Compiled patterns per language family.
var (
	// GCC/G++: "main.c:10:5: error: expected ';'"
	// Groups: 1=File, 2=Line, 3=Col, 4=Type, 5=Message
	gccPattern = regexp.MustCompile(`^(.*?):(\d+):(\d+): (error|warning|fatal error): (.+)$`)

	// javac: "Main.java:12: error: ';' expected"
	// Groups: 1=File, 2=Line, 3=Message
	javacPattern = regexp.MustCompile(`^(.*?):(\d+): error: (.+)$`)

	// JVM stack frame: "at Main.main(Main.java:7)"
	javaFramePattern = regexp.MustCompile(`\(Main\.java:(\d+)\)`)

	// Python traceback frame: File "main.py", line 3
	pythonFramePattern = regexp.MustCompile(`File "(.*?)", line (\d+)`)
)

// rawMessageLimit bounds the message preserved when nothing matches.
const rawMessageLimit = 150

// FirstError extracts the first structured diagnostic from stderr.
// "?" denotes an unknown line or column.
func FirstError(stderr string, lang types.Language) types.Diagnostic {
	if stderr == "" {
		return types.Diagnostic{Line: "?", Column: "?", Message: "Unknown Error", Raw: ""}
	}

	switch lang {
	case types.LangPython:
		return parsePython(stderr)
	case types.LangJava:
		return parseJava(stderr)
	case types.LangC, types.LangCPP:
		return parseGCC(stderr)
	}

	return fallback(stderr)
}

// parseGCC scans line by line for the first compiler diagnostic.
func parseGCC(stderr string) types.Diagnostic {
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if m := gccPattern.FindStringSubmatch(line); m != nil {
			return types.Diagnostic{
				Line:    m[2],
				Column:  m[3],
				Message: strings.TrimSpace(m[5]),
				Raw:     line,
			}
		}
	}
	return fallback(stderr)
}

// parseJava tries the compile regex first, then falls back to walking the
// runtime stack trace for the first frame inside Main.java.
func parseJava(stderr string) types.Diagnostic {
	lines := strings.Split(stderr, "\n")

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if m := javacPattern.FindStringSubmatch(line); m != nil {
			return types.Diagnostic{
				Line:    m[2],
				Column:  "0",
				Message: strings.TrimSpace(m[3]),
				Raw:     line,
			}
		}
	}

	// Runtime trace: the exception headline plus the first Main.java frame.
	message := ""
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			message = trimmed
			break
		}
	}
	for _, line := range lines {
		if m := javaFramePattern.FindStringSubmatch(line); m != nil {
			return types.Diagnostic{
				Line:    m[1],
				Column:  "0",
				Message: message,
				Raw:     strings.TrimSpace(line),
			}
		}
	}

	return fallback(stderr)
}

// parsePython takes the last line mentioning "Error:" as the message and
// the deepest traceback frame as the line number.
func parsePython(stderr string) types.Diagnostic {
	lines := strings.Split(stderr, "\n")

	message := "Runtime Error"
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line != "" && strings.Contains(line, "Error:") {
			message = line
			break
		}
	}

	lineNum := "?"
	for _, line := range lines {
		if m := pythonFramePattern.FindStringSubmatch(line); m != nil {
			// Keep scanning: the deepest (last-seen) frame wins.
			lineNum = m[2]
		}
	}

	return types.Diagnostic{
		Line:    lineNum,
		Column:  "0",
		Message: message,
		Raw:     stderr,
	}
}

// fallback preserves a bounded prefix of the raw stderr when no pattern
// matched.
func fallback(stderr string) types.Diagnostic {
	msg := strings.TrimSpace(stderr)
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		msg = msg[:idx]
	}
	if len(msg) > rawMessageLimit {
		msg = msg[:rawMessageLimit]
	}
	return types.Diagnostic{Line: "?", Column: "?", Message: msg, Raw: stderr}
}

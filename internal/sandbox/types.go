// Package sandbox is the execution layer that physically runs untrusted
// submissions. One Spec is one throwaway container invocation: a shell
// command chain with stdin piped to it, a bind-mounted workspace as the only
// writable surface, and hard resource caps.
//
// Design principles follow the motor-layer conventions of the rest of the
// system:
//   - Minimal logic: classification of results happens in the grader, not here
//   - Resource limits: memory, CPU, wall clock, output size
//   - No exceptions for program failure: every outcome of the untrusted
//     program is expressed through the returned Result
package sandbox

import (
	"context"
	"io"
	"time"
)

// Canonical exit codes the runner maps container failures onto.
const (
	// ExitTimeout marks a host-side wall-clock kill.
	ExitTimeout = 124

	// ExitOOMKilled is docker's kill signal exit for a memory-capped
	// container (128 + SIGKILL).
	ExitOOMKilled = 137

	// ExitSegfault is the canonical segmentation fault exit
	// (128 + SIGSEGV). Some runtimes report the bare signal 11 instead;
	// the runner folds both onto this value.
	ExitSegfault = 139

	exitSignalSegv = 11
)

// StderrTimeout is the synthetic stderr attached to wall-clock kills.
const StderrTimeout = "TIMEOUT"

// StderrSegfault is the synthetic stderr attached to segmentation faults,
// regardless of what the program wrote.
const StderrSegfault = "Segmentation Fault (Memory Access Error)"

// Spec describes one container invocation.
type Spec struct {
	// Commands is the ordered shell command chain. The commands are
	// joined with "&&" so failure of any earlier command short-circuits
	// the chain.
	Commands []string

	// Stdin is piped to the command chain over the child process pipe.
	// It is never embedded into the shell command line.
	Stdin string

	// WorkDir is the host directory bind-mounted at the configured
	// in-container path. It is the only writable surface the untrusted
	// program can see.
	WorkDir string
}

// Result is the outcome of one container invocation. Non-zero exits and
// kills are data, never errors.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration

	// Killed is true when the wall-clock budget expired.
	Killed bool

	// Truncated is true when output capture hit the byte cap.
	Truncated bool
}

// Runner executes one command chain inside an isolated sandbox.
// Implementations return an error only for infrastructure failures
// (container engine missing, context cancelled before start); program
// failures are reported through Result.
type Runner interface {
	Run(ctx context.Context, spec Spec) (*Result, error)
}

// limitedWriter caps how many bytes are retained, discarding the rest.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	remaining := lw.max - lw.written
	if remaining <= 0 {
		lw.truncated = true
		return len(p), nil
	}
	if int64(len(p)) > remaining {
		lw.truncated = true
		n, err := lw.w.Write(p[:remaining])
		lw.written += int64(n)
		if err != nil {
			return n, err
		}
		return len(p), nil
	}
	n, err := lw.w.Write(p)
	lw.written += int64(n)
	return n, err
}

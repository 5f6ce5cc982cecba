// Package language materializes a submission into a per-job workspace,
// runs the language's compile/run chain through the sandbox, and
// pre-classifies toolchain stderr before the grader interprets the result.
package language

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"labta/internal/logging"
	"labta/internal/sandbox"
	"labta/internal/types"
)

// DriverResult is the tagged outcome of one driver invocation. When Pre is
// non-empty the driver already classified the failure and the raw triple
// must not be re-interpreted.
type DriverResult struct {
	// Pre is the pre-classified status, or "" for a raw result.
	Pre types.Status

	ExitCode int
	Stdout   string
	Stderr   string
}

// IsPreClassified reports whether the driver already classified the result.
func (r *DriverResult) IsPreClassified() bool { return r.Pre != "" }

// Driver describes how one language is compiled and run.
type Driver struct {
	Language types.Language

	// FileName is the canonical source file name inside the workspace.
	FileName string

	// commands builds the compile/run chain for the given in-container
	// mount path.
	commands func(mount string) []string

	// classify maps raw stderr onto a pre-classified status, or "".
	classify func(stderr string) types.Status
}

var drivers = map[types.Language]*Driver{
	types.LangC: {
		Language: types.LangC,
		FileName: "main.c",
		commands: func(mount string) []string {
			return []string{
				fmt.Sprintf("gcc %s/main.c -o %s/main.out", mount, mount),
				fmt.Sprintf("%s/main.out", mount),
			}
		},
		classify: compileClassifier("gcc", "main.c"),
	},
	types.LangCPP: {
		Language: types.LangCPP,
		FileName: "main.cpp",
		commands: func(mount string) []string {
			return []string{
				fmt.Sprintf("g++ %s/main.cpp -o %s/main.out", mount, mount),
				fmt.Sprintf("%s/main.out", mount),
			}
		},
		classify: compileClassifier("g++", "main.cpp"),
	},
	types.LangPython: {
		Language: types.LangPython,
		FileName: "main.py",
		commands: func(mount string) []string {
			return []string{fmt.Sprintf("python3 %s/main.py", mount)}
		},
		classify: classifyPython,
	},
	types.LangJava: {
		Language: types.LangJava,
		FileName: "Main.java",
		commands: func(mount string) []string {
			return []string{
				fmt.Sprintf("javac %s/Main.java", mount),
				fmt.Sprintf("java -cp %s Main", mount),
			}
		},
		classify: classifyJava,
	},
}

// ForLanguage returns the driver for lang, or nil when unsupported.
func ForLanguage(lang types.Language) *Driver {
	return drivers[lang]
}

// Supported lists the recognized languages.
func Supported() []types.Language {
	return []types.Language{types.LangC, types.LangCPP, types.LangPython, types.LangJava}
}

// compileClassifier flags compiler output that names the compile tool or
// the canonical source file together with an "error:" marker.
func compileClassifier(tool, file string) func(string) types.Status {
	return func(stderr string) types.Status {
		if strings.Contains(stderr, "error:") &&
			(strings.Contains(stderr, tool) || strings.Contains(stderr, file)) {
			return types.StatusCompilationError
		}
		return ""
	}
}

func classifyPython(stderr string) types.Status {
	for _, kw := range []string{"SyntaxError", "IndentationError", "TabError"} {
		if strings.Contains(stderr, kw) {
			return types.StatusSyntaxError
		}
	}
	if strings.Contains(stderr, "TypeError") {
		return types.StatusTypeError
	}
	return ""
}

func classifyJava(stderr string) types.Status {
	if strings.Contains(stderr, "error:") &&
		(strings.Contains(stderr, "javac") || strings.Contains(stderr, "Main.java")) {
		return types.StatusCompilationError
	}
	if strings.Contains(stderr, "ClassCastException") {
		return types.StatusTypeError
	}
	return ""
}

// Executor runs drivers against the sandbox. It owns the workspace root
// where per-job directories are created.
type Executor struct {
	runner        sandbox.Runner
	workspaceRoot string
	mountPath     string
}

// NewExecutor creates a driver executor. The workspace root is created and
// made world-writable so the container user can compile and run inside it.
func NewExecutor(runner sandbox.Runner, workspaceRoot, mountPath string) (*Executor, error) {
	if err := os.MkdirAll(workspaceRoot, 0777); err != nil {
		return nil, fmt.Errorf("creating workspace root: %w", err)
	}
	// Harmless if already set.
	_ = os.Chmod(workspaceRoot, 0777)

	return &Executor{
		runner:        runner,
		workspaceRoot: workspaceRoot,
		mountPath:     mountPath,
	}, nil
}

// Execute writes the source into a unique per-job directory, runs the
// language's command chain in the sandbox, and pre-classifies stderr.
// The job directory is destroyed on every exit path.
func (e *Executor) Execute(ctx context.Context, driver *Driver, source, stdin string) (result *DriverResult, err error) {
	jobID := strings.ReplaceAll(uuid.NewString(), "-", "")
	workDir := filepath.Join(e.workspaceRoot, jobID)

	if err := os.MkdirAll(workDir, 0777); err != nil {
		return nil, fmt.Errorf("creating job workspace: %w", err)
	}
	// The container user must be able to write build artifacts here.
	_ = os.Chmod(workDir, 0777)

	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			logging.SandboxDebug("job %s: workspace cleanup failed: %v", jobID, rmErr)
		}
	}()

	srcPath := filepath.Join(workDir, driver.FileName)
	if err := os.WriteFile(srcPath, []byte(source), 0777); err != nil {
		return nil, fmt.Errorf("writing source file: %w", err)
	}

	res, err := e.runner.Run(ctx, sandbox.Spec{
		Commands: driver.commands(e.mountPath),
		Stdin:    stdin,
		WorkDir:  workDir,
	})
	if err != nil {
		return nil, fmt.Errorf("running %s job %s: %w", driver.Language, jobID, err)
	}

	result = &DriverResult{
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	}
	if status := driver.classify(res.Stderr); status != "" {
		result.Pre = status
	}

	return result, nil
}

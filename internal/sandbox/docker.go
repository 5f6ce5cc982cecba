package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"labta/internal/logging"
)

// Config holds the fixed parameters of the container sandbox.
type Config struct {
	// Image is the pre-built runner image bundling all toolchains.
	Image string

	// MountPath is the fixed in-container path the workspace is bound to.
	MountPath string

	// Timeout is the wall-clock budget enforced by the calling process.
	Timeout time.Duration

	// MemoryBytes is the hard container memory cap.
	MemoryBytes int64

	// CPUs is the fractional CPU share.
	CPUs float64

	// MaxConcurrent bounds how many containers may run at once.
	MaxConcurrent int64

	// MaxOutputBytes caps captured bytes per stream.
	MaxOutputBytes int64
}

// DefaultConfig returns the limits of the grading sandbox contract:
// no network, 256 MiB, half a core, five seconds.
func DefaultConfig() Config {
	return Config{
		Image:          "lab-ta-runner",
		MountPath:      "/app",
		Timeout:        5 * time.Second,
		MemoryBytes:    256 * 1024 * 1024,
		CPUs:           0.5,
		MaxConcurrent:  8,
		MaxOutputBytes: 1024 * 1024,
	}
}

// DockerRunner executes command chains inside auto-removed Docker
// containers. This provides strong isolation from the host system.
type DockerRunner struct {
	config Config

	// dockerPath is the path to the docker binary.
	dockerPath string

	// available is true if Docker is responsive on this system.
	available bool

	// slots bounds concurrent container invocations.
	slots *semaphore.Weighted
}

// NewDockerRunner creates a Docker runner with the given config and
// detects whether Docker is usable.
func NewDockerRunner(config Config) *DockerRunner {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	if config.MaxOutputBytes <= 0 {
		config.MaxOutputBytes = 1024 * 1024
	}
	r := &DockerRunner{
		config: config,
		slots:  semaphore.NewWeighted(config.MaxConcurrent),
	}
	r.detectDocker()
	return r
}

// detectDocker checks if Docker is available.
func (r *DockerRunner) detectDocker() {
	dockerPath, err := exec.LookPath("docker")
	if err != nil {
		r.available = false
		return
	}
	r.dockerPath = dockerPath

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, dockerPath, "version", "--format", "{{.Server.Version}}")
	if err := cmd.Run(); err != nil {
		r.available = false
		return
	}

	r.available = true
}

// IsAvailable returns whether Docker is available on this system.
func (r *DockerRunner) IsAvailable() bool {
	return r.available
}

// Run executes the command chain inside a fresh container. The stdin is
// written to the child's pipe; the chain runs inside a subshell so the pipe
// feeds the whole chain. Exit codes are canonicalized before returning.
func (r *DockerRunner) Run(ctx context.Context, spec Spec) (*Result, error) {
	if !r.available {
		return nil, fmt.Errorf("docker is not available on this system")
	}
	if len(spec.Commands) == 0 {
		return nil, fmt.Errorf("command chain is empty")
	}
	if spec.WorkDir == "" {
		return nil, fmt.Errorf("work directory is required")
	}

	if err := r.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquiring sandbox slot: %w", err)
	}
	defer r.slots.Release(1)

	args := r.buildDockerArgs(spec)

	execCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	execCmd := exec.CommandContext(execCtx, r.dockerPath, args...)
	execCmd.Stdin = strings.NewReader(spec.Stdin)

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdoutBuf, max: r.config.MaxOutputBytes}
	stderrLimited := &limitedWriter{w: &stderrBuf, max: r.config.MaxOutputBytes}
	execCmd.Stdout = stdoutLimited
	execCmd.Stderr = stderrLimited

	started := time.Now()
	err := execCmd.Run()
	result := &Result{
		Stdout:    stdoutBuf.String(),
		Stderr:    stderrBuf.String(),
		Duration:  time.Since(started),
		Truncated: stdoutLimited.truncated || stderrLimited.truncated,
	}

	if err != nil {
		if execCtx.Err() == context.DeadlineExceeded {
			result.Killed = true
			result.ExitCode = ExitTimeout
			result.Stdout = ""
			result.Stderr = StderrTimeout
			logging.Sandbox("container killed after %v (wall-clock limit)", r.config.Timeout)
			return result, nil
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("starting container: %w", err)
		}
	}

	canonicalize(result)

	logging.SandboxDebug("container exit=%d duration=%v stdout=%dB stderr=%dB",
		result.ExitCode, result.Duration, len(result.Stdout), len(result.Stderr))

	return result, nil
}

// canonicalize folds the raw exit code onto the canonical set.
func canonicalize(result *Result) {
	switch result.ExitCode {
	case ExitSegfault, exitSignalSegv:
		result.ExitCode = ExitSegfault
		result.Stdout = ""
		result.Stderr = StderrSegfault
	}
}

// buildDockerArgs constructs the docker run command arguments.
func (r *DockerRunner) buildDockerArgs(spec Spec) []string {
	chain := strings.Join(spec.Commands, " && ")

	args := []string{"run", "--rm", "-i"}
	args = append(args, "--network", "none")
	args = append(args, "--memory", fmt.Sprintf("%d", r.config.MemoryBytes))
	args = append(args, "--cpus", fmt.Sprintf("%g", r.config.CPUs))
	args = append(args, "-v", fmt.Sprintf("%s:%s", spec.WorkDir, r.config.MountPath))
	args = append(args, r.config.Image)
	// Run the chain inside a subshell so the stdin pipe feeds the whole
	// chain, not just the first command.
	args = append(args, "bash", "-c", fmt.Sprintf("( %s )", chain))

	return args
}

// ImageExists checks if the runner image exists locally.
func (r *DockerRunner) ImageExists(ctx context.Context) bool {
	if !r.available {
		return false
	}
	cmd := exec.CommandContext(ctx, r.dockerPath, "image", "inspect", r.config.Image)
	return cmd.Run() == nil
}

// PullImage pulls the runner image.
func (r *DockerRunner) PullImage(ctx context.Context) error {
	if !r.available {
		return fmt.Errorf("docker is not available")
	}
	cmd := exec.CommandContext(ctx, r.dockerPath, "pull", r.config.Image)
	return cmd.Run()
}

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes one external tool invocation with captured output. The
// exec-based implementation is the default; tests substitute their own.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// ExecError reports a tool that exited non-zero, with enough context to be
// actionable: the full command line, the exit code, and both output streams.
type ExecError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("command failed (exit %d): %s\n--- STDOUT ---\n%s\n--- STDERR ---\n%s",
		e.ExitCode, e.Command, orNoOutput(e.Stdout), orNoOutput(e.Stderr))
}

func orNoOutput(s string) string {
	if strings.TrimSpace(s) == "" {
		return "No output"
	}
	return s
}

// ExecRunner runs tools via os/exec with both streams captured. Output is
// never streamed; it is inspected only when the tool fails.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return stdout.String(), stderr.String(), &ExecError{
			Command:  strings.Join(append([]string{name}, args...), " "),
			ExitCode: exitCode,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}
	}
	return stdout.String(), stderr.String(), nil
}

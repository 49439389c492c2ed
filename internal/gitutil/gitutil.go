package gitutil

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner is an interface for running external commands.
type CommandRunner interface {
	CombinedOutput(ctx context.Context, name string, arg ...string) ([]byte, error)
}

// DefaultRunner implements CommandRunner using os/exec.Command.
type DefaultRunner struct{}

func (r DefaultRunner) CombinedOutput(ctx context.Context, name string, arg ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, arg...)
	return cmd.CombinedOutput()
}

// We'll use a package-level variable for the runner
var runner CommandRunner = DefaultRunner{}

// IsClean reports whether path has no uncommitted changes. It exists so a
// migration diff stays reviewable: rewriting an already-dirty file would mix
// the migration with unrelated edits.
func IsClean(ctx context.Context, path string) (bool, error) {
	outputBytes, err := runner.CombinedOutput(ctx, "git", "status", "--porcelain", "--", path)
	output := string(outputBytes)
	if err != nil {
		if strings.Contains(strings.ToLower(output), "not a git repository") {
			return false, fmt.Errorf("not a git repository: %s", strings.TrimSpace(output))
		}
		return false, fmt.Errorf("error running git status: %w, output: %s", err, output)
	}
	return strings.TrimSpace(output) == "", nil
}

// For testing, we'll add a function to set a mock runner
func SetRunner(r CommandRunner) {
	runner = r
}

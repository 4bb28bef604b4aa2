package ffmpeg

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CommandResult is the structured outcome of an external tool invocation.
// Callers classify a non-zero exit distinctly from a missing output file.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// runCommand executes an external binary and captures its output. A non-zero
// exit is returned as an error that carries the trailing stderr for
// diagnostics; the CommandResult is populated either way.
func runCommand(ctx context.Context, name string, args ...string) (*CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		logrus.WithFields(logrus.Fields{
			"command":   name,
			"exit_code": result.ExitCode,
		}).Debugf("command failed: %s", tailOf(result.Stderr, 512))
		return result, errors.Wrapf(err, "%s exited with code %d: %s",
			name, result.ExitCode, tailOf(result.Stderr, 512))
	}

	return result, nil
}

// tailOf returns at most n trailing bytes of s. ffmpeg reports the actual
// failure at the end of a long stderr stream.
func tailOf(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

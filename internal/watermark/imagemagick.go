package watermark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// FileChecker answers the filesystem questions a Session asks before it
// builds or runs a command.
type FileChecker interface {
	Exists(path string) bool
	Writable(path string) bool
}

// OSFiles checks the real filesystem.
type OSFiles struct{}

func (OSFiles) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFiles) Writable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}

// Result is what a command left behind.
type Result struct {
	Output   string
	ExitCode int
}

// OK reports success: ImageMagick prints nothing when it succeeds.
func (r Result) OK() bool {
	return r.Output == "" && r.ExitCode == 0
}

// Runner executes a shell command line.
type Runner interface {
	Run(ctx context.Context, command string) (Result, error)
}

// ShellRunner runs commands through Shell -c. A non-zero exit is
// reported in Result, not as an error; the error is reserved for
// failing to start the shell at all.
type ShellRunner struct {
	Shell string
}

func (r ShellRunner) Run(ctx context.Context, command string) (Result, error) {
	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.CommandContext(ctx, shell, "-c", command)
	output, err := cmd.CombinedOutput()
	res := Result{Output: strings.TrimSpace(string(output))}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("run %s: %w", shell, err)
	}
	return res, nil
}

// ToolChecker verifies the external image toolchain is usable.
type ToolChecker interface {
	Check(ctx context.Context) error
}

// MagickChecker looks for the ImageMagick convert binary and runs
// `convert -version`.
type MagickChecker struct {
	Binary string
}

func (c MagickChecker) Check(ctx context.Context) error {
	bin := c.Binary
	if bin == "" {
		bin = "convert"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrToolNotAvailable, bin, err)
	}
	output, err := exec.CommandContext(ctx, path, "-version").CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s -version: %v\noutput: %s", ErrToolNotAvailable, bin, err, string(output))
	}
	return nil
}

// OnceChecker runs Checker a single time and replays its result, so a
// long running process probes the toolchain only once.
type OnceChecker struct {
	Checker ToolChecker

	once sync.Once
	err  error
}

func (c *OnceChecker) Check(ctx context.Context) error {
	c.once.Do(func() {
		c.err = c.Checker.Check(ctx)
	})
	return c.err
}

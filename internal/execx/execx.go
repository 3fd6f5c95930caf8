// Package execx runs the pipeline's external collaborators (documentation
// scripts, format converters, packaging tools) and preserves their exit
// status so the driver can propagate it.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// ExitError reports a collaborator process that terminated with a non-zero
// status. The stderr tail is retained because the collaborator's own
// diagnostics are the only error detail the driver surfaces.
type ExitError struct {
	Argv   []string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: exit status %d", strings.Join(e.Argv, " "), e.Code)
	}
	return fmt.Sprintf("%s: exit status %d: %s", strings.Join(e.Argv, " "), e.Code, e.Stderr)
}

// ExitCode extracts the process exit status from an error chain.
// Returns 1 for errors that did not originate from a process exit.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var xe *ExitError
	if errors.As(err, &xe) {
		return xe.Code
	}
	return 1
}

// Command describes a single external invocation.
type Command struct {
	Argv  []string
	Dir   string
	Env   []string // appended to the current environment
	Stdin io.Reader
}

// Runner executes external commands. The interface exists so stages can be
// tested against a stub without spawning processes.
type Runner interface {
	// Output runs the command and returns its captured stdout.
	Output(ctx context.Context, cmd Command) ([]byte, error)
	// Run runs the command streaming stdout/stderr to the given writers.
	Run(ctx context.Context, cmd Command, stdout, stderr io.Writer) error
}

// Local runs commands on the local host.
type Local struct{}

// NewLocal returns a Runner backed by os/exec.
func NewLocal() *Local { return &Local{} }

// Output runs the command capturing stdout; stderr is buffered and attached
// to the error on failure.
func (l *Local) Output(ctx context.Context, cmd Command) ([]byte, error) {
	c, stderr, err := l.prepare(ctx, cmd)
	if err != nil {
		return nil, err
	}
	var stdout bytes.Buffer
	c.Stdout = &stdout
	if err := c.Run(); err != nil {
		return nil, wrapRunError(cmd.Argv, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// Run runs the command streaming output. A nil writer falls back to the
// driver's own stdout/stderr so collaborator diagnostics stay visible.
func (l *Local) Run(ctx context.Context, cmd Command, stdout, stderr io.Writer) error {
	c, tail, err := l.prepare(ctx, cmd)
	if err != nil {
		return err
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	c.Stdout = stdout
	c.Stderr = io.MultiWriter(stderr, tail)
	if err := c.Run(); err != nil {
		return wrapRunError(cmd.Argv, err, tail.String())
	}
	return nil
}

func (l *Local) prepare(ctx context.Context, cmd Command) (*exec.Cmd, *bytes.Buffer, error) {
	if len(cmd.Argv) == 0 {
		return nil, nil, errors.New("empty command")
	}
	c := commandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...) //nolint:gosec
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.Stdin = cmd.Stdin
	var stderr bytes.Buffer
	c.Stderr = &stderr
	return c, &stderr, nil
}

func wrapRunError(argv []string, err error, stderr string) error {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return &ExitError{Argv: argv, Code: ee.ExitCode(), Stderr: strings.TrimSpace(stderr)}
	}
	return fmt.Errorf("run %s: %w", strings.Join(argv, " "), err)
}

var _ Runner = (*Local)(nil)

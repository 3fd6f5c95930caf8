package execx

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputCapturesStdout(t *testing.T) {
	r := NewLocal()
	out, err := r.Output(context.Background(), Command{Argv: []string{"sh", "-c", "echo hello"}})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
}

func TestOutputPropagatesExitStatus(t *testing.T) {
	r := NewLocal()
	_, err := r.Output(context.Background(), Command{Argv: []string{"sh", "-c", "echo nope >&2; exit 3"}})
	require.Error(t, err)
	assert.Equal(t, 3, ExitCode(err))
	assert.Contains(t, err.Error(), "nope")
}

func TestRunStreamsOutput(t *testing.T) {
	r := NewLocal()
	var stdout, stderr bytes.Buffer
	err := r.Run(context.Background(), Command{Argv: []string{"sh", "-c", "echo out; echo err >&2"}}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
}

func TestRunUsesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	r := NewLocal()
	var stdout bytes.Buffer
	err := r.Run(context.Background(), Command{Argv: []string{"pwd"}, Dir: dir}, &stdout, nil)
	require.NoError(t, err)
	assert.Equal(t, dir, strings.TrimSpace(stdout.String()))
}

func TestStdinIsForwarded(t *testing.T) {
	r := NewLocal()
	out, err := r.Output(context.Background(), Command{
		Argv:  []string{"cat"},
		Stdin: strings.NewReader("payload"),
	})
	require.NoError(t, err)
	assert.Equal(t, "payload", string(out))
}

func TestEmptyCommandRejected(t *testing.T) {
	r := NewLocal()
	_, err := r.Output(context.Background(), Command{})
	assert.Error(t, err)
}

func TestExitCodeDefaults(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(assert.AnError))
}

package packaging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrelease/mkrelease/internal/execx"
)

// fakePackager emulates a packaging entry point by creating archives in dist/.
const fakePackager = `mkdir -p dist && touch dist/demo-1.0.tar.gz dist/demo-1.0-py3-none-any.whl`

func TestBuildCollectsArtifacts(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(execx.NewLocal(), []string{"sh", "-c", fakePackager}, nil, dir, "dist")

	artifacts, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Len(t, artifacts.Sdists, 1)
	assert.Len(t, artifacts.Wheels, 1)
	assert.Len(t, artifacts.All(), 2)
}

func TestBuildFailsWithoutArchives(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dist"), 0o750))
	b := NewBuilder(execx.NewLocal(), []string{"true"}, nil, dir, "dist")

	_, err := b.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no archives")
}

func TestBuildPropagatesToolFailure(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(execx.NewLocal(), []string{"sh", "-c", "exit 9"}, nil, dir, "dist")

	_, err := b.Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, 9, execx.ExitCode(err))
}

func TestBuildAppendsDirectives(t *testing.T) {
	dir := t.TempDir()
	// The fake tool records its arguments so the directive order can be checked.
	script := `echo "$@" > args.txt; mkdir -p dist && touch dist/a.tar.gz`
	b := NewBuilder(execx.NewLocal(), []string{"sh", "-c", script, "packager"},
		[]string{"build", "sdist", "bdist_wheel"}, dir, "dist")

	_, err := b.Build(context.Background())
	require.NoError(t, err)

	args, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	require.NoError(t, err)
	assert.Equal(t, "build sdist bdist_wheel\n", string(args))
}

func TestCleanRemovesEverything(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"build/lib", "dist", "demo.egg-info"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, p), 0o750))
	}
	for _, f := range []string{"README.md", "README.rst"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o600))
	}

	err := Clean(dir, []string{"build", "dist"}, []string{"README.md", "README.rst"})
	require.NoError(t, err)

	for _, p := range []string{"build", "dist", "demo.egg-info", "README.md", "README.rst"} {
		_, err := os.Stat(filepath.Join(dir, p))
		assert.True(t, os.IsNotExist(err), "%s should be removed", p)
	}
}

// Clean twice must leave the same state as clean once.
func TestCleanIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dist"), 0o750))

	require.NoError(t, Clean(dir, []string{"build", "dist"}, []string{"README.md"}))
	require.NoError(t, Clean(dir, []string{"build", "dist"}, []string{"README.md"}))

	_, err := os.Stat(filepath.Join(dir, "dist"))
	assert.True(t, os.IsNotExist(err))
}

package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrelease/mkrelease/internal/execx"
	"github.com/mkrelease/mkrelease/internal/packaging"
)

const fakePackager = `echo "$@" > args.txt; mkdir -p dist && touch dist/demo-1.0.tar.gz dist/demo-1.0-py3-none-any.whl`

func newBuilder(dir string) *packaging.Builder {
	return packaging.NewBuilder(execx.NewLocal(),
		[]string{"sh", "-c", fakePackager, "packager"}, nil, dir, "dist")
}

func TestPublishAppendsUploadDirectives(t *testing.T) {
	dir := t.TempDir()
	p := New(newBuilder(dir), dir, "pypi", []string{"register", "upload"}, false)

	artifacts, err := p.Publish(context.Background(), []string{"build", "sdist", "bdist_wheel"})
	require.NoError(t, err)
	assert.Len(t, artifacts.All(), 2)

	args, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	require.NoError(t, err)
	assert.Equal(t, "build sdist bdist_wheel register upload -r pypi\n", string(args))
}

func TestPublishFailureKeepsArchives(t *testing.T) {
	dir := t.TempDir()
	// The fake tool builds archives, then fails on upload.
	script := `mkdir -p dist && touch dist/demo-1.0.tar.gz; exit 5`
	b := packaging.NewBuilder(execx.NewLocal(), []string{"sh", "-c", script}, nil, dir, "dist")
	p := New(b, dir, "pypi", []string{"upload"}, false)

	_, err := p.Publish(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 5, execx.ExitCode(err))

	// Local archives remain on disk (not rolled back).
	_, statErr := os.Stat(filepath.Join(dir, "dist", "demo-1.0.tar.gz"))
	assert.NoError(t, statErr)
}

func TestInspectNonRepository(t *testing.T) {
	state, err := Inspect(t.TempDir())
	require.NoError(t, err)
	assert.False(t, state.Dirty)
	assert.Empty(t, state.Version)
}

func initRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return dir, repo
}

func commitAll(t *testing.T, dir string, repo *git.Repository, msg string) {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	_, err = wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestInspectDirtyWorktree(t *testing.T) {
	dir, repo := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o600))
	commitAll(t, dir, repo, "initial")

	state, err := Inspect(dir)
	require.NoError(t, err)
	assert.False(t, state.Dirty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o600))
	state, err = Inspect(dir)
	require.NoError(t, err)
	assert.True(t, state.Dirty)
}

func TestInspectLatestTag(t *testing.T) {
	dir, repo := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o600))
	commitAll(t, dir, repo, "initial")

	head, err := repo.Head()
	require.NoError(t, err)
	_, err = repo.CreateTag("v1.0.0", head.Hash(), nil)
	require.NoError(t, err)

	state, err := Inspect(dir)
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0", state.Version)
}

func TestGuardBlocksDirtyPublish(t *testing.T) {
	dir, repo := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o600))
	commitAll(t, dir, repo, "initial")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dirty.txt"), []byte("d"), 0o600))

	p := New(newBuilder(dir), dir, "pypi", []string{"upload"}, false)
	_, err := p.Publish(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uncommitted")

	// allow_dirty overrides the guard.
	p = New(newBuilder(dir), dir, "pypi", []string{"upload"}, true)
	_, err = p.Publish(context.Background(), nil)
	assert.NoError(t, err)
}

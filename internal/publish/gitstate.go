package publish

import (
	"errors"
	"fmt"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// State describes the project repository at publish time.
type State struct {
	// Dirty is true when the worktree carries uncommitted changes.
	Dirty bool
	// Version is the most recent tag name, empty when untagged or when
	// the project is not under version control.
	Version string
}

// Inspect reads the repository state for dir. A directory that is not a
// git repository yields a zero State without error.
func Inspect(dir string) (State, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return State{}, fmt.Errorf("worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return State{}, fmt.Errorf("status: %w", err)
	}

	version, err := latestTag(repo)
	if err != nil {
		return State{}, err
	}

	return State{Dirty: !status.IsClean(), Version: version}, nil
}

// latestTag returns the name of the tag whose commit has the most recent
// committer time.
func latestTag(repo *git.Repository) (string, error) {
	tags, err := repo.Tags()
	if err != nil {
		return "", fmt.Errorf("list tags: %w", err)
	}
	defer tags.Close()

	var (
		best     string
		bestTime time.Time
	)
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		// Annotated tags point at a tag object, not the commit itself.
		if tag, err := repo.TagObject(hash); err == nil {
			hash = tag.Target
		}
		commit, err := repo.CommitObject(hash)
		if err != nil {
			return nil // ignore tags not pointing at commits
		}
		if commit.Committer.When.After(bestTime) {
			bestTime = commit.Committer.When
			best = ref.Name().Short()
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("iterate tags: %w", err)
	}
	return best, nil
}

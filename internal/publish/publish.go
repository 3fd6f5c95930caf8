// Package publish uploads built distributables to a package index and
// guards the upload with a repository cleanliness check.
package publish

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkrelease/mkrelease/internal/logfields"
	"github.com/mkrelease/mkrelease/internal/packaging"
)

// Publisher performs the build-and-upload operation against a named
// package index.
type Publisher struct {
	builder    *Builder
	index      string
	directives []string
	allowDirty bool
	projectDir string
}

// Builder is the subset of the packaging builder publish needs.
type Builder = packaging.Builder

// New constructs a Publisher.
func New(builder *Builder, projectDir, index string, directives []string, allowDirty bool) *Publisher {
	return &Publisher{
		builder:    builder,
		index:      index,
		directives: directives,
		allowDirty: allowDirty,
		projectDir: projectDir,
	}
}

// Publish rebuilds the distributables and uploads them.
//
// The local build directives run together with the upload directives in a
// single packaging invocation, mirroring the build stage plus the extra
// network action. Already-built archives are not rolled back when the
// upload fails.
func (p *Publisher) Publish(ctx context.Context, buildDirectives []string) (packaging.Artifacts, error) {
	if err := p.guard(); err != nil {
		return packaging.Artifacts{}, err
	}

	directives := append(append([]string{}, buildDirectives...), p.uploadDirectives()...)
	slog.Info("Publishing to package index", logfields.Index(p.index))

	artifacts, err := p.builder.Run(ctx, directives)
	if err != nil {
		return artifacts, fmt.Errorf("publish to %s: %w", p.index, err)
	}
	return artifacts, nil
}

// uploadDirectives expands the configured publish directives with the
// index name ("upload" becomes "upload -r <index>").
func (p *Publisher) uploadDirectives() []string {
	out := make([]string, 0, len(p.directives)+2)
	for _, d := range p.directives {
		out = append(out, d)
		if d == "upload" {
			out = append(out, "-r", p.index)
		}
	}
	return out
}

// guard refuses to publish from a dirty worktree unless explicitly
// allowed. Projects not under version control pass.
func (p *Publisher) guard() error {
	state, err := Inspect(p.projectDir)
	if err != nil {
		return fmt.Errorf("inspect repository: %w", err)
	}
	if state.Version != "" {
		slog.Info("Publishing version", "version", state.Version)
	}
	if state.Dirty && !p.allowDirty {
		return fmt.Errorf("worktree has uncommitted changes; commit them or pass --allow-dirty")
	}
	return nil
}

// Package packaging invokes the packaging entry point to produce the
// distributable archives and verifies they actually landed in the dist
// directory.
package packaging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkrelease/mkrelease/internal/execx"
	"github.com/mkrelease/mkrelease/internal/logfields"
)

// Artifacts lists the distributables produced by a build.
type Artifacts struct {
	Sdists []string
	Wheels []string
}

// All returns every artifact path.
func (a Artifacts) All() []string {
	out := make([]string, 0, len(a.Sdists)+len(a.Wheels))
	out = append(out, a.Sdists...)
	return append(out, a.Wheels...)
}

// Builder drives the packaging entry point.
type Builder struct {
	runner     execx.Runner
	command    []string
	directives []string
	dir        string
	distDir    string
}

// NewBuilder constructs a Builder.
//
// command is the packaging entry point (for example "python setup.py"),
// directives the build directives appended to it, dir the project root
// and distDir the directory archives are written to, relative to dir
// unless absolute.
func NewBuilder(runner execx.Runner, command, directives []string, dir, distDir string) *Builder {
	return &Builder{runner: runner, command: command, directives: directives, dir: dir, distDir: distDir}
}

// Build runs the packaging tool and returns the verified artifacts.
// Output streams through to the driver's stdio so packaging diagnostics
// stay visible.
func (b *Builder) Build(ctx context.Context) (Artifacts, error) {
	return b.run(ctx, b.directives)
}

// Run invokes the packaging entry point with explicit directives, used by
// publish to append the upload directives.
func (b *Builder) Run(ctx context.Context, directives []string) (Artifacts, error) {
	return b.run(ctx, directives)
}

func (b *Builder) run(ctx context.Context, directives []string) (Artifacts, error) {
	argv := append(append([]string{}, b.command...), directives...)
	slog.Info("Invoking packaging entry point", logfields.Command(strings.Join(argv, " ")))

	if err := b.runner.Run(ctx, execx.Command{Argv: argv, Dir: b.dir}, nil, nil); err != nil {
		return Artifacts{}, fmt.Errorf("packaging: %w", err)
	}

	artifacts, err := b.collectArtifacts()
	if err != nil {
		return Artifacts{}, err
	}
	for _, a := range artifacts.All() {
		slog.Info("Built distributable", logfields.Artifact(a))
	}
	return artifacts, nil
}

// collectArtifacts scans the dist directory for sdist and wheel archives.
func (b *Builder) collectArtifacts() (Artifacts, error) {
	distDir := b.distDir
	if !filepath.IsAbs(distDir) {
		distDir = filepath.Join(b.dir, distDir)
	}

	entries, err := os.ReadDir(distDir)
	if err != nil {
		return Artifacts{}, fmt.Errorf("read dist directory %s: %w", distDir, err)
	}

	var artifacts Artifacts
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		path := filepath.Join(distDir, name)
		switch {
		case strings.HasSuffix(name, ".whl"):
			artifacts.Wheels = append(artifacts.Wheels, path)
		case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".zip"):
			artifacts.Sdists = append(artifacts.Sdists, path)
		}
	}

	if len(artifacts.Sdists) == 0 && len(artifacts.Wheels) == 0 {
		return Artifacts{}, fmt.Errorf("packaging produced no archives in %s", distDir)
	}
	return artifacts, nil
}

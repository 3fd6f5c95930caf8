// Package stages implements the release pipeline's five operations on
// top of the pipeline engine: clean, readme, convert, build and publish.
package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mkrelease/mkrelease/internal/config"
	"github.com/mkrelease/mkrelease/internal/convert"
	"github.com/mkrelease/mkrelease/internal/docdata"
	"github.com/mkrelease/mkrelease/internal/execx"
	"github.com/mkrelease/mkrelease/internal/logfields"
	"github.com/mkrelease/mkrelease/internal/packaging"
	"github.com/mkrelease/mkrelease/internal/pipeline"
	"github.com/mkrelease/mkrelease/internal/publish"
	"github.com/mkrelease/mkrelease/internal/render"
	"github.com/mkrelease/mkrelease/internal/staleness"
)

// NewRegistry wires the five stages from configuration.
func NewRegistry(cfg *config.Config, runner execx.Runner) (*pipeline.Registry, error) {
	reg := pipeline.NewRegistry()

	builder := packaging.NewBuilder(runner,
		cfg.Packaging.Command, cfg.Packaging.Directives,
		cfg.Project.Dir, cfg.Packaging.DistDir)

	var converter convert.Converter = convert.NewBuiltin()
	if len(cfg.Convert.Command) > 0 {
		converter = convert.NewExternal(runner, cfg.Convert.Command, cfg.Project.Dir)
	}

	all := []pipeline.Stage{
		&cleanStage{cfg: cfg},
		&readmeStage{cfg: cfg, runner: runner},
		&convertStage{cfg: cfg, converter: converter},
		&buildStage{builder: builder},
		&publishStage{cfg: cfg, builder: builder},
	}
	for _, s := range all {
		if err := reg.Register(s); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// cleanStage removes artifact directories and generated documents.
// It participates in no dependency chain and always runs when requested.
type cleanStage struct {
	cfg *config.Config
}

func (s *cleanStage) Name() pipeline.StageName            { return pipeline.StageClean }
func (s *cleanStage) Dependencies() []pipeline.StageName  { return nil }
func (s *cleanStage) Stale(context.Context) (bool, error) { return true, nil }

func (s *cleanStage) Run(context.Context) error {
	return packaging.Clean(s.cfg.Project.Dir,
		s.cfg.Packaging.CleanPaths,
		[]string{s.cfg.Readme.Output, s.cfg.Convert.Output})
}

// readmeStage generates the Markdown document from the doc-data payload
// and the template.
type readmeStage struct {
	cfg    *config.Config
	runner execx.Runner
}

func (s *readmeStage) Name() pipeline.StageName           { return pipeline.StageReadme }
func (s *readmeStage) Dependencies() []pipeline.StageName { return nil }

func (s *readmeStage) Stale(context.Context) (bool, error) {
	sources := append(s.cfg.ResolvePaths(s.cfg.Readme.Sources), s.cfg.ResolvePath(s.cfg.Readme.Template))
	return staleness.IsStale(s.cfg.ResolvePath(s.cfg.Readme.Output), sources...)
}

func (s *readmeStage) Run(ctx context.Context) error {
	collector := docdata.NewCollector(s.runner,
		s.cfg.Readme.DataCommand, s.cfg.Project.Dir,
		docdata.Format(s.cfg.Readme.PayloadFormat))

	payload, err := collector.Collect(ctx)
	if err != nil {
		return err
	}

	content, err := render.RenderFile(s.cfg.ResolvePath(s.cfg.Readme.Template), payload)
	if err != nil {
		return err
	}

	out := s.cfg.ResolvePath(s.cfg.Readme.Output)
	if err := render.WriteFileAtomic(out, content, 0o644); err != nil {
		return err
	}
	slog.Info("Generated document", logfields.Target(s.cfg.Readme.Output))
	return nil
}

// convertStage turns the Markdown document into reStructuredText.
type convertStage struct {
	cfg       *config.Config
	converter convert.Converter
}

func (s *convertStage) Name() pipeline.StageName { return pipeline.StageConvert }
func (s *convertStage) Dependencies() []pipeline.StageName {
	return []pipeline.StageName{pipeline.StageReadme}
}

func (s *convertStage) Stale(context.Context) (bool, error) {
	return staleness.IsStale(s.cfg.ResolvePath(s.cfg.Convert.Output), s.cfg.ResolvePath(s.cfg.Readme.Output))
}

func (s *convertStage) Run(ctx context.Context) error {
	mdPath := s.cfg.ResolvePath(s.cfg.Readme.Output)
	markdown, err := os.ReadFile(mdPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", mdPath, err)
	}

	rst, err := s.converter.Convert(ctx, markdown)
	if err != nil {
		return err
	}

	out := s.cfg.ResolvePath(s.cfg.Convert.Output)
	if err := render.WriteFileAtomic(out, rst, 0o644); err != nil {
		return err
	}
	slog.Info("Converted document", logfields.Target(s.cfg.Convert.Output))
	return nil
}

// buildStage produces the sdist and wheel archives. Like a phony make
// target it always runs when requested; only its document dependencies
// are staleness-gated.
type buildStage struct {
	builder *packaging.Builder
}

func (s *buildStage) Name() pipeline.StageName { return pipeline.StageBuild }
func (s *buildStage) Dependencies() []pipeline.StageName {
	return []pipeline.StageName{pipeline.StageConvert}
}
func (s *buildStage) Stale(context.Context) (bool, error) { return true, nil }

func (s *buildStage) Run(ctx context.Context) error {
	_, err := s.builder.Build(ctx)
	return err
}

// publishStage rebuilds and uploads to the package index.
type publishStage struct {
	cfg     *config.Config
	builder *packaging.Builder
}

func (s *publishStage) Name() pipeline.StageName { return pipeline.StagePublish }
func (s *publishStage) Dependencies() []pipeline.StageName {
	return []pipeline.StageName{pipeline.StageConvert}
}
func (s *publishStage) Stale(context.Context) (bool, error) { return true, nil }

func (s *publishStage) Run(ctx context.Context) error {
	p := publish.New(s.builder,
		s.cfg.Project.Dir,
		s.cfg.Publish.Index,
		s.cfg.Publish.Directives,
		s.cfg.Publish.AllowDirty)
	_, err := p.Publish(ctx, s.cfg.Packaging.Directives)
	return err
}

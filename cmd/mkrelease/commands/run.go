package commands

import (
	"context"
	"os"

	"github.com/mkrelease/mkrelease/internal/config"
	"github.com/mkrelease/mkrelease/internal/pipeline"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct{}

func (c *CleanCmd) Run(_ *Global, root *CLI) error {
	return runStages(context.Background(), root.Config, pipeline.StageClean)
}

// ReadmeCmd implements the 'readme' command.
type ReadmeCmd struct {
	Force bool `help:"Regenerate even when the document is up to date"`
}

func (r *ReadmeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if r.Force {
		if err := os.Remove(cfg.ResolvePath(cfg.Readme.Output)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return runStagesWith(context.Background(), cfg, pipeline.StageReadme)
}

// ConvertCmd implements the 'convert' command.
type ConvertCmd struct {
	Force bool `help:"Reconvert even when the document is up to date"`
}

func (c *ConvertCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if c.Force {
		if err := os.Remove(cfg.ResolvePath(cfg.Convert.Output)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return runStagesWith(context.Background(), cfg, pipeline.StageConvert)
}

// BuildCmd implements the 'build' command.
type BuildCmd struct{}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	return runStages(context.Background(), root.Config, pipeline.StageBuild)
}

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	AllowDirty bool `name:"allow-dirty" help:"Publish even with uncommitted changes in the worktree"`
}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if p.AllowDirty {
		cfg.Publish.AllowDirty = true
	}
	return runStagesWith(context.Background(), cfg, pipeline.StagePublish)
}

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	return config.Init(root.Config, i.Force)
}

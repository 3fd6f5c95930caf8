package commands

import (
	"fmt"
	"strings"

	"github.com/mkrelease/mkrelease/internal/config"
	"github.com/mkrelease/mkrelease/internal/execx"
	"github.com/mkrelease/mkrelease/internal/pipeline"
	"github.com/mkrelease/mkrelease/internal/stages"
)

// GraphCmd implements the 'graph' command.
type GraphCmd struct {
	Stage []string `help:"Stages to plan for (default: all registered stages)"`
}

func (g *GraphCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	registry, err := stages.NewRegistry(cfg, execx.NewLocal())
	if err != nil {
		return err
	}

	var requested []pipeline.StageName
	if len(g.Stage) > 0 {
		for _, name := range g.Stage {
			requested = append(requested, pipeline.StageName(name))
		}
	} else {
		requested = registry.Names()
	}

	plan, err := registry.BuildExecutionPlan(requested)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(plan.Order))
	for i, name := range plan.Order {
		stage, _ := registry.Get(name)
		deps := make([]string, 0, len(stage.Dependencies()))
		for _, dep := range stage.Dependencies() {
			deps = append(deps, string(dep))
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			string(name),
			strings.Join(deps, ", "),
		})
	}

	fmt.Println(renderTable([]string{"#", "Stage", "Depends on"}, rows, 0))
	return nil
}

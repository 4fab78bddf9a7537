package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TFMV/springgraph/config"
	"github.com/TFMV/springgraph/graph"
	"github.com/TFMV/springgraph/ingest"
	"github.com/TFMV/springgraph/physics"
)

// demoDocument is loaded when no graph file is given.
const demoDocument = `{
	"nodes": [
		{"id": "dreams", "label": "Dreams"},
		{"id": "illusions", "label": "Illusions"},
		{"id": "memories", "label": "Memories"},
		{"id": "reality", "label": "Reality"},
		{"id": "surrealism", "label": "Surrealism"},
		{"id": "sleep", "label": "Sleep"}
	],
	"edges": [
		["dreams", "illusions"],
		["illusions", "memories"],
		["memories", "reality"],
		["reality", "surrealism", {"directional": true}],
		["surrealism", "dreams", {"length": 1.5}],
		["dreams", "sleep"],
		["illusions", "surrealism"]
	]
}`

// layoutFlags are the flags shared by every command that lays out a graph.
// They override the config file when set.
type layoutFlags struct {
	palette   string
	seed      int64
	repulsion float64
	stiffness float64
	damping   float64
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.palette, "palette", "", "colour palette: default or dark")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "seed for initial placement")
	cmd.Flags().Float64Var(&f.repulsion, "repulsion", 0, "repulsion constant")
	cmd.Flags().Float64Var(&f.stiffness, "stiffness", 0, "spring stiffness")
	cmd.Flags().Float64Var(&f.damping, "damping", 0, "velocity damping in (0, 1]")
}

func (f *layoutFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("palette") {
		cfg.Palette = f.palette
	}
	if flags.Changed("seed") {
		cfg.Layout.Seed = f.seed
	}
	if flags.Changed("repulsion") {
		cfg.Layout.Repulsion = f.repulsion
	}
	if flags.Changed("stiffness") {
		cfg.Layout.Stiffness = f.stiffness
	}
	if flags.Changed("damping") {
		cfg.Layout.Damping = f.damping
	}
	return cfg.Validate()
}

// loadLayout reads the graph named by args (or the demo graph) and binds a
// layout to it.
func loadLayout(ctx context.Context, cfg *config.Config, args []string) (*physics.ForceDirectedLayout, error) {
	logger := loggerFromContext(ctx)

	palette, err := ingest.PaletteByName(cfg.Palette)
	if err != nil {
		return nil, err
	}

	var g *graph.Graph
	if len(args) == 0 {
		g = graph.New()
		if err := ingest.NewJSONProcessor(palette).Process([]byte(demoDocument), g); err != nil {
			return nil, fmt.Errorf("demo graph: %w", err)
		}
		logger.Debug("no graph given, using the demo graph")
	} else {
		g, err = ingest.LoadFile(args[0], palette)
		if err != nil {
			return nil, err
		}
	}

	nodes, edges := g.Len()
	logger.Info("graph loaded", "nodes", nodes, "edges", edges)
	return physics.NewForceDirectedLayout(g, cfg.Params()), nil
}

// prepare applies flag overrides and loads the layout for a command.
func prepare(cmd *cobra.Command, flags *layoutFlags, args []string) (*config.Config, *physics.ForceDirectedLayout, error) {
	cfg := configFromContext(cmd.Context())
	if err := flags.apply(cmd, cfg); err != nil {
		return nil, nil, err
	}
	fd, err := loadLayout(cmd.Context(), cfg, args)
	if err != nil {
		return nil, nil, err
	}
	return cfg, fd, nil
}

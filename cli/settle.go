package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TFMV/springgraph/physics"
)

var (
	headerStyle = color.New(color.FgHiBlack)
	goodStyle   = color.New(color.FgGreen)
	warnStyle   = color.New(color.FgYellow)
)

type settledNode struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type settleResult struct {
	Steps   int           `json:"steps"`
	Energy  float64       `json:"energy"`
	Settled bool          `json:"settled"`
	Nodes   []settledNode `json:"nodes"`
}

func newSettleCmd() *cobra.Command {
	var (
		flags    layoutFlags
		maxSteps int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "settle [graph-file]",
		Short: "Run a layout to rest and print the node positions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxSteps <= 0 {
				return fmt.Errorf("--max-steps must be positive, got %d", maxSteps)
			}
			cfg, fd, err := prepare(cmd, &flags, args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			steps := 0
			for steps < maxSteps && !fd.Settled() {
				if err := ctx.Err(); err != nil {
					return err
				}
				fd.Step(cfg.Layout.TimeStep)
				steps++
			}
			logger.Debug("layout stopped", "steps", steps, "energy", fd.Energy(), "settled", fd.Settled())

			res := collect(fd, steps)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&maxSteps, "max-steps", 10000, "give up after this many steps")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func collect(fd *physics.ForceDirectedLayout, steps int) settleResult {
	res := settleResult{
		Steps:   steps,
		Energy:  fd.Energy(),
		Settled: fd.Settled(),
	}
	for _, n := range fd.Graph().Nodes() {
		p, _ := fd.Position(n.ID)
		res.Nodes = append(res.Nodes, settledNode{ID: n.ID, Label: n.Data.Label, X: p.X, Y: p.Y})
	}
	return res
}

func printResult(w io.Writer, res settleResult) {
	status := goodStyle.Sprint("settled")
	if !res.Settled {
		status = warnStyle.Sprint("still moving")
	}
	fmt.Fprintf(w, "%s after %d steps (energy %.6f)\n\n", status, res.Steps, res.Energy)

	rows := make([][]string, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		rows = append(rows, []string{n.ID, n.Label, fmt.Sprintf("%.3f", n.X), fmt.Sprintf("%.3f", n.Y)})
	}
	table(w, []string{"ID", "LABEL", "X", "Y"}, rows)
}

// table prints an aligned table with a dimmed header.
func table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var header, sep strings.Builder
	header.WriteString("  ")
	sep.WriteString("  ")
	for i, h := range headers {
		fmt.Fprintf(&header, "%-*s  ", widths[i], h)
		sep.WriteString(strings.Repeat("─", widths[i]) + "  ")
	}
	headerStyle.Fprintln(w, header.String())
	headerStyle.Fprintln(w, sep.String())

	for _, row := range rows {
		var line strings.Builder
		line.WriteString("  ")
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(&line, "%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(w, line.String())
	}
}

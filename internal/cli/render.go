package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/enrichmap/pkg/netgraph"
	"github.com/matzehuels/enrichmap/pkg/render"
)

// renderCommand creates the render command for turning network JSON into images.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		outPath   string
		dotOnly   bool
		engine    string
		edgeWidth float64
		fontSize  float64
	)

	cmd := &cobra.Command{
		Use:   "render <network.json>",
		Short: "Render a network JSON file to SVG or DOT",
		Long: `Render reads a network written by "enrichmap run" or "enrichmap filter"
and produces an SVG using Graphviz. Glyph-encoded nodes are drawn as
wedged circles (pie glyphs) or striped boxes (grid glyphs) with the
per-source color segments preserved.`,
		Example: `  enrichmap render results/similarity.json -o similarity.svg
  enrichmap render results/concept.json --engine fdp --dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := netgraph.ReadGraphFile(args[0])
			if err != nil {
				return err
			}

			dot := render.ToDOT(g, render.Options{
				Engine:          engine,
				EdgeWidthFactor: edgeWidth,
				FontSize:        fontSize,
			})

			if dotOnly {
				if outPath == "" {
					outPath = strings.TrimSuffix(args[0], ".json") + ".dot"
				}
				if err := os.WriteFile(outPath, []byte(dot), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outPath, err)
				}
				printSuccess("Wrote DOT source")
				printFile(outPath)
				return nil
			}

			sp := newSpinnerWithContext(cmd.Context(), "Rendering network...")
			sp.Start()
			svg, err := render.RenderSVG(cmd.Context(), dot)
			if err != nil {
				if sp.Cancelled() {
					sp.Stop()
					return cmd.Context().Err()
				}
				sp.StopWithError("Render failed")
				return err
			}

			if outPath == "" {
				outPath = strings.TrimSuffix(args[0], ".json") + ".svg"
			}
			if err := os.WriteFile(outPath, svg, 0o644); err != nil {
				sp.Stop()
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			sp.StopWithSuccess(fmt.Sprintf("Rendered %d nodes, %d edges", g.NodeCount(), g.EdgeCount()))
			printFile(outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output path (default: <input>.svg)")
	cmd.Flags().BoolVar(&dotOnly, "dot", false, "write Graphviz DOT source instead of SVG")
	cmd.Flags().StringVar(&engine, "engine", "neato", "Graphviz layout engine (neato, fdp, dot)")
	cmd.Flags().Float64Var(&edgeWidth, "edge-width", 4, "pen-width factor applied to edge weights")
	cmd.Flags().Float64Var(&fontSize, "font-size", 10, "node label font size in points")

	return cmd
}

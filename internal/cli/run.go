package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/enrichmap/pkg/layout"
	"github.com/matzehuels/enrichmap/pkg/netgraph"
	"github.com/matzehuels/enrichmap/pkg/pipeline"
	"github.com/matzehuels/enrichmap/pkg/render"
)

// runCommand creates the run command for executing the full pipeline.
func (c *CLI) runCommand() *cobra.Command {
	var (
		configPath string
		outDir     string
		noCache    bool
		refresh    bool
		writeSVG   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the enrichment pipeline from a TOML config",
		Long: `Run ingests the enrichment tables listed in a TOML configuration,
merges them into a unified table, builds the similarity and concept
networks with glyph colors, and writes the results as JSON artifacts.

When the config contains a [layout] section, Graphviz positions are
computed and scaled into the configured coordinate ranges.`,
		Example: `  enrichmap run -c project.toml -o results/
  enrichmap run -c project.toml --svg --refresh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := pipeline.LoadConfig(configPath)
			if err != nil {
				return err
			}
			opts := cfg.Options()
			opts.Logger = c.Logger
			if refresh {
				opts.Refresh = true
			}

			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			sp := newSpinnerWithContext(cmd.Context(), "Running enrichment pipeline...")
			sp.Start()
			res, err := runner.Run(cmd.Context(), opts)
			if err != nil {
				if sp.Cancelled() {
					sp.Stop()
					return cmd.Context().Err()
				}
				sp.StopWithError("Pipeline failed")
				return err
			}
			sp.StopWithSuccess(fmt.Sprintf("Merged %d sources into %d categories",
				res.Stats.Sources, res.Stats.Categories))

			for _, p := range res.Problems {
				printWarning("%s", p)
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			track := newProgress(c.Logger)

			unifiedPath := filepath.Join(outDir, "unified.json")
			if err := writeJSON(unifiedPath, res.Unified); err != nil {
				return err
			}
			printFile(unifiedPath)

			similarity := pickGraph(res.SimilarityFiltered, res.SimilarityGlyph)
			if similarity != nil {
				path := filepath.Join(outDir, "similarity.json")
				if err := netgraph.WriteGraphFile(similarity, path); err != nil {
					return fmt.Errorf("write similarity network: %w", err)
				}
				printFile(path)
				printStats(similarity.NodeCount(), similarity.EdgeCount(), res.CacheInfo.SimilarityHit)
			}

			concept := pickGraph(res.ConceptFiltered, res.ConceptGlyph)
			if concept != nil {
				path := filepath.Join(outDir, "concept.json")
				if err := netgraph.WriteGraphFile(concept, path); err != nil {
					return fmt.Errorf("write concept network: %w", err)
				}
				printFile(path)
				printStats(concept.NodeCount(), concept.EdgeCount(), res.CacheInfo.ConceptHit)
			}

			if res.SimilarityLayout != nil {
				path := filepath.Join(outDir, "similarity_layout.json")
				if err := writeJSON(path, layoutArtifact{res.SimilarityLayout, res.SimilarityRanges}); err != nil {
					return err
				}
				printFile(path)
			}
			if res.ConceptLayout != nil {
				path := filepath.Join(outDir, "concept_layout.json")
				if err := writeJSON(path, layoutArtifact{res.ConceptLayout, res.ConceptRanges}); err != nil {
					return err
				}
				printFile(path)
			}

			if writeSVG {
				networks := []struct {
					name string
					g    *netgraph.Graph
				}{
					{"similarity", similarity},
					{"concept", concept},
				}
				for _, nw := range networks {
					if nw.g == nil {
						continue
					}
					rsp := newSpinnerWithContext(cmd.Context(), "Rendering "+nw.name+" network...")
					rsp.Start()
					svg, err := render.RenderSVG(cmd.Context(), render.ToDOT(nw.g, render.Options{Engine: string(opts.Engine)}))
					if err != nil {
						if rsp.Cancelled() {
							rsp.Stop()
							return cmd.Context().Err()
						}
						rsp.StopWithError("Render failed")
						return err
					}
					path := filepath.Join(outDir, nw.name+".svg")
					if err := os.WriteFile(path, svg, 0o644); err != nil {
						rsp.Stop()
						return fmt.Errorf("write %s: %w", path, err)
					}
					rsp.StopWithSuccess("Rendered " + nw.name + " network")
					printFile(path)
				}
			}

			track.done("Wrote artifacts")

			printNewline()
			printKeyValue("Run ID", res.RunID)
			printKeyValue("Genes", strconv.Itoa(res.Stats.Genes))
			printNewline()
			printNextStep("Render a network", "enrichmap render "+filepath.Join(outDir, "similarity.json"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML run configuration (required)")
	_ = cmd.MarkFlagRequired("config")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory for artifacts")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the stage cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute stages even when cached")
	cmd.Flags().BoolVar(&writeSVG, "svg", false, "also render networks to SVG")

	return cmd
}

// layoutArtifact is the JSON shape of an exported layout file.
type layoutArtifact struct {
	Layout *layout.Layout `json:"layout"`
	Ranges layout.Ranges  `json:"ranges"`
}

// pickGraph prefers the filtered variant when a filter was configured.
func pickGraph(filtered, full *netgraph.Graph) *netgraph.Graph {
	if filtered != nil {
		return filtered
	}
	return full
}

// writeJSON marshals v with indentation and writes it to path.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

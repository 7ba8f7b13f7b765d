package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/enrichmap/pkg/netgraph"
)

// filterCommand creates the filter command for subsetting a network file.
func (c *CLI) filterCommand() *cobra.Command {
	var (
		outPath        string
		categories     []string
		items          []string
		minCatDegree   int
		minItemDegree  int
		removeSinglets bool
	)

	cmd := &cobra.Command{
		Use:   "filter <network.json>",
		Short: "Filter a network JSON file by node selection and degree",
		Long: `Filter reads a network written by "enrichmap run" and applies node
selections in a fixed order: category selection first, then item
selection, then minimum-degree pruning, then singlet removal. Each
step sees the degrees produced by the previous one.`,
		Example: `  enrichmap filter results/concept.json --category "cell cycle" -o subset.json
  enrichmap filter results/concept.json --min-item-degree 2 --remove-singlets`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := netgraph.ReadGraphFile(args[0])
			if err != nil {
				return err
			}

			opts := netgraph.FilterOptions{
				Categories:     categories,
				Items:          items,
				RemoveSinglets: removeSinglets,
			}
			if minCatDegree > 0 || minItemDegree > 0 {
				opts.MinDegree = map[netgraph.Kind]int{}
				if minCatDegree > 0 {
					opts.MinDegree[netgraph.KindCategory] = minCatDegree
				}
				if minItemDegree > 0 {
					opts.MinDegree[netgraph.KindItem] = minItemDegree
				}
			}

			filtered := netgraph.Filter(g, opts)

			if outPath == "" {
				outPath = strings.TrimSuffix(args[0], ".json") + ".filtered.json"
			}
			if err := netgraph.WriteGraphFile(filtered, outPath); err != nil {
				return fmt.Errorf("write filtered network: %w", err)
			}

			printSuccess("Kept %d of %d nodes", filtered.NodeCount(), g.NodeCount())
			printFile(outPath)
			printStats(filtered.NodeCount(), filtered.EdgeCount(), false)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output path (default: <input>.filtered.json)")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "keep these category nodes plus their neighbors")
	cmd.Flags().StringSliceVar(&items, "item", nil, "keep these item nodes plus all categories")
	cmd.Flags().IntVar(&minCatDegree, "min-category-degree", 0, "drop category nodes below this degree")
	cmd.Flags().IntVar(&minItemDegree, "min-item-degree", 0, "drop item nodes below this degree")
	cmd.Flags().BoolVar(&removeSinglets, "remove-singlets", false, "drop unconnected nodes last")

	return cmd
}

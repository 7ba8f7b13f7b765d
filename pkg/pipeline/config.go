package pipeline

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/enrichmap/pkg/errors"
	"github.com/matzehuels/enrichmap/pkg/layout"
	"github.com/matzehuels/enrichmap/pkg/netgraph"
)

// Config is the TOML run configuration. It mirrors [Options] closely
// enough that a config file can describe a complete run.
//
//	cutoff = 0.01
//	top_n = 40
//
//	[[source]]
//	name = "GO-BP"
//	path = "go_bp.tsv"
//	color = "#b2182b"
//
//	[filter]
//	min_category_degree = 2
//	remove_singlets = true
//
//	[layout]
//	engine = "neato"
//	x_range = [0.0, 1.0]
//	y_range = [0.0, 1.0]
type Config struct {
	Cutoff           float64 `toml:"cutoff"`
	GeneDelim        string  `toml:"gene_delim"`
	TopN             int     `toml:"top_n"`
	OverlapThreshold float64 `toml:"overlap_threshold"`
	SizeFactor       float64 `toml:"size_factor"`
	ConceptRows      int     `toml:"concept_rows"`
	ConceptCols      int     `toml:"concept_cols"`
	CacheScope       string  `toml:"cache_scope"`

	Sources []ConfigSource `toml:"source"`
	Filter  *ConfigFilter  `toml:"filter"`
	Layout  *ConfigLayout  `toml:"layout"`
}

// ConfigSource is one [[source]] block.
type ConfigSource struct {
	Name     string   `toml:"name"`
	Path     string   `toml:"path"`
	Color    string   `toml:"color"`
	Universe []string `toml:"universe"`
}

// ConfigFilter is the [filter] block.
type ConfigFilter struct {
	Categories        []string `toml:"categories"`
	Items             []string `toml:"items"`
	MinCategoryDegree int      `toml:"min_category_degree"`
	MinItemDegree     int      `toml:"min_item_degree"`
	RemoveSinglets    bool     `toml:"remove_singlets"`
}

// ConfigLayout is the [layout] block. Its presence enables layout
// computation.
type ConfigLayout struct {
	Engine string     `toml:"engine"`
	XRange [2]float64 `toml:"x_range"`
	YRange [2]float64 `toml:"y_range"`
	Expand float64    `toml:"expand"`
}

// LoadConfig reads and parses a TOML run configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %q", path)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOption, err, "config %q", path)
	}
	return &cfg, nil
}

// Options converts the configuration into run options. Validation and
// defaulting happen later in [Options.ValidateAndSetDefaults].
func (c *Config) Options() Options {
	opts := Options{
		GeneDelim:        c.GeneDelim,
		Cutoff:           c.Cutoff,
		TopN:             c.TopN,
		OverlapThreshold: c.OverlapThreshold,
		SizeFactor:       c.SizeFactor,
		ConceptRows:      c.ConceptRows,
		ConceptCols:      c.ConceptCols,
		CacheScope:       c.CacheScope,
	}
	for _, s := range c.Sources {
		opts.Sources = append(opts.Sources, SourceSpec{
			Name:     s.Name,
			Path:     s.Path,
			Color:    s.Color,
			Universe: s.Universe,
		})
	}
	if f := c.Filter; f != nil {
		opts.Filter = &netgraph.FilterOptions{
			Categories:     f.Categories,
			Items:          f.Items,
			RemoveSinglets: f.RemoveSinglets,
			MinDegree: map[netgraph.Kind]int{
				netgraph.KindCategory: f.MinCategoryDegree,
				netgraph.KindItem:     f.MinItemDegree,
			},
		}
	}
	if l := c.Layout; l != nil {
		opts.Layouts = true
		opts.Engine = layout.Engine(l.Engine)
		opts.XRange = l.XRange
		opts.YRange = l.YRange
		opts.Expand = l.Expand
	}
	return opts
}

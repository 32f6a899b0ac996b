package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/crossdash/dataset"
	"github.com/spektr-org/crossdash/engine"
	"github.com/spektr-org/crossdash/schema"
)

// groupsOptions are the flags of the groups command.
type groupsOptions struct {
	by          []string
	measure     string
	aggregation string
	sort        string
	limit       int
	where       []string
	raw         bool
	format      string
}

var validAggregations = []string{engine.AggSum, engine.AggCount, engine.AggAvg, engine.AggMax, engine.AggMin}

func newGroupsCmd(g *globalFlags) *cobra.Command {
	opts := &groupsOptions{}
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Group and aggregate any CSV",
		Long: "Groups the rows of --data by one or more dimensions and aggregates a measure. " +
			"The schema is discovered from the file unless --raw is set.",
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validAggregations, opts.aggregation) {
				return fmt.Errorf("invalid aggregation %q: must be one of %s", opts.aggregation, strings.Join(validAggregations, ", "))
			}
			return validateFormat(opts.format)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			data, err := os.ReadFile(cfg.Data)
			if err != nil {
				return fmt.Errorf("failed to read data file: %w", err)
			}
			buckets, err := runGroups(data, opts, log)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.format == "text" {
				formatBucketsText(w, buckets, opts.aggregation)
				return nil
			}
			return writeJSON(w, buckets)
		},
	}
	cmd.Flags().StringSliceVar(&opts.by, "by", nil, "dimensions to group by, outermost first (comma-separated)")
	cmd.Flags().StringVar(&opts.measure, "measure", "", "measure to aggregate (default: the first measure)")
	cmd.Flags().StringVar(&opts.aggregation, "agg", engine.AggCount, "aggregation: "+strings.Join(validAggregations, "|"))
	cmd.Flags().StringVar(&opts.sort, "sort", "", "sort: value_desc|value_asc|label_asc|label_desc")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "maximum number of groups (0 = all)")
	cmd.Flags().StringArrayVar(&opts.where, "where", nil, "filter as dimension=value[,value] (repeatable)")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "treat every numeric cell as a measure instead of discovering a schema")
	cmd.Flags().StringVar(&opts.format, "format", "text", "output format: json|text")
	return cmd
}

// runGroups parses data, filters it and runs the batch pipeline.
func runGroups(data []byte, opts *groupsOptions, log *zap.Logger) ([]engine.Bucket, error) {
	var (
		view    engine.RecordView
		measure = opts.measure
	)
	if opts.raw {
		records, _, err := dataset.ParseCSVAuto(data)
		if err != nil {
			return nil, err
		}
		view = engine.NewSliceView(records)
	} else {
		sch, err := schema.DiscoverFromCSV(data)
		if err != nil {
			return nil, err
		}
		log.Debug("schema discovered",
			zap.Strings("dimensions", sch.DimensionKeys()),
			zap.Strings("measures", sch.MeasureKeys()))
		if view, err = dataset.ParseCSVView(data, *sch); err != nil {
			return nil, err
		}
		if measure == "" {
			measure = sch.GetDefaultMeasure()
		}
	}
	if measure == "" && len(view.MeasureKeys()) > 0 {
		measure = view.MeasureKeys()[0]
	}

	for _, dim := range opts.by {
		if !slices.Contains(view.DimensionKeys(), dim) {
			return nil, fmt.Errorf("unknown dimension %q (have %s)", dim, strings.Join(view.DimensionKeys(), ", "))
		}
	}
	if opts.aggregation != engine.AggCount && !slices.Contains(view.MeasureKeys(), measure) {
		return nil, fmt.Errorf("unknown measure %q (have %s)", measure, strings.Join(view.MeasureKeys(), ", "))
	}

	where, err := parseSelection(opts.where)
	if err != nil {
		return nil, err
	}
	if !where.IsEmpty() {
		view = engine.ApplyFilters(view, where)
	}

	buckets := engine.GroupAndAggregate(view, opts.by, measure, opts.aggregation, opts.sort, opts.limit)
	log.Debug("groups computed",
		zap.Int("rows", view.Len()),
		zap.Int("groups", len(buckets)))
	return buckets, nil
}

func newSchemaCmd(g *globalFlags) *cobra.Command {
	var (
		discover bool
		format   string
	)
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the salaries schema or one discovered from --data",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateFormat(format)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			sch := schema.Salaries()
			if discover {
				cfg, err := g.loadConfig()
				if err != nil {
					return err
				}
				data, err := os.ReadFile(cfg.Data)
				if err != nil {
					return fmt.Errorf("failed to read data file: %w", err)
				}
				found, err := schema.DiscoverFromCSV(data)
				if err != nil {
					return err
				}
				sch = *found
			}

			w := cmd.OutOrStdout()
			if format == "text" {
				formatSchemaText(w, sch)
				return nil
			}
			return writeJSON(w, sch)
		},
	}
	cmd.Flags().BoolVar(&discover, "discover", false, "discover the schema from the data file")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json|text")
	return cmd
}

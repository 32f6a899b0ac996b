package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/crossdash/config"
	"github.com/spektr-org/crossdash/dashboard"
	"github.com/spektr-org/crossdash/dataset"
	"github.com/spektr-org/crossdash/engine"
	"github.com/spektr-org/crossdash/logger"
)

// ============================================================================
// CROSSDASH CLI — Linked salary charts from a CSV
// ============================================================================

const version = "0.3.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	config   string
	data     string
	logLevel string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "crossdash",
		Short:         "Crossfiltered dashboard of academic salaries",
		Long:          "Crossdash indexes a salaries CSV and renders linked charts whose selections filter each other.",
		SilenceErrors: true,
		SilenceUsage:  true,
		// No Run — prints help by default.
	}

	root.PersistentFlags().StringVar(&g.config, "config", "", "path to a YAML config file (default: built-in settings)")
	root.PersistentFlags().StringVar(&g.data, "data", "", "path to the salaries CSV (overrides the config)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug|info|warn|error")

	root.AddCommand(newRenderCmd(g))
	root.AddCommand(newSnapshotCmd(g))
	root.AddCommand(newGroupsCmd(g))
	root.AddCommand(newSchemaCmd(g))
	root.AddCommand(newInitConfigCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// --- Helpers ---

// loadConfig reads --config (or the defaults) and applies flag overrides.
func (g *globalFlags) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if g.config != "" {
		var err error
		if cfg, err = config.Load(g.config); err != nil {
			return cfg, err
		}
	}
	if g.data != "" {
		cfg.Data = g.data
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	return cfg, cfg.Validate()
}

// setup loads the config and builds the logger. The caller syncs the logger.
func (g *globalFlags) setup() (config.Config, *zap.Logger, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return cfg, nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

// openDashboard loads the dataset named by cfg and builds the dashboard
// with sel applied over the configured selection.
func openDashboard(cfg config.Config, log *zap.Logger, sel engine.Filters) (*dashboard.Dashboard, error) {
	rows, report, err := dataset.LoadFile(cfg.Data, log)
	if err != nil {
		return nil, err
	}
	if len(report.Skipped) > 0 {
		log.Warn("rows skipped", zap.Int("skipped", len(report.Skipped)), zap.Int("loaded", report.Loaded))
	}

	cfg.Selection = mergeSelection(cfg.Selection, sel)
	return dashboard.New(rows, cfg, log)
}

// parseSelection turns "dimension=value[,value]" arguments into filters.
// Repeating a dimension adds values.
func parseSelection(args []string) (engine.Filters, error) {
	f := engine.Filters{Dimensions: map[string][]string{}}
	for _, arg := range args {
		dim, values, ok := strings.Cut(arg, "=")
		dim = strings.TrimSpace(dim)
		if !ok || dim == "" {
			return f, fmt.Errorf("invalid selection %q: want dimension=value", arg)
		}
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				f.Dimensions[dim] = append(f.Dimensions[dim], v)
			}
		}
	}
	return f, nil
}

// mergeSelection lays override over base one dimension at a time.
func mergeSelection(base, override engine.Filters) engine.Filters {
	out := engine.Filters{Dimensions: map[string][]string{}}
	for dim, values := range base.Dimensions {
		out.Dimensions[dim] = values
	}
	for dim, values := range override.Dimensions {
		out.Dimensions[dim] = values
	}
	return out
}

func newInitConfigCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write the default configuration as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "crossdash.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crossdash %s\n", version)
		},
	}
}

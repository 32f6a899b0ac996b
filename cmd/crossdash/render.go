package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/crossdash/dashboard"
)

func newRenderCmd(g *globalFlags) *cobra.Command {
	var (
		out     string
		selects []string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the dashboard to an HTML page",
		Long:  "Loads the dataset, applies any selection and writes every widget as one HTML page. Use --out - for stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			sel, err := parseSelection(selects)
			if err != nil {
				return err
			}
			d, err := openDashboard(cfg, log, sel)
			if err != nil {
				return err
			}

			if out == "" {
				out = cfg.Output
			}
			if out == "-" {
				return d.RenderAll(cmd.OutOrStdout())
			}
			if err := writeFile(out, d.RenderAll); err != nil {
				return err
			}
			log.Info("dashboard written",
				zap.String("path", out),
				zap.Int("visible", d.Visible()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default: the config's output)")
	cmd.Flags().StringArrayVar(&selects, "select", nil, "selection as dimension=value[,value] (repeatable)")
	return cmd
}

func newSnapshotCmd(g *globalFlags) *cobra.Command {
	var (
		widget  string
		selects []string
		format  string
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the dashboard state",
		Long:  "Prints every widget's configuration and data after the selection is applied.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateFormat(format)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			sel, err := parseSelection(selects)
			if err != nil {
				return err
			}
			d, err := openDashboard(cfg, log, sel)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if widget != "" {
				wd, err := d.Widget(widget)
				if err != nil {
					return err
				}
				if format == "text" {
					formatWidgetText(w, wd.Config())
					return nil
				}
				return writeJSON(w, wd.Config())
			}

			snap := d.Snapshot()
			if format == "text" {
				formatSnapshotText(w, snap)
				return nil
			}
			return writeJSON(w, snap)
		},
	}
	cmd.Flags().StringVar(&widget, "widget", "", "print only this widget: "+strings.Join(widgetIDs, "|"))
	cmd.Flags().StringArrayVar(&selects, "select", nil, "selection as dimension=value[,value] (repeatable)")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json|text")
	return cmd
}

// writeFile creates path and streams render into it.
func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// widgetIDs lists the dashboard's widgets for help text.
var widgetIDs = []string{
	dashboard.DisciplineSelector,
	dashboard.GenderBalance,
	dashboard.AverageSalary,
	dashboard.RankDistribution,
	dashboard.PercentWomenProfessors,
	dashboard.PercentMenProfessors,
	dashboard.ServiceSalary,
	dashboard.PhDSalary,
	dashboard.TopSalaries,
}

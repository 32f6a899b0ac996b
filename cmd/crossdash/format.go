package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/spektr-org/crossdash/chart"
	"github.com/spektr-org/crossdash/dashboard"
	"github.com/spektr-org/crossdash/engine"
	"github.com/spektr-org/crossdash/schema"
)

// validateFormat checks that the output format is supported.
func validateFormat(f string) error {
	switch f {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("invalid format %q: must be json or text", f)
	}
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// formatValue prints v with at most two decimals.
func formatValue(v float64) string {
	return strconv.FormatFloat(engine.RoundTo2(v), 'f', -1, 64)
}

// formatBucketsText formats buckets as aligned columns, each level of
// sub-groups indented under its parent.
func formatBucketsText(w io.Writer, buckets []engine.Bucket, aggregation string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "GROUP\tROWS\t%s\n", strings.ToUpper(engine.LabelForAggregation(aggregation)))
	writeBuckets(tw, buckets, "")
	tw.Flush()
}

func writeBuckets(w io.Writer, buckets []engine.Bucket, indent string) {
	for _, b := range buckets {
		fmt.Fprintf(w, "%s%s\t%d\t%s\n", indent, b.Label, b.Count, formatValue(b.Value))
		writeBuckets(w, b.SubGroups, indent+"  ")
	}
}

// formatSchemaText formats a schema as aligned columns.
func formatSchemaText(w io.Writer, sch schema.Config) {
	fmt.Fprintln(w, sch.Name)
	fmt.Fprintln(w, strings.Repeat("=", len(sch.Name)))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tROLE\tNAME\tDETAIL")
	for _, d := range sch.Dimensions {
		fmt.Fprintf(tw, "%s\tdimension\t%s\t%s\n", d.Key, d.DisplayName, strings.Join(d.SampleValues, ", "))
	}
	for _, m := range sch.Measures {
		fmt.Fprintf(tw, "%s\tmeasure\t%s\t%s\n", m.Key, m.DisplayName, m.Coerce)
	}
	for _, s := range sch.SkippedColumns {
		fmt.Fprintf(tw, "%s\tskipped\t\t%s\n", s.Column, s.Reason)
	}
	tw.Flush()
}

// formatSnapshotText prints a one-line summary per widget.
func formatSnapshotText(w io.Writer, snap dashboard.Snapshot) {
	fmt.Fprintf(w, "%s: %d of %d records visible\n\n", snap.Title, snap.Visible, snap.Records)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tFILTERS\tSUMMARY")
	for _, c := range snap.Widgets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Kind, strings.Join(c.Filters, ","), summarize(c))
	}
	tw.Flush()
}

// formatWidgetText prints the data of one widget.
func formatWidgetText(w io.Writer, c chart.Config) {
	fmt.Fprintf(w, "%s (%s)\n", c.Title, c.Kind)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	switch c.Kind {
	case chart.KindSelect:
		for _, o := range c.Options {
			mark := " "
			if o.Selected {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\n", mark, o.Key, o.Count)
		}
	case chart.KindNumber:
		fmt.Fprintln(tw, c.Display)
	case chart.KindTable:
		if c.Table == nil {
			return
		}
		labels := make([]string, len(c.Table.Columns))
		for i, col := range c.Table.Columns {
			labels[i] = strings.ToUpper(col.Label)
		}
		fmt.Fprintln(tw, strings.Join(labels, "\t"))
		for _, row := range c.Table.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
	case chart.KindScatter:
		fmt.Fprintln(tw, "SERIES\tX\tY\tCOUNT")
		for _, s := range c.Series {
			for _, p := range s.XY {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.Name, formatValue(p.X), formatValue(p.Y), p.Count)
			}
		}
	default:
		fmt.Fprintln(tw, "SERIES\tLABEL\tVALUE")
		for _, s := range c.Series {
			for _, p := range s.Points {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, p.Label, formatValue(p.Value))
			}
		}
	}
}

// summarize condenses a widget's data into one cell.
func summarize(c chart.Config) string {
	switch c.Kind {
	case chart.KindSelect:
		labels := make([]string, len(c.Options))
		for i, o := range c.Options {
			labels[i] = o.Label
		}
		return strings.Join(labels, "  ")
	case chart.KindNumber:
		return c.Display
	case chart.KindTable:
		if c.Table == nil {
			return ""
		}
		return fmt.Sprintf("%d rows", len(c.Table.Rows))
	case chart.KindScatter:
		n := 0
		for _, s := range c.Series {
			n += len(s.XY)
		}
		return fmt.Sprintf("%d points in %d series", n, len(c.Series))
	default:
		if len(c.Series) == 0 {
			return ""
		}
		parts := make([]string, 0, len(c.Series[0].Points))
		for _, p := range c.Series[0].Points {
			parts = append(parts, p.Label+"="+formatValue(p.Value))
		}
		if len(c.Series) > 1 {
			return fmt.Sprintf("%s (+%d layers)", strings.Join(parts, " "), len(c.Series)-1)
		}
		return strings.Join(parts, " ")
	}
}

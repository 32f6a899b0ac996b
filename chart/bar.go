package chart

import (
	"bytes"
	"fmt"
	"io"

	gochart "github.com/wcharczuk/go-chart/v2"
)

// ============================================================================
// BAR CHART — Ordinal x axis, optional stacked layers
// ============================================================================
// The base layer comes from the constructor; Stack adds layers on top. A
// stacked chart draws every bar at full height split by layer share, which
// suits percentage breakdowns.
// ============================================================================

const deselectedColor = "#CCCCCC"

// BarChart plots one bar per key.
type BarChart struct {
	id      string
	layers  []layer
	s       settings
	yMax    float64
	filters []string
}

type layer struct {
	name string
	src  Source
}

// NewBarChart creates a bar chart over src.
func NewBarChart(id string, src Source, opts ...Option) *BarChart {
	s := applyOptions(opts)
	name := s.seriesName
	if name == "" {
		name = "Value"
	}
	return &BarChart{
		id:     id,
		layers: []layer{{name: name, src: src}},
		s:      s,
	}
}

// Stack adds a layer drawn on top of the existing ones.
func (b *BarChart) Stack(name string, src Source) *BarChart {
	b.layers = append(b.layers, layer{name: name, src: src})
	return b
}

// ID returns the widget ID.
func (b *BarChart) ID() string { return b.id }

// Config returns a snapshot of the chart.
func (b *BarChart) Config() Config {
	cfg := b.s.baseConfig(b.id, KindBar)
	cfg.Stacked = len(b.layers) > 1
	cfg.Series = b.series()
	cfg.Filters = b.Filters()
	return cfg
}

func (b *BarChart) series() []Series {
	out := make([]Series, len(b.layers))
	for i, l := range b.layers {
		out[i] = Series{
			Name:   l.name,
			Color:  b.s.color(i, l.name),
			Points: l.src.Points(),
		}
	}
	return out
}

// Filter selects bars by label.
func (b *BarChart) Filter(values ...string) error {
	if b.s.selector == nil {
		return fmt.Errorf("%w: %s", ErrNotFilterable, b.id)
	}
	if len(values) == 0 {
		b.FilterAll()
		return nil
	}
	if err := b.s.selector.Select(values...); err != nil {
		return err
	}
	b.filters = append([]string(nil), values...)
	return nil
}

// FilterAll clears the selection.
func (b *BarChart) FilterAll() {
	if b.s.selector == nil {
		return
	}
	b.s.selector.Clear()
	b.filters = nil
}

// Filters returns the selected labels.
func (b *BarChart) Filters() []string {
	return append([]string(nil), b.filters...)
}

// axisMax returns the y axis maximum for data peaking at peak.
func (b *BarChart) axisMax(peak float64) float64 {
	if b.s.elasticY {
		return niceMax(peak)
	}
	if b.yMax == 0 {
		b.yMax = niceMax(peak)
	}
	return b.yMax
}

// barLayout fits n bars into the plot width.
func (b *BarChart) barLayout(n int) (width, spacing int) {
	avail := b.s.width - b.s.margins.Left - b.s.margins.Right
	slot := avail / n
	if slot < 2 {
		slot = 2
	}
	width = slot * 2 / 3
	if width > 50 {
		width = 50
	}
	if width < 1 {
		width = 1
	}
	spacing = slot - width
	if spacing < 1 {
		spacing = 1
	}
	return width, spacing
}

// Render writes the chart as an SVG figure.
func (b *BarChart) Render(w io.Writer) error {
	cfg := b.Config()
	if len(cfg.Series) == 0 || len(cfg.Series[0].Points) == 0 {
		return writeEmpty(w, cfg, b.s.xLabel)
	}

	var (
		svg bytes.Buffer
		err error
	)
	if cfg.Stacked {
		var ok bool
		ok, err = b.renderStacked(&svg, cfg.Series)
		if err == nil && !ok {
			return writeEmpty(w, cfg, b.s.xLabel)
		}
	} else {
		err = b.renderBars(&svg, cfg.Series[0])
	}
	if err != nil {
		return fmt.Errorf("render bar chart %s: %w", b.id, err)
	}
	return writeFigure(w, cfg, b.s.xLabel, svg.Bytes())
}

func (b *BarChart) renderBars(w io.Writer, s Series) error {
	selected := make(map[string]bool, len(b.filters))
	for _, f := range b.filters {
		selected[f] = true
	}

	var peak float64
	bars := make([]gochart.Value, 0, len(s.Points))
	for _, p := range s.Points {
		fill := s.Color
		if len(selected) > 0 && !selected[p.Label] {
			fill = deselectedColor
		}
		bars = append(bars, gochart.Value{
			Label: svgText(p.Label),
			Value: p.Value,
			Style: gochart.Style{FillColor: hexColor(fill), StrokeColor: hexColor(fill), StrokeWidth: 1},
		})
		if p.Value > peak {
			peak = p.Value
		}
	}

	top := b.axisMax(peak)
	width, spacing := b.barLayout(len(bars))
	bc := gochart.BarChart{
		Width:      b.s.width,
		Height:     b.s.height,
		Background: padding(b.s.margins),
		BarWidth:   width,
		BarSpacing: spacing,
		YAxis: gochart.YAxis{
			Name:  svgText(b.s.yLabel),
			Range: &gochart.ContinuousRange{Min: 0, Max: top},
			Ticks: ticks(0, top, b.s.yTicks),
		},
		Bars: bars,
	}
	return bc.Render(gochart.SVG, w)
}

// renderStacked draws one stacked bar per label. Labels whose layers sum to
// zero have no shares to draw and are left out; ok is false when none remain.
func (b *BarChart) renderStacked(w io.Writer, series []Series) (ok bool, err error) {
	var labels []string
	values := make(map[string][]float64)
	for i, s := range series {
		for _, p := range s.Points {
			if _, seen := values[p.Label]; !seen {
				labels = append(labels, p.Label)
				values[p.Label] = make([]float64, len(series))
			}
			values[p.Label][i] = p.Value
		}
	}

	width, spacing := b.barLayout(max(len(labels), 1))
	bars := make([]gochart.StackedBar, 0, len(labels))
	for _, label := range labels {
		var total float64
		segs := make([]gochart.Value, 0, len(series))
		for i, v := range values[label] {
			total += v
			segs = append(segs, gochart.Value{
				Label: svgText(series[i].Name),
				Value: v,
				Style: gochart.Style{FillColor: hexColor(series[i].Color), StrokeColor: hexColor(series[i].Color), StrokeWidth: 1},
			})
		}
		if total <= 0 {
			continue
		}
		bars = append(bars, gochart.StackedBar{Name: svgText(label), Width: width, Values: segs})
	}
	if len(bars) == 0 {
		return false, nil
	}

	sbc := gochart.StackedBarChart{
		Width:      b.s.width,
		Height:     b.s.height,
		Background: padding(b.s.margins),
		BarSpacing: spacing,
		Bars:       bars,
	}
	return true, sbc.Render(gochart.SVG, w)
}

package chart

import (
	"bytes"
	"fmt"
	"io"

	gochart "github.com/wcharczuk/go-chart/v2"
)

// ScatterPlot draws one dot per occupied coordinate, coloured by series.
// Coordinates emptied by filters disappear rather than sitting at zero.
type ScatterPlot struct {
	id  string
	src XYSource
	s   settings
}

// NewScatterPlot creates a scatter plot over src.
func NewScatterPlot(id string, src XYSource, opts ...Option) *ScatterPlot {
	return &ScatterPlot{id: id, src: src, s: applyOptions(opts)}
}

// ID returns the widget ID.
func (p *ScatterPlot) ID() string { return p.id }

// Config returns a snapshot of the plot.
func (p *ScatterPlot) Config() Config {
	cfg := p.s.baseConfig(p.id, KindScatter)
	series := p.src.XYSeries()
	for i := range series {
		series[i].Color = p.s.color(i, series[i].Name)
	}
	cfg.Series = series
	return cfg
}

// Render writes the plot as an SVG figure.
func (p *ScatterPlot) Render(w io.Writer) error {
	cfg := p.Config()

	var xs, ys []float64
	series := make([]gochart.Series, 0, len(cfg.Series))
	for _, s := range cfg.Series {
		sx := make([]float64, len(s.XY))
		sy := make([]float64, len(s.XY))
		for i, pt := range s.XY {
			sx[i], sy[i] = pt.X, pt.Y
		}
		xs = append(xs, sx...)
		ys = append(ys, sy...)

		col := hexColor(s.Color)
		series = append(series, gochart.ContinuousSeries{
			Name:    svgText(s.Name),
			XValues: sx,
			YValues: sy,
			Style: gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotWidth:    3,
				DotColor:    col,
				StrokeColor: col,
			},
		})
	}
	if len(xs) == 0 {
		return writeEmpty(w, cfg, p.s.xLabel)
	}

	xlo, xhi := bounds(xs)
	ylo, yhi := bounds(ys)
	ch := gochart.Chart{
		Width:      p.s.width,
		Height:     p.s.height,
		Background: padding(p.s.margins),
		XAxis: gochart.XAxis{
			Name:  svgText(p.s.xLabel),
			Range: &gochart.ContinuousRange{Min: xlo, Max: xhi},
		},
		YAxis: gochart.YAxis{
			Name:  svgText(p.s.yLabel),
			Range: &gochart.ContinuousRange{Min: ylo, Max: yhi},
			Ticks: ticks(ylo, yhi, p.s.yTicks),
		},
		Series: series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	var svg bytes.Buffer
	if err := ch.Render(gochart.SVG, &svg); err != nil {
		return fmt.Errorf("render scatter plot %s: %w", p.id, err)
	}
	return writeFigure(w, cfg, p.s.xLabel, svg.Bytes())
}

package chart

import (
	"bytes"
	"html"
	"html/template"
	"io"
	"math"
	"strconv"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ============================================================================
// RENDER HELPERS — HTML fragments, axis ranges and number formatting
// ============================================================================

var figureTmpl = template.Must(template.New("figure").Parse(
	`<figure class="widget {{.Kind}}" id="{{.ID}}" data-transition-ms="{{.TransitionMs}}">
{{- if .Title}}<h3>{{.Title}}</h3>{{end}}
{{.Body}}
{{- if .Caption}}<figcaption>{{.Caption}}</figcaption>{{end}}
</figure>
`))

type figure struct {
	ID           string
	Kind         Kind
	Title        string
	Caption      string
	TransitionMs int64
	Body         template.HTML
}

// writeFigure wraps a rendered body in the widget's figure element.
// body must already be safe HTML or SVG: go-chart writes text verbatim, so
// every string handed to it goes through svgText first.
func writeFigure(w io.Writer, cfg Config, caption string, body []byte) error {
	return figureTmpl.Execute(w, figure{
		ID:           cfg.ID,
		Kind:         cfg.Kind,
		Title:        cfg.Title,
		Caption:      caption,
		TransitionMs: cfg.TransitionMs,
		Body:         template.HTML(body), //nolint:gosec // html/template output or go-chart SVG with svgText labels
	})
}

var emptyTmpl = template.Must(template.New("empty").Parse(
	`<div class="empty" style="width:{{.Width}}px;height:{{.Height}}px">No data</div>`))

// writeEmpty renders the placeholder shown when there is nothing to plot.
func writeEmpty(w io.Writer, cfg Config, caption string) error {
	var body bytes.Buffer
	if err := emptyTmpl.Execute(&body, cfg); err != nil {
		return err
	}
	return writeFigure(w, cfg, caption, body.Bytes())
}

// svgText escapes s for a go-chart text node.
func svgText(s string) string { return html.EscapeString(s) }

func padding(m Margins) gochart.Style {
	return gochart.Style{Padding: gochart.Box{Top: m.Top, Left: m.Left, Right: m.Right, Bottom: m.Bottom}}
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// niceMax rounds v up to 1, 2 or 5 times a power of ten. Non-positive
// values give 1 so the axis range is never empty.
func niceMax(v float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(v)))
	for _, step := range []float64{1, 2, 5, 10} {
		if step*mag >= v {
			return step * mag
		}
	}
	return 10 * mag
}

// ticks splits [lo, hi] into n equal intervals.
func ticks(lo, hi float64, n int) []gochart.Tick {
	if n <= 0 || hi <= lo {
		return nil
	}
	out := make([]gochart.Tick, 0, n+1)
	step := (hi - lo) / float64(n)
	for i := 0; i <= n; i++ {
		v := lo + step*float64(i)
		out = append(out, gochart.Tick{Value: v, Label: formatTick(v)})
	}
	return out
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return formatNumber(v, 0)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// bounds returns a padded, non-empty range covering values.
func bounds(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 0) {
		return 0, 1
	}
	if hi == lo {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

var printer = message.NewPrinter(language.English)

// formatNumber formats v with thousands grouping and at most places decimals.
func formatNumber(v float64, places int) string {
	return printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(places)))
}

// formatValue formats v according to a widget format.
func formatValue(v float64, format string) string {
	switch format {
	case "percent":
		return printer.Sprintf("%v", number.Percent(v, number.MaxFractionDigits(1)))
	default:
		return formatNumber(v, 2)
	}
}

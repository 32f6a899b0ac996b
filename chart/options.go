package chart

import "time"

// ============================================================================
// WIDGET OPTIONS — Functional options shared by every widget
// ============================================================================

// Option configures a widget.
type Option func(*settings)

type settings struct {
	title      string
	width      int
	height     int
	margins    Margins
	transition time.Duration
	xLabel     string
	yLabel     string
	yTicks     int
	elasticY   bool
	seriesName string
	colors     []string
	colorMap   map[string]string
	format     string
	selector   Selector
	limit      int
}

// DefaultMargins are the margins used when none are given.
var DefaultMargins = Margins{Top: 10, Right: 50, Bottom: 30, Left: 50}

const (
	DefaultWidth      = 400
	DefaultHeight     = 300
	DefaultTransition = 500 * time.Millisecond
)

func applyOptions(opts []Option) settings {
	s := settings{
		width:      DefaultWidth,
		height:     DefaultHeight,
		margins:    DefaultMargins,
		transition: DefaultTransition,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithTitle sets the widget title.
func WithTitle(title string) Option {
	return func(s *settings) { s.title = title }
}

// WithSize sets width and height in pixels. Non-positive values are ignored.
func WithSize(width, height int) Option {
	return func(s *settings) {
		if width > 0 {
			s.width = width
		}
		if height > 0 {
			s.height = height
		}
	}
}

// WithMargins sets the chart margins.
func WithMargins(m Margins) Option {
	return func(s *settings) { s.margins = m }
}

// WithTransition sets the transition duration. It is reported in the
// widget config; static rendering does not animate.
func WithTransition(d time.Duration) Option {
	return func(s *settings) { s.transition = d }
}

// WithXAxisLabel sets the x axis label.
func WithXAxisLabel(label string) Option {
	return func(s *settings) { s.xLabel = label }
}

// WithYAxisLabel sets the y axis label.
func WithYAxisLabel(label string) Option {
	return func(s *settings) { s.yLabel = label }
}

// WithYTicks sets the number of y axis intervals.
func WithYTicks(n int) Option {
	return func(s *settings) { s.yTicks = n }
}

// WithElasticY rescales the y axis to the current data on every render.
// Without it the axis keeps the range of the first render.
func WithElasticY(elastic bool) Option {
	return func(s *settings) { s.elasticY = elastic }
}

// WithSeriesName names the base series.
func WithSeriesName(name string) Option {
	return func(s *settings) { s.seriesName = name }
}

// WithColors sets the series palette, in series order.
func WithColors(colors ...string) Option {
	return func(s *settings) { s.colors = colors }
}

// WithColorMap colours series by name, overriding the palette.
func WithColorMap(colors map[string]string) Option {
	return func(s *settings) { s.colorMap = colors }
}

// WithFormat sets the value format ("number" or "percent").
func WithFormat(format string) Option {
	return func(s *settings) { s.format = format }
}

// WithSelector makes a bar chart filterable through sel.
func WithSelector(sel Selector) Option {
	return func(s *settings) { s.selector = sel }
}

// WithLimit caps the number of table rows.
func WithLimit(n int) Option {
	return func(s *settings) { s.limit = n }
}

func (s settings) baseConfig(id string, kind Kind) Config {
	return Config{
		ID:           id,
		Kind:         kind,
		Title:        s.title,
		Width:        s.width,
		Height:       s.height,
		Margins:      s.margins,
		TransitionMs: s.transition.Milliseconds(),
		XAxisLabel:   s.xLabel,
		YAxisLabel:   s.yLabel,
		YTicks:       s.yTicks,
		ElasticY:     s.elasticY,
		Format:       s.format,
	}
}

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// color returns the colour of series i named name.
func (s settings) color(i int, name string) string {
	if c, ok := s.colorMap[name]; ok {
		return c
	}
	if len(s.colors) > 0 {
		return s.colors[i%len(s.colors)]
	}
	return defaultColors[i%len(defaultColors)]
}

// Package chart binds crossfilter groups to renderable dashboard widgets.
package chart

import (
	"errors"
	"io"
)

// ============================================================================
// CHART TYPES — Widget snapshots consumed by renderers and JSON output
// ============================================================================
// A widget reads its group or view on every Config/Render call, so the
// snapshot always reflects the current filters.
// ============================================================================

var (
	// ErrUnknownWidget is returned when no widget has the requested ID.
	ErrUnknownWidget = errors.New("chart: unknown widget")
	// ErrDuplicateWidget is returned when registering an ID twice.
	ErrDuplicateWidget = errors.New("chart: duplicate widget")
	// ErrNotFilterable is returned when filtering a widget without a selector.
	ErrNotFilterable = errors.New("chart: widget is not filterable")
)

// Kind names a widget type.
type Kind string

const (
	KindBar     Kind = "bar"
	KindSelect  Kind = "select"
	KindScatter Kind = "scatter"
	KindNumber  Kind = "number"
	KindTable   Kind = "table"
)

// Widget is a renderable dashboard element.
type Widget interface {
	ID() string
	Config() Config
	Render(w io.Writer) error
}

// Filterable is a widget whose selection filters the crossfilter.
type Filterable interface {
	Widget
	Filter(values ...string) error
	FilterAll()
	Filters() []string
}

// Margins are the chart paddings in pixels.
type Margins struct {
	Top    int `json:"top" yaml:"top"`
	Right  int `json:"right" yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
	Left   int `json:"left" yaml:"left"`
}

// Config is a point-in-time snapshot of a widget's settings and data.
type Config struct {
	ID           string         `json:"id"`
	Kind         Kind           `json:"kind"`
	Title        string         `json:"title,omitempty"`
	Width        int            `json:"width,omitempty"`
	Height       int            `json:"height,omitempty"`
	Margins      Margins        `json:"margins"`
	TransitionMs int64          `json:"transitionMs"`
	XAxisLabel   string         `json:"xAxisLabel,omitempty"`
	YAxisLabel   string         `json:"yAxisLabel,omitempty"`
	YTicks       int            `json:"yTicks,omitempty"`
	ElasticY     bool           `json:"elasticY,omitempty"`
	Stacked      bool           `json:"stacked,omitempty"`
	Format       string         `json:"format,omitempty"`
	Filters      []string       `json:"filters,omitempty"`
	Series       []Series       `json:"series,omitempty"`
	Options      []SelectOption `json:"options,omitempty"`
	Value        *float64       `json:"value,omitempty"`
	Display      string         `json:"display,omitempty"`
	Table        *TableData     `json:"table,omitempty"`
}

// Series is one named set of points.
type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color,omitempty"`
	Points []Point `json:"points,omitempty"`
	XY     []XY    `json:"xy,omitempty"`
}

// Point is an ordinal data point.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// XY is a scatter point; Count is the number of records at the coordinate.
type XY struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Count int     `json:"count"`
}

// SelectOption is one entry of a select menu.
type SelectOption struct {
	Key      string `json:"key"`
	Count    int    `json:"count"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// TableData is a tabular widget payload.
type TableData struct {
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column describes a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "right"
}

// Summary is the table's footer row.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

package chart

import (
	"fmt"
	"sort"

	"github.com/spektr-org/crossdash/engine"
)

// ============================================================================
// SOURCES — Adapters from crossfilter groups and dimensions to widgets
// ============================================================================

// Source yields ordinal points.
type Source interface {
	Points() []Point
}

// SourceFunc adapts a function to Source.
type SourceFunc func() []Point

// Points calls f.
func (f SourceFunc) Points() []Point { return f() }

// GroupSource reads every entry of g, labelling keys with label and
// extracting the plotted value with value. A nil label uses fmt.Sprint.
func GroupSource[T any, K comparable, V any](g *engine.Group[T, K, V], label func(K) string, value func(V) float64) Source {
	if label == nil {
		label = func(k K) string { return fmt.Sprint(k) }
	}
	return SourceFunc(func() []Point {
		all := g.All()
		points := make([]Point, len(all))
		for i, kv := range all {
			points[i] = Point{Label: label(kv.Key), Value: value(kv.Value)}
		}
		return points
	})
}

// CountSource reads a counting group keyed by strings.
func CountSource[T any](g *engine.Group[T, string, int]) Source {
	return GroupSource(g, nil, func(v int) float64 { return float64(v) })
}

// Selector applies a widget selection to a dimension.
type Selector interface {
	Select(values ...string) error
	Clear()
}

type dimensionSelector[T any] struct {
	dim *engine.Dimension[T, string]
}

// DimensionSelector filters d to the selected keys.
func DimensionSelector[T any](d *engine.Dimension[T, string]) Selector {
	return dimensionSelector[T]{dim: d}
}

func (s dimensionSelector[T]) Select(values ...string) error {
	if err := s.dim.Err(); err != nil {
		return err
	}
	s.dim.FilterIn(values...)
	return nil
}

func (s dimensionSelector[T]) Clear() { s.dim.FilterAll() }

// ============================================================================
// SCATTER SOURCES
// ============================================================================

// Coord is a scatter dimension key: a position plus the series it belongs to.
type Coord struct {
	X      float64
	Y      float64
	Series string
}

// CoordLess orders coordinates by X, then Y, then series.
func CoordLess(a, b Coord) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Series < b.Series
}

// XYSource yields scatter series.
type XYSource interface {
	XYSeries() []Series
}

type coordSource[T, V any] struct {
	group *engine.Group[T, Coord, V]
	count func(V) int
}

// CoordSource splits a coordinate group into series by Coord.Series.
// Coordinates whose count is zero are left out.
func CoordSource[T, V any](g *engine.Group[T, Coord, V], count func(V) int) XYSource {
	return coordSource[T, V]{group: g, count: count}
}

func (s coordSource[T, V]) XYSeries() []Series {
	bySeries := make(map[string][]XY)
	for _, kv := range s.group.All() {
		n := s.count(kv.Value)
		if n <= 0 {
			continue
		}
		bySeries[kv.Key.Series] = append(bySeries[kv.Key.Series], XY{X: kv.Key.X, Y: kv.Key.Y, Count: n})
	}

	names := make([]string, 0, len(bySeries))
	for name := range bySeries {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Series, len(names))
	for i, name := range names {
		out[i] = Series{Name: name, XY: bySeries[name]}
	}
	return out
}

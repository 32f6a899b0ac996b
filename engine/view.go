package engine

import (
	"maps"
	"slices"
)

// ============================================================================
// RECORD VIEW — Untyped, indexed read access to rows
// ============================================================================
// The batch pipeline and the table widget read rows through RecordView so
// the same code serves parsed CSVs and typed slices.
//
//   SliceView      — []Record from a schema-less CSV
//   DomainView[T]  — typed rows read through accessor functions
//   IndexView      — a subset of another view, by row index
// ============================================================================

// RecordView provides indexed access to a dataset. Out-of-range rows and
// unknown keys read as zero values.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	DimensionKeys() []string
	MeasureKeys() []string
}

// ============================================================================
// SLICE VIEW
// ============================================================================

// SliceView exposes []Record as a RecordView. Keys are the sorted union of
// every record's keys.
type SliceView struct {
	records []Record
	dimKeys []string
	mesKeys []string
}

// NewSliceView wraps records without copying them.
func NewSliceView(records []Record) RecordView {
	dims := make(map[string]struct{})
	meas := make(map[string]struct{})
	for _, r := range records {
		for k := range r.Dimensions {
			dims[k] = struct{}{}
		}
		for k := range r.Measures {
			meas[k] = struct{}{}
		}
	}
	return &SliceView{
		records: records,
		dimKeys: slices.Sorted(maps.Keys(dims)),
		mesKeys: slices.Sorted(maps.Keys(meas)),
	}
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.records) {
		return ""
	}
	return v.records[i].Dimensions[key]
}

func (v *SliceView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.records) {
		return 0
	}
	return v.records[i].Measures[key]
}

func (v *SliceView) DimensionKeys() []string { return v.dimKeys }
func (v *SliceView) MeasureKeys() []string   { return v.mesKeys }

// ============================================================================
// INDEX VIEW
// ============================================================================

// IndexView is a subset of a parent view. Row i reads the parent's row
// rows[i].
type IndexView struct {
	parent RecordView
	rows   []int
}

// Subset returns the rows of parent selected by keep, in order.
func Subset(parent RecordView, keep func(i int) bool) *IndexView {
	rows := make([]int, 0, parent.Len())
	for i := 0; i < parent.Len(); i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return &IndexView{parent: parent, rows: rows}
}

func (v *IndexView) Len() int { return len(v.rows) }

func (v *IndexView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.rows) {
		return ""
	}
	return v.parent.Dimension(v.rows[i], key)
}

func (v *IndexView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.rows) {
		return 0
	}
	return v.parent.Measure(v.rows[i], key)
}

func (v *IndexView) DimensionKeys() []string { return v.parent.DimensionKeys() }
func (v *IndexView) MeasureKeys() []string   { return v.parent.MeasureKeys() }

// ============================================================================
// DOMAIN VIEW
// ============================================================================
//
//	adapter := engine.NewDomainAdapter[Salary]().
//	    Dimension("sex", func(s Salary) string { return s.Sex }).
//	    Measure("salary", func(s Salary) float64 { return float64(s.Salary) })
//
//	top := adapter.Bind(salaryDim.Top(10))
//
// ============================================================================

type field[T, V any] struct {
	key string
	get func(T) V
}

// DomainAdapter describes how to read typed rows as a RecordView. Build it
// once and bind it to any number of slices.
type DomainAdapter[T any] struct {
	dims []field[T, string]
	meas []field[T, float64]
}

// NewDomainAdapter returns an adapter with no fields.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{}
}

// Dimension adds or replaces a dimension accessor. Keys keep the order of
// their first registration.
func (a *DomainAdapter[T]) Dimension(key string, fn func(T) string) *DomainAdapter[T] {
	a.dims = register(a.dims, key, fn)
	return a
}

// Measure adds or replaces a measure accessor.
func (a *DomainAdapter[T]) Measure(key string, fn func(T) float64) *DomainAdapter[T] {
	a.meas = register(a.meas, key, fn)
	return a
}

func register[T, V any](fields []field[T, V], key string, fn func(T) V) []field[T, V] {
	i := slices.IndexFunc(fields, func(f field[T, V]) bool { return f.key == key })
	if i >= 0 {
		fields[i].get = fn
		return fields
	}
	return append(fields, field[T, V]{key: key, get: fn})
}

// Bind returns a view over data. The slice is not copied.
func (a *DomainAdapter[T]) Bind(data []T) *DomainView[T] {
	v := &DomainView[T]{
		data: data,
		dims: make(map[string]func(T) string, len(a.dims)),
		meas: make(map[string]func(T) float64, len(a.meas)),
	}
	for _, f := range a.dims {
		v.dims[f.key] = f.get
		v.dimKeys = append(v.dimKeys, f.key)
	}
	for _, f := range a.meas {
		v.meas[f.key] = f.get
		v.mesKeys = append(v.mesKeys, f.key)
	}
	return v
}

// DomainView reads typed rows through the accessors of its adapter.
type DomainView[T any] struct {
	data    []T
	dims    map[string]func(T) string
	meas    map[string]func(T) float64
	dimKeys []string
	mesKeys []string
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) Dimension(i int, key string) string {
	fn, ok := v.dims[key]
	if !ok || i < 0 || i >= len(v.data) {
		return ""
	}
	return fn(v.data[i])
}

func (v *DomainView[T]) Measure(i int, key string) float64 {
	fn, ok := v.meas[key]
	if !ok || i < 0 || i >= len(v.data) {
		return 0
	}
	return fn(v.data[i])
}

func (v *DomainView[T]) DimensionKeys() []string { return v.dimKeys }
func (v *DomainView[T]) MeasureKeys() []string   { return v.mesKeys }

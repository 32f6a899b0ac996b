package engine

import (
	"cmp"
	"sort"
)

// ============================================================================
// DIMENSION — Keyed view over the crossfilter with one filter slot
// ============================================================================

// Dimension indexes every record by a key and holds at most one filter.
// Filtering a dimension affects every group except the dimension's own.
type Dimension[T any, K comparable] struct {
	cf       *Crossfilter[T]
	bit      uint64
	accessor func(T) K
	less     func(a, b K) bool
	keys     []K
	filter   func(K) bool
	groups   []observer[T]
	disposed bool
}

// NewDimension creates a dimension over naturally ordered keys.
func NewDimension[T any, K cmp.Ordered](cf *Crossfilter[T], accessor func(T) K) (*Dimension[T, K], error) {
	return NewDimensionFunc(cf, accessor, cmp.Less[K])
}

// NewDimensionFunc creates a dimension whose keys are ordered by less.
// Composite keys (e.g. scatter plot coordinates) use this.
func NewDimensionFunc[T any, K comparable](cf *Crossfilter[T], accessor func(T) K, less func(a, b K) bool) (*Dimension[T, K], error) {
	bit, err := cf.allocateBit()
	if err != nil {
		return nil, err
	}

	d := &Dimension[T, K]{
		cf:       cf,
		bit:      bit,
		accessor: accessor,
		less:     less,
		keys:     make([]K, 0, len(cf.records)),
	}
	for _, rec := range cf.records {
		d.keys = append(d.keys, accessor(rec))
	}
	cf.attachIndexer(d)
	return d, nil
}

func (d *Dimension[T, K]) filterBit() uint64 { return d.bit }

func (d *Dimension[T, K]) index(rec T) bool {
	k := d.accessor(rec)
	d.keys = append(d.keys, k)
	return d.filter != nil && !d.filter(k)
}

// ============================================================================
// FILTERS
// ============================================================================

// FilterExact keeps records whose key equals k.
func (d *Dimension[T, K]) FilterExact(k K) {
	d.apply(func(v K) bool { return v == k })
}

// FilterIn keeps records whose key is one of keys. No keys clears the filter.
func (d *Dimension[T, K]) FilterIn(keys ...K) {
	if len(keys) == 0 {
		d.FilterAll()
		return
	}
	set := make(map[K]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	d.apply(func(v K) bool { return set[v] })
}

// FilterRange keeps records with lo <= key < hi.
func (d *Dimension[T, K]) FilterRange(lo, hi K) {
	d.apply(func(v K) bool { return !d.less(v, lo) && d.less(v, hi) })
}

// FilterFunc keeps records whose key satisfies fn.
func (d *Dimension[T, K]) FilterFunc(fn func(K) bool) {
	d.apply(fn)
}

// FilterAll clears the filter.
func (d *Dimension[T, K]) FilterAll() {
	d.apply(nil)
}

// Err returns ErrDisposed once the dimension is disposed.
func (d *Dimension[T, K]) Err() error {
	if d.disposed {
		return ErrDisposed
	}
	return nil
}

// HasFilter reports whether a filter is set.
func (d *Dimension[T, K]) HasFilter() bool { return d.filter != nil }

func (d *Dimension[T, K]) apply(fn func(K) bool) {
	if d.disposed {
		return
	}
	if fn == nil && d.filter == nil {
		return
	}
	d.filter = fn
	for i, k := range d.keys {
		d.cf.setFailed(i, d.bit, fn != nil && !fn(k))
	}
}

// ============================================================================
// RECORD ACCESS
// ============================================================================

// Top returns up to n records passing all filters, in descending key order.
// n <= 0 returns all of them.
func (d *Dimension[T, K]) Top(n int) []T {
	return d.ordered(n, true)
}

// Bottom returns up to n records passing all filters, in ascending key order.
func (d *Dimension[T, K]) Bottom(n int) []T {
	return d.ordered(n, false)
}

func (d *Dimension[T, K]) ordered(n int, desc bool) []T {
	if d.disposed {
		return nil
	}
	idx := make([]int, 0, len(d.keys))
	for i := range d.keys {
		if d.cf.masks[i] == 0 {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if desc {
			return d.less(d.keys[idx[b]], d.keys[idx[a]])
		}
		return d.less(d.keys[idx[a]], d.keys[idx[b]])
	})
	if n > 0 && len(idx) > n {
		idx = idx[:n]
	}
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = d.cf.records[j]
	}
	return out
}

// Group returns a group counting records per key.
func (d *Dimension[T, K]) Group() *Group[T, K, int] {
	return ReduceGroup(d, CountReducer[T]())
}

// Dispose clears the filter, detaches the dimension's groups and releases
// its filter bit for reuse.
func (d *Dimension[T, K]) Dispose() {
	if d.disposed {
		return
	}
	d.FilterAll()
	for _, g := range d.groups {
		d.cf.detachObserver(g)
	}
	d.groups = nil
	d.cf.detachIndexer(d)
	d.keys = nil
	d.disposed = true
}

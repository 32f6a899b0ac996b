package engine

import (
	"sort"
)

// ============================================================================
// GROUP — Incrementally reduced key → value map over a dimension
// ============================================================================

// Reducer is an add/remove/initialise triplet. Add and Remove receive the
// current accumulator and a record and return the updated accumulator.
type Reducer[T, V any] struct {
	Add    func(p V, v T) V
	Remove func(p V, v T) V
	Init   func() V
}

// KeyValue is a single group entry.
type KeyValue[K comparable, V any] struct {
	Key   K `json:"key"`
	Value V `json:"value"`
}

// Group reduces the records of a dimension per key. It observes every
// filter except its own dimension's.
type Group[T any, K comparable, V any] struct {
	dim      *Dimension[T, K]
	reducer  Reducer[T, V]
	values   map[K]V
	keys     []K
	sorted   bool
	order    func(V) float64
	disposed bool
}

// ReduceGroup creates a group on d using reducer r.
func ReduceGroup[T any, K comparable, V any](d *Dimension[T, K], r Reducer[T, V]) *Group[T, K, V] {
	g := &Group[T, K, V]{
		dim:     d,
		reducer: r,
		values:  make(map[K]V),
	}
	if d.disposed {
		g.disposed = true
		return g
	}
	d.cf.attachObserver(g)
	d.groups = append(d.groups, g)
	return g
}

func (g *Group[T, K, V]) ownBit() uint64 { return g.dim.bit }

func (g *Group[T, K, V]) insert(i int, rec T, visible bool) {
	k := g.dim.keys[i]
	p, ok := g.values[k]
	if !ok {
		p = g.reducer.Init()
		g.keys = append(g.keys, k)
		g.sorted = false
	}
	if visible {
		p = g.reducer.Add(p, rec)
	}
	g.values[k] = p
}

func (g *Group[T, K, V]) add(i int, rec T) {
	k := g.dim.keys[i]
	g.values[k] = g.reducer.Add(g.values[k], rec)
}

func (g *Group[T, K, V]) remove(i int, rec T) {
	k := g.dim.keys[i]
	g.values[k] = g.reducer.Remove(g.values[k], rec)
}

func (g *Group[T, K, V]) sortKeys() {
	if g.sorted {
		return
	}
	less := g.dim.less
	sort.Slice(g.keys, func(a, b int) bool { return less(g.keys[a], g.keys[b]) })
	g.sorted = true
}

// All returns every key with its reduced value in ascending key order.
// Keys whose records are all filtered out are still present.
func (g *Group[T, K, V]) All() []KeyValue[K, V] {
	g.sortKeys()
	out := make([]KeyValue[K, V], len(g.keys))
	for i, k := range g.keys {
		out[i] = KeyValue[K, V]{Key: k, Value: g.values[k]}
	}
	return out
}

// Get returns the reduced value for k.
func (g *Group[T, K, V]) Get(k K) (V, bool) {
	v, ok := g.values[k]
	return v, ok
}

// Order sets the ranking used by Top.
func (g *Group[T, K, V]) Order(fn func(V) float64) *Group[T, K, V] {
	g.order = fn
	return g
}

// Top returns up to n entries with the highest order value. Ties keep key
// order. n <= 0 returns all entries.
func (g *Group[T, K, V]) Top(n int) []KeyValue[K, V] {
	all := g.All()
	order := g.order
	if order == nil {
		order = defaultOrder[V]
	}
	sort.SliceStable(all, func(a, b int) bool {
		return order(all[a].Value) > order(all[b].Value)
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// Size returns the number of distinct keys.
func (g *Group[T, K, V]) Size() int { return len(g.keys) }

// Dispose stops the group from receiving updates.
func (g *Group[T, K, V]) Dispose() {
	if g.disposed {
		return
	}
	g.dim.cf.detachObserver(g)
	for i, o := range g.dim.groups {
		if o == observer[T](g) {
			g.dim.groups = append(g.dim.groups[:i], g.dim.groups[i+1:]...)
			break
		}
	}
	g.disposed = true
}

// Err returns ErrDisposed once the group, or its dimension, is disposed.
func (g *Group[T, K, V]) Err() error {
	if g.disposed || g.dim.disposed {
		return ErrDisposed
	}
	return nil
}

// ============================================================================
// GROUP ALL — Single reduced value over every visible record
// ============================================================================

// GroupAll reduces all records passing every filter into one value.
type GroupAll[T, V any] struct {
	cf      *Crossfilter[T]
	reducer Reducer[T, V]
	value   V
}

// ReduceAll creates a GroupAll on cf using reducer r.
func ReduceAll[T, V any](cf *Crossfilter[T], r Reducer[T, V]) *GroupAll[T, V] {
	g := &GroupAll[T, V]{cf: cf, reducer: r, value: r.Init()}
	cf.attachObserver(g)
	return g
}

// GroupAll returns a GroupAll counting records that pass every filter.
func (cf *Crossfilter[T]) GroupAll() *GroupAll[T, int] {
	return ReduceAll(cf, CountReducer[T]())
}

func (g *GroupAll[T, V]) ownBit() uint64 { return 0 }

func (g *GroupAll[T, V]) insert(_ int, rec T, visible bool) {
	if visible {
		g.value = g.reducer.Add(g.value, rec)
	}
}

func (g *GroupAll[T, V]) add(_ int, rec T)    { g.value = g.reducer.Add(g.value, rec) }
func (g *GroupAll[T, V]) remove(_ int, rec T) { g.value = g.reducer.Remove(g.value, rec) }

// Value returns the current reduced value.
func (g *GroupAll[T, V]) Value() V { return g.value }

// Dispose stops the GroupAll from receiving updates.
func (g *GroupAll[T, V]) Dispose() { g.cf.detachObserver(g) }

// ============================================================================
// ORDERING
// ============================================================================

// Orderer is implemented by accumulators that rank themselves in Top.
type Orderer interface {
	OrderValue() float64
}

func defaultOrder[V any](v V) float64 {
	switch x := any(v).(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	case Orderer:
		return x.OrderValue()
	default:
		return 0
	}
}

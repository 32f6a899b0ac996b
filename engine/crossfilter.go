package engine

import (
	"errors"
	"math/bits"
	"slices"
)

// ============================================================================
// CROSSFILTER — Shared multidimensional index with incremental reduction
// ============================================================================
// Every record carries a filter bitmask: bit i is set when the record fails
// the filter of the dimension owning bit i. A group on dimension d sees a
// record when no bit other than d's is set. A filter change flips bits for
// one dimension only, so groups receive Add/Remove calls for exactly the
// records whose visibility changed.
//
// Not safe for concurrent use.
// ============================================================================

var (
	// ErrTooManyDimensions is returned when all 64 filter bits are in use.
	ErrTooManyDimensions = errors.New("crossfilter: too many dimensions")
	// ErrDisposed is returned by operations on a disposed dimension or group.
	ErrDisposed = errors.New("crossfilter: disposed")
)

// observer receives visibility changes for records. Groups implement it.
type observer[T any] interface {
	ownBit() uint64
	insert(index int, rec T, visible bool)
	add(index int, rec T)
	remove(index int, rec T)
}

// indexer maintains per-record state for a dimension. Dimensions implement it.
type indexer[T any] interface {
	filterBit() uint64
	index(rec T) (fails bool)
}

// Crossfilter indexes a dataset of T for filtering along many dimensions.
type Crossfilter[T any] struct {
	records   []T
	masks     []uint64
	used      uint64
	indexers  []indexer[T]
	observers []observer[T]
}

// New creates a Crossfilter over the given records.
func New[T any](records ...T) *Crossfilter[T] {
	cf := &Crossfilter[T]{}
	cf.Add(records...)
	return cf
}

// Add appends records to the index. Existing filters are applied to the new
// records and every group is updated.
func (cf *Crossfilter[T]) Add(records ...T) {
	for _, rec := range records {
		var mask uint64
		for _, ix := range cf.indexers {
			if ix.index(rec) {
				mask |= ix.filterBit()
			}
		}

		i := len(cf.records)
		cf.records = append(cf.records, rec)
		cf.masks = append(cf.masks, mask)

		for _, o := range cf.observers {
			o.insert(i, rec, mask&^o.ownBit() == 0)
		}
	}
}

// Size returns the number of records, ignoring filters.
func (cf *Crossfilter[T]) Size() int { return len(cf.records) }

// All returns a copy of every record, ignoring filters.
func (cf *Crossfilter[T]) All() []T { return slices.Clone(cf.records) }

// AllFiltered returns the records that pass every filter.
func (cf *Crossfilter[T]) AllFiltered() []T {
	out := make([]T, 0, len(cf.records))
	for i, rec := range cf.records {
		if cf.masks[i] == 0 {
			out = append(out, rec)
		}
	}
	return out
}

// Visible reports whether record i passes every filter.
func (cf *Crossfilter[T]) Visible(i int) bool {
	if i < 0 || i >= len(cf.masks) {
		return false
	}
	return cf.masks[i] == 0
}

// visibleTo reports whether record i is seen by an observer owning ignore.
func (cf *Crossfilter[T]) visibleTo(i int, ignore uint64) bool {
	return cf.masks[i]&^ignore == 0
}

// setFailed sets or clears bit for record i and notifies observers whose
// view of the record changed.
func (cf *Crossfilter[T]) setFailed(i int, bit uint64, failed bool) {
	old := cf.masks[i]
	next := old &^ bit
	if failed {
		next |= bit
	}
	if next == old {
		return
	}
	cf.masks[i] = next

	rec := cf.records[i]
	for _, o := range cf.observers {
		own := o.ownBit()
		was := old&^own == 0
		now := next&^own == 0
		switch {
		case was && !now:
			o.remove(i, rec)
		case !was && now:
			o.add(i, rec)
		}
	}
}

func (cf *Crossfilter[T]) allocateBit() (uint64, error) {
	if cf.used == ^uint64(0) {
		return 0, ErrTooManyDimensions
	}
	return 1 << bits.TrailingZeros64(^cf.used), nil
}

func (cf *Crossfilter[T]) attachIndexer(ix indexer[T]) {
	cf.used |= ix.filterBit()
	cf.indexers = append(cf.indexers, ix)
}

func (cf *Crossfilter[T]) detachIndexer(ix indexer[T]) {
	for i, existing := range cf.indexers {
		if existing == ix {
			cf.indexers = append(cf.indexers[:i], cf.indexers[i+1:]...)
			break
		}
	}
	cf.used &^= ix.filterBit()
}

// attachObserver registers o and replays every record into it.
func (cf *Crossfilter[T]) attachObserver(o observer[T]) {
	own := o.ownBit()
	for i, rec := range cf.records {
		o.insert(i, rec, cf.visibleTo(i, own))
	}
	cf.observers = append(cf.observers, o)
}

func (cf *Crossfilter[T]) detachObserver(o observer[T]) {
	for i, existing := range cf.observers {
		if existing == o {
			cf.observers = append(cf.observers[:i], cf.observers[i+1:]...)
			return
		}
	}
}

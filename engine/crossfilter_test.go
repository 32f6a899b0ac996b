package engine

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// CROSSFILTER TESTS
// ============================================================================

type prof struct {
	Rank   string
	Sex    string
	Salary int
}

var profs = []prof{
	{"Prof", "Male", 139750},
	{"Prof", "Male", 173200},
	{"AsstProf", "Male", 79750},
	{"Prof", "Female", 115000},
	{"AssocProf", "Female", 86100},
	{"AsstProf", "Female", 80225},
	{"AssocProf", "Male", 101000},
	{"Prof", "Male", 162200},
}

var profAdapter = NewDomainAdapter[prof]().
	Dimension("rank", func(p prof) string { return p.Rank }).
	Dimension("sex", func(p prof) string { return p.Sex }).
	Measure("salary", func(p prof) float64 { return float64(p.Salary) })

func bySex(p prof) string  { return p.Sex }
func byRank(p prof) string { return p.Rank }

func TestGroupCounts(t *testing.T) {
	cf := New(profs...)
	sex, err := NewDimension(cf, bySex)
	require.NoError(t, err)

	g := sex.Group()
	assert.Equal(t, []KeyValue[string, int]{{"Female", 3}, {"Male", 5}}, g.All())
	assert.Equal(t, 2, g.Size())
	assert.Equal(t, 8, cf.GroupAll().Value())
}

func TestGroupIgnoresOwnFilter(t *testing.T) {
	cf := New(profs...)
	sex, err := NewDimension(cf, bySex)
	require.NoError(t, err)
	rank, err := NewDimension(cf, byRank)
	require.NoError(t, err)

	sexCount := sex.Group()
	rankCount := rank.Group()
	all := cf.GroupAll()

	sex.FilterExact("Female")

	// The sex group still sees both sexes, the rank group only women.
	assert.Equal(t, []KeyValue[string, int]{{"Female", 3}, {"Male", 5}}, sexCount.All())
	assert.Equal(t, []KeyValue[string, int]{{"AssocProf", 1}, {"AsstProf", 1}, {"Prof", 1}}, rankCount.All())
	assert.Equal(t, 3, all.Value())

	rank.FilterExact("Prof")
	assert.Equal(t, []KeyValue[string, int]{{"Female", 1}, {"Male", 3}}, sexCount.All())
	assert.Equal(t, 1, all.Value())
	assert.Len(t, cf.AllFiltered(), 1)
}

func TestKeysPersistAfterFiltering(t *testing.T) {
	cf := New(profs...)
	sex, _ := NewDimension(cf, bySex)
	rank, _ := NewDimension(cf, byRank)
	rankCount := rank.Group()

	sex.FilterExact("Nobody")
	got := rankCount.All()
	require.Len(t, got, 3)
	for _, kv := range got {
		assert.Zero(t, kv.Value, kv.Key)
	}
}

func TestAddAfterFilter(t *testing.T) {
	cf := New(profs...)
	sex, _ := NewDimension(cf, bySex)
	rank, _ := NewDimension(cf, byRank)
	rankCount := rank.Group()
	all := cf.GroupAll()

	sex.FilterExact("Female")
	cf.Add(prof{"Lecturer", "Male", 60000}, prof{"Lecturer", "Female", 61000})

	v, ok := rankCount.Get("Lecturer")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 4, all.Value())
	assert.Equal(t, 10, cf.Size())

	sex.FilterAll()
	v, _ = rankCount.Get("Lecturer")
	assert.Equal(t, 2, v)
	assert.Equal(t, 10, all.Value())
}

func TestFilterVariants(t *testing.T) {
	cf := New(profs...)
	salary, err := NewDimension(cf, func(p prof) int { return p.Salary })
	require.NoError(t, err)
	rank, _ := NewDimension(cf, byRank)
	all := cf.GroupAll()

	salary.FilterRange(80225, 115000)
	assert.Equal(t, 3, all.Value(), "range is half-open")
	assert.True(t, salary.HasFilter())

	salary.FilterFunc(func(s int) bool { return s > 150000 })
	assert.Equal(t, 2, all.Value())

	salary.FilterAll()
	assert.False(t, salary.HasFilter())

	rank.FilterIn("AsstProf", "AssocProf")
	assert.Equal(t, 4, all.Value())

	rank.FilterIn()
	assert.False(t, rank.HasFilter())
	assert.Equal(t, len(profs), all.Value())
}

func TestTopBottom(t *testing.T) {
	cf := New(profs...)
	salary, _ := NewDimension(cf, func(p prof) int { return p.Salary })
	sex, _ := NewDimension(cf, bySex)

	top := salary.Top(2)
	require.Len(t, top, 2)
	assert.Equal(t, 173200, top[0].Salary)
	assert.Equal(t, 162200, top[1].Salary)

	bottom := salary.Bottom(1)
	require.Len(t, bottom, 1)
	assert.Equal(t, 79750, bottom[0].Salary)

	// Top honours every filter, including its own dimension's.
	sex.FilterExact("Female")
	top = salary.Top(0)
	require.Len(t, top, 3)
	assert.Equal(t, 115000, top[0].Salary)

	salary.FilterRange(0, 100000)
	assert.Len(t, salary.Top(10), 2)
}

func TestVisible(t *testing.T) {
	cf := New(profs...)
	sex, _ := NewDimension(cf, bySex)
	sex.FilterExact("Female")

	assert.False(t, cf.Visible(0))
	assert.True(t, cf.Visible(3))
	assert.False(t, cf.Visible(-1))
	assert.False(t, cf.Visible(100))
}

func TestAllReturnsCopy(t *testing.T) {
	cf := New(profs...)
	sex, _ := NewDimension(cf, bySex)
	sex.FilterExact("Female")

	all := cf.All()
	require.Len(t, all, len(profs))
	all[0].Sex = "Female"

	assert.Equal(t, "Male", cf.All()[0].Sex)
	assert.False(t, cf.Visible(0))
	assert.Len(t, sex.Top(0), 3)
}

func TestTooManyDimensions(t *testing.T) {
	cf := New(profs...)
	dims := make([]*Dimension[prof, string], 0, 64)
	for i := 0; i < 64; i++ {
		d, err := NewDimension(cf, bySex)
		require.NoError(t, err)
		dims = append(dims, d)
	}

	_, err := NewDimension(cf, bySex)
	assert.True(t, errors.Is(err, ErrTooManyDimensions))

	dims[10].Dispose()
	d, err := NewDimension(cf, byRank)
	require.NoError(t, err)
	assert.Equal(t, dims[10].bit, d.bit, "disposed bit is reused")
}

func TestDisposeDimension(t *testing.T) {
	cf := New(profs...)
	sex, _ := NewDimension(cf, bySex)
	rank, _ := NewDimension(cf, byRank)
	sexCount := sex.Group()
	rankCount := rank.Group()
	all := cf.GroupAll()

	sex.FilterExact("Female")
	sex.Dispose()

	assert.Equal(t, len(profs), all.Value(), "dispose clears the filter")
	v, _ := rankCount.Get("Prof")
	assert.Equal(t, 4, v)

	// Disposed dimensions ignore further filters and their groups stop updating.
	sex.FilterExact("Male")
	assert.Equal(t, len(profs), all.Value())
	assert.Nil(t, sex.Top(1))
	assert.True(t, errors.Is(sex.Err(), ErrDisposed))
	assert.True(t, errors.Is(sexCount.Err(), ErrDisposed))
	assert.NoError(t, rank.Err())
	assert.True(t, errors.Is(ReduceGroup(sex, CountReducer[prof]()).Err(), ErrDisposed))

	rank.FilterExact("Prof")
	assert.Equal(t, []KeyValue[string, int]{{"Female", 3}, {"Male", 5}}, sexCount.All())
}

func TestDisposeGroup(t *testing.T) {
	cf := New(profs...)
	sex, _ := NewDimension(cf, bySex)
	rank, _ := NewDimension(cf, byRank)
	g := rank.Group()
	g.Dispose()

	sex.FilterExact("Female")
	v, _ := g.Get("Prof")
	assert.Equal(t, 4, v, "disposed group is frozen")
	assert.Empty(t, rank.groups)
	assert.True(t, errors.Is(g.Err(), ErrDisposed))
	assert.NoError(t, rank.Group().Err())
}

// ============================================================================
// INCREMENTAL vs BATCH
// ============================================================================

// Random filter sequences must leave every group equal to a from-scratch
// batch reduction of the records visible to it.
func TestIncrementalMatchesBatch(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ranks := []string{"Prof", "AsstProf", "AssocProf"}
	sexes := []string{"Male", "Female"}

	data := make([]prof, 200)
	for i := range data {
		data[i] = prof{
			Rank:   ranks[rng.Intn(len(ranks))],
			Sex:    sexes[rng.Intn(len(sexes))],
			Salary: 50000 + rng.Intn(150000),
		}
	}

	cf := New(data...)
	sex, _ := NewDimension(cf, bySex)
	rank, _ := NewDimension(cf, byRank)
	salary, _ := NewDimension(cf, func(p prof) int { return p.Salary })

	avgBySex := ReduceGroup(sex, AverageOf(func(p prof) float64 { return float64(p.Salary) }))
	countByRank := rank.Group()
	total := ReduceAll(cf, SumOf(func(p prof) float64 { return float64(p.Salary) }))

	for step := 0; step < 50; step++ {
		switch rng.Intn(4) {
		case 0:
			sex.FilterExact(sexes[rng.Intn(len(sexes))])
		case 1:
			rank.FilterIn(ranks[rng.Intn(len(ranks))], ranks[rng.Intn(len(ranks))])
		case 2:
			lo := 50000 + rng.Intn(100000)
			salary.FilterRange(lo, lo+rng.Intn(80000))
		default:
			[]func(){sex.FilterAll, rank.FilterAll, salary.FilterAll}[rng.Intn(3)]()
		}

		// sex group: everything but the sex filter
		visible := batchVisible(data, sex, rank, salary, "sex")
		buckets := GroupAndAggregate(profAdapter.Bind(visible), []string{"sex"}, "salary", "avg", "", 0)
		want := make(map[string]float64)
		for _, b := range buckets {
			want[b.Key] = b.Value
		}
		for _, kv := range avgBySex.All() {
			assert.InDelta(t, want[kv.Key], kv.Value.Average, 1e-6, "step %d sex %s", step, kv.Key)
		}

		visible = batchVisible(data, sex, rank, salary, "rank")
		counts := make(map[string]int)
		for _, b := range GroupAndAggregate(profAdapter.Bind(visible), []string{"rank"}, "", "count", "", 0) {
			counts[b.Key] = b.Count
		}
		for _, kv := range countByRank.All() {
			assert.Equal(t, counts[kv.Key], kv.Value, "step %d rank %s", step, kv.Key)
		}

		filtered := cf.AllFiltered()
		assert.InDelta(t, SumMeasure(profAdapter.Bind(filtered), "salary"), total.Value(), 1e-6, "step %d total", step)
	}
}

// batchVisible recomputes from the dimensions' current filters which records
// a group on the named dimension should see.
func batchVisible(data []prof, sex, rank *Dimension[prof, string], salary *Dimension[prof, int], own string) []prof {
	var out []prof
	for _, p := range data {
		if own != "sex" && sex.filter != nil && !sex.filter(p.Sex) {
			continue
		}
		if own != "rank" && rank.filter != nil && !rank.filter(p.Rank) {
			continue
		}
		if salary.filter != nil && !salary.filter(p.Salary) {
			continue
		}
		out = append(out, p)
	}
	return out
}

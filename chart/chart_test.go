package chart

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spektr-org/crossdash/engine"
)

// ============================================================================
// FIXTURES
// ============================================================================

type staff struct {
	Team   string
	Level  string
	Years  int
	Pay    int
	Remote bool
}

var staffRows = []staff{
	{"Red", "Senior", 10, 120, false},
	{"Red", "Junior", 2, 60, true},
	{"Blue", "Senior", 12, 130, false},
	{"Blue", "Junior", 1, 55, false},
	{"Blue", "Junior", 3, 65, true},
}

type fixture struct {
	cf    *engine.Crossfilter[staff]
	team  *engine.Dimension[staff, string]
	level *engine.Dimension[staff, string]
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cf := engine.New(staffRows...)
	team, err := engine.NewDimension(cf, func(s staff) string { return s.Team })
	require.NoError(t, err)
	level, err := engine.NewDimension(cf, func(s staff) string { return s.Level })
	require.NoError(t, err)
	return fixture{cf: cf, team: team, level: level}
}

func render(t *testing.T, w Widget) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, w.Render(&buf))
	return buf.String()
}

// ============================================================================
// SOURCES
// ============================================================================

func TestGroupSource(t *testing.T) {
	f := newFixture(t)
	src := CountSource(f.team.Group())
	assert.Equal(t, []Point{{"Blue", 3}, {"Red", 2}}, src.Points())

	avg := engine.ReduceGroup(f.team, engine.AverageOf(func(s staff) float64 { return float64(s.Pay) }))
	src = GroupSource(avg, strings.ToUpper, func(v engine.Average) float64 { return engine.RoundTo2(v.Average) })
	assert.Equal(t, []Point{{"BLUE", 83.33}, {"RED", 90}}, src.Points())
}

func TestDimensionSelector(t *testing.T) {
	f := newFixture(t)
	levels := CountSource(f.level.Group())
	sel := DimensionSelector(f.team)

	require.NoError(t, sel.Select("Red"))
	assert.Equal(t, []Point{{"Junior", 1}, {"Senior", 1}}, levels.Points())

	sel.Clear()
	assert.Equal(t, []Point{{"Junior", 3}, {"Senior", 2}}, levels.Points())

	f.team.Dispose()
	assert.True(t, errors.Is(sel.Select("Red"), engine.ErrDisposed))
}

func TestCoordSourceHidesEmpty(t *testing.T) {
	f := newFixture(t)
	coords, err := engine.NewDimensionFunc(f.cf, func(s staff) Coord {
		return Coord{X: float64(s.Years), Y: float64(s.Pay), Series: s.Team}
	}, CoordLess)
	require.NoError(t, err)
	src := CoordSource(coords.Group(), func(n int) int { return n })

	series := src.XYSeries()
	require.Len(t, series, 2)
	assert.Equal(t, "Blue", series[0].Name)
	assert.Equal(t, []XY{{1, 55, 1}, {3, 65, 1}, {12, 130, 1}}, series[0].XY)

	f.level.FilterExact("Senior")
	series = src.XYSeries()
	require.Len(t, series, 2)
	assert.Equal(t, []XY{{12, 130, 1}}, series[0].XY)
	assert.Equal(t, []XY{{10, 120, 1}}, series[1].XY)

	f.team.FilterExact("Nobody")
	assert.Empty(t, src.XYSeries())
}

func TestCoordLess(t *testing.T) {
	assert.True(t, CoordLess(Coord{X: 1, Y: 5}, Coord{X: 2, Y: 0}))
	assert.True(t, CoordLess(Coord{X: 1, Y: 1}, Coord{X: 1, Y: 2}))
	assert.True(t, CoordLess(Coord{X: 1, Y: 1, Series: "A"}, Coord{X: 1, Y: 1, Series: "B"}))
	assert.False(t, CoordLess(Coord{X: 1, Y: 1}, Coord{X: 1, Y: 1}))
}

// ============================================================================
// BAR CHART
// ============================================================================

func TestBarChartConfigDefaults(t *testing.T) {
	f := newFixture(t)
	bar := NewBarChart("teams", CountSource(f.team.Group()), WithXAxisLabel("Team"), WithYTicks(5))

	cfg := bar.Config()
	assert.Equal(t, KindBar, cfg.Kind)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
	assert.Equal(t, Margins{Top: 10, Right: 50, Bottom: 30, Left: 50}, cfg.Margins)
	assert.Equal(t, int64(500), cfg.TransitionMs)
	assert.Equal(t, "Team", cfg.XAxisLabel)
	assert.Equal(t, 5, cfg.YTicks)
	assert.False(t, cfg.Stacked)
	require.Len(t, cfg.Series, 1)
	assert.Equal(t, "Value", cfg.Series[0].Name)
	assert.Equal(t, "#4F46E5", cfg.Series[0].Color)
}

func TestBarChartRender(t *testing.T) {
	f := newFixture(t)
	bar := NewBarChart("teams", CountSource(f.team.Group()),
		WithTitle("Teams"), WithXAxisLabel("Team"), WithSize(500, 0), WithTransition(250*time.Millisecond))

	out := render(t, bar)
	assert.Contains(t, out, `id="teams"`)
	assert.Contains(t, out, `data-transition-ms="250"`)
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "<h3>Teams</h3>")
	assert.Contains(t, out, "<figcaption>Team</figcaption>")
	assert.Equal(t, 500, bar.Config().Width)
}

func TestBarChartFilter(t *testing.T) {
	f := newFixture(t)
	levels := CountSource(f.level.Group())

	plain := NewBarChart("plain", CountSource(f.team.Group()))
	err := plain.Filter("Red")
	assert.True(t, errors.Is(err, ErrNotFilterable))

	bar := NewBarChart("teams", CountSource(f.team.Group()), WithSelector(DimensionSelector(f.team)))
	require.NoError(t, bar.Filter("Red"))
	assert.Equal(t, []string{"Red"}, bar.Filters())
	assert.Equal(t, []string{"Red"}, bar.Config().Filters)
	assert.Equal(t, []Point{{"Junior", 1}, {"Senior", 1}}, levels.Points())

	// Own group still shows every team.
	assert.Equal(t, []Point{{"Blue", 3}, {"Red", 2}}, bar.Config().Series[0].Points)
	assert.Contains(t, render(t, bar), "<svg")

	require.NoError(t, bar.Filter())
	assert.Empty(t, bar.Filters())
	assert.Equal(t, []Point{{"Junior", 3}, {"Senior", 2}}, levels.Points())
}

func TestBarChartAxis(t *testing.T) {
	f := newFixture(t)
	fixed := NewBarChart("fixed", CountSource(f.level.Group()))
	elastic := NewBarChart("elastic", CountSource(f.level.Group()), WithElasticY(true))

	render(t, fixed)
	assert.Equal(t, 5.0, fixed.yMax)

	f.team.FilterExact("Red")
	render(t, fixed)
	render(t, elastic)
	assert.Equal(t, 5.0, fixed.yMax, "non-elastic axis keeps its first range")
	assert.Equal(t, 1.0, elastic.axisMax(1))
}

func TestBarChartStacked(t *testing.T) {
	f := newFixture(t)
	share := func(level string) Source {
		g := engine.ReduceGroup(f.team, engine.MatchOf(func(s staff) bool { return s.Level == level }))
		return GroupSource(g, nil, func(r engine.Ratio) float64 { return r.Fraction() })
	}
	bar := NewBarChart("levels", share("Senior"), WithSeriesName("Senior")).
		Stack("Junior", share("Junior"))

	cfg := bar.Config()
	assert.True(t, cfg.Stacked)
	require.Len(t, cfg.Series, 2)
	assert.Equal(t, "Junior", cfg.Series[1].Name)
	assert.Equal(t, []Point{{"Blue", 1.0 / 3}, {"Red", 0.5}}, cfg.Series[0].Points)
	assert.Contains(t, render(t, bar), "<svg")

	f.level.FilterExact("Nobody")
	out := render(t, bar)
	assert.Contains(t, out, "No data")
	assert.NotContains(t, out, "<svg")
}

func TestRenderEscapesLabels(t *testing.T) {
	const label = "<script>alert(1)</script>"
	cf := engine.New(
		staff{Team: label, Level: "Senior", Years: 4, Pay: 90},
		staff{Team: "Ops", Level: "Junior", Years: 1, Pay: 50},
	)
	team, err := engine.NewDimension(cf, func(s staff) string { return s.Team })
	require.NoError(t, err)
	coords, err := engine.NewDimensionFunc(cf, func(s staff) Coord {
		return Coord{X: float64(s.Years), Y: float64(s.Pay), Series: s.Team}
	}, CoordLess)
	require.NoError(t, err)
	senior := engine.ReduceGroup(team, engine.MatchOf(func(s staff) bool { return s.Level == "Senior" }))

	widgets := []Widget{
		NewBarChart("teams", CountSource(team.Group()), WithYAxisLabel(label)),
		NewBarChart("stacked", GroupSource(senior, nil, func(r engine.Ratio) float64 { return r.Fraction() })).
			Stack(label, GroupSource(senior, nil, func(r engine.Ratio) float64 { return 1 - r.Fraction() })),
		NewScatterPlot("coords", CoordSource(coords.Group(), func(n int) int { return n }), WithXAxisLabel(label)),
	}
	for _, w := range widgets {
		t.Run(w.ID(), func(t *testing.T) {
			out := render(t, w)
			assert.Contains(t, out, "<svg")
			assert.NotContains(t, out, "<script>")
		})
	}
	assert.Contains(t, render(t, widgets[0]), "&lt;script&gt;")
}

func TestBarChartEmpty(t *testing.T) {
	bar := NewBarChart("empty", SourceFunc(func() []Point { return nil }))
	out := render(t, bar)
	assert.Contains(t, out, "No data")
	assert.Contains(t, out, "width:400px")
}

// ============================================================================
// OTHER WIDGETS
// ============================================================================

func TestSelectMenu(t *testing.T) {
	f := newFixture(t)
	levels := CountSource(f.level.Group())
	menu := NewSelectMenu("team-selector", CountSource(f.team.Group()), DimensionSelector(f.team))

	cfg := menu.Config()
	assert.Equal(t, KindSelect, cfg.Kind)
	assert.Equal(t, []SelectOption{
		{Key: "Blue", Count: 3, Label: "Blue: 3"},
		{Key: "Red", Count: 2, Label: "Red: 2"},
	}, cfg.Options)

	out := render(t, menu)
	assert.Contains(t, out, `<option value="" selected>Select all</option>`)
	assert.Contains(t, out, "Red: 2")

	require.NoError(t, menu.Filter("Blue"))
	assert.True(t, menu.Config().Options[0].Selected)
	assert.Equal(t, []Point{{"Junior", 2}, {"Senior", 1}}, levels.Points())
	assert.Contains(t, render(t, menu), `<option value="Blue" selected>`)

	menu.FilterAll()
	assert.Empty(t, menu.Filters())
	assert.Equal(t, []Point{{"Junior", 3}, {"Senior", 2}}, levels.Points())
}

func TestScatterPlot(t *testing.T) {
	f := newFixture(t)
	coords, err := engine.NewDimensionFunc(f.cf, func(s staff) Coord {
		return Coord{X: float64(s.Years), Y: float64(s.Pay), Series: s.Team}
	}, CoordLess)
	require.NoError(t, err)

	plot := NewScatterPlot("years-pay", CoordSource(coords.Group(), func(n int) int { return n }),
		WithColorMap(map[string]string{"Red": "#EF4444"}), WithXAxisLabel("Years"), WithYAxisLabel("Pay"))

	cfg := plot.Config()
	assert.Equal(t, KindScatter, cfg.Kind)
	require.Len(t, cfg.Series, 2)
	assert.Equal(t, "#4F46E5", cfg.Series[0].Color)
	assert.Equal(t, "#EF4444", cfg.Series[1].Color)
	assert.Contains(t, render(t, plot), "<svg")

	f.team.FilterExact("Red")
	f.level.FilterExact("Junior")
	assert.Contains(t, render(t, plot), "<svg", "single point still renders")

	f.level.FilterExact("Nobody")
	assert.Contains(t, render(t, plot), "No data")
}

func TestNumberDisplay(t *testing.T) {
	f := newFixture(t)
	remote := engine.ReduceAll(f.cf, engine.MatchOf(func(s staff) bool { return s.Remote }))
	pct := NewNumberDisplay("remote-share", func() float64 { return remote.Value().Fraction() }, WithFormat("percent"))

	cfg := pct.Config()
	require.NotNil(t, cfg.Value)
	assert.Equal(t, 0.4, *cfg.Value)
	assert.Equal(t, "40%", cfg.Display)
	assert.Contains(t, render(t, pct), `<span class="number-display">40%</span>`)

	f.team.FilterExact("Nobody")
	assert.Equal(t, "0%", pct.Config().Display)

	total := NewNumberDisplay("payroll", func() float64 { return 139750 })
	assert.Equal(t, "139,750", total.Config().Display)
	assert.Equal(t, "number", total.Config().Format)
}

func TestDataTable(t *testing.T) {
	f := newFixture(t)
	pay, err := engine.NewDimension(f.cf, func(s staff) int { return s.Pay })
	require.NoError(t, err)
	adapter := engine.NewDomainAdapter[staff]().
		Dimension("team", func(s staff) string { return s.Team }).
		Measure("pay", func(s staff) float64 { return float64(s.Pay) })

	table := NewDataTable("top-pay", func() engine.RecordView { return adapter.Bind(pay.Top(0)) },
		[]string{"pay"}, WithLimit(2))

	data := table.Config().Table
	require.NotNil(t, data)
	assert.Equal(t, []Column{
		{Key: "team", Label: "Team", Type: "text", Align: "left"},
		{Key: "pay", Label: "Pay", Type: "number", Align: "right"},
	}, data.Columns)
	assert.Equal(t, [][]string{{"Blue", "130"}, {"Red", "120"}}, data.Rows)
	require.NotNil(t, data.Summary)
	assert.Equal(t, "Average (2 records)", data.Summary.Label)
	assert.Equal(t, "125", data.Summary.Values["pay"])

	out := render(t, table)
	assert.Contains(t, out, `<td class="left">Blue</td>`)
	assert.Contains(t, out, `<td class="right">130</td>`)
	assert.Contains(t, out, `<td class="right">125</td>`)
	assert.Contains(t, out, "Average (2 records)")

	f.team.FilterExact("Nobody")
	assert.Contains(t, render(t, table), "No data")
}

// ============================================================================
// REGISTRY
// ============================================================================

func TestRegistry(t *testing.T) {
	f := newFixture(t)
	reg := NewRegistry(zaptest.NewLogger(t))

	menu := NewSelectMenu("team-selector", CountSource(f.team.Group()), DimensionSelector(f.team))
	bar := NewBarChart("levels", CountSource(f.level.Group()), WithSelector(DimensionSelector(f.level)))
	count := f.cf.GroupAll()
	num := NewNumberDisplay("count", func() float64 { return float64(count.Value()) })

	require.NoError(t, reg.Register(menu))
	require.NoError(t, reg.Register(bar))
	require.NoError(t, reg.Register(num))

	err := reg.Register(NewBarChart("levels", CountSource(f.level.Group())))
	assert.True(t, errors.Is(err, ErrDuplicateWidget))

	_, err = reg.Widget("missing")
	assert.True(t, errors.Is(err, ErrUnknownWidget))
	assert.True(t, errors.Is(reg.Filter("missing", "x"), ErrUnknownWidget))
	assert.True(t, errors.Is(reg.Filter("count", "x"), ErrNotFilterable))

	require.NoError(t, reg.Filter("team-selector", "Red"))
	require.NoError(t, reg.Filter("levels", "Senior"))
	assert.Equal(t, 1, count.Value())

	configs := reg.Configs()
	require.Len(t, configs, 3)
	assert.Equal(t, "team-selector", configs[0].ID)
	assert.Equal(t, "levels", configs[1].ID)
	assert.Equal(t, 1.0, *configs[2].Value)

	var page bytes.Buffer
	require.NoError(t, reg.RenderAll(&page, "Staff"))
	out := page.String()
	assert.Contains(t, out, "<title>Staff</title>")
	first := strings.Index(out, `id="team-selector"`)
	second := strings.Index(out, `id="levels"`)
	third := strings.Index(out, `id="count"`)
	assert.True(t, first >= 0 && first < second && second < third, "widgets render in registration order")

	reg.FilterAll()
	assert.Equal(t, len(staffRows), count.Value())
	assert.Empty(t, bar.Filters())
}

// ============================================================================
// HELPERS
// ============================================================================

func TestNiceMax(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 1},
		{-3, 1},
		{1, 1},
		{3, 5},
		{22, 50},
		{120, 200},
		{101234.5, 200000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, niceMax(tt.in), "niceMax(%v)", tt.in)
	}
}

func TestTicksAndBounds(t *testing.T) {
	tk := ticks(0, 20, 4)
	require.Len(t, tk, 5)
	assert.Equal(t, 15.0, tk[3].Value)
	assert.Equal(t, "15", tk[3].Label)
	assert.Nil(t, ticks(0, 0, 4))
	assert.Nil(t, ticks(0, 10, 0))

	lo, hi := bounds([]float64{5})
	assert.Equal(t, 4.0, lo)
	assert.Equal(t, 6.0, hi)
	lo, hi = bounds(nil)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
	lo, hi = bounds([]float64{0, 100})
	assert.Equal(t, -5.0, lo)
	assert.Equal(t, 105.0, hi)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "25%", formatValue(0.25, "percent"))
	assert.Equal(t, "1,234.5", formatValue(1234.5, "number"))
	assert.Equal(t, "2,000,000", formatNumber(2e6, 0))
}

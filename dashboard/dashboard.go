// Package dashboard assembles the salaries dashboard: one crossfilter over
// the dataset and the widgets bound to it.
package dashboard

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spektr-org/crossdash/chart"
	"github.com/spektr-org/crossdash/config"
	"github.com/spektr-org/crossdash/dataset"
	"github.com/spektr-org/crossdash/engine"
)

// Widget IDs in render order.
const (
	DisciplineSelector     = "discipline-selector"
	GenderBalance          = "gender-balance"
	AverageSalary          = "average-salary"
	RankDistribution       = "rank-distribution"
	PercentWomenProfessors = "percent-women-professors"
	PercentMenProfessors   = "percent-men-professors"
	ServiceSalary          = "service-salary"
	PhDSalary              = "phd-salary"
	TopSalaries            = "top-salaries"
)

// Ranks in stacking order.
var Ranks = []string{"Prof", "AsstProf", "AssocProf"}

// ErrUnknownDimension is returned when a selection names a dimension no
// widget filters.
var ErrUnknownDimension = errors.New("dashboard: no widget filters dimension")

// selectionWidgets maps dataset dimensions to the widget that filters them.
var selectionWidgets = map[string]string{
	"discipline": DisciplineSelector,
	"sex":        GenderBalance,
}

var sexColors = map[string]string{
	"Female": "#EC4899",
	"Male":   "#4F46E5",
}

// Dashboard is the salaries dashboard.
type Dashboard struct {
	cfg config.Config
	log *zap.Logger
	cf  *engine.Crossfilter[dataset.Salary]
	all *engine.GroupAll[dataset.Salary, int]
	reg *chart.Registry
}

type builder struct {
	id   string
	make func(d *Dashboard, opts []chart.Option) (chart.Widget, error)
}

// New indexes rows and registers every widget.
func New(rows []dataset.Salary, cfg config.Config, log *zap.Logger) (*Dashboard, error) {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dashboard{
		cfg: cfg,
		log: log,
		cf:  engine.New(rows...),
		reg: chart.NewRegistry(log),
	}
	d.all = d.cf.GroupAll()
	builders := []builder{
		{DisciplineSelector, (*Dashboard).disciplineSelector},
		{GenderBalance, (*Dashboard).genderBalance},
		{AverageSalary, (*Dashboard).averageSalary},
		{RankDistribution, (*Dashboard).rankDistribution},
		{PercentWomenProfessors, professorShare(PercentWomenProfessors, "Percentage of Women Professors", "Female")},
		{PercentMenProfessors, professorShare(PercentMenProfessors, "Percentage of Men Professors", "Male")},
		{ServiceSalary, scatter(ServiceSalary, "Years of Service vs Salary", "Years Of Service",
			func(s dataset.Salary) int { return s.YrsService })},
		{PhDSalary, scatter(PhDSalary, "Years Since PhD vs Salary", "Years Since PhD",
			func(s dataset.Salary) int { return s.YrsSincePhD })},
		{TopSalaries, (*Dashboard).topSalaries},
	}

	known := make(map[string]bool, len(builders))
	for _, b := range builders {
		known[b.id] = true
		w, err := b.make(d, cfg.Chart(b.id).Options())
		if err != nil {
			return nil, fmt.Errorf("failed to build %s: %w", b.id, err)
		}
		if err := d.reg.Register(w); err != nil {
			return nil, err
		}
	}
	for id := range cfg.Charts {
		if !known[id] {
			log.Warn("config names unknown chart", zap.String("id", id))
		}
	}

	if !cfg.Selection.IsEmpty() {
		if err := d.ApplySelection(cfg.Selection); err != nil {
			return nil, err
		}
	}

	log.Info("dashboard ready",
		zap.Int("records", d.cf.Size()),
		zap.Int("widgets", len(builders)))
	return d, nil
}

// ============================================================================
// WIDGETS
// ============================================================================

// withDefaults puts widget defaults ahead of configured options so the
// configuration wins.
func withDefaults(opts []chart.Option, defaults ...chart.Option) []chart.Option {
	return append(defaults, opts...)
}

func (d *Dashboard) sexDimension() (*engine.Dimension[dataset.Salary, string], error) {
	return engine.NewDimension(d.cf, func(s dataset.Salary) string { return s.Sex })
}

func (d *Dashboard) disciplineSelector(opts []chart.Option) (chart.Widget, error) {
	dim, err := engine.NewDimension(d.cf, func(s dataset.Salary) string { return s.Discipline })
	if err != nil {
		return nil, err
	}
	return chart.NewSelectMenu(DisciplineSelector, chart.CountSource(dim.Group()), chart.DimensionSelector(dim),
		withDefaults(opts, chart.WithTitle("Discipline"))...), nil
}

func (d *Dashboard) genderBalance(opts []chart.Option) (chart.Widget, error) {
	dim, err := d.sexDimension()
	if err != nil {
		return nil, err
	}
	return chart.NewBarChart(GenderBalance, chart.CountSource(dim.Group()), withDefaults(opts,
		chart.WithTitle("Gender Balance"),
		chart.WithXAxisLabel("Gender"),
		chart.WithSeriesName("Count"),
		chart.WithYTicks(20),
		chart.WithSelector(chart.DimensionSelector(dim)),
	)...), nil
}

func (d *Dashboard) averageSalary(opts []chart.Option) (chart.Widget, error) {
	dim, err := d.sexDimension()
	if err != nil {
		return nil, err
	}
	avg := engine.ReduceGroup(dim, engine.AverageOf(func(s dataset.Salary) float64 { return float64(s.Salary) }))
	src := chart.GroupSource(avg, nil, func(v engine.Average) float64 { return engine.RoundTo2(v.Average) })
	return chart.NewBarChart(AverageSalary, src, withDefaults(opts,
		chart.WithTitle("Average Salary"),
		chart.WithXAxisLabel("Gender"),
		chart.WithSeriesName("Average"),
		chart.WithElasticY(true),
		chart.WithYTicks(4),
		chart.WithSelector(chart.DimensionSelector(dim)),
	)...), nil
}

func (d *Dashboard) rankDistribution(opts []chart.Option) (chart.Widget, error) {
	dim, err := d.sexDimension()
	if err != nil {
		return nil, err
	}
	share := func(rank string) chart.Source {
		g := engine.ReduceGroup(dim, engine.MatchOf(func(s dataset.Salary) bool { return s.Rank == rank }))
		return chart.GroupSource(g, nil, func(r engine.Ratio) float64 { return r.Fraction() })
	}

	bar := chart.NewBarChart(RankDistribution, share(Ranks[0]), withDefaults(opts,
		chart.WithTitle("Rank Distribution"),
		chart.WithXAxisLabel("Gender"),
		chart.WithYAxisLabel("%"),
		chart.WithSeriesName(Ranks[0]),
		chart.WithSelector(chart.DimensionSelector(dim)),
	)...)
	for _, rank := range Ranks[1:] {
		bar.Stack(rank, share(rank))
	}
	return bar, nil
}

// professorShare builds a display of the share of one sex holding the
// Prof rank.
func professorShare(id, title, sex string) func(*Dashboard, []chart.Option) (chart.Widget, error) {
	return func(d *Dashboard, opts []chart.Option) (chart.Widget, error) {
		ratio := engine.ReduceAll(d.cf, engine.RatioOf(
			func(s dataset.Salary) bool { return s.Sex == sex },
			func(s dataset.Salary) bool { return s.Rank == "Prof" },
		))
		return chart.NewNumberDisplay(id, func() float64 { return ratio.Value().Fraction() }, withDefaults(opts,
			chart.WithTitle(title),
			chart.WithFormat("percent"),
		)...), nil
	}
}

// scatter builds a salary scatter plot against x, coloured by sex.
func scatter(id, title, xLabel string, x func(dataset.Salary) int) func(*Dashboard, []chart.Option) (chart.Widget, error) {
	return func(d *Dashboard, opts []chart.Option) (chart.Widget, error) {
		dim, err := engine.NewDimensionFunc(d.cf, func(s dataset.Salary) chart.Coord {
			return chart.Coord{X: float64(x(s)), Y: float64(s.Salary), Series: s.Sex}
		}, chart.CoordLess)
		if err != nil {
			return nil, err
		}
		src := chart.CoordSource(dim.Group(), func(n int) int { return n })
		return chart.NewScatterPlot(id, src, withDefaults(opts,
			chart.WithTitle(title),
			chart.WithXAxisLabel(xLabel),
			chart.WithYAxisLabel("Salary"),
			chart.WithColorMap(sexColors),
		)...), nil
	}
}

func (d *Dashboard) topSalaries(opts []chart.Option) (chart.Widget, error) {
	dim, err := engine.NewDimension(d.cf, func(s dataset.Salary) int { return s.Salary })
	if err != nil {
		return nil, err
	}
	view := func() engine.RecordView { return dataset.Adapter.Bind(dim.Top(10)) }
	return chart.NewDataTable(TopSalaries, view, []string{"salary", "yrs.since.phd", "yrs.service"}, withDefaults(opts,
		chart.WithTitle("Top Salaries"),
		chart.WithLimit(10),
	)...), nil
}

// ============================================================================
// INTERACTION
// ============================================================================

// Filter applies a selection to one widget.
func (d *Dashboard) Filter(id string, values ...string) error {
	return d.reg.Filter(id, values...)
}

// ApplySelection filters the widgets bound to each named dimension.
// Values match widget keys case-insensitively. Every dimension is resolved
// before any filter changes, so an unknown one leaves the dashboard as it was.
func (d *Dashboard) ApplySelection(f engine.Filters) error {
	dims := make([]string, 0, len(f.Dimensions))
	for dim := range f.Dimensions {
		dims = append(dims, dim)
	}
	sort.Strings(dims)

	type pending struct {
		dim, id string
		values  []string
	}
	plan := make([]pending, 0, len(dims))
	for _, dim := range dims {
		id, ok := selectionWidgets[dim]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownDimension, dim)
		}
		values, err := d.canonical(id, f.Dimensions[dim])
		if err != nil {
			return err
		}
		plan = append(plan, pending{dim: dim, id: id, values: values})
	}

	for _, p := range plan {
		if err := d.reg.Filter(p.id, p.values...); err != nil {
			return err
		}
		d.log.Debug("selection applied", zap.String("dimension", p.dim), zap.Strings("values", p.values))
	}
	return nil
}

// canonical maps values onto the keys widget id shows, ignoring case.
// Unmatched values are kept so they filter everything out.
func (d *Dashboard) canonical(id string, values []string) ([]string, error) {
	w, err := d.reg.Widget(id)
	if err != nil {
		return nil, err
	}
	cfg := w.Config()
	var keys []string
	for _, o := range cfg.Options {
		keys = append(keys, o.Key)
	}
	for _, s := range cfg.Series {
		for _, p := range s.Points {
			keys = append(keys, p.Label)
		}
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		match := v
		for _, k := range keys {
			if strings.EqualFold(k, v) {
				match = k
				break
			}
		}
		out = append(out, match)
	}
	return out, nil
}

// Reset clears every selection.
func (d *Dashboard) Reset() {
	d.reg.FilterAll()
}

// ============================================================================
// OUTPUT
// ============================================================================

// Snapshot is the JSON form of the dashboard.
type Snapshot struct {
	Title   string         `json:"title"`
	Records int            `json:"records"`
	Visible int            `json:"visible"`
	Widgets []chart.Config `json:"widgets"`
}

// Configs snapshots every widget in render order.
func (d *Dashboard) Configs() []chart.Config {
	return d.reg.Configs()
}

// Snapshot returns the dashboard state.
func (d *Dashboard) Snapshot() Snapshot {
	return Snapshot{
		Title:   d.cfg.Title,
		Records: d.cf.Size(),
		Visible: d.all.Value(),
		Widgets: d.Configs(),
	}
}

// Visible returns the number of records passing every filter.
func (d *Dashboard) Visible() int { return d.all.Value() }

// Widget returns the widget with the given ID.
func (d *Dashboard) Widget(id string) (chart.Widget, error) {
	return d.reg.Widget(id)
}

// RenderAll writes the dashboard as an HTML page.
func (d *Dashboard) RenderAll(w io.Writer) error {
	return d.reg.RenderAll(w, d.cfg.Title)
}

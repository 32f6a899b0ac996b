// Package crossdash renders linked, crossfiltered charts over a dataset.
// Selecting a value in one chart filters every other chart.
//
// Usage:
//
//	rows, _, err := dataset.LoadFile("data/Salaries.csv", log)
//	d, err := dashboard.New(rows, config.Default(), log)
//	err = d.Filter(dashboard.DisciplineSelector, "A")
//	err = d.RenderAll(w)
//
// The engine package holds the generic crossfilter (dimensions, groups,
// reducers) and the batch pipeline used for arbitrary CSVs. Widgets live in
// chart. All computation is local and in memory.
package crossdash

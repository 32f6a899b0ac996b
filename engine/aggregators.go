package engine

import (
	"math"
	"sort"
	"strings"
)

// ============================================================================
// BATCH PIPELINE — group → aggregate → sort → limit over a RecordView
// ============================================================================
// Recomputes from scratch on every call. It serves schema-less CSVs and is
// the reference the incremental groups are checked against.
// ============================================================================

// Aggregations understood by GroupAndAggregate. Anything else sums.
const (
	AggSum   = "sum"
	AggCount = "count"
	AggAvg   = "avg"
	AggMax   = "max"
	AggMin   = "min"
)

// GroupAndAggregate groups view by the first dimension in groupBy (and each
// bucket by the next, recursively), aggregates measure in every bucket,
// sorts the top level by sortBy and keeps at most limit buckets (0 = all).
// With no groupBy the whole view is one "all" bucket.
func GroupAndAggregate(
	view RecordView,
	groupBy []string,
	measure string,
	aggregation string,
	sortBy string,
	limit int,
) []Bucket {
	if view.Len() == 0 {
		return nil
	}

	var buckets []Bucket
	if len(groupBy) == 0 {
		buckets = []Bucket{{Key: "all", Label: "Total", View: view}}
	} else {
		buckets = groupBy1(view, groupBy)
	}

	aggregateAll(buckets, measure, aggregation)
	SortBuckets(buckets, sortBy)

	if limit > 0 && len(buckets) > limit {
		buckets = buckets[:limit]
	}
	return buckets
}

// groupBy1 splits view by dims[0] in order of first appearance and nests
// the remaining dimensions as sub-groups.
func groupBy1(view RecordView, dims []string) []Bucket {
	var order []string
	rows := make(map[string][]int)
	for i := 0; i < view.Len(); i++ {
		key := view.Dimension(i, dims[0])
		if _, seen := rows[key]; !seen {
			order = append(order, key)
		}
		rows[key] = append(rows[key], i)
	}

	buckets := make([]Bucket, len(order))
	for i, key := range order {
		sub := &IndexView{parent: view, rows: rows[key]}
		buckets[i] = Bucket{Key: key, Label: key, View: sub}
		if len(dims) > 1 {
			buckets[i].SubGroups = groupBy1(sub, dims[1:])
		}
	}
	return buckets
}

func aggregateAll(buckets []Bucket, measure, aggregation string) {
	for i := range buckets {
		b := &buckets[i]
		b.Count = b.View.Len()
		b.Value = Aggregate(b.View, measure, aggregation)
		aggregateAll(b.SubGroups, measure, aggregation)
	}
}

// Aggregate reduces measure over every row of view. An empty view yields 0.
func Aggregate(view RecordView, measure, aggregation string) float64 {
	switch aggregation {
	case AggCount:
		return float64(view.Len())
	case AggAvg:
		return AvgMeasure(view, measure)
	case AggMax:
		return MaxMeasure(view, measure)
	case AggMin:
		return MinMeasure(view, measure)
	default:
		return SumMeasure(view, measure)
	}
}

// SumMeasure sums measure across view.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		total += view.Measure(i, measure)
	}
	return total
}

// AvgMeasure is the mean of measure, 0 for an empty view.
func AvgMeasure(view RecordView, measure string) float64 {
	if view.Len() == 0 {
		return 0
	}
	return SumMeasure(view, measure) / float64(view.Len())
}

// MaxMeasure is the largest value of measure, 0 for an empty view.
func MaxMeasure(view RecordView, measure string) float64 {
	return extreme(view, measure, math.Max)
}

// MinMeasure is the smallest value of measure, 0 for an empty view.
func MinMeasure(view RecordView, measure string) float64 {
	return extreme(view, measure, math.Min)
}

func extreme(view RecordView, measure string, pick func(a, b float64) float64) float64 {
	if view.Len() == 0 {
		return 0
	}
	m := view.Measure(0, measure)
	for i := 1; i < view.Len(); i++ {
		m = pick(m, view.Measure(i, measure))
	}
	return m
}

// ============================================================================
// SORTING
// ============================================================================

// SortBuckets orders buckets by value_desc, value_asc, label_asc (alias
// alpha_asc) or label_desc. Labels compare case-insensitively. Any other
// mode keeps grouping order.
func SortBuckets(buckets []Bucket, sortBy string) {
	var less func(a, b Bucket) bool
	switch sortBy {
	case "value_desc":
		less = func(a, b Bucket) bool { return a.Value > b.Value }
	case "value_asc":
		less = func(a, b Bucket) bool { return a.Value < b.Value }
	case "label_asc", "alpha_asc":
		less = func(a, b Bucket) bool { return strings.ToLower(a.Key) < strings.ToLower(b.Key) }
	case "label_desc":
		less = func(a, b Bucket) bool { return strings.ToLower(a.Key) > strings.ToLower(b.Key) }
	default:
		return
	}
	sort.SliceStable(buckets, func(i, j int) bool { return less(buckets[i], buckets[j]) })
}

// ============================================================================
// LABELS
// ============================================================================

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LabelForDimension title-cases a dimension key.
// "yrs.since.phd" → "Yrs Since Phd"
func LabelForDimension(dimension string) string {
	words := strings.FieldsFunc(dimension, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// LabelForAggregation names an aggregation for column headers.
func LabelForAggregation(aggregation string) string {
	switch aggregation {
	case AggSum:
		return "Total"
	case AggCount:
		return "Count"
	case AggAvg:
		return "Average"
	case AggMax:
		return "Maximum"
	case AggMin:
		return "Minimum"
	default:
		return "Value"
	}
}

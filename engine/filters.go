package engine

import "strings"

// ============================================================================
// BATCH FILTERS
// ============================================================================
// Values match case-insensitively, unlike Dimension filters, which compare
// keys exactly.
// ============================================================================

// ApplyFilters returns the rows of view that pass every dimension filter:
// OR within a dimension, AND across dimensions. With no filters the view is
// returned as is.
func ApplyFilters(view RecordView, filters Filters) RecordView {
	allowed := make(map[string]map[string]bool, len(filters.Dimensions))
	for dim, values := range filters.Dimensions {
		if len(values) == 0 {
			continue
		}
		set := make(map[string]bool, len(values))
		for _, v := range values {
			set[strings.ToLower(v)] = true
		}
		allowed[dim] = set
	}
	if len(allowed) == 0 {
		return view
	}

	return Subset(view, func(i int) bool {
		for dim, set := range allowed {
			if !set[strings.ToLower(view.Dimension(i, dim))] {
				return false
			}
		}
		return true
	})
}

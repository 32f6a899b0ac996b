package engine

// ============================================================================
// ENGINE TYPES — Generic rows and batch filters
// ============================================================================
// Record and Filters serve the batch pipeline (ApplyFilters +
// GroupAndAggregate) used for schema-less CSVs. Typed datasets go through
// Crossfilter instead.
// ============================================================================

// Record is a single data row with string dimensions and numeric measures.
//
// Record{Dimensions["sex"]="Female", Measures["salary"]=139750}
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// Filters define which records to include.
// Keys are dimension names. Values are allowed values.
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions" yaml:"dimensions"`
}

// HasFilter reports whether dimension has at least one allowed value.
func (f Filters) HasFilter(dimension string) bool {
	return len(f.Dimensions[dimension]) > 0
}

// IsEmpty reports whether no dimension is filtered.
func (f Filters) IsEmpty() bool {
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// Bucket is one batch-aggregated result row.
type Bucket struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Value     float64    `json:"value"`
	Count     int        `json:"count"`
	SubGroups []Bucket   `json:"subGroups,omitempty"`
	View      RecordView `json:"-"` // Sub-view for records in this bucket (zero-copy)
}

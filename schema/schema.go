package schema

// ============================================================================
// SCHEMA — Describes the shape of a dataset and how to coerce its columns
// ============================================================================
// Built-in for known datasets (Salaries) or auto-discovered from a CSV.
// Loaders use it to classify columns and coerce measure strings to numbers.
// ============================================================================

// Coercion names how a measure column is converted from text.
type Coercion string

const (
	// CoerceInt parses a leading integer and ignores trailing characters.
	CoerceInt Coercion = "int"
	// CoerceFloat parses the whole value as a float.
	CoerceFloat Coercion = "float"
)

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions"`
	Measures   []MeasureMeta   `json:"measures"`

	// Auto-discovery metadata
	DiscoveredFrom string `json:"discoveredFrom,omitempty"`
	DiscoveredAt   string `json:"discoveredAt,omitempty"`

	// Columns skipped during auto-discovery
	SkippedColumns []SkippedColumn `json:"skippedColumns,omitempty"`
}

// DimensionMeta describes a string field used for grouping/filtering.
type DimensionMeta struct {
	Key             string   `json:"key"`
	DisplayName     string   `json:"displayName"`
	Description     string   `json:"description,omitempty"`
	SampleValues    []string `json:"sampleValues,omitempty"`
	CardinalityHint string   `json:"cardinalityHint,omitempty"` // "low", "medium", "high"
}

// MeasureMeta describes a numeric field used for aggregation.
type MeasureMeta struct {
	Key                string   `json:"key"`
	DisplayName        string   `json:"displayName"`
	Description        string   `json:"description,omitempty"`
	Coerce             Coercion `json:"coerce,omitempty"`
	IsSynthetic        bool     `json:"isSynthetic,omitempty"` // Auto-generated (e.g., record_count)
	DefaultAggregation string   `json:"defaultAggregation,omitempty"`
}

// SkippedColumn records why a column was excluded during auto-discovery.
type SkippedColumn struct {
	Column      string `json:"column"`
	Reason      string `json:"reason"`
	Recoverable bool   `json:"recoverable"` // Can be restored if consumer overrides
}

// Salaries returns the schema of the academic salaries dataset.
func Salaries() Config {
	return Config{
		Name:        "Salaries",
		Description: "Nine-month academic salaries of college professors",
		Dimensions: []DimensionMeta{
			{Key: "rank", DisplayName: "Rank", SampleValues: []string{"AssocProf", "AsstProf", "Prof"}, CardinalityHint: "low"},
			{Key: "discipline", DisplayName: "Discipline", Description: "A = theoretical, B = applied", SampleValues: []string{"A", "B"}, CardinalityHint: "low"},
			{Key: "sex", DisplayName: "Gender", SampleValues: []string{"Female", "Male"}, CardinalityHint: "low"},
		},
		Measures: []MeasureMeta{
			{Key: "yrs.since.phd", DisplayName: "Years Since PhD", Coerce: CoerceInt, DefaultAggregation: "avg"},
			{Key: "yrs.service", DisplayName: "Years Of Service", Coerce: CoerceInt, DefaultAggregation: "avg"},
			{Key: "salary", DisplayName: "Salary", Coerce: CoerceInt, DefaultAggregation: "avg"},
		},
	}
}

// GetDefaultMeasure returns the first measure's key, or RecordCount.
func (c Config) GetDefaultMeasure() string {
	if len(c.Measures) > 0 {
		return c.Measures[0].Key
	}
	return RecordCount
}

// Measure returns the measure with the given key.
func (c Config) Measure(key string) (MeasureMeta, bool) {
	for _, m := range c.Measures {
		if m.Key == key {
			return m, true
		}
	}
	return MeasureMeta{}, false
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

package schema

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ============================================================================
// AUTO-DISCOVERY — Guess a Config from a CSV sample
// ============================================================================
// Each column is profiled from its non-null sample values:
//   kind        numeric | bool | string (80% of values must agree)
//   role        dimension | measure | skipped, from kind and cardinality
//   coercion    int unless any value has a decimal point
// A synthetic record_count measure is always appended.
// ============================================================================

// RecordCount is the key of the synthetic measure that counts rows.
const RecordCount = "record_count"

// maxSampleRows caps the rows read when DiscoverOptions.SampleSize is 0.
const maxSampleRows = 100_000

// DiscoverOptions controls discovery.
type DiscoverOptions struct {
	SampleSize     int      // rows to inspect; 0 reads up to maxSampleRows
	RecoverColumns []string // skipped columns to keep as dimensions, by header or key
	Name           string   // dataset name; defaults to "Auto-discovered Dataset"
}

// DefaultDiscoverOptions samples the first 1000 rows.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{SampleSize: 1000}
}

// DiscoverFromCSV profiles the header and sample rows of data.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	headers, rows, err := readSample(data, opt.SampleSize)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]bool, len(opt.RecoverColumns))
	for _, c := range opt.RecoverColumns {
		keep[strings.ToLower(c)] = true
	}

	cfg := &Config{
		Name:           opt.Name,
		DiscoveredFrom: "CSV",
		DiscoveredAt:   time.Now().Format(time.RFC3339),
	}
	if cfg.Name == "" {
		cfg.Name = "Auto-discovered Dataset"
	}

	for i, header := range headers {
		col := profile(header, columnValues(rows, i), len(rows))
		switch {
		case col.role == roleDimension:
			cfg.Dimensions = append(cfg.Dimensions, col.dimension())
		case col.role == roleMeasure:
			cfg.Measures = append(cfg.Measures, col.measure())
		case keep[strings.ToLower(header)] || (col.key != "" && keep[col.key]):
			cfg.Dimensions = append(cfg.Dimensions, col.dimension())
		default:
			cfg.SkippedColumns = append(cfg.SkippedColumns, SkippedColumn{
				Column:      header,
				Reason:      col.skipReason,
				Recoverable: col.recoverable,
			})
		}
	}

	cfg.Measures = append(cfg.Measures, MeasureMeta{
		Key:                RecordCount,
		DisplayName:        "Record Count",
		Description:        "Number of records (auto-generated)",
		IsSynthetic:        true,
		DefaultAggregation: "count",
	})
	return cfg, nil
}

// readSample reads the header and up to limit rows. Malformed rows are
// skipped.
func readSample(data []byte, limit int) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	headers, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if limit <= 0 {
		limit = maxSampleRows
	}

	var rows [][]string
	for len(rows) < limit {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, nil, errors.New("CSV has no data rows")
	}
	return headers, rows, nil
}

// columnValues returns the trimmed non-null values of column i.
func columnValues(rows [][]string, i int) []string {
	var out []string
	for _, row := range rows {
		if i >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[i])
		if !isNull(v) {
			out = append(out, v)
		}
	}
	return out
}

func isNull(v string) bool {
	switch v {
	case "", "null", "NULL", "N/A", "n/a", "NA":
		return true
	}
	return false
}

// ============================================================================
// COLUMN PROFILE
// ============================================================================

type columnRole int

const (
	roleDimension columnRole = iota
	roleMeasure
	roleSkipped
)

type columnKind int

const (
	kindString columnKind = iota
	kindNumeric
	kindBool
)

type column struct {
	header string
	key    string
	kind   columnKind
	role   columnRole

	distinct    []string // sorted
	decimals    bool
	sequential  bool
	skipReason  string
	recoverable bool
}

// profile classifies one column from its non-null values; rows is the
// sample size, null cells included.
func profile(header string, values []string, rows int) column {
	col := column{header: header, key: NormalizeKey(header), role: roleSkipped}
	if col.key == "" {
		// Unnamed leading column written by R's write.csv.
		col.skipReason = "Unnamed column — likely a row index"
		return col
	}
	if len(values) == 0 {
		col.skipReason = "All values are empty/null"
		return col
	}

	col.distinct = slices.Compact(slices.Sorted(slices.Values(values)))
	col.kind = detectKind(values)
	if col.kind == kindNumeric {
		col.decimals = slices.ContainsFunc(values, func(v string) bool { return strings.Contains(v, ".") })
		col.sequential = !col.decimals && isSequence(values)
	}
	col.classify(rows)
	return col
}

func (col *column) classify(rows int) {
	unique := len(col.distinct)
	switch col.kind {
	case kindNumeric:
		switch {
		case col.sequential && unique == rows && rows > 10:
			col.role = roleSkipped
			col.skipReason = "Consecutive integers — likely an ID column"
		case col.decimals:
			col.role = roleMeasure
		case unique < 20 && float64(unique)/float64(rows) < 0.3:
			// A handful of integer codes, such as a 1-5 level.
			col.role = roleDimension
		default:
			col.role = roleMeasure
		}

	case kindBool:
		col.role = roleDimension

	default:
		switch {
		case unique == rows && rows > 10:
			col.role = roleSkipped
			col.skipReason = "Unique per row — likely an identifier"
		case unique > rows/2 && unique > 50:
			col.role = roleSkipped
			col.skipReason = fmt.Sprintf("High cardinality (%d unique values) — not useful for grouping", unique)
			col.recoverable = true
		default:
			col.role = roleDimension
		}
	}
}

func (col *column) cardinality() string {
	switch n := len(col.distinct); {
	case n <= 10:
		return "low"
	case n <= 100:
		return "medium"
	default:
		return "high"
	}
}

func (col *column) dimension() DimensionMeta {
	return DimensionMeta{
		Key:             col.key,
		DisplayName:     toDisplayName(col.header),
		SampleValues:    col.distinct[:min(len(col.distinct), 10)],
		CardinalityHint: col.cardinality(),
	}
}

func (col *column) measure() MeasureMeta {
	coerce := CoerceInt
	if col.decimals {
		coerce = CoerceFloat
	}
	return MeasureMeta{
		Key:                col.key,
		DisplayName:        toDisplayName(col.header),
		Coerce:             coerce,
		DefaultAggregation: "sum",
	}
}

// ============================================================================
// VALUE KINDS
// ============================================================================

func detectKind(values []string) columnKind {
	var nums, bools int
	for _, v := range values {
		if isNumeric(v) {
			nums++
		}
		if isBool(v) {
			bools++
		}
	}
	threshold := int(float64(len(values)) * 0.8)
	switch {
	case bools > 0 && bools >= threshold:
		return kindBool
	case nums > 0 && nums >= threshold:
		return kindNumeric
	default:
		return kindString
	}
}

// isNumeric accepts plain numbers plus thousands separators and a leading
// dollar sign, as in "$1,234.56".
func isNumeric(s string) bool {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "$"), "-")
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// isSequence reports whether values are distinct integers spanning a
// contiguous range, as row numbers do.
func isSequence(values []string) bool {
	lo, hi := 0, 0
	for i, v := range values {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return false
		}
		if i == 0 || n < lo {
			lo = n
		}
		if i == 0 || n > hi {
			hi = n
		}
	}
	return hi-lo == len(values)-1
}

func isBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false", "yes", "no":
		return true
	}
	return false
}

// ============================================================================
// NAMES
// ============================================================================

// NormalizeKey converts a CSV header into a schema key: snake case, dots
// kept, so "yrs.since.phd" is unchanged and "Annual Salary" is
// "annual_salary".
func NormalizeKey(header string) string {
	return toSnakeCase(strings.TrimSpace(header))
}

// toSnakeCase converts "Column Name" or "columnName" → "column_name".
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			prev := rune(s[i-1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	out := strings.NewReplacer(" ", "_", "-", "_").Replace(b.String())
	out = strings.ReplaceAll(out, "__", "_")
	return strings.Trim(out, "_\"")
}

// toDisplayName cleans a header for display.
// "yrs.service" → "Yrs Service"; headers with spaces are kept as written.
func toDisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

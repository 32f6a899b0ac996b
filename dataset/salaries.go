package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spektr-org/crossdash/engine"
	"github.com/spektr-org/crossdash/schema"
)

// ============================================================================
// SALARIES LOADER — CSV → []Salary with integer coercion
// ============================================================================
// Columns are matched by normalised header name, so column order does not
// matter and an unnamed leading row-index column is ignored. The three
// numeric columns use schema.ParseInt: "12.7" loads as 12. Rows that cannot
// be coerced are skipped and reported rather than loaded as zeroes.
// ============================================================================

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("dataset: missing column")

// Salary is one professor's record.
type Salary struct {
	Rank        string `json:"rank"`
	Discipline  string `json:"discipline"`
	YrsSincePhD int    `json:"yrs.since.phd"`
	YrsService  int    `json:"yrs.service"`
	Sex         string `json:"sex"`
	Salary      int    `json:"salary"`
}

// RowError describes a row that was not loaded.
type RowError struct {
	Line   int    `json:"line"`
	Column string `json:"column,omitempty"`
	Value  string `json:"value,omitempty"`
	Err    error  `json:"-"`
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: column %s: %v", e.Line, e.Column, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Report summarises a load.
type Report struct {
	Rows    int        `json:"rows"`
	Loaded  int        `json:"loaded"`
	Skipped []RowError `json:"skipped,omitempty"`
}

// Adapter exposes Salary fields to the batch pipeline under their schema keys.
var Adapter = engine.NewDomainAdapter[Salary]().
	Dimension("rank", func(s Salary) string { return s.Rank }).
	Dimension("discipline", func(s Salary) string { return s.Discipline }).
	Dimension("sex", func(s Salary) string { return s.Sex }).
	Measure("yrs.since.phd", func(s Salary) float64 { return float64(s.YrsSincePhD) }).
	Measure("yrs.service", func(s Salary) float64 { return float64(s.YrsService) }).
	Measure("salary", func(s Salary) float64 { return float64(s.Salary) })

// LoadFile opens path and loads it with Load.
func LoadFile(path string, log *zap.Logger) ([]Salary, Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	rows, report, err := Load(f, log)
	if err != nil {
		return nil, report, fmt.Errorf("%s: %w", path, err)
	}
	return rows, report, nil
}

// Load reads salaries CSV from r.
func Load(r io.Reader, log *zap.Logger) ([]Salary, Report, error) {
	if log == nil {
		log = zap.NewNop()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, Report{}, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	cols, err := mapColumns(headers)
	if err != nil {
		return nil, Report{}, err
	}

	sch := schema.Salaries()
	var (
		out    []Salary
		report Report
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		report.Rows++
		line := recordLine(reader, row, err)
		if err != nil {
			report.Skipped = append(report.Skipped, RowError{Line: line, Err: err})
			log.Warn("skipping malformed row", zap.Int("line", line), zap.Error(err))
			continue
		}

		rec, rowErr := parseRow(row, cols, sch)
		if rowErr != nil {
			rowErr.Line = line
			report.Skipped = append(report.Skipped, *rowErr)
			log.Warn("skipping row",
				zap.Int("line", line),
				zap.String("column", rowErr.Column),
				zap.String("value", rowErr.Value),
				zap.Error(rowErr.Err))
			continue
		}
		out = append(out, rec)
	}

	report.Loaded = len(out)
	log.Debug("dataset loaded",
		zap.Int("rows", report.Rows),
		zap.Int("loaded", report.Loaded),
		zap.Int("skipped", len(report.Skipped)))
	return out, report, nil
}

// recordLine is the physical line a record starts on, counting quoted
// fields that span several lines.
func recordLine(r *csv.Reader, row []string, err error) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.StartLine
	}
	if len(row) == 0 {
		return 0
	}
	line, _ := r.FieldPos(0)
	return line
}

// mapColumns returns the column index of every schema key.
func mapColumns(headers []string) (map[string]int, error) {
	cols := make(map[string]int, len(headers))
	for i, h := range headers {
		key := schema.NormalizeKey(h)
		if key == "" {
			continue
		}
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}

	sch := schema.Salaries()
	required := append(sch.DimensionKeys(), sch.MeasureKeys()...)
	var missing []string
	for _, key := range required {
		if _, ok := cols[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRow(row []string, cols map[string]int, sch schema.Config) (Salary, *RowError) {
	field := func(key string) (string, *RowError) {
		i := cols[key]
		if i >= len(row) {
			return "", &RowError{Column: key, Err: errors.New("row too short")}
		}
		return strings.TrimSpace(row[i]), nil
	}

	var rec Salary
	for _, d := range []struct {
		key string
		dst *string
	}{
		{"rank", &rec.Rank},
		{"discipline", &rec.Discipline},
		{"sex", &rec.Sex},
	} {
		v, rowErr := field(d.key)
		if rowErr != nil {
			return Salary{}, rowErr
		}
		*d.dst = v
	}

	for _, m := range []struct {
		key string
		dst *int
	}{
		{"yrs.since.phd", &rec.YrsSincePhD},
		{"yrs.service", &rec.YrsService},
		{"salary", &rec.Salary},
	} {
		raw, rowErr := field(m.key)
		if rowErr != nil {
			return Salary{}, rowErr
		}
		meta, _ := sch.Measure(m.key)
		v, err := schema.Coerce(raw, meta.Coerce)
		if err != nil {
			return Salary{}, &RowError{Column: m.key, Value: raw, Err: err}
		}
		*m.dst = int(v)
	}
	return rec, nil
}

package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spektr-org/crossdash/engine"
	"github.com/spektr-org/crossdash/schema"
)

// ============================================================================
// GENERIC CSV — any file as []engine.Record for the batch pipeline
// ============================================================================
// Headers are matched by schema.NormalizeKey. The unnamed row-index column
// R writes first is ignored, as are malformed rows.
// ============================================================================

// ParseCSV reads data as records shaped by sch. Columns the schema does
// not name are dropped; measure values that fail coercion are left out of
// their record. Synthetic count measures read 1 on every record.
func ParseCSV(data []byte, sch schema.Config) ([]engine.Record, error) {
	dims := make(map[string]bool, len(sch.Dimensions))
	for _, d := range sch.Dimensions {
		dims[d.Key] = true
	}
	coerce := make(map[string]schema.Coercion, len(sch.Measures))
	var counts []string
	for _, m := range sch.Measures {
		switch {
		case m.IsSynthetic && m.DefaultAggregation == "count":
			counts = append(counts, m.Key)
		case !m.IsSynthetic:
			coerce[m.Key] = m.Coerce
		}
	}

	return readRecords(data, func(key, val string, rec engine.Record) {
		if dims[key] {
			rec.Dimensions[key] = val
			return
		}
		c, ok := coerce[key]
		if !ok {
			return
		}
		if f, err := schema.Coerce(val, c); err == nil {
			rec.Measures[key] = f
		}
	}, func(rec engine.Record) {
		for _, k := range counts {
			rec.Measures[k] = 1
		}
	}, nil)
}

// ParseCSVAuto reads data without a schema: cells that parse as floats
// become measures, everything else a dimension. It also returns the
// normalised header keys, "" for the unnamed index column.
func ParseCSVAuto(data []byte) ([]engine.Record, []string, error) {
	var keys []string
	records, err := readRecords(data, func(key, val string, rec engine.Record) {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			rec.Measures[key] = f
		} else {
			rec.Dimensions[key] = val
		}
	}, nil, func(k []string) { keys = k })
	if err != nil {
		return nil, nil, err
	}
	return records, keys, nil
}

// ParseCSVView is ParseCSV wrapped in a SliceView.
func ParseCSVView(data []byte, sch schema.Config) (engine.RecordView, error) {
	records, err := ParseCSV(data, sch)
	if err != nil {
		return nil, err
	}
	return engine.NewSliceView(records), nil
}

// readRecords calls cell for every named, trimmed cell of every row and
// done, if set, once per finished record. onHeader, if set, receives the
// normalised keys.
func readRecords(
	data []byte,
	cell func(key, val string, rec engine.Record),
	done func(rec engine.Record),
	onHeader func(keys []string),
) ([]engine.Record, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = schema.NormalizeKey(h)
	}
	if onHeader != nil {
		onHeader(keys)
	}

	var records []engine.Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}

		rec := engine.Record{
			Dimensions: make(map[string]string),
			Measures:   make(map[string]float64),
		}
		for i, val := range row[:min(len(row), len(keys))] {
			if keys[i] == "" {
				continue
			}
			cell(keys[i], strings.TrimSpace(val), rec)
		}
		if done != nil {
			done(rec)
		}
		records = append(records, rec)
	}
	return records, nil
}

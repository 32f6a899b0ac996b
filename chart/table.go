package chart

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/spektr-org/crossdash/engine"
)

// ============================================================================
// DATA TABLE — Row per record
// ============================================================================
// Columns are the view's dimension keys followed by the requested measures.
// The footer averages each measure over the shown rows.
// ============================================================================

// DataTable lists records from a view.
type DataTable struct {
	id       string
	view     func() engine.RecordView
	measures []string
	s        settings
}

// NewDataTable creates a table over the view returned by view. WithLimit
// caps the row count.
func NewDataTable(id string, view func() engine.RecordView, measures []string, opts ...Option) *DataTable {
	return &DataTable{id: id, view: view, measures: measures, s: applyOptions(opts)}
}

// ID returns the widget ID.
func (t *DataTable) ID() string { return t.id }

// Config returns a snapshot of the table.
func (t *DataTable) Config() Config {
	cfg := t.s.baseConfig(t.id, KindTable)
	cfg.Table = t.build()
	return cfg
}

func (t *DataTable) build() *TableData {
	view := t.view()
	n := view.Len()
	if t.s.limit > 0 && n > t.s.limit {
		n = t.s.limit
	}
	if n == 0 {
		return &TableData{Columns: []Column{}, Rows: [][]string{}}
	}

	dimKeys := view.DimensionKeys()
	columns := make([]Column, 0, len(dimKeys)+len(t.measures))
	for _, key := range dimKeys {
		columns = append(columns, Column{
			Key:   key,
			Label: engine.LabelForDimension(key),
			Type:  "text",
			Align: "left",
		})
	}
	for _, key := range t.measures {
		columns = append(columns, Column{
			Key:   key,
			Label: engine.LabelForDimension(key),
			Type:  "number",
			Align: "right",
		})
	}

	rows := make([][]string, 0, n)
	totals := make([]float64, len(t.measures))
	for i := 0; i < n; i++ {
		row := make([]string, 0, len(columns))
		for _, key := range dimKeys {
			row = append(row, view.Dimension(i, key))
		}
		for j, key := range t.measures {
			v := view.Measure(i, key)
			row = append(row, formatNumber(v, 2))
			totals[j] += v
		}
		rows = append(rows, row)
	}

	values := make(map[string]string, len(t.measures))
	for j, key := range t.measures {
		values[key] = formatNumber(totals[j]/float64(n), 2)
	}

	return &TableData{
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  fmt.Sprintf("Average (%d records)", n),
			Values: values,
		},
	}
}

var tableTmpl = template.Must(template.New("table").Parse(
	`<table>
<thead><tr>{{range .Columns}}<th class="{{.Align}}">{{.Label}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range $i, $v := .}}<td class="{{(index $.Columns $i).Align}}">{{$v}}</td>{{end}}</tr>
{{- end}}
</tbody>
{{- with .Summary}}
<tfoot><tr>{{range $i, $c := $.Columns}}<td class="{{$c.Align}}">{{if eq $i 0}}{{$.Summary.Label}}{{else}}{{index $.Summary.Values $c.Key}}{{end}}</td>{{end}}</tr></tfoot>
{{- end}}
</table>`))

// Render writes the table as HTML.
func (t *DataTable) Render(w io.Writer) error {
	cfg := t.Config()
	if len(cfg.Table.Rows) == 0 {
		return writeEmpty(w, cfg, "")
	}
	var body bytes.Buffer
	if err := tableTmpl.Execute(&body, cfg.Table); err != nil {
		return fmt.Errorf("render data table %s: %w", t.id, err)
	}
	return writeFigure(w, cfg, "", body.Bytes())
}

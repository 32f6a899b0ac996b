package chart

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
)

// SelectMenu is a drop-down listing every key with its count. Choosing
// options filters the bound dimension; "Select all" clears the filter.
type SelectMenu struct {
	id      string
	src     Source
	sel     Selector
	s       settings
	filters []string
}

// NewSelectMenu creates a select menu over src filtering through sel.
func NewSelectMenu(id string, src Source, sel Selector, opts ...Option) *SelectMenu {
	return &SelectMenu{id: id, src: src, sel: sel, s: applyOptions(opts)}
}

// ID returns the widget ID.
func (m *SelectMenu) ID() string { return m.id }

// Config returns a snapshot of the menu.
func (m *SelectMenu) Config() Config {
	cfg := m.s.baseConfig(m.id, KindSelect)
	cfg.Filters = m.Filters()
	cfg.Options = m.options()
	return cfg
}

func (m *SelectMenu) options() []SelectOption {
	selected := make(map[string]bool, len(m.filters))
	for _, f := range m.filters {
		selected[f] = true
	}
	points := m.src.Points()
	out := make([]SelectOption, len(points))
	for i, p := range points {
		n := int(p.Value)
		out[i] = SelectOption{
			Key:      p.Label,
			Count:    n,
			Label:    fmt.Sprintf("%s: %d", p.Label, n),
			Selected: selected[p.Label],
		}
	}
	return out
}

// Filter selects options by key. No values selects all.
func (m *SelectMenu) Filter(values ...string) error {
	if len(values) == 0 {
		m.FilterAll()
		return nil
	}
	if err := m.sel.Select(values...); err != nil {
		return err
	}
	m.filters = append([]string(nil), values...)
	return nil
}

// FilterAll selects all options.
func (m *SelectMenu) FilterAll() {
	m.sel.Clear()
	m.filters = nil
}

// Filters returns the selected keys.
func (m *SelectMenu) Filters() []string {
	return append([]string(nil), m.filters...)
}

var selectTmpl = template.Must(template.New("select").Parse(
	`<select name="{{.ID}}">
<option value=""{{if not .Filters}} selected{{end}}>Select all</option>
{{- range .Options}}
<option value="{{.Key}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
{{- end}}
</select>`))

// Render writes the menu as an HTML select element.
func (m *SelectMenu) Render(w io.Writer) error {
	cfg := m.Config()
	var body bytes.Buffer
	if err := selectTmpl.Execute(&body, cfg); err != nil {
		return fmt.Errorf("render select menu %s: %w", m.id, err)
	}
	return writeFigure(w, cfg, "", body.Bytes())
}

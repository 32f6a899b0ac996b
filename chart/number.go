package chart

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
)

// NumberDisplay shows a single reduced value.
type NumberDisplay struct {
	id    string
	value func() float64
	s     settings
}

// NewNumberDisplay creates a number display reading value on every render.
// WithFormat("percent") shows fractions as percentages.
func NewNumberDisplay(id string, value func() float64, opts ...Option) *NumberDisplay {
	s := applyOptions(opts)
	if s.format == "" {
		s.format = "number"
	}
	return &NumberDisplay{id: id, value: value, s: s}
}

// ID returns the widget ID.
func (n *NumberDisplay) ID() string { return n.id }

// Config returns a snapshot of the display.
func (n *NumberDisplay) Config() Config {
	cfg := n.s.baseConfig(n.id, KindNumber)
	v := n.value()
	cfg.Value = &v
	cfg.Display = formatValue(v, n.s.format)
	return cfg
}

var numberTmpl = template.Must(template.New("number").Parse(
	`<span class="number-display">{{.Display}}</span>`))

// Render writes the formatted value.
func (n *NumberDisplay) Render(w io.Writer) error {
	cfg := n.Config()
	var body bytes.Buffer
	if err := numberTmpl.Execute(&body, cfg); err != nil {
		return fmt.Errorf("render number display %s: %w", n.id, err)
	}
	return writeFigure(w, cfg, "", body.Bytes())
}

package chart

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"go.uber.org/zap"
)

// ============================================================================
// REGISTRY — Ordered widget set rendered as one page
// ============================================================================

// Registry holds widgets in registration order.
type Registry struct {
	log     *zap.Logger
	order   []string
	widgets map[string]Widget
}

// NewRegistry creates an empty registry. A nil logger discards output.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{log: log, widgets: make(map[string]Widget)}
}

// Register adds w. IDs must be unique.
func (r *Registry) Register(w Widget) error {
	id := w.ID()
	if _, exists := r.widgets[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateWidget, id)
	}
	r.widgets[id] = w
	r.order = append(r.order, id)
	r.log.Debug("widget registered", zap.String("id", id), zap.String("kind", string(w.Config().Kind)))
	return nil
}

// Widget returns the widget with the given ID.
func (r *Registry) Widget(id string) (Widget, error) {
	w, ok := r.widgets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWidget, id)
	}
	return w, nil
}

// Widgets returns every widget in registration order.
func (r *Registry) Widgets() []Widget {
	out := make([]Widget, len(r.order))
	for i, id := range r.order {
		out[i] = r.widgets[id]
	}
	return out
}

// Filter applies a selection to a filterable widget. No values clears it.
func (r *Registry) Filter(id string, values ...string) error {
	w, err := r.Widget(id)
	if err != nil {
		return err
	}
	f, ok := w.(Filterable)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFilterable, id)
	}
	if err := f.Filter(values...); err != nil {
		return err
	}
	r.log.Debug("filter applied", zap.String("id", id), zap.Strings("values", values))
	return nil
}

// FilterAll clears the selection of every filterable widget.
func (r *Registry) FilterAll() {
	for _, w := range r.Widgets() {
		if f, ok := w.(Filterable); ok {
			f.FilterAll()
		}
	}
}

// Configs snapshots every widget in registration order.
func (r *Registry) Configs() []Config {
	out := make([]Config, len(r.order))
	for i, w := range r.Widgets() {
		out[i] = w.Config()
	}
	return out
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 1.5em; }
main { display: flex; flex-wrap: wrap; gap: 1.5em; }
figure.widget { margin: 0; }
figure.table { flex-basis: 100%; }
.empty { display: flex; align-items: center; justify-content: center; color: #888; border: 1px dashed #ccc; }
.number-display { font-size: 2.5em; }
td, th { padding: 0.2em 0.6em; }
th.right, td.right { text-align: right; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<main>
{{range .Widgets}}{{.}}{{end}}
</main>
</body>
</html>
`))

// RenderAll writes an HTML page containing every widget.
func (r *Registry) RenderAll(w io.Writer, title string) error {
	fragments := make([]template.HTML, 0, len(r.order))
	for _, widget := range r.Widgets() {
		var buf bytes.Buffer
		if err := widget.Render(&buf); err != nil {
			return fmt.Errorf("failed to render %s: %w", widget.ID(), err)
		}
		fragments = append(fragments, template.HTML(buf.String())) //nolint:gosec // widget output is escaped at the source
	}

	if err := pageTmpl.Execute(w, struct {
		Title   string
		Widgets []template.HTML
	}{title, fragments}); err != nil {
		return fmt.Errorf("failed to write page: %w", err)
	}
	r.log.Info("dashboard rendered", zap.Int("widgets", len(fragments)))
	return nil
}

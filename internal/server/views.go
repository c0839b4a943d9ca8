package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

type views struct {
	t *template.Template
}

func parseViews() (*views, error) {
	funcs := template.FuncMap{
		"price": func(v float64) string { return fmt.Sprintf("%.2f lei", v) },
		"mul":   func(p float64, q int) float64 { return p * float64(q) },
	}
	t, err := template.New("storefront").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &views{t: t}, nil
}

func (v *views) render(w io.Writer, name string, data any) error {
	return v.t.ExecuteTemplate(w, name, data)
}

// fragment renders a content template for embedding in a layout.
func (v *views) fragment(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := v.t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

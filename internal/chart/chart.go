// Package chart renders datasets as a standalone Google Charts page.
package chart

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"muckraker/internal/core"
	"muckraker/web"
)

const pageTemplate = "charts_page"

type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded page templates.
func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(web.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse chart templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

// Page is the view model of the rendered document.
type Page struct {
	Title  string
	Year   int
	Charts []Chart
}

// Chart is one dataset in the shape the page script consumes.
type Chart struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	ChartType core.ChartType     `json:"chart_type"`
	Names     [2]string          `json:"names"`
	Types     [2]core.ColumnType `json:"types"`
	Rows      [][2]any           `json:"rows"`
}

// NewPage converts datasets into chart views, keeping their order.
func NewPage(title string, year int, sets []core.DataSet) Page {
	charts := make([]Chart, len(sets))
	for i, ds := range sets {
		charts[i] = Chart{
			ID:        fmt.Sprintf("chart-%d", i),
			Title:     ds.Title,
			ChartType: ds.ChartType,
			Names:     ds.Columns.Names,
			Types:     ds.Columns.Types,
			Rows:      ds.Rows(),
		}
	}
	return Page{Title: title, Year: year, Charts: charts}
}

// Render writes the page to w. Output is buffered so a template failure
// never leaves a half-written document behind.
func (r *Renderer) Render(w io.Writer, page Page) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, pageTemplate, page); err != nil {
		return fmt.Errorf("render chart page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

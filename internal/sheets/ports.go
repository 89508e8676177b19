// Package sheets defines the outbound port for publishing datasets to a
// spreadsheet and the conversions shared by its adapters.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"muckraker/internal/core"
)

// DataSetExporter writes each dataset to its own tab, replacing previous contents.
type DataSetExporter interface {
	Export(ctx context.Context, sets []core.DataSet) error
}

const maxTabName = 100

// TabName derives a valid sheet name from a dataset title. Characters the
// Sheets API rejects in tab names are replaced and the result is truncated.
func TabName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '*', '?', ':', '/', '\\', '\'':
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "Untitled"
	}
	if r := []rune(name); len(r) > maxTabName {
		name = string(r[:maxTabName])
	}
	return name
}

// TabNames returns distinct tab names for the datasets, suffixing repeats
// with " (2)", " (3)" and so on.
func TabNames(sets []core.DataSet) []string {
	taken := make(map[string]bool, len(sets))
	names := make([]string, len(sets))
	for i, ds := range sets {
		base := TabName(ds.Title)
		name := base
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s (%d)", base, n)
		}
		taken[name] = true
		names[i] = name
	}
	return names
}

// Values lays a dataset out as rows: the column header followed by one row
// per legend entry.
func Values(ds core.DataSet) [][]any {
	rows := make([][]any, 0, len(ds.Legend)+1)
	rows = append(rows, []any{ds.Columns.Names[0], ds.Columns.Names[1]})
	for i := range ds.Legend {
		rows = append(rows, []any{ds.Legend[i], ds.Data[i]})
	}
	return rows
}

package core

import "fmt"

const (
	PieChart    ChartType = "PieChart"
	ColumnChart ChartType = "ColumnChart"

	StringColumn ColumnType = "string"
	NumberColumn ColumnType = "number"
)

type (
	// ChartType names the Google Charts visualization a DataSet is meant for.
	ChartType string

	ColumnType string

	Columns struct {
		Names [2]string     `json:"names"`
		Types [2]ColumnType `json:"types"`
	}

	// DataSet is a ranked, chart-ready series: parallel labels and values,
	// already sorted by value descending.
	DataSet struct {
		Title     string    `json:"title"`
		Legend    []string  `json:"legend"`
		Data      []float64 `json:"data"`
		Columns   Columns   `json:"columns"`
		ChartType ChartType `json:"chart_type"`
	}

	DataSetOption func(*DataSet)
)

// PayeeColumns is the schema of every payee ranking.
var PayeeColumns = Columns{
	Names: [2]string{"Payee", "Amount"},
	Types: [2]ColumnType{StringColumn, NumberColumn},
}

// CandidateColumns is the schema of candidate rankings.
var CandidateColumns = Columns{
	Names: [2]string{"Candidate Name", "Amount Spent"},
	Types: [2]ColumnType{StringColumn, NumberColumn},
}

// WithChartType overrides the default PieChart.
func WithChartType(t ChartType) DataSetOption {
	return func(d *DataSet) {
		d.ChartType = t
	}
}

// NewDataSet builds a DataSet. Legend and data must have the same length.
func NewDataSet(title string, legend []string, data []float64, columns Columns, opts ...DataSetOption) (DataSet, error) {
	if len(legend) != len(data) {
		return DataSet{}, fmt.Errorf("dataset %q: legend has %d labels but data has %d values", title, len(legend), len(data))
	}
	ds := DataSet{
		Title:     title,
		Legend:    legend,
		Data:      data,
		Columns:   columns,
		ChartType: PieChart,
	}
	for _, opt := range opts {
		opt(&ds)
	}
	return ds, nil
}

// Empty reports whether the dataset has no rows.
func (d DataSet) Empty() bool {
	return len(d.Data) == 0
}

// Rows pairs legend labels with values, the shape chart libraries expect.
func (d DataSet) Rows() [][2]any {
	rows := make([][2]any, len(d.Legend))
	for i := range d.Legend {
		rows[i] = [2]any{d.Legend[i], d.Data[i]}
	}
	return rows
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDataSetDefaultsToPie(t *testing.T) {
	ds, err := NewDataSet("Top Payees", []string{"A", "B"}, []float64{2, 1}, PayeeColumns)
	require.NoError(t, err)
	assert.Equal(t, PieChart, ds.ChartType)
	assert.Equal(t, [][2]any{{"A", 2.0}, {"B", 1.0}}, ds.Rows())
	assert.False(t, ds.Empty())
}

func TestNewDataSetColumnOverride(t *testing.T) {
	ds, err := NewDataSet("Most Supported Candidates", nil, nil, CandidateColumns, WithChartType(ColumnChart))
	require.NoError(t, err)
	assert.Equal(t, ColumnChart, ds.ChartType)
	assert.True(t, ds.Empty())
}

func TestNewDataSetRejectsMismatchedLengths(t *testing.T) {
	_, err := NewDataSet("bad", []string{"A"}, nil, PayeeColumns)
	require.Error(t, err)
}

func TestCandidateIndexLastWriteWins(t *testing.T) {
	idx, dups := NewCandidateIndex([]Candidate{
		{ID: "c1", Name: "First"},
		{ID: "c2", Name: "Other"},
		{ID: "c1", Name: "Second"},
	})
	assert.Equal(t, []string{"c1"}, dups)
	assert.Equal(t, 2, idx.Len())

	c, ok := idx.Lookup("c1")
	require.True(t, ok)
	assert.Equal(t, "Second", c.Name)

	_, ok = idx.Lookup("missing")
	assert.False(t, ok)
}

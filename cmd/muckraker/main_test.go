package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muckraker/internal/config"
	"muckraker/internal/core"
	"muckraker/internal/log"
	"muckraker/internal/query"
)

func testEngine() *query.Engine {
	candidates := []core.Candidate{
		{ID: "c1", Name: "Jane Roe", Party: core.Democrat, State: "CA", Chamber: core.House},
		{ID: "c2", Name: "John Doe", Party: core.Republican, State: "TX", Chamber: core.Senate},
	}
	expenditures := []core.Expenditure{
		{CandidateID: "c1", Payee: "Acme, LLC", Amount: core.Money{Cents: 10000}, Stance: core.Support, Year: 2012},
		{CandidateID: "c1", Payee: "Acme LLC", Amount: core.Money{Cents: 5000}, Stance: core.Support, Year: 2012},
		{CandidateID: "c2", Payee: "Beta Corp", Amount: core.Money{Cents: 3000}, Stance: core.Oppose, Year: 2012},
	}
	snap, _ := core.NewSnapshot(2012, core.SourceCache, candidates, expenditures)
	return query.New(snap, query.WithLogger(log.New(log.Config{Level: slog.LevelError, Output: io.Discard})))
}

// flagCommand mirrors the root persistent flags on a throwaway command.
func flagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	f := cmd.Flags()
	f.IntVar(&yearFlag, "year", 0, "")
	f.BoolVar(&cacheFlag, "cache", false, "")
	f.IntVar(&limitFlag, "limit", 0, "")
	f.StringVar(&logLevelFlag, "log-level", "", "")
	require.NoError(t, f.Parse(args))
	return cmd
}

func TestApplyFlags(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{ElectionYear: 2012, QueryLimit: 10, LogLevel: "info"}
	}

	c, err := applyFlags(flagCommand(t), base())
	require.NoError(t, err)
	assert.Equal(t, base(), c, "unset flags leave the config alone")

	c, err = applyFlags(flagCommand(t, "--year=2014", "--cache", "--limit=3", "--log-level=debug"), base())
	require.NoError(t, err)
	assert.Equal(t, 2014, c.ElectionYear)
	assert.True(t, c.CacheEnabled)
	assert.Equal(t, 3, c.QueryLimit)
	assert.Equal(t, "debug", c.LogLevel)

	_, err = applyFlags(flagCommand(t, "--limit=0"), base())
	assert.Error(t, err)
}

func TestRunRanking(t *testing.T) {
	e := testEngine()

	ds, err := runRanking(e, "payees", "", query.PayeeFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Llc", "Beta Corp"}, ds.Legend)
	assert.Equal(t, []float64{150, 30}, ds.Data)

	ds, err = runRanking(e, "payees", "c2", query.PayeeFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "Top Payees: John Doe (REP)", ds.Title)

	ds, err = runRanking(e, "supported", "", query.PayeeFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"Jane Roe (DEM)"}, ds.Legend)
	assert.Equal(t, core.ColumnChart, ds.ChartType)

	ds, err = runRanking(e, "opposed", "", query.PayeeFilter{Party: core.Republican, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "Most Opposed REP Candidates", ds.Title)

	_, err = runRanking(e, "payees", "nobody", query.PayeeFilter{Limit: 10})
	assert.ErrorIs(t, err, query.ErrCandidateNotFound)

	_, err = runRanking(e, "donors", "", query.PayeeFilter{})
	assert.Error(t, err)
}

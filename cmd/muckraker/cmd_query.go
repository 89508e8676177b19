package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"muckraker/internal/core"
	"muckraker/internal/query"
)

var (
	queryParty     string
	queryStance    string
	queryCandidate string

	queryCmd = &cobra.Command{
		Use:   "query {payees|supported|opposed}",
		Short: "Print one ranking as JSON",
		Long: `Print one ranking as JSON.

  payees     top payees, filtered by --party and --stance
             (or by --candidate for one candidate's payees)
  supported  most supported candidates, filtered by --party
  opposed    most opposed candidates, filtered by --party`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"payees", "supported", "opposed"},
		RunE:      runQuery,
	}
)

func init() {
	f := queryCmd.Flags()
	f.StringVar(&queryParty, "party", "", "REP or DEM")
	f.StringVar(&queryStance, "stance", "", "SUPPORT or OPPOSE (S and O also accepted)")
	f.StringVar(&queryCandidate, "candidate", "", "candidate id, payees only")
}

func runQuery(cmd *cobra.Command, args []string) error {
	filter, err := query.ParseFilter(queryParty, queryStance, cfg.QueryLimit)
	if err != nil {
		return err
	}

	engine, cleanup, err := loadEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	ds, err := runRanking(engine, args[0], queryCandidate, filter)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(ds)
}

func runRanking(e *query.Engine, kind, candidate string, f query.PayeeFilter) (core.DataSet, error) {
	switch kind {
	case "payees":
		if candidate != "" {
			return e.TopPayeesForCandidate(candidate, f.Stance, f.Limit)
		}
		return e.TopPayees(f), nil
	case "supported":
		return e.TopSupportedCandidates(f.Party, f.Limit), nil
	case "opposed":
		return e.TopOpposedCandidates(f.Party, f.Limit), nil
	default:
		return core.DataSet{}, fmt.Errorf("unknown ranking %q: want payees, supported or opposed", kind)
	}
}

// Package query ranks the expenditures of a snapshot by payee or by candidate
// and packages the rankings as chart-ready datasets.
package query

import (
	"errors"
	"fmt"
	"strings"

	"muckraker/internal/aggregate"
	"muckraker/internal/core"
	"muckraker/internal/log"
)

const DefaultLimit = 10

var ErrCandidateNotFound = errors.New("candidate not found")

// PayeeFilter narrows a payee ranking. Zero values mean "no filter";
// a non-positive Limit means DefaultLimit.
type PayeeFilter struct {
	Party  core.Party
	Stance core.Stance
	Limit  int
}

// ParseFilter validates raw party, stance and limit values coming from a
// command line or a query string.
func ParseFilter(party, stance string, limit int) (PayeeFilter, error) {
	var f PayeeFilter
	if strings.TrimSpace(party) != "" {
		p, err := core.ParseParty(party)
		if err != nil {
			return PayeeFilter{}, err
		}
		f.Party = p
	}
	if strings.TrimSpace(stance) != "" {
		s, err := core.ParseStance(stance)
		if err != nil {
			return PayeeFilter{}, err
		}
		f.Stance = s
	}
	if limit < 0 {
		return PayeeFilter{}, fmt.Errorf("limit must be positive, got %d", limit)
	}
	f.Limit = limit
	return f, nil
}

// Engine answers ranking queries against one immutable snapshot. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	snap   *core.Snapshot
	logger *log.Logger
}

type Option func(*Engine)

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l.WithComponent(log.ComponentQuery)
	}
}

func New(snap *core.Snapshot, opts ...Option) *Engine {
	if snap == nil {
		snap, _ = core.NewSnapshot(0, "", nil, nil)
	}
	e := &Engine{snap: snap}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentQuery)
	}
	return e
}

func (e *Engine) Snapshot() *core.Snapshot {
	return e.snap
}

// TopPayees ranks payees by total amount. With a party filter, expenditures
// whose candidate is not in the index are left out.
func (e *Engine) TopPayees(f PayeeFilter) core.DataSet {
	items := e.filter(func(x core.Expenditure) bool {
		if f.Stance != "" && x.Stance != f.Stance {
			return false
		}
		if f.Party != "" {
			c, ok := e.snap.Index.Lookup(x.CandidateID)
			if !ok || c.Party != f.Party {
				return false
			}
		}
		return true
	})

	title := newTitle("Top Payees").withStance(f.Stance).withPartyGroup(f.Party)
	return rankPayees(title.String(), items, f.Limit)
}

// TopPayeesForCandidate ranks the payees of expenditures made for or against
// one candidate. The id must be known to the snapshot.
func (e *Engine) TopPayeesForCandidate(candidateID string, stance core.Stance, limit int) (core.DataSet, error) {
	c, ok := e.snap.Index.Lookup(candidateID)
	if !ok {
		return core.DataSet{}, fmt.Errorf("%w: %q", ErrCandidateNotFound, candidateID)
	}

	items := e.filter(func(x core.Expenditure) bool {
		return x.CandidateID == candidateID && (stance == "" || x.Stance == stance)
	})

	title := newTitle("Top Payees:").withStance(stance).withCandidate(c)
	return rankPayees(title.String(), items, limit), nil
}

func (e *Engine) TopSupportedCandidates(party core.Party, limit int) core.DataSet {
	return e.topCandidates(core.Support, party, limit)
}

func (e *Engine) TopOpposedCandidates(party core.Party, limit int) core.DataSet {
	return e.topCandidates(core.Oppose, party, limit)
}

func (e *Engine) topCandidates(stance core.Stance, party core.Party, limit int) core.DataSet {
	type labeled struct {
		label string
		cents int64
	}

	var (
		items      []labeled
		unresolved int
	)
	for _, x := range e.snap.Expenditures {
		if x.Stance != stance {
			continue
		}
		c, ok := e.snap.Index.Lookup(x.CandidateID)
		if !ok {
			unresolved++
			continue
		}
		if party != "" && c.Party != party {
			continue
		}
		items = append(items, labeled{label: c.Label(), cents: x.Amount.Cents})
	}
	if unresolved > 0 {
		e.logger.Warn("Expenditures reference unknown candidates",
			"stance", stance,
			"skipped", unresolved)
	}

	ranking := aggregate.By(items,
		func(l labeled) string { return l.label },
		func(l labeled) int64 { return l.cents },
	).Top(effectiveLimit(limit))

	base := "Most Supported"
	if stance == core.Oppose {
		base = "Most Opposed"
	}
	title := newTitle(base).withPartyCode(party).withNoun("Candidates")
	return toDataSet(title.String(), ranking, core.CandidateColumns, core.WithChartType(core.ColumnChart))
}

func (e *Engine) filter(keep func(core.Expenditure) bool) []core.Expenditure {
	var out []core.Expenditure
	for _, x := range e.snap.Expenditures {
		if keep(x) {
			out = append(out, x)
		}
	}
	return out
}

func rankPayees(title string, items []core.Expenditure, limit int) core.DataSet {
	ranking := aggregate.By(items,
		func(x core.Expenditure) string { return core.Normalize(x.Payee) },
		func(x core.Expenditure) int64 { return x.Amount.Cents },
	).Top(effectiveLimit(limit))
	return toDataSet(title, ranking, core.PayeeColumns)
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// toDataSet converts cent totals to dollars. A ranking always has parallel
// keys and totals, so the constructor cannot reject it.
func toDataSet(title string, r aggregate.Ranking[int64], columns core.Columns, opts ...core.DataSetOption) core.DataSet {
	data := make([]float64, len(r.Totals))
	for i, cents := range r.Totals {
		data[i] = core.Money{Cents: cents}.Dollars()
	}
	legend := r.Keys
	if legend == nil {
		legend = []string{}
	}
	ds, err := core.NewDataSet(title, legend, data, columns, opts...)
	if err != nil {
		panic(err)
	}
	return ds
}

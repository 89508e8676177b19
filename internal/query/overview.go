package query

import "muckraker/internal/core"

// PayeeOverview returns the standard set of payee rankings: overall, per party,
// and per party and stance.
func (e *Engine) PayeeOverview(limit int) []core.DataSet {
	filters := []PayeeFilter{
		{},
		{Party: core.Republican},
		{Party: core.Democrat},
		{Party: core.Republican, Stance: core.Support},
		{Party: core.Democrat, Stance: core.Oppose},
		{Party: core.Democrat, Stance: core.Support},
		{Party: core.Republican, Stance: core.Oppose},
	}
	out := make([]core.DataSet, 0, len(filters))
	for _, f := range filters {
		f.Limit = limit
		out = append(out, e.TopPayees(f))
	}
	return out
}

// CandidatePayees returns one payee ranking per candidate, in roster order,
// skipping candidates without expenditures. An empty stance keeps both sides.
func (e *Engine) CandidatePayees(stance core.Stance, limit int) []core.DataSet {
	seen := make(map[string]bool, len(e.snap.Candidates))
	var out []core.DataSet
	for _, c := range e.snap.Candidates {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		ds, err := e.TopPayeesForCandidate(c.ID, stance, limit)
		if err != nil || ds.Empty() {
			continue
		}
		out = append(out, ds)
	}
	return out
}

// SupportedOverview returns the most supported candidates overall and per party.
func (e *Engine) SupportedOverview(limit int) []core.DataSet {
	return []core.DataSet{
		e.TopSupportedCandidates("", limit),
		e.TopSupportedCandidates(core.Republican, limit),
		e.TopSupportedCandidates(core.Democrat, limit),
	}
}

// OpposedOverview mirrors SupportedOverview for opposition spending.
func (e *Engine) OpposedOverview(limit int) []core.DataSet {
	return []core.DataSet{
		e.TopOpposedCandidates("", limit),
		e.TopOpposedCandidates(core.Republican, limit),
		e.TopOpposedCandidates(core.Democrat, limit),
	}
}

// Report is the full report: payee rankings by party and stance, one payee
// ranking per candidate, then the candidate rankings.
func (e *Engine) Report(limit int) []core.DataSet {
	var sets []core.DataSet
	sets = append(sets, e.PayeeOverview(limit)...)
	sets = append(sets, e.CandidatePayees("", limit)...)
	sets = append(sets, e.SupportedOverview(limit)...)
	sets = append(sets, e.OpposedOverview(limit)...)
	return sets
}

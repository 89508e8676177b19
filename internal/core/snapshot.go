package core

// CandidateIndex resolves candidate ids. It is built once per load and never
// mutated afterwards, so it is safe to share between goroutines.
type CandidateIndex struct {
	byID map[string]Candidate
}

// NewCandidateIndex indexes candidates by id. Later entries win on duplicate ids;
// the duplicated ids are returned so the caller can report them.
func NewCandidateIndex(candidates []Candidate) (CandidateIndex, []string) {
	idx := CandidateIndex{byID: make(map[string]Candidate, len(candidates))}
	var dups []string
	for _, c := range candidates {
		if _, seen := idx.byID[c.ID]; seen {
			dups = append(dups, c.ID)
		}
		idx.byID[c.ID] = c
	}
	return idx, dups
}

func (i CandidateIndex) Lookup(id string) (Candidate, bool) {
	c, ok := i.byID[id]
	return c, ok
}

func (i CandidateIndex) Len() int {
	return len(i.byID)
}

// Source records where a snapshot came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceProvider Source = "provider"
)

// Snapshot is the loaded dataset every query runs against.
type Snapshot struct {
	Year         int
	Source       Source
	Candidates   []Candidate
	Expenditures []Expenditure
	Index        CandidateIndex
}

// NewSnapshot builds the index for the given records.
func NewSnapshot(year int, source Source, candidates []Candidate, expenditures []Expenditure) (*Snapshot, []string) {
	idx, dups := NewCandidateIndex(candidates)
	return &Snapshot{
		Year:         year,
		Source:       source,
		Candidates:   candidates,
		Expenditures: expenditures,
		Index:        idx,
	}, dups
}

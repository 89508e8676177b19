package query

import (
	"strings"

	"muckraker/internal/core"
)

// titleBuilder composes dataset titles from optional clauses. Clauses are
// always emitted in the order base, stance, party, candidate, noun.
type titleBuilder struct {
	base      string
	stance    string
	party     string
	candidate string
	noun      string
}

func newTitle(base string) *titleBuilder {
	return &titleBuilder{base: base}
}

// withStance adds "Supporting" or "Opposing". An empty stance adds nothing.
func (b *titleBuilder) withStance(s core.Stance) *titleBuilder {
	if s != "" {
		b.stance = s.Gerund()
	}
	return b
}

// withPartyGroup adds the plural party name ("Republicans").
func (b *titleBuilder) withPartyGroup(p core.Party) *titleBuilder {
	if p != "" {
		b.party = p.Plural()
	}
	return b
}

// withPartyCode adds the bare party code ("REP").
func (b *titleBuilder) withPartyCode(p core.Party) *titleBuilder {
	if p != "" {
		b.party = string(p)
	}
	return b
}

func (b *titleBuilder) withCandidate(c core.Candidate) *titleBuilder {
	b.candidate = c.Label()
	return b
}

func (b *titleBuilder) withNoun(noun string) *titleBuilder {
	b.noun = noun
	return b
}

func (b *titleBuilder) String() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{b.base, b.stance, b.party, b.candidate, b.noun} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

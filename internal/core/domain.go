package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Senate Chamber = "senate"
	House  Chamber = "house"

	Support Stance = "SUPPORT"
	Oppose  Stance = "OPPOSE"

	Republican Party = "REP"
	Democrat   Party = "DEM"
)

type (
	Chamber string
	Stance  string
	Party   string
	State   string

	Candidate struct {
		ID      string  `yaml:"id" json:"id"`
		Name    string  `yaml:"name" json:"name"`
		Party   Party   `yaml:"party" json:"party"`
		State   State   `yaml:"state" json:"state"`
		Chamber Chamber `yaml:"chamber" json:"chamber"`
	}

	Expenditure struct {
		CandidateID string    `yaml:"candidate_id" json:"candidate_id"`
		Payee       string    `yaml:"payee" json:"payee"`
		Amount      Money     `yaml:"amount" json:"amount"`
		Stance      Stance    `yaml:"stance" json:"stance"`
		Year        int       `yaml:"year" json:"year"`
		Committee   string    `yaml:"committee,omitempty" json:"committee,omitempty"`
		Purpose     string    `yaml:"purpose,omitempty" json:"purpose,omitempty"`
		Date        time.Time `yaml:"date,omitempty" json:"date,omitempty"`
	}
)

var (
	ErrEmptyCandidateID = errors.New("empty candidate id")
	ErrEmptyPayee       = errors.New("empty payee")
	ErrInvalidStance    = errors.New("invalid stance")
	ErrInvalidChamber   = errors.New("invalid chamber")
	ErrInvalidParty     = errors.New("invalid party")
)

// Chambers lists the legislative bodies in roster fetch order.
var Chambers = []Chamber{Senate, House}

// States lists the 50 states in the order rosters are fetched, followed by DC.
var States = []State{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA", "HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ", "NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY", "DC",
}

// HasSenate reports whether the state elects senators. DC only sends a house delegate.
func (s State) HasSenate() bool {
	return s != "DC"
}

func (c Chamber) Validate() error {
	switch c {
	case Senate, House:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidChamber, string(c))
	}
}

// ParseStance accepts the long form (SUPPORT, OPPOSE) or the provider's single letter codes.
func ParseStance(s string) (Stance, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "S", "SUPPORT":
		return Support, nil
	case "O", "OPPOSE":
		return Oppose, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStance, s)
	}
}

// Code returns the single letter provider code.
func (s Stance) Code() string {
	switch s {
	case Support:
		return "S"
	case Oppose:
		return "O"
	}
	return ""
}

// Gerund is used when building titles ("Supporting", "Opposing").
func (s Stance) Gerund() string {
	if s == Oppose {
		return "Opposing"
	}
	return "Supporting"
}

// ParseParty normalizes a party code. Only REP and DEM are accepted as query filters.
func ParseParty(s string) (Party, error) {
	switch p := Party(strings.ToUpper(strings.TrimSpace(s))); p {
	case Republican, Democrat:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidParty, s)
	}
}

// Plural returns the group name used in payee titles.
func (p Party) Plural() string {
	switch p {
	case Republican:
		return "Republicans"
	case Democrat:
		return "Democrats"
	default:
		return string(p)
	}
}

func (c Candidate) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyCandidateID
	}
	if c.Chamber != "" {
		if err := c.Chamber.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Label is the grouping key used by candidate rankings.
func (c Candidate) Label() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Party)
}

func (e Expenditure) Validate() error {
	if strings.TrimSpace(e.CandidateID) == "" {
		return ErrEmptyCandidateID
	}
	if strings.TrimSpace(e.Payee) == "" {
		return ErrEmptyPayee
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	switch e.Stance {
	case Support, Oppose:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStance, string(e.Stance))
	}
	return nil
}

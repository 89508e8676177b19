package core

import (
	"errors"
	"testing"
)

func TestParseStance(t *testing.T) {
	cases := []struct {
		in   string
		want Stance
		ok   bool
	}{
		{"S", Support, true},
		{"support", Support, true},
		{" O ", Oppose, true},
		{"OPPOSE", Oppose, true},
		{"X", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseStance(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidStance) {
			t.Fatalf("%q expected ErrInvalidStance, got %v", tc.in, err)
		}
	}
	if Support.Code() != "S" || Oppose.Code() != "O" {
		t.Fatalf("unexpected stance codes")
	}
}

func TestParseParty(t *testing.T) {
	if p, err := ParseParty("rep"); err != nil || p != Republican {
		t.Fatalf("expected REP, got %q (err=%v)", p, err)
	}
	if p, err := ParseParty("DEM"); err != nil || p != Democrat {
		t.Fatalf("expected DEM, got %q (err=%v)", p, err)
	}
	if _, err := ParseParty("GRE"); !errors.Is(err, ErrInvalidParty) {
		t.Fatalf("expected ErrInvalidParty, got %v", err)
	}
	if Party("LIB").Plural() != "LIB" {
		t.Fatalf("unknown party codes should pass through")
	}
}

func TestStates(t *testing.T) {
	if len(States) != 51 {
		t.Fatalf("expected 51 states, got %d", len(States))
	}
	senate := 0
	for _, s := range States {
		if s.HasSenate() {
			senate++
		}
	}
	if senate != 50 {
		t.Fatalf("expected 50 states with senators, got %d", senate)
	}
}

func TestExpenditureValidate(t *testing.T) {
	good := Expenditure{CandidateID: "c1", Payee: "Acme", Amount: Money{Cents: 0}, Stance: Support, Year: 2012}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expenditure{
		{CandidateID: "", Payee: "Acme", Stance: Support},
		{CandidateID: "c1", Payee: " ", Stance: Support},
		{CandidateID: "c1", Payee: "Acme", Amount: Money{Cents: -1}, Stance: Support},
		{CandidateID: "c1", Payee: "Acme", Stance: "MAYBE"},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCandidateValidateAndLabel(t *testing.T) {
	c := Candidate{ID: "c1", Name: "Jane Roe", Party: Democrat, State: "CA", Chamber: House}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if c.Label() != "Jane Roe (DEM)" {
		t.Fatalf("unexpected label %q", c.Label())
	}
	if err := (Candidate{ID: "c2", Chamber: "assembly"}).Validate(); !errors.Is(err, ErrInvalidChamber) {
		t.Fatalf("expected ErrInvalidChamber, got %v", err)
	}
}

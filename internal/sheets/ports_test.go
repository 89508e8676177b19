package sheets

import (
	"strings"
	"testing"

	"muckraker/internal/core"
)

func TestTabName(t *testing.T) {
	tests := map[string]string{
		"Top Payees":                 "Top Payees",
		"Top Payees: Jane Roe (DEM)": "Top Payees- Jane Roe (DEM)",
		"  a/b\\c[d]*?  ":            "a-b-c-d---",
		"":                           "Untitled",
		"O'Brien":                    "O-Brien",
	}
	for in, want := range tests {
		if got := TabName(in); got != want {
			t.Errorf("TabName(%q) = %q, want %q", in, got, want)
		}
	}

	long := strings.Repeat("x", 150)
	if got := TabName(long); len(got) != 100 {
		t.Errorf("TabName should truncate to 100 characters, got %d", len(got))
	}
}

func TestTabNames_Deduplicates(t *testing.T) {
	sets := []core.DataSet{{Title: "A"}, {Title: "A"}, {Title: "A (2)"}, {Title: "A"}}
	got := TabNames(sets)
	want := []string{"A", "A (2)", "A (2) (2)", "A (3)"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TabNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestValues(t *testing.T) {
	ds, _ := core.NewDataSet("t", []string{"Acme Llc", "Beta Corp"}, []float64{150, 30}, core.PayeeColumns)
	rows := Values(ds)
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Payee" || rows[2][0] != "Beta Corp" || rows[2][1] != 30.0 {
		t.Errorf("unexpected rows: %v", rows)
	}
}

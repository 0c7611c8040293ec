package sig

import "testing"

func TestInterpret_CommonShorthand(t *testing.T) {
	i := NewInterpreter()

	got := i.Interpret("t1 tds pc prn")
	want := "take one tablet three times daily after food when necessary"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestInterpret_CaseInsensitive(t *testing.T) {
	i := NewInterpreter()

	got := i.Interpret("T1 TDS Pc PRN")
	want := "take one tablet three times daily after food when necessary"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestInterpret_WordBoundaries(t *testing.T) {
	i := NewInterpreter()

	// "od" inside other words must not expand
	got := i.Interpret("sodium period")
	if got != "sodium period" {
		t.Errorf("expected untouched text, got %q", got)
	}
}

func TestInterpret_PreservesUnknownText(t *testing.T) {
	i := NewInterpreter()

	got := i.Interpret("dissolve 2 sachets in water bd")
	want := "dissolve 2 sachets in water twice daily"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestInterpret_Idempotent(t *testing.T) {
	i := NewInterpreter()

	once := i.Interpret("t2 od ac stat")
	twice := i.Interpret(once)
	if once != twice {
		t.Errorf("interpreter is not idempotent: %q vs %q", once, twice)
	}
}

func TestInterpret_EmptyInput(t *testing.T) {
	i := NewInterpreter()
	if got := i.Interpret(""); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestInterpret_CustomTable(t *testing.T) {
	i := NewInterpreterWithTable(map[string]string{"GTT": "drops"})

	if got := i.Interpret("2 gtt each eye"); got != "2 drops each eye" {
		t.Errorf("got %q", got)
	}
	if !i.Knows("gtt") {
		t.Error("expected Knows(gtt) to be true")
	}
	if i.Knows("od") {
		t.Error("custom table should not know default tokens")
	}
}

func TestDefaultTable_ExpansionsAreFixedPoints(t *testing.T) {
	i := NewInterpreter()
	for tok, exp := range defaultTable {
		if got := i.Interpret(exp); got != exp {
			t.Errorf("expansion of %q is not a fixed point: %q -> %q", tok, exp, got)
		}
	}
}

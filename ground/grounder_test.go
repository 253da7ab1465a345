package ground

import (
	"strings"
	"testing"
)

func TestGroundExact(t *testing.T) {
	g := New(0.2, 0.2)
	text := "Pt reports headache. BP 128/82, HR 72. Continue lisinopril."

	iv, outcome := g.Ground(text, "BP 128/82", 0)
	if outcome != Exact {
		t.Fatalf("outcome = %v; want Exact", outcome)
	}
	if text[iv.Start:iv.End] != "BP 128/82" {
		t.Errorf("interval %v covers %q; want %q", iv, text[iv.Start:iv.End], "BP 128/82")
	}
	if iv.Start != 21 || iv.End != 30 {
		t.Errorf("interval = %v; want [21, 30)", iv)
	}
}

func TestGroundShortOffsets(t *testing.T) {
	g := New(0.2, 0.2)
	iv, outcome := g.Ground("Pt BP 128/82.", "BP 128/82", 0)
	if outcome != Exact {
		t.Fatalf("outcome = %v; want Exact", outcome)
	}
	if iv.Start != 3 || iv.End != 12 {
		t.Errorf("interval = %v; want [3, 12)", iv)
	}
}

func TestGroundRepeatedSnippetWalksForward(t *testing.T) {
	g := New(0.2, 0.2)
	text := "Started metformin 500mg. Later increased metformin 500mg to BID."

	first, outcome := g.Ground(text, "metformin 500mg", 0)
	if outcome != Exact {
		t.Fatalf("first outcome = %v; want Exact", outcome)
	}
	if first.Start != 8 {
		t.Errorf("first occurrence at %d; want 8", first.Start)
	}

	// Hinting with the previous citation's end must yield the second
	// occurrence, not collapse onto the first.
	second, outcome := g.Ground(text, "metformin 500mg", first.End)
	if outcome != Exact {
		t.Fatalf("second outcome = %v; want Exact", outcome)
	}
	if second.Start <= first.Start {
		t.Errorf("second occurrence at %d; want after %d", second.Start, first.Start)
	}
	if text[second.Start:second.End] != "metformin 500mg" {
		t.Errorf("second interval covers %q", text[second.Start:second.End])
	}
}

func TestGroundHintFallsBackToEarlier(t *testing.T) {
	g := New(0.2, 0.2)
	text := "Continue lisinopril daily."

	// No occurrence at or after the hint: the earlier one still wins.
	iv, outcome := g.Ground(text, "lisinopril", len(text))
	if outcome != Exact {
		t.Fatalf("outcome = %v; want Exact", outcome)
	}
	if text[iv.Start:iv.End] != "lisinopril" {
		t.Errorf("interval covers %q", text[iv.Start:iv.End])
	}
}

func TestGroundFuzzyNormalization(t *testing.T) {
	g := New(0.2, 0.2)
	// Provider reports collapsed whitespace and different casing.
	text := "Blood  Pressure:\n128/82 mmHg recorded this morning."

	iv, outcome := g.Ground(text, "blood pressure: 128/82 mmhg", 0)
	if outcome != Fuzzy {
		t.Fatalf("outcome = %v; want Fuzzy", outcome)
	}
	if !iv.ValidFor(len(text)) {
		t.Fatalf("interval %v out of bounds for %d", iv, len(text))
	}
	got := text[iv.Start:iv.End]
	if len(got) == 0 {
		t.Fatal("fuzzy interval is empty")
	}
	// The located span must include the measurement.
	if !strings.Contains(got, "128/82") {
		t.Errorf("fuzzy interval covers %q; should include 128/82", got)
	}
}

func TestGroundFuzzyRespectsThreshold(t *testing.T) {
	text := "Pt denies chest pain or dyspnea."

	// Zero threshold disables fuzzy matching entirely.
	strict := New(0, 0.2)
	if _, outcome := strict.Ground(text, "denies chest pains", 0); outcome != Miss {
		t.Errorf("strict outcome = %v; want Miss", outcome)
	}

	// A small edit is accepted under the default threshold.
	loose := New(0.2, 0.2)
	iv, outcome := loose.Ground(text, "denies chest pains", 0)
	if outcome != Fuzzy {
		t.Fatalf("loose outcome = %v; want Fuzzy", outcome)
	}
	if !iv.ValidFor(len(text)) {
		t.Errorf("interval %v out of bounds", iv)
	}
}

func TestGroundMisses(t *testing.T) {
	g := New(0.2, 0.2)
	text := "Pt reports headache."

	tests := []struct {
		name    string
		snippet string
	}{
		{"absent content", "metformin 500mg"},
		{"empty snippet", ""},
		{"snippet longer than text", "Pt reports headache and dizziness and nausea and fatigue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv, outcome := g.Ground(text, tt.snippet, 0)
			if outcome != Miss {
				t.Errorf("outcome = %v; want Miss", outcome)
			}
			if iv.Start != 0 || iv.End != 0 {
				t.Errorf("miss interval = %v; want zero", iv)
			}
		})
	}
}

func TestGroundDeterministic(t *testing.T) {
	g := New(0.2, 0.2)
	text := "BP 120/80. BP 122/80. BP 124/80."

	first, _ := g.Ground(text, "BP 122/80", 0)
	for i := 0; i < 10; i++ {
		iv, _ := g.Ground(text, "BP 122/80", 0)
		if iv != first {
			t.Fatalf("run %d produced %v; first run produced %v", i, iv, first)
		}
	}
}

func TestGroundBoundsInvariant(t *testing.T) {
	g := New(0.3, 0.3)
	texts := []string{
		"",
		"x",
		"Pt on metformin 500mg BID, lisinopril 10mg daily.",
		"A&O x3.  No  acute distress.\n\nVitals stable.",
	}
	snippets := []string{"", "metformin", "Metformin  500 MG", "vitals stable", "zzzz"}

	for _, text := range texts {
		for _, snippet := range snippets {
			iv, outcome := g.Ground(text, snippet, 0)
			if outcome == Miss {
				continue
			}
			if !iv.ValidFor(len(text)) {
				t.Errorf("Ground(%q, %q) = %v; out of bounds for len %d", text, snippet, iv, len(text))
			}
			if iv.Len() <= 0 {
				t.Errorf("Ground(%q, %q) = %v; empty interval for a hit", text, snippet, iv)
			}
		}
	}
}

func TestGroundInflatedSnippetLongerThanText(t *testing.T) {
	g := New(0.2, 0.2)
	// Raw snippet is longer than the whole text; after whitespace
	// collapse they are equal, so it must still ground.
	text := "bp 128/82"
	snippet := "BP    128/82"

	iv, outcome := g.Ground(text, snippet, 0)
	if outcome != Fuzzy {
		t.Fatalf("outcome = %v; want Fuzzy", outcome)
	}
	if got := text[iv.Start:iv.End]; got != "bp 128/82" {
		t.Errorf("interval covers %q; want %q", got, "bp 128/82")
	}
}

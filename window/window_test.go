package window

import "testing"

func TestSplitSingleWindow(t *testing.T) {
	tests := []struct {
		name   string
		docLen int
	}{
		{"empty document", 0},
		{"below threshold", 5000},
		{"at threshold", 6000},
		{"at window size", 4000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs := Split(tt.docLen, 4000, 400, 6000)
			if len(specs) != 1 {
				t.Fatalf("got %d windows; want 1", len(specs))
			}
			w := specs[0]
			if w.Start != 0 || w.End != tt.docLen {
				t.Errorf("window = [%d, %d); want [0, %d)", w.Start, w.End, tt.docLen)
			}
			if w.OverlapWithNext != 0 {
				t.Errorf("OverlapWithNext = %d; want 0", w.OverlapWithNext)
			}
		})
	}
}

func TestSplitCoverage(t *testing.T) {
	tests := []struct {
		name    string
		docLen  int
		size    int
		overlap int
	}{
		{"two windows", 7000, 4000, 400},
		{"many windows", 50000, 4000, 400},
		{"no overlap", 10000, 2500, 0},
		{"stride one", 6004, 3000, 2999},
		{"ragged tail", 8123, 4000, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs := Split(tt.docLen, tt.size, tt.overlap, tt.size)

			if specs[0].Start != 0 {
				t.Errorf("first window starts at %d; want 0", specs[0].Start)
			}
			if last := specs[len(specs)-1]; last.End != tt.docLen {
				t.Errorf("last window ends at %d; want %d", last.End, tt.docLen)
			}

			for i, w := range specs {
				if w.Index != i {
					t.Errorf("window %d has Index %d", i, w.Index)
				}
				if w.Len() <= 0 {
					t.Errorf("window %d has length %d", i, w.Len())
				}
				if w.Len() > tt.size {
					t.Errorf("window %d length %d exceeds size %d", i, w.Len(), tt.size)
				}
				if i == 0 {
					continue
				}
				prev := specs[i-1]
				if w.Start > prev.End {
					t.Errorf("gap between window %d (end %d) and %d (start %d)", i-1, prev.End, i, w.Start)
				}
				if w.Start <= prev.Start {
					t.Errorf("window %d does not advance past window %d", i, i-1)
				}
				if prev.OverlapWithNext != prev.End-w.Start {
					t.Errorf("window %d OverlapWithNext = %d; want %d", i-1, prev.OverlapWithNext, prev.End-w.Start)
				}
			}
		})
	}
}

func TestSplitOverlapValue(t *testing.T) {
	specs := Split(10000, 4000, 400, 6000)
	if len(specs) < 2 {
		t.Fatalf("got %d windows; want at least 2", len(specs))
	}
	if specs[0].OverlapWithNext != 400 {
		t.Errorf("OverlapWithNext = %d; want 400", specs[0].OverlapWithNext)
	}
	if last := specs[len(specs)-1]; last.OverlapWithNext != 0 {
		t.Errorf("last OverlapWithNext = %d; want 0", last.OverlapWithNext)
	}
}

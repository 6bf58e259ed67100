package crawler

import "testing"

func TestBudget_SplitsProportionally(t *testing.T) {
	tests := []struct {
		name      string
		pages     int
		usedTotal int
		newTotal  int
		wantUsed  int
		wantNew   int
	}{
		{"even split", 10, 500, 500, 5, 5},
		{"used majority rounds up", 10, 2, 1, 7, 3},
		{"all used", 10, 100, 0, 10, 0},
		{"all new", 10, 0, 100, 0, 10},
		{"single page goes to used", 1, 1, 999, 1, 0},
		{"real-world ratio", 25, 180000, 20000, 23, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUsed, gotNew := Budget(tt.pages, tt.usedTotal, tt.newTotal)
			if gotUsed != tt.wantUsed || gotNew != tt.wantNew {
				t.Errorf("Budget(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.pages, tt.usedTotal, tt.newTotal,
					gotUsed, gotNew, tt.wantUsed, tt.wantNew)
			}
		})
	}
}

func TestBudget_SumAlwaysEqualsPages(t *testing.T) {
	for pages := 1; pages <= 50; pages++ {
		for used := 0; used <= 30; used += 3 {
			for newTotal := 0; newTotal <= 30; newTotal += 7 {
				if used+newTotal == 0 {
					continue
				}
				gotUsed, gotNew := Budget(pages, used, newTotal)
				if gotUsed+gotNew != pages {
					t.Fatalf("Budget(%d, %d, %d): %d + %d != %d",
						pages, used, newTotal, gotUsed, gotNew, pages)
				}
				if gotUsed < 0 || gotNew < 0 {
					t.Fatalf("Budget(%d, %d, %d) produced a negative share", pages, used, newTotal)
				}
			}
		}
	}
}

func TestBudget_ZeroTotals_FallsBackToUsed(t *testing.T) {
	gotUsed, gotNew := Budget(10, 0, 0)
	if gotUsed != 10 || gotNew != 0 {
		t.Errorf("Budget(10, 0, 0) = (%d, %d), want (10, 0)", gotUsed, gotNew)
	}
}

func TestBudget_NoPages(t *testing.T) {
	gotUsed, gotNew := Budget(0, 5, 5)
	if gotUsed != 0 || gotNew != 0 {
		t.Errorf("Budget(0, 5, 5) = (%d, %d), want (0, 0)", gotUsed, gotNew)
	}
}

package domain

import "testing"

func TestClassifyStockBands(t *testing.T) {
	cases := []struct {
		name  string
		stock float64
		want  StockStatus
	}{
		{"below min is red", 1.9, StatusRed},
		{"at min is yellow", 2, StatusYellow},
		{"between min and reorder is yellow", 4.99, StatusYellow},
		{"at reorder is green", 5, StatusGreen},
		{"above reorder is green", 50, StatusGreen},
		{"negative is red", -3, StatusRed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyStock(tc.stock, 2, 5); got != tc.want {
				t.Fatalf("classify(%.2f) = %s, want %s", tc.stock, got, tc.want)
			}
		})
	}
}

// Increasing stock must never worsen the band.
func TestClassifyStockMonotonic(t *testing.T) {
	rank := map[StockStatus]int{StatusRed: 0, StatusYellow: 1, StatusGreen: 2}

	prev := ClassifyStock(-10, 20, 60)
	for stock := -9.5; stock <= 100; stock += 0.5 {
		cur := ClassifyStock(stock, 20, 60)
		if rank[cur] < rank[prev] {
			t.Fatalf("status worsened from %s to %s at stock %.1f", prev, cur, stock)
		}
		prev = cur
	}
}

func TestRecommendedActionCoversAllBands(t *testing.T) {
	for _, s := range []StockStatus{StatusGreen, StatusYellow, StatusRed} {
		if RecommendedAction(s) == "" {
			t.Fatalf("no action text for %s", s)
		}
	}
}

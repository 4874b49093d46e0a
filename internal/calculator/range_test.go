package calculator

import "testing"

func TestSeriesRange(t *testing.T) {
	high, low, err := SeriesRange([]float64{0, -0.2, 0.35, 0.1})
	if err != nil {
		t.Fatal(err)
	}
	if high != 0.35 || low != -0.2 {
		t.Errorf("got high=%v low=%v", high, low)
	}
	if _, _, err := SeriesRange(nil); err == nil {
		t.Error("expected error for empty series")
	}
}

func TestPositionInRange(t *testing.T) {
	tests := []struct {
		cur, high, low, want float64
	}{
		{5, 10, 0, 0.5},
		{12, 10, 0, 1},
		{-1, 10, 0, 0},
		{3, 3, 3, 0.5},
	}
	for _, tt := range tests {
		got, err := PositionInRange(tt.cur, tt.high, tt.low)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("PositionInRange(%v, %v, %v) = %v, want %v", tt.cur, tt.high, tt.low, got, tt.want)
		}
	}
	if _, err := PositionInRange(1, 0, 2); err == nil {
		t.Error("expected error when high < low")
	}
}

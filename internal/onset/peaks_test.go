package onset

import "testing"

func TestPeakHistory(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []int // indices of Push calls that report a peak
	}{
		{"all zero", []float64{0, 0, 0, 0, 0}, nil},
		{"single spike", []float64{0, 1, 0}, []int{2}},
		{"spike from start", []float64{1, 0}, []int{1}},
		{"rising", []float64{1, 2, 3, 4}, nil},
		{"falling", []float64{4, 3, 2, 1}, []int{1}},
		{"plateau counts once", []float64{0, 1, 1, 0}, []int{2}},
		{"two peaks", []float64{0, 2, 1, 3, 0}, []int{2, 4}},
		{"equal neighbours are not rising", []float64{2, 2, 2}, []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h PeakHistory
			var got []int
			for i, v := range tt.values {
				if h.Push(v) {
					got = append(got, i)
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("peaks at %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("peaks at %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestPeakHistoryShift(t *testing.T) {
	var h PeakHistory
	h.Push(1)
	h.Push(2)
	if h.Last() != 2 || h.LastLast() != 1 {
		t.Errorf("history = (%f, %f), want (2, 1)", h.Last(), h.LastLast())
	}
	h.Push(3)
	if h.Last() != 3 || h.LastLast() != 2 {
		t.Errorf("history = (%f, %f), want (3, 2)", h.Last(), h.LastLast())
	}
}

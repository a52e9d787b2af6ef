package policy

import "testing"

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		original   int64
		compressed int64
		minRatio   float64
		expected   Decision
	}{
		{"strict reduction at zero threshold", 1000, 999, 0, Accept},
		{"equal size at zero threshold", 1000, 1000, 0, Reject},
		{"larger candidate", 1000, 1200, 0, Reject},
		{"8 percent below 10 percent threshold", 1000, 920, 10, Reject},
		{"12 percent above 10 percent threshold", 1000, 880, 10, Accept},
		{"exactly at threshold", 1000, 900, 10, Accept},
		{"zero original size", 0, 0, 0, Reject},
		{"impossible threshold", 1000, 1, 100, Reject},
		{"zero candidate at full threshold", 1000, 0, 100, Accept},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Decide(test.original, test.compressed, test.minRatio)
			if got != test.expected {
				t.Errorf("Decide(%d, %d, %v) = %v, expected %v",
					test.original, test.compressed, test.minRatio, got, test.expected)
			}
		})
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	first := Decide(1000, 880, 10)
	for i := 0; i < 100; i++ {
		if got := Decide(1000, 880, 10); got != first {
			t.Fatalf("Decide returned %v after returning %v for identical inputs", got, first)
		}
	}
}

func TestSavedPercent(t *testing.T) {
	tests := []struct {
		original   int64
		compressed int64
		expected   float64
	}{
		{1000, 880, 12},
		{1000, 1000, 0},
		{1000, 1200, -20},
		{0, 100, 0},
	}

	for _, test := range tests {
		got := SavedPercent(test.original, test.compressed)
		if got != test.expected {
			t.Errorf("SavedPercent(%d, %d) = %v, expected %v",
				test.original, test.compressed, got, test.expected)
		}
	}
}

package excitement

import "testing"

func TestComposite_Monotonic(t *testing.T) {
	s := NewScorer()
	leads := []int{0, 1, 2, 3, 5, 9}
	swingsGrid := []float64{0, 0.01, 0.02, 0.04, 0.1, 0.5, 1}

	for _, avg := range swingsGrid {
		for _, largest := range swingsGrid {
			prev := -1.0
			for _, l := range leads {
				got := s.composite(l, avg, largest, 0)
				if got < prev {
					t.Fatalf("score fell from %v to %v as lead changes rose to %d", prev, got, l)
				}
				prev = got
			}
		}
	}

	for _, l := range leads {
		for _, largest := range swingsGrid {
			prev := -1.0
			for _, avg := range swingsGrid {
				got := s.composite(l, avg, largest, 0)
				if got < prev {
					t.Fatalf("score fell from %v to %v as average swing rose to %v", prev, got, avg)
				}
				prev = got
			}
		}
		for _, avg := range swingsGrid {
			prev := -1.0
			for _, largest := range swingsGrid {
				got := s.composite(l, avg, largest, 0)
				if got < prev {
					t.Fatalf("score fell from %v to %v as largest swing rose to %v", prev, got, largest)
				}
				prev = got
			}
		}
	}
}

func TestComposite_Bounds(t *testing.T) {
	s := NewScorer()
	if got := s.composite(0, 0, 0, 0); got != 0 {
		t.Errorf("composite of a still game = %v, want 0", got)
	}
	if got := s.composite(100, 1, 1, 1); got != MaxScore {
		t.Errorf("composite of a saturated game = %v, want %v", got, MaxScore)
	}
}

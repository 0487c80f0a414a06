// Package excitement rates how watchable a finished game was from its
// win-probability trace, without revealing who won.
//
// The scorer is a pure function of its input: it performs no I/O, keeps no
// state between calls and never mutates the samples it is given, so a single
// Scorer may be shared by any number of goroutines.
package excitement

import (
	"fmt"
	"math"
)

// Sample is one point of a win-probability trace.
type Sample struct {
	// Marker orders samples (elapsed time or play index). It is never interpolated.
	Marker float64 `json:"marker"`
	// Probability is one team's chance of winning, in [0, 1].
	Probability float64 `json:"probability"`
}

// Result summarises a trace.
type Result struct {
	LeadChanges    int     `json:"lead_changes"`
	AverageSwing   float64 `json:"average_swing"`
	LargestSwing   float64 `json:"largest_swing"`
	TossUpFraction float64 `json:"toss_up_fraction"`
	Score          float64 `json:"score"`
	Verdict        Verdict `json:"verdict"`
}

// Scorer turns sample sequences into Results under a fixed Policy.
type Scorer struct {
	policy Policy
}

// NewScorer creates a scorer with the default policy and applies opts.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{policy: DefaultPolicy()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns a copy of the scorer's policy.
func (s *Scorer) Policy() Policy {
	return s.policy
}

var defaultScorer = NewScorer() //nolint:gochecknoglobals // immutable after init

// Score rates samples with the default policy.
func Score(samples []Sample) (Result, error) {
	return defaultScorer.Score(samples)
}

// Score validates samples and computes the Result. On error the returned
// Result is always the zero value.
func (s *Scorer) Score(samples []Sample) (Result, error) {
	if err := Validate(samples); err != nil {
		return Result{}, err
	}

	avg, largest := swings(samples)
	leads := LeadChanges(samples)
	tossUp := s.tossUpFraction(samples)
	score := s.composite(leads, avg, largest, tossUp)

	return Result{
		LeadChanges:    leads,
		AverageSwing:   avg,
		LargestSwing:   largest,
		TossUpFraction: tossUp,
		Score:          score,
		Verdict:        s.policy.Thresholds.VerdictFor(score),
	}, nil
}

// Validate reports the first problem that makes samples unscorable.
func Validate(samples []Sample) error {
	if len(samples) < 2 {
		return fmt.Errorf("%w: need at least 2 samples, got %d", ErrInsufficientData, len(samples))
	}
	for i, smp := range samples {
		p := smp.Probability
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("%w: sample %d has probability %v", ErrOutOfRangeProbability, i, p)
		}
		if math.IsNaN(smp.Marker) {
			return fmt.Errorf("%w: sample %d has no marker", ErrUnorderedSequence, i)
		}
		if i > 0 && smp.Marker < samples[i-1].Marker {
			return fmt.Errorf("%w: sample %d marker %v precedes %v", ErrUnorderedSequence, i, smp.Marker, samples[i-1].Marker)
		}
	}
	return nil
}

// swings returns the mean and maximum absolute step between adjacent samples.
func swings(samples []Sample) (avg, largest float64) {
	var total float64
	for i := 1; i < len(samples); i++ {
		d := math.Abs(samples[i].Probability - samples[i-1].Probability)
		total += d
		if d > largest {
			largest = d
		}
	}
	return total / float64(len(samples)-1), largest
}

// LeadChanges counts strict flips of the favoured side. Samples at exactly
// even odds neither set the side nor count as a flip.
func LeadChanges(samples []Sample) int {
	var (
		side    int // -1 opponent, +1 team, 0 unknown
		changes int
	)
	for _, smp := range samples {
		var cur int
		switch {
		case smp.Probability > evenOdds:
			cur = 1
		case smp.Probability < evenOdds:
			cur = -1
		default:
			continue
		}
		if side != 0 && cur != side {
			changes++
		}
		side = cur
	}
	return changes
}

// tossUpFraction is the share of samples inside the toss-up band. Samples are
// counted uniformly regardless of marker spacing.
func (s *Scorer) tossUpFraction(samples []Sample) float64 {
	var inBand int
	for _, smp := range samples {
		if smp.Probability >= s.policy.TossUpLow && smp.Probability <= s.policy.TossUpHigh {
			inBand++
		}
	}
	return float64(inBand) / float64(len(samples))
}

func (s *Scorer) composite(leads int, avg, largest, tossUp float64) float64 {
	w, n := s.policy.Weights, s.policy.Norms
	score := saturate(float64(leads), n.LeadChanges)*w.LeadChanges +
		saturate(avg, n.AverageSwing)*w.AverageSwing +
		saturate(largest, n.LargestSwing)*w.LargestSwing +
		saturate(tossUp, n.TossUp)*w.TossUp
	return math.Max(0, math.Min(MaxScore, score))
}

// saturate maps x onto [0, 1], reaching 1 at norm.
func saturate(x, norm float64) float64 {
	return math.Min(x/norm, 1)
}

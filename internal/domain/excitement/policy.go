package excitement

import (
	"fmt"
	"math"
)

// Policy constants. They are tuning knobs, not derived from data.
const (
	MaxScore = 10.0

	DefaultLeadChangeNorm   = 3.0
	DefaultAverageSwingNorm = 0.04
	DefaultLargestSwingNorm = 0.18
	DefaultTossUpNorm       = 0.45

	DefaultLeadChangeWeight   = 4.0
	DefaultAverageSwingWeight = 3.0
	DefaultLargestSwingWeight = 3.0
	DefaultTossUpWeight       = 0.0

	DefaultWorthALookThreshold = 4.0
	DefaultExcitingThreshold   = 6.5
	DefaultMustWatchThreshold  = 8.5

	DefaultTossUpLow  = 0.45
	DefaultTossUpHigh = 0.55

	// evenOdds splits the two teams' sides of the trace.
	evenOdds = 0.5
)

// Weights sets how many of the MaxScore points each component can earn.
type Weights struct {
	LeadChanges  float64 `koanf:"lead_changes" json:"lead_changes"`
	AverageSwing float64 `koanf:"average_swing" json:"average_swing"`
	LargestSwing float64 `koanf:"largest_swing" json:"largest_swing"`
	TossUp       float64 `koanf:"toss_up" json:"toss_up"`
}

// Norms are the raw values at which a component saturates its weight.
type Norms struct {
	LeadChanges  float64 `koanf:"lead_changes" json:"lead_changes"`
	AverageSwing float64 `koanf:"average_swing" json:"average_swing"`
	LargestSwing float64 `koanf:"largest_swing" json:"largest_swing"`
	TossUp       float64 `koanf:"toss_up" json:"toss_up"`
}

func (w Weights) valid() bool {
	return finite(w.LeadChanges, w.AverageSwing, w.LargestSwing, w.TossUp) &&
		w.LeadChanges >= 0 && w.AverageSwing >= 0 && w.LargestSwing >= 0 && w.TossUp >= 0
}

func (n Norms) valid() bool {
	return finite(n.LeadChanges, n.AverageSwing, n.LargestSwing, n.TossUp) &&
		n.LeadChanges > 0 && n.AverageSwing > 0 && n.LargestSwing > 0 && n.TossUp > 0
}

// Validate reports whether every field of p would be accepted by WithPolicy.
func (p Policy) Validate() error {
	switch {
	case !p.Weights.valid():
		return fmt.Errorf("%w: weights must be finite and not negative", ErrInvalidPolicy)
	case !p.Norms.valid():
		return fmt.Errorf("%w: norms must be finite and positive", ErrInvalidPolicy)
	case !p.Thresholds.valid():
		return fmt.Errorf("%w: thresholds must increase within (0, %v]", ErrInvalidPolicy, MaxScore)
	case !(finite(p.TossUpLow, p.TossUpHigh) && p.TossUpLow >= 0 && p.TossUpHigh <= 1 && p.TossUpLow <= p.TossUpHigh):
		return fmt.Errorf("%w: toss-up band must lie within [0, 1]", ErrInvalidPolicy)
	}
	return nil
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Policy bundles every tunable the scorer uses.
type Policy struct {
	Weights    Weights    `json:"weights"`
	Norms      Norms      `json:"norms"`
	Thresholds Thresholds `json:"thresholds"`
	TossUpLow  float64    `json:"toss_up_low"`
	TossUpHigh float64    `json:"toss_up_high"`
}

// DefaultPolicy returns the stock weights, norms, tiers and toss-up band.
func DefaultPolicy() Policy {
	return Policy{
		Weights: Weights{
			LeadChanges:  DefaultLeadChangeWeight,
			AverageSwing: DefaultAverageSwingWeight,
			LargestSwing: DefaultLargestSwingWeight,
			TossUp:       DefaultTossUpWeight,
		},
		Norms: Norms{
			LeadChanges:  DefaultLeadChangeNorm,
			AverageSwing: DefaultAverageSwingNorm,
			LargestSwing: DefaultLargestSwingNorm,
			TossUp:       DefaultTossUpNorm,
		},
		Thresholds: Thresholds{
			WorthALook: DefaultWorthALookThreshold,
			Exciting:   DefaultExcitingThreshold,
			MustWatch:  DefaultMustWatchThreshold,
		},
		TossUpLow:  DefaultTossUpLow,
		TossUpHigh: DefaultTossUpHigh,
	}
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWeights replaces the component weights. Negative or non-finite
// weights are rejected.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		if w.valid() {
			s.policy.Weights = w
		}
	}
}

// WithNorms replaces the saturation points. Every norm must be positive and
// finite.
func WithNorms(n Norms) Option {
	return func(s *Scorer) {
		if n.valid() {
			s.policy.Norms = n
		}
	}
}

// WithThresholds replaces the tier boundaries. They must be strictly
// increasing and lie in (0, MaxScore].
func WithThresholds(t Thresholds) Option {
	return func(s *Scorer) {
		if t.valid() {
			s.policy.Thresholds = t
		}
	}
}

// WithTossUpBand sets the closed probability band counted as a toss-up.
func WithTossUpBand(low, high float64) Option {
	return func(s *Scorer) {
		if finite(low, high) && low >= 0 && high <= 1 && low <= high {
			s.policy.TossUpLow = low
			s.policy.TossUpHigh = high
		}
	}
}

// WithPolicy applies every field of p through the individual options so an
// invalid field falls back to whatever was configured before.
func WithPolicy(p Policy) Option {
	return func(s *Scorer) {
		WithWeights(p.Weights)(s)
		WithNorms(p.Norms)(s)
		WithThresholds(p.Thresholds)(s)
		WithTossUpBand(p.TossUpLow, p.TossUpHigh)(s)
	}
}

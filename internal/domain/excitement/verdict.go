package excitement

import (
	"fmt"
	"strings"
)

// Verdict is the ordered tier a game's score falls into.
type Verdict int

// Verdict tiers from least to most exciting.
const (
	VerdictSkip Verdict = iota
	VerdictWorthALook
	VerdictExciting
	VerdictMustWatch
)

var verdictLabels = [...]string{
	VerdictSkip:       "Skip it",
	VerdictWorthALook: "Worth a look",
	VerdictExciting:   "Exciting",
	VerdictMustWatch:  "Must watch",
}

func (v Verdict) String() string {
	if v < VerdictSkip || v > VerdictMustWatch {
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
	return verdictLabels[v]
}

// MarshalText encodes the verdict as its label.
func (v Verdict) MarshalText() ([]byte, error) {
	if v < VerdictSkip || v > VerdictMustWatch {
		return nil, fmt.Errorf("unknown verdict %d", int(v))
	}
	return []byte(verdictLabels[v]), nil
}

// UnmarshalText decodes a verdict label.
func (v *Verdict) UnmarshalText(b []byte) error {
	parsed, err := ParseVerdict(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseVerdict maps a label (case-insensitive) back to its Verdict.
func ParseVerdict(label string) (Verdict, error) {
	label = strings.TrimSpace(label)
	for i, l := range verdictLabels {
		if strings.EqualFold(l, label) {
			return Verdict(i), nil
		}
	}
	return VerdictSkip, fmt.Errorf("unknown verdict %q", label)
}

// Thresholds holds the inclusive lower bound of every tier above VerdictSkip.
// VerdictSkip always starts at 0, so the tiers cover [0, MaxScore] with no gaps.
type Thresholds struct {
	WorthALook float64 `koanf:"worth_a_look" json:"worth_a_look"`
	Exciting   float64 `koanf:"exciting" json:"exciting"`
	MustWatch  float64 `koanf:"must_watch" json:"must_watch"`
}

func (t Thresholds) valid() bool {
	return finite(t.WorthALook, t.Exciting, t.MustWatch) &&
		t.WorthALook > 0 &&
		t.WorthALook < t.Exciting &&
		t.Exciting < t.MustWatch &&
		t.MustWatch <= MaxScore
}

// VerdictFor returns the tier a score belongs to.
func (t Thresholds) VerdictFor(score float64) Verdict {
	switch {
	case score >= t.MustWatch:
		return VerdictMustWatch
	case score >= t.Exciting:
		return VerdictExciting
	case score >= t.WorthALook:
		return VerdictWorthALook
	default:
		return VerdictSkip
	}
}

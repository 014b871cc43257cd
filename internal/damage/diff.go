// Package damage computes which damage regions found at return were not
// already present at pickup.
//
// Two regions are the same damage when their centers are less than the
// threshold apart on both axes and their labels are identical. The check is
// per axis, so the matching area is a square rather than a circle.
package damage

import (
	"math"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/detection"
)

// DefaultThreshold is the maximum per-axis center distance, in pixels,
// for two regions to count as the same damage.
const DefaultThreshold = 50.0

// Matcher decides whether a pickup region and a return region describe the
// same damage. The zero value uses DefaultThreshold.
type Matcher struct {
	Threshold float64
}

// NewMatcher returns a Matcher with the given threshold. Non-positive
// values select DefaultThreshold.
func NewMatcher(threshold float64) Matcher {
	if threshold <= 0 || math.IsNaN(threshold) {
		threshold = DefaultThreshold
	}
	return Matcher{Threshold: threshold}
}

func (m Matcher) threshold() float64 {
	if m.Threshold <= 0 || math.IsNaN(m.Threshold) {
		return DefaultThreshold
	}
	return m.Threshold
}

// Matches reports whether p and r are the same damage. Both center offsets
// must be strictly below the threshold and the labels must match exactly.
func (m Matcher) Matches(p, r detection.Region) bool {
	t := m.threshold()
	return math.Abs(p.CenterX-r.CenterX) < t &&
		math.Abs(p.CenterY-r.CenterY) < t &&
		p.Label == r.Label
}

// Diff returns the return regions that match no pickup region, in their
// original order and unchanged. The result is never nil.
func (m Matcher) Diff(pickup, returned []detection.Region) []detection.Region {
	newRegions := make([]detection.Region, 0, len(returned))

	for _, r := range returned {
		if !m.matchesAny(pickup, r) {
			newRegions = append(newRegions, r)
		}
	}

	return newRegions
}

func (m Matcher) matchesAny(pickup []detection.Region, r detection.Region) bool {
	for _, p := range pickup {
		if m.Matches(p, r) {
			return true
		}
	}
	return false
}

// Diff applies the default Matcher.
func Diff(pickup, returned []detection.Region) []detection.Region {
	return Matcher{}.Diff(pickup, returned)
}

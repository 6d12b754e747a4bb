package game

import (
	"math"
	"time"
)

// Scoring tunables. Points decay logarithmically with elapsed time and
// geometrically with the attempt index.
const (
	DefaultMaxPoints   = 1000
	DefaultTimeLimit   = 30 * time.Second
	DefaultMaxAttempts = 2

	wrongMultiplier = 0.65
	timeMultiplier  = 0.75
	scalingFactor   = 0.025
)

// Score computes the points awarded for a correct answer given on
// attemptIndex (0-based) after elapsed time within the question window.
// Monotonically non-increasing in both elapsed and attemptIndex; a full-speed
// first-attempt answer earns maxPoints, an answer at the limit earns
// maxPoints*timeMultiplier.
func Score(maxPoints, attemptIndex int, elapsed, limit time.Duration) int {
	t := elapsed.Seconds()
	L := limit.Seconds()
	if t < 0 {
		t = 0
	}
	if t > L {
		t = L
	}

	timeCoef := timeMultiplier + (1-timeMultiplier)*math.Log1p(scalingFactor*(L-t))/math.Log1p(scalingFactor*L)
	wrongCoef := math.Pow(wrongMultiplier, float64(attemptIndex))

	return int(math.Round(float64(maxPoints) * math.Max(wrongCoef*timeCoef, 0)))
}

// Package scoring derives forward-looking quality signals for profiles
// from their observed usage history: a 0-100 risk score and a Bayesian
// estimate of the true success probability.
package scoring

import (
	"math"
	"time"
)

// DefaultHighRiskThreshold is the score at or above which a profile is
// considered high risk and excluded from selection.
const DefaultHighRiskThreshold = 75

// Component weights for the risk score. Ban evidence dominates; plain
// failures contribute a smaller share.
const (
	banWeight     = 0.7
	failureWeight = 0.3
)

// Age decay: evidence older than the horizon is discounted down to the
// floor. Fresh profiles score at full weight.
const (
	decayHorizon = 60 * 24 * time.Hour
	decayFloor   = 0.6
)

// RiskScorer computes 0-100 risk scores from usage counters.
type RiskScorer struct {
	// HighRiskThreshold gates IsHighRisk. Scores at or above it are high risk.
	HighRiskThreshold int
}

// NewRiskScorer returns a scorer with the given threshold, or the default
// when threshold is not positive.
func NewRiskScorer(threshold int) *RiskScorer {
	if threshold <= 0 {
		threshold = DefaultHighRiskThreshold
	}
	return &RiskScorer{HighRiskThreshold: threshold}
}

// Score computes the risk score from the session's counters and age.
//
// Each component is a Laplace-smoothed rate: (observed + 1) / (uses + 2).
// Smoothing keeps tiny samples away from the extremes (one ban in one use
// scores near 67, not 100) while converging on the empirical rate as
// volume grows. A profile with no usage has produced no evidence and
// scores zero.
func (r *RiskScorer) Score(uses, successes, bans int64, age time.Duration) int {
	if uses <= 0 {
		return 0
	}

	failures := uses - successes
	banRate := smoothedRate(bans, uses)
	failureRate := smoothedRate(failures, uses)

	raw := 100 * (banWeight*banRate + failureWeight*failureRate)
	score := int(math.Round(raw * ageDecay(age)))

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// IsHighRisk reports whether the counters place the profile at or above
// the configured threshold.
func (r *RiskScorer) IsHighRisk(uses, successes, bans int64, age time.Duration) bool {
	return r.Score(uses, successes, bans, age) >= r.HighRiskThreshold
}

// smoothedRate is the Laplace-smoothed event rate (count+1)/(uses+2).
func smoothedRate(count, uses int64) float64 {
	if count < 0 {
		count = 0
	}
	return (float64(count) + 1) / (float64(uses) + 2)
}

// ageDecay maps profile age to a weight in [decayFloor, 1]: old evidence
// says less about the profile's forward risk than fresh evidence.
func ageDecay(age time.Duration) float64 {
	if age <= 0 {
		return 1
	}
	frac := float64(age) / float64(decayHorizon)
	if frac > 1 {
		frac = 1
	}
	return 1 - frac*(1-decayFloor)
}

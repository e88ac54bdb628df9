package profile

import "github.com/pearcestephens/session-engine/internal/db"

// Rotation defaults: a hard volume ceiling and a recent ban-rate limit.
const (
	DefaultMaxUses           int64   = 100
	DefaultRotationThreshold float64 = 0.5
)

// RotationPolicy decides when a profile is worn out or burned and must be
// replaced. The volume ceiling and the ban-rate check are independent:
// either alone forces rotation.
type RotationPolicy struct {
	MaxUses          int64
	BanRateThreshold float64
}

// NewRotationPolicy returns a policy with the given limits, falling back
// to the defaults for non-positive values.
func NewRotationPolicy(maxUses int64, banRateThreshold float64) *RotationPolicy {
	if maxUses <= 0 {
		maxUses = DefaultMaxUses
	}
	if banRateThreshold <= 0 {
		banRateThreshold = DefaultRotationThreshold
	}
	return &RotationPolicy{MaxUses: maxUses, BanRateThreshold: banRateThreshold}
}

// ShouldRotate reports whether the session must be rotated. Pure
// comparisons over the counters, so it stays correct at the extremes of
// the integer range.
func (p *RotationPolicy) ShouldRotate(s *db.Session) bool {
	if s.UseCount >= p.MaxUses {
		return true
	}
	if s.UseCount > 0 && float64(s.BanCount)/float64(s.UseCount) > p.BanRateThreshold {
		return true
	}
	return false
}

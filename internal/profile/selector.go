package profile

import (
	"errors"
	"sort"

	"github.com/pearcestephens/session-engine/internal/db"
	"github.com/pearcestephens/session-engine/internal/scoring"
)

// ErrNoEligibleProfile is returned when no active, low-risk profile
// exists. Callers get an explicit signal, never a default profile.
var ErrNoEligibleProfile = errors.New("no eligible profile")

// Selector picks the statistically best available profile.
type Selector struct {
	store     *db.DB
	scorer    *scoring.RiskScorer
	estimator *scoring.Estimator
}

// NewSelector returns a Selector over the given store and models.
func NewSelector(store *db.DB, scorer *scoring.RiskScorer, estimator *scoring.Estimator) *Selector {
	return &Selector{store: store, scorer: scorer, estimator: estimator}
}

// SelectBest returns the active, non-high-risk session with the highest
// posterior success estimate. Ties prefer less-worn profiles (lower
// use_count), then the earliest created_at so selection is reproducible.
//
// Risk is re-derived from the counters here rather than trusting the
// persisted score, which can predate a threshold change.
func (sel *Selector) SelectBest() (*db.Session, error) {
	sessions, err := sel.store.ListActive()
	if err != nil {
		return nil, err
	}

	type candidate struct {
		session  db.Session
		estimate float64
	}
	candidates := make([]candidate, 0, len(sessions))
	for _, s := range sessions {
		if sel.scorer.IsHighRisk(s.UseCount, s.SuccessCount, s.BanCount, s.Age()) {
			continue
		}
		failures := s.UseCount - s.SuccessCount
		candidates = append(candidates, candidate{
			session:  s,
			estimate: sel.estimator.Estimate(s.SuccessCount, failures),
		})
	}
	if len(candidates) == 0 {
		return nil, ErrNoEligibleProfile
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.estimate != b.estimate {
			return a.estimate > b.estimate
		}
		if a.session.UseCount != b.session.UseCount {
			return a.session.UseCount < b.session.UseCount
		}
		if a.session.CreatedAt != b.session.CreatedAt {
			return a.session.CreatedAt < b.session.CreatedAt
		}
		// Second-resolution timestamps can collide; fall back to the id so
		// selection stays reproducible.
		return a.session.ID < b.session.ID
	})

	best := candidates[0].session
	return &best, nil
}

// Package profile implements the usage/ban telemetry, rotation policy,
// and selection policy over stored sessions.
package profile

import (
	"fmt"

	"github.com/pearcestephens/session-engine/internal/db"
	"github.com/pearcestephens/session-engine/internal/scoring"
)

// UsageEvent is the outcome of one automated browsing task against a
// profile. An event may be neither a success nor a ban (a retriable
// transient failure); only the use counter advances then.
type UsageEvent struct {
	Success bool `json:"success"`
	Banned  bool `json:"banned"`
}

// Tracker records usage outcomes and keeps the persisted risk score
// current. It performs no retries: a storage failure surfaces to the
// caller unchanged.
type Tracker struct {
	store  *db.DB
	scorer *scoring.RiskScorer
}

// NewTracker returns a Tracker over the given store and scorer.
func NewTracker(store *db.DB, scorer *scoring.RiskScorer) *Tracker {
	return &Tracker{store: store, scorer: scorer}
}

// Record applies the event to the session's counters atomically, then
// recomputes and persists the risk score from the updated counters.
// Unknown session ids surface db.ErrNotFound.
func (t *Tracker) Record(sessionID string, ev UsageEvent) (*db.Session, error) {
	if err := t.store.RecordUsage(sessionID, ev.Success, ev.Banned); err != nil {
		return nil, err
	}

	s, err := t.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		// Deleted between the increment and the read; treat as the
		// caller-error case.
		return nil, fmt.Errorf("record usage %s: %w", sessionID, db.ErrNotFound)
	}

	score := t.scorer.Score(s.UseCount, s.SuccessCount, s.BanCount, s.Age())
	if score != s.RiskScore {
		if err := t.store.UpdateRiskScore(sessionID, score); err != nil {
			return nil, err
		}
		s.RiskScore = score
	}
	return s, nil
}

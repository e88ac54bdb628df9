// Package session is the engine facade the automation driver consumes:
// create a session, use it, report the outcome, rotate when burned.
package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pearcestephens/session-engine/internal/config"
	"github.com/pearcestephens/session-engine/internal/db"
	"github.com/pearcestephens/session-engine/internal/fingerprint"
	"github.com/pearcestephens/session-engine/internal/profile"
	"github.com/pearcestephens/session-engine/internal/scoring"
)

// Manager composes the store, fingerprint generator, scoring models, and
// policies behind a single API. It is a state authority, not a resilience
// wrapper: nothing here retries, and every error surfaces to the caller.
type Manager struct {
	cfg       *config.Config
	store     *db.DB
	generator *fingerprint.Generator
	scorer    *scoring.RiskScorer
	estimator *scoring.Estimator
	tracker   *profile.Tracker
	rotation  *profile.RotationPolicy
	selector  *profile.Selector
}

// New creates a Manager with components built from the configuration.
func New(cfg *config.Config, store *db.DB) *Manager {
	scorer := scoring.NewRiskScorer(cfg.RiskThreshold)
	estimator := scoring.NewEstimator(cfg.PriorAlpha, cfg.PriorBeta)
	return &Manager{
		cfg:       cfg,
		store:     store,
		generator: fingerprint.NewGenerator(),
		scorer:    scorer,
		estimator: estimator,
		tracker:   profile.NewTracker(store, scorer),
		rotation:  profile.NewRotationPolicy(cfg.MaxUsesPerProfile, cfg.RotationThreshold),
		selector:  profile.NewSelector(store, scorer, estimator),
	}
}

// CreateSession generates a fingerprint for the named profile and
// persists a fresh active session around it.
func (m *Manager) CreateSession(profileName string) (*db.Session, error) {
	fp, err := m.generator.Generate(profileName)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", db.ErrInvalidInput)
	}
	return m.store.CreateSession(profileName, fp)
}

// GetSession returns the session for id, or (nil, nil) when absent.
// Retired sessions remain readable for audit.
func (m *Manager) GetSession(id string) (*db.Session, error) {
	return m.store.GetSession(id)
}

// ListSessions returns the audit view, retired sessions included.
func (m *Manager) ListSessions(limit, offset int) ([]db.Session, error) {
	return m.store.ListSessions(limit, offset)
}

// ListEligible returns active sessions whose persisted risk score is
// below maxRisk; non-positive maxRisk uses the configured threshold.
func (m *Manager) ListEligible(maxRisk int) ([]db.Session, error) {
	if maxRisk <= 0 {
		maxRisk = m.scorer.HighRiskThreshold
	}
	return m.store.ListEligible(maxRisk)
}

// RecordUsage applies one task outcome to the session and returns the
// updated record with its recomputed risk score.
func (m *Manager) RecordUsage(id string, ev profile.UsageEvent) (*db.Session, error) {
	return m.tracker.Record(id, ev)
}

// SelectBestProfile returns the best eligible session, or
// profile.ErrNoEligibleProfile when none qualifies.
func (m *Manager) SelectBestProfile() (*db.Session, error) {
	return m.selector.SelectBest()
}

// ShouldRotate reports whether the session has hit the use ceiling or the
// ban-rate limit. Unknown ids surface db.ErrNotFound.
func (m *Manager) ShouldRotate(id string) (bool, error) {
	s, err := m.store.GetSession(id)
	if err != nil {
		return false, err
	}
	if s == nil {
		return false, fmt.Errorf("should rotate %s: %w", id, db.ErrNotFound)
	}
	return m.rotation.ShouldRotate(s), nil
}

// RetireProfile permanently retires the session. Idempotent.
func (m *Manager) RetireProfile(id string) error {
	return m.store.RetireSession(id)
}

// ValidateFingerprint compares a presented fingerprint against the one
// stored at creation, field by field. Unknown ids surface db.ErrNotFound.
func (m *Manager) ValidateFingerprint(id string, presented fingerprint.Fingerprint) (bool, error) {
	s, err := m.store.GetSession(id)
	if err != nil {
		return false, err
	}
	if s == nil {
		return false, fmt.Errorf("validate fingerprint %s: %w", id, db.ErrNotFound)
	}
	return fingerprint.Validate(s.Fingerprint, presented), nil
}

// Cleanup removes sessions older than the retention horizon and returns
// the number removed.
func (m *Manager) Cleanup() (int64, error) {
	return m.store.DeleteOlderThan(m.cfg.RetentionDays)
}

// Run drives the periodic cleanup sweep: one sweep immediately, then one
// per interval until the context is cancelled. The removed-row count is
// logged as the sweep's operational metric.
func (m *Manager) Run(ctx context.Context) error {
	interval := time.Duration(m.cfg.CleanupInterval) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}

	for {
		removed, err := m.Cleanup()
		if err != nil {
			log.Printf("cleanup sweep: %v", err)
		} else if removed > 0 {
			log.Printf("cleanup sweep removed %d session(s) older than %d days", removed, m.cfg.RetentionDays)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

package profile

import (
	"math"
	"testing"

	"github.com/pearcestephens/session-engine/internal/db"
)

func TestShouldRotateAtUseCeiling(t *testing.T) {
	p := NewRotationPolicy(100, 0.5)

	if p.ShouldRotate(&db.Session{UseCount: 99, SuccessCount: 99}) {
		t.Fatal("expected no rotation below the ceiling")
	}
	if !p.ShouldRotate(&db.Session{UseCount: 100, SuccessCount: 100}) {
		t.Fatal("expected rotation at the ceiling")
	}
	if !p.ShouldRotate(&db.Session{UseCount: 101, SuccessCount: 101}) {
		t.Fatal("expected rotation past the ceiling")
	}
}

func TestShouldRotateAtMaxInt(t *testing.T) {
	p := NewRotationPolicy(100, 0.5)

	// Counter at the top of the integer range must still evaluate as
	// "must rotate" rather than wrapping or panicking.
	s := &db.Session{UseCount: math.MaxInt64, SuccessCount: math.MaxInt64}
	if !p.ShouldRotate(s) {
		t.Fatal("expected rotation at MaxInt64 use count")
	}
}

func TestShouldRotateOnBanRate(t *testing.T) {
	p := NewRotationPolicy(100, 0.5)

	// 6 bans in 10 uses: 60% ban rate exceeds the 50% threshold even
	// though the volume ceiling is far away.
	if !p.ShouldRotate(&db.Session{UseCount: 10, SuccessCount: 4, BanCount: 6}) {
		t.Fatal("expected rotation at 60% ban rate")
	}
	if p.ShouldRotate(&db.Session{UseCount: 10, SuccessCount: 9, BanCount: 1}) {
		t.Fatal("expected no rotation at 10% ban rate")
	}
	// Exactly at the threshold does not rotate; only exceeding it does.
	if p.ShouldRotate(&db.Session{UseCount: 10, SuccessCount: 5, BanCount: 5}) {
		t.Fatal("expected no rotation exactly at the threshold")
	}
}

func TestShouldRotateFreshProfile(t *testing.T) {
	p := NewRotationPolicy(100, 0.5)

	if p.ShouldRotate(&db.Session{}) {
		t.Fatal("expected no rotation for an unused profile")
	}
}

func TestNewRotationPolicyDefaults(t *testing.T) {
	p := NewRotationPolicy(0, 0)
	if p.MaxUses != DefaultMaxUses {
		t.Fatalf("expected default max uses %d, got %d", DefaultMaxUses, p.MaxUses)
	}
	if p.BanRateThreshold != DefaultRotationThreshold {
		t.Fatalf("expected default threshold %f, got %f", DefaultRotationThreshold, p.BanRateThreshold)
	}
}

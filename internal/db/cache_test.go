package db

import (
	"fmt"
	"testing"
)

func TestCachePutGetInvalidate(t *testing.T) {
	c := newSessionCache()

	s := &Session{ID: "abc", ProfileName: "profile-a"}
	c.put(s)

	got, ok := c.get("abc")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.ProfileName != "profile-a" {
		t.Fatalf("expected profile-a, got %q", got.ProfileName)
	}

	// Cached copies must not alias the stored entry.
	got.ProfileName = "mutated"
	again, _ := c.get("abc")
	if again.ProfileName != "profile-a" {
		t.Fatalf("cache entry mutated through returned copy: %q", again.ProfileName)
	}

	c.invalidate("abc")
	if _, ok := c.get("abc"); ok {
		t.Fatal("expected miss after invalidate")
	}
}

func TestCacheResetOverCap(t *testing.T) {
	c := newSessionCache()

	for i := 0; i < cacheMaxEntries; i++ {
		c.put(&Session{ID: fmt.Sprintf("id-%d", i)})
	}
	// The next put resets the map rather than growing without bound.
	c.put(&Session{ID: "overflow"})

	if _, ok := c.get("id-0"); ok {
		t.Fatal("expected old entries flushed after cap reset")
	}
	if _, ok := c.get("overflow"); !ok {
		t.Fatal("expected the triggering entry to be cached")
	}
}

func TestCacheBacksGetSession(t *testing.T) {
	d := openTestDB(t)
	s := createTestSession(t, d, "profile-a")

	// Prime the cache, then change the row behind the store's back. The
	// cached read returns the stale value until a mutation invalidates it.
	if _, err := d.GetSession(s.ID); err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if _, err := d.Conn().Exec(`UPDATE sessions SET profile_name = 'renamed' WHERE session_id = ?`, s.ID); err != nil {
		t.Fatalf("raw update: %v", err)
	}

	cached, _ := d.GetSession(s.ID)
	if cached.ProfileName != "profile-a" {
		t.Fatalf("expected cached read, got %q", cached.ProfileName)
	}

	if err := d.RecordUsage(s.ID, true, false); err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}
	fresh, _ := d.GetSession(s.ID)
	if fresh.ProfileName != "renamed" {
		t.Fatalf("expected fresh read after invalidation, got %q", fresh.ProfileName)
	}
}

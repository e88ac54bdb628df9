// Package db provides durable relational persistence for session/profile
// records over SQLite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/pearcestephens/session-engine/internal/fingerprint"
)

// Session statuses. Transitions to retired are one-way.
const (
	StatusActive  = "active"
	StatusRetired = "retired"
)

const defaultQueryTimeout = 5 * time.Second

// DB wraps a sql.DB connection to the SQLite session store.
type DB struct {
	conn         *sql.DB
	cache        *sessionCache
	queryTimeout time.Duration
}

// Session is a synthetic browser identity record.
type Session struct {
	ID           string
	ProfileName  string
	Fingerprint  fingerprint.Fingerprint
	UseCount     int64
	SuccessCount int64
	BanCount     int64
	RiskScore    int
	Status       string // active, retired
	CreatedAt    string // RFC3339 UTC
}

// Retired reports whether the session has been permanently retired.
func (s *Session) Retired() bool {
	return s.Status == StatusRetired
}

// Age returns the time elapsed since the session was created, or zero if
// the stored timestamp cannot be parsed.
func (s *Session) Age() time.Duration {
	t, err := time.Parse(time.RFC3339, s.CreatedAt)
	if err != nil {
		return 0
	}
	return time.Since(t)
}

// Open creates a new DB connection and runs all pending migrations.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Single writer connection: SQLite serializes mutations, which is what
	// makes the relative counter increments lose-free under concurrency.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", ErrUnavailable)
	}

	if err := migrate(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &DB{
		conn:         conn,
		cache:        newSessionCache(),
		queryTimeout: defaultQueryTimeout,
	}, nil
}

func migrate(conn *sql.DB) error {
	goose.SetBaseFS(migrationFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return goose.Up(conn, "migrations")
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying *sql.DB for use by other packages if needed.
func (d *DB) Conn() *sql.DB {
	return d.conn
}

// SetQueryTimeout bounds every persistence round-trip. Exhausting the
// deadline surfaces as ErrTimeout.
func (d *DB) SetQueryTimeout(timeout time.Duration) {
	if timeout > 0 {
		d.queryTimeout = timeout
	}
}

func (d *DB) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d.queryTimeout)
}

// --- Session Methods ---

const sessionColumns = `session_id, profile_name, canvas_hash, webgl_hash, audio_hash, hardware_concurrency, device_memory, tls_fingerprint, battery_level, viewport_width, viewport_height, use_count, success_count, ban_count, risk_score, status, created_at`

func scanSession(scanner interface{ Scan(...any) error }, s *Session) error {
	fp := &s.Fingerprint
	return scanner.Scan(
		&s.ID, &s.ProfileName,
		&fp.CanvasHash, &fp.WebGLHash, &fp.AudioHash,
		&fp.HardwareConcurrency, &fp.DeviceMemory, &fp.TLSFingerprint,
		&fp.BatteryLevel, &fp.ViewportWidth, &fp.ViewportHeight,
		&s.UseCount, &s.SuccessCount, &s.BanCount,
		&s.RiskScore, &s.Status, &s.CreatedAt,
	)
}

// CreateSession validates the profile name, then persists a new active
// session with zeroed counters, the given fingerprint, and a fresh unique
// id. Validation failures are rejected before any write; an id collision
// surfaces as ErrConflict.
func (d *DB) CreateSession(profileName string, fp fingerprint.Fingerprint) (*Session, error) {
	if strings.TrimSpace(profileName) == "" {
		return nil, fmt.Errorf("create session: profile name: %w", ErrInvalidInput)
	}

	s := &Session{
		ID:          uuid.NewString(),
		ProfileName: profileName,
		Fingerprint: fp,
		Status:      StatusActive,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := d.InsertSession(s); err != nil {
		return nil, err
	}
	return s, nil
}

// InsertSession persists a fully formed session record.
func (d *DB) InsertSession(s *Session) error {
	ctx, cancel := d.opCtx()
	defer cancel()

	fp := s.Fingerprint
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.ProfileName,
		fp.CanvasHash, fp.WebGLHash, fp.AudioHash,
		fp.HardwareConcurrency, fp.DeviceMemory, fp.TLSFingerprint,
		fp.BatteryLevel, fp.ViewportWidth, fp.ViewportHeight,
		s.UseCount, s.SuccessCount, s.BanCount,
		s.RiskScore, s.Status, s.CreatedAt,
	)
	return storageErr("insert session", err)
}

// GetSession retrieves a single session by id. Unknown ids return
// (nil, nil): absence is a normal outcome here, not an error.
func (d *DB) GetSession(id string) (*Session, error) {
	if s, ok := d.cache.get(id); ok {
		return s, nil
	}

	ctx, cancel := d.opCtx()
	defer cancel()

	s := &Session{}
	row := d.conn.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, id)
	if err := scanSession(row, s); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, storageErr("get session", err)
	}

	d.cache.put(s)
	return s, nil
}

// RecordUsage applies a usage outcome to the session's counters in a
// single relative-increment statement, so concurrent calls never lose
// updates. A call may be neither success nor ban (a retriable transient
// failure); only use_count advances then. Unknown ids are a caller error.
func (d *DB) RecordUsage(id string, success, banned bool) error {
	ctx, cancel := d.opCtx()
	defer cancel()

	res, err := d.conn.ExecContext(ctx,
		`UPDATE sessions
		 SET use_count = use_count + 1,
		     success_count = success_count + ?,
		     ban_count = ban_count + ?
		 WHERE session_id = ?`,
		boolToInt(success), boolToInt(banned), id,
	)
	if err != nil {
		return storageErr("record usage", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageErr("record usage", err)
	} else if n == 0 {
		return fmt.Errorf("record usage %s: %w", id, ErrNotFound)
	}

	d.cache.invalidate(id)
	return nil
}

// UpdateRiskScore persists a recomputed risk score. The stored value is
// derived, never authoritative; it exists for list views and the
// eligibility pre-filter.
func (d *DB) UpdateRiskScore(id string, score int) error {
	ctx, cancel := d.opCtx()
	defer cancel()

	res, err := d.conn.ExecContext(ctx,
		`UPDATE sessions SET risk_score = ? WHERE session_id = ?`, score, id,
	)
	if err != nil {
		return storageErr("update risk score", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageErr("update risk score", err)
	} else if n == 0 {
		return fmt.Errorf("update risk score %s: %w", id, ErrNotFound)
	}

	d.cache.invalidate(id)
	return nil
}

// RetireSession flips the session to retired. Idempotent, irreversible:
// there is no operation that reactivates a retired session.
func (d *DB) RetireSession(id string) error {
	ctx, cancel := d.opCtx()
	defer cancel()

	res, err := d.conn.ExecContext(ctx,
		`UPDATE sessions SET status = ? WHERE session_id = ?`, StatusRetired, id,
	)
	if err != nil {
		return storageErr("retire session", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageErr("retire session", err)
	} else if n == 0 {
		return fmt.Errorf("retire session %s: %w", id, ErrNotFound)
	}

	d.cache.invalidate(id)
	return nil
}

// ListActive returns all non-retired sessions, oldest first.
func (d *DB) ListActive() ([]Session, error) {
	ctx, cancel := d.opCtx()
	defer cancel()

	rows, err := d.conn.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE status = ? ORDER BY created_at ASC, session_id ASC`,
		StatusActive,
	)
	if err != nil {
		return nil, storageErr("list active", err)
	}
	return collectSessions("list active", rows)
}

// ListEligible returns non-retired sessions whose persisted risk score is
// below maxRisk, oldest first. The selector re-derives scores from the
// counters before choosing; this is the coarse storage-level pre-filter.
func (d *DB) ListEligible(maxRisk int) ([]Session, error) {
	ctx, cancel := d.opCtx()
	defer cancel()

	rows, err := d.conn.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE status = ? AND risk_score < ?
		 ORDER BY created_at ASC, session_id ASC`,
		StatusActive, maxRisk,
	)
	if err != nil {
		return nil, storageErr("list eligible", err)
	}
	return collectSessions("list eligible", rows)
}

// ListSessions returns sessions for the audit view (retired included),
// newest first, with a limit and offset.
func (d *DB) ListSessions(limit, offset int) ([]Session, error) {
	ctx, cancel := d.opCtx()
	defer cancel()

	rows, err := d.conn.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC, session_id ASC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, storageErr("list sessions", err)
	}
	return collectSessions("list sessions", rows)
}

// DeleteOlderThan removes sessions created before the retention horizon
// and returns the number of rows removed. This is the only outflow of
// session rows; it never touches counters of younger rows.
func (d *DB) DeleteOlderThan(days int) (int64, error) {
	ctx, cancel := d.opCtx()
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
	res, err := d.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE created_at < ?`, cutoff,
	)
	if err != nil {
		return 0, storageErr("delete older than", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("delete older than", err)
	}

	if n > 0 {
		d.cache.reset()
	}
	return n, nil
}

func collectSessions(op string, rows *sql.Rows) ([]Session, error) {
	defer rows.Close() //nolint:errcheck

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := scanSession(rows, &s); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		sessions = append(sessions, s)
	}
	return sessions, storageErr(op, rows.Err())
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

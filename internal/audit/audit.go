// internal/audit/audit.go
//
// Render audit log.
//
// Context
// -------
// When a `database` block is configured, every report request (success or
// failure) is recorded as one row of `report_render_log`:
//
//	id, report, path, method, extension, status, username, client_ip,
//	user_agent, request_id, bytes, duration_ms, rendered_at
//
// Without a database the server uses Nop and nothing is stored.
//
// Notes
// -----
// • Recording is best effort.  The handler logs a failed insert and keeps
//   serving; the audit table never gates a report.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Entry is one audited render.
type Entry struct {
	ID         int64     `db:"id"`
	Report     string    `db:"report"`
	Path       string    `db:"path"`
	Method     string    `db:"method"`
	Extension  string    `db:"extension"`
	Status     int       `db:"status"`
	Username   string    `db:"username"`
	ClientIP   string    `db:"client_ip"`
	UserAgent  string    `db:"user_agent"`
	RequestID  string    `db:"request_id"`
	Bytes      int       `db:"bytes"`
	DurationMS int64     `db:"duration_ms"`
	RenderedAt time.Time `db:"rendered_at"`
}

// Recorder stores entries.  Implementations must be safe for concurrent use.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Nop discards every entry.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Entry) error { return nil }

// Schema creates the audit table when missing.
const Schema = `CREATE TABLE IF NOT EXISTS report_render_log (
	id          BIGINT AUTO_INCREMENT PRIMARY KEY,
	report      VARCHAR(255) NOT NULL,
	path        VARCHAR(1024) NOT NULL,
	method      VARCHAR(8)   NOT NULL,
	extension   VARCHAR(32)  NOT NULL,
	status      SMALLINT     NOT NULL,
	username    VARCHAR(255) NOT NULL DEFAULT '',
	client_ip   VARCHAR(64)  NOT NULL DEFAULT '',
	user_agent  VARCHAR(512) NOT NULL DEFAULT '',
	request_id  VARCHAR(128) NOT NULL DEFAULT '',
	bytes       INT          NOT NULL DEFAULT 0,
	duration_ms BIGINT       NOT NULL DEFAULT 0,
	rendered_at DATETIME(6)  NOT NULL,
	KEY idx_report_rendered (report, rendered_at)
)`

// Store writes entries to MySQL through sqlx.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open pool.
func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

// EnsureSchema creates the audit table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create report_render_log: %w", err)
	}
	return nil
}

// Record inserts e.  A zero RenderedAt is set to now (UTC).
func (s *Store) Record(ctx context.Context, e Entry) error {
	const q = `INSERT INTO report_render_log
	             (report, path, method, extension, status, username, client_ip,
	              user_agent, request_id, bytes, duration_ms, rendered_at)
	           VALUES
	             (:report, :path, :method, :extension, :status, :username, :client_ip,
	              :user_agent, :request_id, :bytes, :duration_ms, :rendered_at)`

	if e.RenderedAt.IsZero() {
		e.RenderedAt = time.Now().UTC()
	}
	if _, err := s.db.NamedExecContext(ctx, q, e); err != nil {
		return fmt.Errorf("record render of %q: %w", e.Report, err)
	}
	return nil
}

// Recent returns the latest limit entries, newest first.  An empty report
// name matches every report.
func (s *Store) Recent(ctx context.Context, report string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `SELECT id, report, path, method, extension, status, username, client_ip,
	                  user_agent, request_id, bytes, duration_ms, rendered_at
	             FROM report_render_log
	            WHERE (? = '' OR report = ?)
	            ORDER BY rendered_at DESC, id DESC
	            LIMIT ?`

	var out []Entry
	if err := s.db.SelectContext(ctx, &out, q, report, report, limit); err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	return out, nil
}

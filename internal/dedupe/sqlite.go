package dedupe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bakkerme/feedscan/internal/scan"
	_ "modernc.org/sqlite"
)

const DefaultTable = "reported_entries"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteStore keeps reported links in a single sqlite table. A link counts as
// seen while its last report is younger than ttl; a ttl of zero never expires.
type SQLiteStore struct {
	db    *sql.DB
	table string
	ttl   time.Duration
	now   func() time.Time

	seenSQL     string
	rememberSQL string
	pruneSQL    string
}

func NewSQLiteStore(dsn, table string, ttl time.Duration) (*SQLiteStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn is required")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("sqlite ttl must be >= 0")
	}
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("sqlite table name %q must match %s", table, tableNamePattern)
	}
	if err := ensureParentDir(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	quoted := `"` + table + `"`
	s := &SQLiteStore{
		db:    db,
		table: table,
		ttl:   ttl,
		now:   time.Now,
	}
	s.seenSQL = fmt.Sprintf("SELECT last_seen FROM %s WHERE link = ?", quoted)
	s.rememberSQL = fmt.Sprintf(`INSERT INTO %s (link, feed_url, title, first_seen, last_seen)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(link) DO UPDATE SET feed_url = excluded.feed_url, title = excluded.title, last_seen = excluded.last_seen`, quoted)
	s.pruneSQL = fmt.Sprintf("DELETE FROM %s WHERE last_seen < ?", quoted)
	if err := s.migrate(context.Background(), quoted); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context, quoted string) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	link TEXT PRIMARY KEY,
	feed_url TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	first_seen TIMESTAMP NOT NULL,
	last_seen TIMESTAMP NOT NULL
)`, quoted),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS "%s_last_seen" ON %s (last_seen)`, s.table, quoted),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.table, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Seen(ctx context.Context, link string) (bool, error) {
	if link == "" {
		return false, nil
	}
	var last time.Time
	switch err := s.db.QueryRowContext(ctx, s.seenSQL, link).Scan(&last); {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("lookup %s: %w", link, err)
	}
	return s.ttl == 0 || !last.Before(s.cutoff()), nil
}

func (s *SQLiteStore) Remember(ctx context.Context, feedURL string, entries []scan.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rememberSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := s.now().UTC()
	for _, entry := range entries {
		if entry.Link == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, entry.Link, feedURL, entry.Title, now, now); err != nil {
			return fmt.Errorf("remember %s: %w", entry.Link, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Prune(ctx context.Context) (int64, error) {
	if s.ttl == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, s.pruneSQL, s.cutoff())
	if err != nil {
		return 0, fmt.Errorf("prune %s: %w", s.table, err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) cutoff() time.Time {
	return s.now().UTC().Add(-s.ttl)
}

// ensureParentDir creates the directory holding a file-backed dsn.
func ensureParentDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	path, _, _ = strings.Cut(path, "?")
	if path == "" || path == ":memory:" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

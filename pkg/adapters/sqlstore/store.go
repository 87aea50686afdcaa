// Package sqlstore persists sessions and user facts in a SQL database.
// SQLite (github.com/mattn/go-sqlite3) and PostgreSQL (github.com/lib/pq) are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/bartender/pkg/domain"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store implements ports.Store on database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to dsn with the given driver and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("sql store: empty dsn")
	}
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, errors.Errorf("sql store: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "sql store: open")
	}

	if driver == DriverSQLite {
		// One connection serializes writers; SQLite would answer SQLITE_BUSY otherwise.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			data TEXT NOT NULL,
			updated_at_ms BIGINT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_facts (
			user_id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at_ms BIGINT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS sessions_by_user ON sessions(user_id, updated_at_ms DESC);`,
	}
	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return errors.Wrap(err, "sql store: migrate")
		}
	}
	return nil
}

// rebind rewrites ? placeholders into the driver's syntax.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save upserts the session row.
func (s *Store) Save(ctx context.Context, session *domain.Session) error {
	session.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "sql store: marshal session")
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO sessions (id, user_id, status, data, updated_at_ms)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			user_id = excluded.user_id,
			status = excluded.status,
			data = excluded.data,
			updated_at_ms = excluded.updated_at_ms`),
		session.ID, session.UserID, string(session.Status), string(data), session.UpdatedAt.UnixMilli(),
	)
	return errors.Wrap(err, "sql store: save session")
}

// Load reads the session row.
func (s *Store) Load(ctx context.Context, id string) (*domain.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT data FROM sessions WHERE id = ?`), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "sql store: load session")
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, errors.Wrap(err, "sql store: unmarshal session")
	}
	return &session, nil
}

// Delete removes the session row.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE id = ?`), id)
	return errors.Wrap(err, "sql store: delete session")
}

// List returns conversation IDs, most recently updated first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions ORDER BY updated_at_ms DESC, id`)
	if err != nil {
		return nil, errors.Wrap(err, "sql store: list sessions")
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "sql store: scan session id")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "sql store: list sessions")
}

// LoadFacts reads the facts row of a user.
func (s *Store) LoadFacts(ctx context.Context, userID string) (*domain.UserFacts, error) {
	var data string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT data FROM user_facts WHERE user_id = ?`), userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrFactsNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "sql store: load facts")
	}

	var facts domain.UserFacts
	if err := json.Unmarshal([]byte(data), &facts); err != nil {
		return nil, errors.Wrap(err, "sql store: unmarshal facts")
	}
	return &facts, nil
}

// UpdateFacts applies fn inside a transaction holding the user's row.
func (s *Store) UpdateFacts(ctx context.Context, userID string, fn func(*domain.UserFacts) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "sql store: begin facts tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	empty, err := json.Marshal(domain.UserFacts{UserID: userID})
	if err != nil {
		return errors.Wrap(err, "sql store: marshal facts")
	}
	// Materialize the row so that it can be locked even on first use.
	if _, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO user_facts (user_id, data, updated_at_ms) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`),
		userID, string(empty), time.Now().UnixMilli(),
	); err != nil {
		return errors.Wrap(err, "sql store: init facts")
	}

	query := `SELECT data FROM user_facts WHERE user_id = ?`
	if s.driver == DriverPostgres {
		query += ` FOR UPDATE`
	}
	var data string
	if err = tx.QueryRowContext(ctx, s.rebind(query), userID).Scan(&data); err != nil {
		return errors.Wrap(err, "sql store: lock facts")
	}

	var facts domain.UserFacts
	if err = json.Unmarshal([]byte(data), &facts); err != nil {
		return errors.Wrap(err, "sql store: unmarshal facts")
	}
	if err = fn(&facts); err != nil {
		return err
	}
	facts.UserID = userID
	facts.UpdatedAt = time.Now().UTC()

	next, err := json.Marshal(facts)
	if err != nil {
		return errors.Wrap(err, "sql store: marshal facts")
	}
	if _, err = tx.ExecContext(ctx, s.rebind(`UPDATE user_facts SET data = ?, updated_at_ms = ? WHERE user_id = ?`),
		string(next), facts.UpdatedAt.UnixMilli(), userID,
	); err != nil {
		return errors.Wrap(err, "sql store: update facts")
	}

	return errors.Wrap(tx.Commit(), "sql store: commit facts")
}

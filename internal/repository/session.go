package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Sapuran-Berperan/fleet-portal/internal/session"
)

const sessionsTable = "portal_sessions"

// psql uses PostgreSQL placeholder format ($1, $2, etc.)
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// SessionStore persists portal sessions in Postgres
type SessionStore struct {
	q   *Queries
	now func() time.Time
}

// NewSessionStore creates a session.Store on db
func NewSessionStore(db DBTX) *SessionStore {
	return &SessionStore{q: New(db), now: time.Now}
}

// Load returns a live session
func (s *SessionStore) Load(ctx context.Context, id string) (*session.Session, error) {
	query, args, err := psql.
		Select("id", "jwt", "user_type", "username", "user_id", "created_at").
		From(sessionsTable).
		Where(sq.Eq{"id": id}).
		Where(sq.Gt{"expires_at": s.now().UTC()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build session query: %w", err)
	}

	var sess session.Session
	err = s.q.db.QueryRowContext(ctx, query, args...).Scan(
		&sess.ID,
		&sess.JWT,
		&sess.UserType,
		&sess.Username,
		&sess.UserID,
		&sess.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &sess, nil
}

// Save inserts or replaces a session
func (s *SessionStore) Save(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	createdAt := sess.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}

	query, args, err := psql.
		Insert(sessionsTable).
		Columns("id", "jwt", "user_type", "username", "user_id", "created_at", "expires_at").
		Values(sess.ID, sess.JWT, sess.UserType, sess.Username, sess.UserID, createdAt, s.now().UTC().Add(ttl)).
		Suffix("ON CONFLICT (id) DO UPDATE SET " +
			"jwt = EXCLUDED.jwt, user_type = EXCLUDED.user_type, username = EXCLUDED.username, " +
			"user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build session upsert: %w", err)
	}

	if _, err := s.q.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session; removing a missing session is not an error
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete(sessionsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build session delete: %w", err)
	}
	if _, err := s.q.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired purges sessions past their expiry and returns how many were removed
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	query, args, err := psql.Delete(sessionsTable).Where(sq.LtOrEq{"expires_at": s.now().UTC()}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build expired session delete: %w", err)
	}
	res, err := s.q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hostblock/internal/modules/session/domain"
	sessionout "hostblock/internal/modules/session/port/out"
	apperrors "hostblock/internal/platform/errors"
)

type SQLiteSessionStore struct {
	db *sql.DB
}

func NewSQLiteSessionStore(db *sql.DB) sessionout.SessionStore {
	return &SQLiteSessionStore{db: db}
}

const sessionColumns = `id, domains, created_at, wait_until, end_time, session_type, is_all_domains, target_name, queued_for`

func (s *SQLiteSessionStore) Create(ctx context.Context, now time.Time, params sessionout.CreateSessionParams) (int64, error) {
	waitUntil := now
	if params.WaitMinutes > 0 {
		waitUntil = now.Add(minutes(params.WaitMinutes))
	}
	endTime := waitUntil.Add(minutes(params.DurationMinutes))

	domainsJSON, err := json.Marshal(params.Domains)
	if err != nil {
		return 0, &apperrors.StorageError{Op: "create session", Err: err}
	}
	var queuedFor any
	if len(params.QueuedFor) > 0 {
		raw, err := json.Marshal(params.QueuedFor)
		if err != nil {
			return 0, &apperrors.StorageError{Op: "create session", Err: err}
		}
		queuedFor = string(raw)
	}

	res, err := queryer(ctx, s.db).ExecContext(ctx, `
INSERT INTO unblock_sessions (domains, created_at, wait_until, end_time, session_type, is_all_domains, target_name, queued_for)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(domainsJSON), now.Unix(), waitUntil.Unix(), endTime.Unix(),
		params.SessionType, boolToInt(params.IsAllDomains), params.TargetName, queuedFor,
	)
	if err != nil {
		return 0, &apperrors.StorageError{Op: "create session", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &apperrors.StorageError{Op: "create session", Err: err}
	}
	return id, nil
}

func (s *SQLiteSessionStore) Get(ctx context.Context, id int64) (domain.Session, error) {
	row := queryer(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM unblock_sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, apperrors.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, &apperrors.StorageError{Op: "get session", Err: err}
	}
	return session, nil
}

func (s *SQLiteSessionStore) ListActive(ctx context.Context, now time.Time) ([]domain.Session, error) {
	return s.list(ctx, `
SELECT `+sessionColumns+` FROM unblock_sessions
WHERE end_time > ? AND wait_until <= ? AND queued_for IS NULL
ORDER BY end_time DESC`, now.Unix(), now.Unix())
}

func (s *SQLiteSessionStore) ListPending(ctx context.Context, now time.Time) ([]domain.Session, error) {
	return s.list(ctx, `
SELECT `+sessionColumns+` FROM unblock_sessions
WHERE wait_until > ? AND queued_for IS NULL
ORDER BY wait_until ASC`, now.Unix())
}

func (s *SQLiteSessionStore) ListQueued(ctx context.Context) ([]domain.Session, error) {
	return s.list(ctx, `
SELECT `+sessionColumns+` FROM unblock_sessions
WHERE queued_for IS NOT NULL
ORDER BY created_at ASC`)
}

func (s *SQLiteSessionStore) Cancel(ctx context.Context, id int64) error {
	if _, err := queryer(ctx, s.db).ExecContext(ctx,
		`DELETE FROM unblock_sessions WHERE id = ?`, id); err != nil {
		return &apperrors.StorageError{Op: "cancel session", Err: err}
	}
	return nil
}

func (s *SQLiteSessionStore) ExtendEndTime(ctx context.Context, id int64, newEndTime time.Time) error {
	if _, err := queryer(ctx, s.db).ExecContext(ctx,
		`UPDATE unblock_sessions SET end_time = ? WHERE id = ?`, newEndTime.Unix(), id); err != nil {
		return &apperrors.StorageError{Op: "extend session", Err: err}
	}
	return nil
}

func (s *SQLiteSessionStore) ActivateQueued(ctx context.Context, id int64, now time.Time, waitMinutes float64) error {
	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	waitUntil := now
	if waitMinutes > 0 {
		waitUntil = now.Add(minutes(waitMinutes))
	}
	endTime := waitUntil.Add(session.ConfiguredDuration())
	if _, err := queryer(ctx, s.db).ExecContext(ctx, `
UPDATE unblock_sessions
SET queued_for = NULL, created_at = ?, wait_until = ?, end_time = ?
WHERE id = ?`, now.Unix(), waitUntil.Unix(), endTime.Unix(), id); err != nil {
		return &apperrors.StorageError{Op: "activate queued session", Err: err}
	}
	return nil
}

func (s *SQLiteSessionStore) PurgeExpired(ctx context.Context, now time.Time) error {
	if _, err := queryer(ctx, s.db).ExecContext(ctx,
		`DELETE FROM unblock_sessions WHERE end_time <= ? AND queued_for IS NULL`, now.Unix()); err != nil {
		return &apperrors.StorageError{Op: "purge expired sessions", Err: err}
	}
	return nil
}

func (s *SQLiteSessionStore) CountCreatedSince(ctx context.Context, since time.Time, excludeTypes []string) (int, error) {
	query := `SELECT COUNT(*) FROM unblock_sessions WHERE created_at > ? AND queued_for IS NULL`
	args := []any{since.Unix()}
	if len(excludeTypes) > 0 {
		query += ` AND session_type NOT IN (?` + strings.Repeat(", ?", len(excludeTypes)-1) + `)`
		for _, t := range excludeTypes {
			args = append(args, t)
		}
	}
	var count int
	if err := queryer(ctx, s.db).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, &apperrors.StorageError{Op: "count sessions", Err: err}
	}
	return count, nil
}

func (s *SQLiteSessionStore) list(ctx context.Context, query string, args ...any) ([]domain.Session, error) {
	rows, err := queryer(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &apperrors.StorageError{Op: "list sessions", Err: err}
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, &apperrors.StorageError{Op: "list sessions", Err: err}
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperrors.StorageError{Op: "list sessions", Err: err}
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.Session, error) {
	var (
		session      domain.Session
		domainsJSON  string
		createdAt    int64
		waitUntil    int64
		endTime      int64
		isAllDomains int
		queuedFor    sql.NullString
	)
	if err := row.Scan(&session.ID, &domainsJSON, &createdAt, &waitUntil, &endTime,
		&session.SessionType, &isAllDomains, &session.TargetName, &queuedFor); err != nil {
		return domain.Session{}, err
	}
	if err := json.Unmarshal([]byte(domainsJSON), &session.Domains); err != nil {
		return domain.Session{}, fmt.Errorf("decode domains: %w", err)
	}
	if queuedFor.Valid {
		if err := json.Unmarshal([]byte(queuedFor.String), &session.QueuedFor); err != nil {
			return domain.Session{}, fmt.Errorf("decode queued_for: %w", err)
		}
	}
	session.CreatedAt = time.Unix(createdAt, 0)
	session.WaitUntil = time.Unix(waitUntil, 0)
	session.EndTime = time.Unix(endTime, 0)
	session.IsAllDomains = isAllDomains != 0
	return session, nil
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package out

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sessionout "hostblock/internal/modules/session/port/out"
	apperrors "hostblock/internal/platform/errors"
)

type SQLiteCooldownStore struct {
	db *sql.DB
}

func NewSQLiteCooldownStore(db *sql.DB) sessionout.CooldownStore {
	return &SQLiteCooldownStore{db: db}
}

func (s *SQLiteCooldownStore) LastUsed(ctx context.Context, profile string) (time.Time, bool, error) {
	var lastUsed int64
	err := queryer(ctx, s.db).QueryRowContext(ctx,
		`SELECT last_used FROM profile_cooldowns WHERE profile = ?`, profile).Scan(&lastUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, &apperrors.StorageError{Op: "read cooldown", Err: err}
	}
	return time.Unix(lastUsed, 0), true, nil
}

func (s *SQLiteCooldownStore) MarkUsed(ctx context.Context, profile string, now time.Time) error {
	if _, err := queryer(ctx, s.db).ExecContext(ctx, `
INSERT INTO profile_cooldowns (profile, last_used) VALUES (?, ?)
ON CONFLICT(profile) DO UPDATE SET last_used = excluded.last_used`,
		profile, now.Unix()); err != nil {
		return &apperrors.StorageError{Op: "mark cooldown", Err: err}
	}
	return nil
}

package out

import (
	"context"
	"time"

	"hostblock/internal/modules/session/domain"
)

type CreateSessionParams struct {
	Domains         []string
	DurationMinutes float64
	WaitMinutes     float64
	SessionType     string
	IsAllDomains    bool
	TargetName      string
	QueuedFor       []string
}

// SessionStore is durable CRUD over sessions plus the time-indexed queries
// the scheduler needs. Implementations wrap failures in StorageError.
type SessionStore interface {
	Create(ctx context.Context, now time.Time, params CreateSessionParams) (int64, error)
	Get(ctx context.Context, id int64) (domain.Session, error)
	ListActive(ctx context.Context, now time.Time) ([]domain.Session, error)
	ListPending(ctx context.Context, now time.Time) ([]domain.Session, error)
	ListQueued(ctx context.Context) ([]domain.Session, error)
	Cancel(ctx context.Context, id int64) error
	ExtendEndTime(ctx context.Context, id int64, newEndTime time.Time) error
	// ActivateQueued clears the queue marker, resets created_at to now,
	// starts the wait from now, and keeps the configured duration.
	ActivateQueued(ctx context.Context, id int64, now time.Time, waitMinutes float64) error
	PurgeExpired(ctx context.Context, now time.Time) error
	CountCreatedSince(ctx context.Context, since time.Time, excludeTypes []string) (int, error)
}

type CooldownStore interface {
	LastUsed(ctx context.Context, profile string) (time.Time, bool, error)
	MarkUsed(ctx context.Context, profile string, now time.Time) error
}

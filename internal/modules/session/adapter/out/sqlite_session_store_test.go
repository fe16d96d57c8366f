package out

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	sessionout "hostblock/internal/modules/session/port/out"
	apperrors "hostblock/internal/platform/errors"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var base = time.Unix(1_700_000_000, 0)

func TestSessionStoreCreateAndGet(t *testing.T) {
	t.Parallel()
	store := NewSQLiteSessionStore(newTestDB(t))
	ctx := context.Background()

	id, err := store.Create(ctx, base, sessionout.CreateSessionParams{
		Domains:         []string{"news.example.com", "m.news.example.com"},
		DurationMinutes: 30,
		WaitMinutes:     5,
		SessionType:     "default",
		TargetName:      "news",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sess, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(sess.Domains) != 2 || sess.Domains[0] != "news.example.com" {
		t.Errorf("domains = %v", sess.Domains)
	}
	if got := sess.WaitUntil.Unix(); got != base.Add(5*time.Minute).Unix() {
		t.Errorf("wait_until = %d", got)
	}
	if got := sess.EndTime.Unix(); got != base.Add(35*time.Minute).Unix() {
		t.Errorf("end_time = %d", got)
	}
	if sess.Queued() || sess.IsAllDomains {
		t.Errorf("flags: queued = %v, all = %v", sess.Queued(), sess.IsAllDomains)
	}
	if sess.TargetName != "news" || sess.SessionType != "default" {
		t.Errorf("labels = %q/%q", sess.TargetName, sess.SessionType)
	}
}

func TestSessionStoreZeroWaitStartsImmediately(t *testing.T) {
	t.Parallel()
	store := NewSQLiteSessionStore(newTestDB(t))
	ctx := context.Background()

	id, err := store.Create(ctx, base, sessionout.CreateSessionParams{
		Domains:         []string{"a.example.com"},
		DurationMinutes: 10,
		SessionType:     "default",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !sess.Active(base.Add(time.Second)) {
		t.Errorf("state = %s, want active right away", sess.State(base.Add(time.Second)))
	}
}

func TestSessionStoreGetMissing(t *testing.T) {
	t.Parallel()
	store := NewSQLiteSessionStore(newTestDB(t))

	_, err := store.Get(context.Background(), 99)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSessionStoreListsSeparateStates(t *testing.T) {
	t.Parallel()
	store := NewSQLiteSessionStore(newTestDB(t))
	ctx := context.Background()

	mk := func(wait float64, queuedFor []string) int64 {
		t.Helper()
		id, err := store.Create(ctx, base, sessionout.CreateSessionParams{
			Domains:         []string{"a.example.com"},
			DurationMinutes: 30,
			WaitMinutes:     wait,
			SessionType:     "default",
			QueuedFor:       queuedFor,
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return id
	}
	activeID := mk(0, nil)
	pendingID := mk(20, nil)
	queuedID := mk(5, []string{"a.example.com"})

	now := base.Add(10 * time.Minute)

	active, err := store.ListActive(ctx, now)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 || active[0].ID != activeID {
		t.Errorf("active = %v", active)
	}

	pending, err := store.ListPending(ctx, now)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != pendingID {
		t.Errorf("pending = %v", pending)
	}

	queued, err := store.ListQueued(ctx)
	if err != nil {
		t.Fatalf("ListQueued: %v", err)
	}
	if len(queued) != 1 || queued[0].ID != queuedID {
		t.Errorf("queued = %v", queued)
	}
	if len(queued[0].QueuedFor) != 1 || queued[0].QueuedFor[0] != "a.example.com" {
		t.Errorf("queued_for = %v", queued[0].QueuedFor)
	}
}

func TestSessionStoreActivateQueued(t *testing.T) {
	t.Parallel()
	store := NewSQLiteSessionStore(newTestDB(t))
	ctx := context.Background()

	id, err := store.Create(ctx, base, sessionout.CreateSessionParams{
		Domains:         []string{"a.example.com"},
		DurationMinutes: 45,
		WaitMinutes:     10,
		SessionType:     "default",
		QueuedFor:       []string{"a.example.com"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	later := base.Add(2 * time.Hour)
	if err := store.ActivateQueued(ctx, id, later, 10); err != nil {
		t.Fatalf("ActivateQueued: %v", err)
	}

	sess, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sess.Queued() {
		t.Error("still queued after activation")
	}
	if got := sess.WaitUntil.Unix(); got != later.Add(10*time.Minute).Unix() {
		t.Errorf("wait_until = %d", got)
	}
	if got := sess.ConfiguredDuration(); got != 45*time.Minute {
		t.Errorf("duration = %s, want 45m preserved", got)
	}
}

func TestSessionStorePurgeKeepsQueued(t *testing.T) {
	t.Parallel()
	store := NewSQLiteSessionStore(newTestDB(t))
	ctx := context.Background()

	expiredID, err := store.Create(ctx, base, sessionout.CreateSessionParams{
		Domains: []string{"a.example.com"}, DurationMinutes: 10, SessionType: "default",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	queuedID, err := store.Create(ctx, base, sessionout.CreateSessionParams{
		Domains: []string{"b.example.com"}, DurationMinutes: 10, SessionType: "default",
		QueuedFor: []string{"b.example.com"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.PurgeExpired(ctx, base.Add(time.Hour)); err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if _, err := store.Get(ctx, expiredID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expired session survived: %v", err)
	}
	if _, err := store.Get(ctx, queuedID); err != nil {
		t.Errorf("queued session purged: %v", err)
	}
}

func TestSessionStoreCountCreatedSince(t *testing.T) {
	t.Parallel()
	store := NewSQLiteSessionStore(newTestDB(t))
	ctx := context.Background()

	mk := func(at time.Time, sessionType string, queuedFor []string) {
		t.Helper()
		_, err := store.Create(ctx, at, sessionout.CreateSessionParams{
			Domains: []string{"a.example.com"}, DurationMinutes: 10,
			SessionType: sessionType, QueuedFor: queuedFor,
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	mk(base.Add(-time.Hour), "default", nil)
	mk(base.Add(time.Minute), "default", nil)
	mk(base.Add(2*time.Minute), "bypass", nil)
	mk(base.Add(3*time.Minute), "default", []string{"a.example.com"})

	count, err := store.CountCreatedSince(ctx, base, []string{"bypass"})
	if err != nil {
		t.Fatalf("CountCreatedSince: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 (old, bypass and queued rows excluded)", count)
	}
}

func TestSessionStoreCancelAndExtend(t *testing.T) {
	t.Parallel()
	store := NewSQLiteSessionStore(newTestDB(t))
	ctx := context.Background()

	id, err := store.Create(ctx, base, sessionout.CreateSessionParams{
		Domains: []string{"a.example.com"}, DurationMinutes: 30, SessionType: "default",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	newEnd := base.Add(50 * time.Minute)
	if err := store.ExtendEndTime(ctx, id, newEnd); err != nil {
		t.Fatalf("ExtendEndTime: %v", err)
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sess.EndTime.Unix() != newEnd.Unix() {
		t.Errorf("end_time = %d, want %d", sess.EndTime.Unix(), newEnd.Unix())
	}

	if err := store.Cancel(ctx, id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := store.Get(ctx, id); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("session survived cancel: %v", err)
	}
}

func TestOpenDBMigratesOldSchema(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.db")

	old, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, err = old.Exec(`
CREATE TABLE unblock_sessions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  domains TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  wait_until INTEGER NOT NULL,
  end_time INTEGER NOT NULL,
  session_type TEXT NOT NULL,
  is_all_domains INTEGER NOT NULL DEFAULT 0,
  target_name TEXT NOT NULL DEFAULT ''
);
INSERT INTO unblock_sessions (domains, created_at, wait_until, end_time, session_type)
VALUES ('["a.example.com"]', 1, 1, 100, 'default');`)
	if err != nil {
		t.Fatalf("seed old schema: %v", err)
	}
	if err := old.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := OpenDB(path)
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	defer db.Close()

	sess, err := NewSQLiteSessionStore(db).Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get after migration: %v", err)
	}
	if sess.Queued() {
		t.Error("pre-migration row reported queued")
	}
}

func TestTxManagerRollsBackOnError(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	store := NewSQLiteSessionStore(db)
	txm := NewTxManager(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := txm.Within(ctx, func(ctx context.Context) error {
		if _, err := store.Create(ctx, base, sessionout.CreateSessionParams{
			Domains: []string{"a.example.com"}, DurationMinutes: 10, SessionType: "default",
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	sessions, err := store.ListActive(ctx, base.Add(time.Second))
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("rolled-back insert visible: %v", sessions)
	}
}

func TestTxManagerJoinsNested(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	store := NewSQLiteSessionStore(db)
	txm := NewTxManager(db)
	ctx := context.Background()

	err := txm.Within(ctx, func(ctx context.Context) error {
		return txm.Within(ctx, func(ctx context.Context) error {
			_, err := store.Create(ctx, base, sessionout.CreateSessionParams{
				Domains: []string{"a.example.com"}, DurationMinutes: 10, SessionType: "default",
			})
			return err
		})
	})
	if err != nil {
		t.Fatalf("Within: %v", err)
	}
	sessions, err := store.ListActive(ctx, base.Add(time.Second))
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(sessions))
	}
}

package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"testing"
	"time"

	"hostblock/internal/modules/session/domain"
	sessionout "hostblock/internal/modules/session/port/out"
	apperrors "hostblock/internal/platform/errors"
	"hostblock/internal/platform/tx"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeStore struct {
	nextID   int64
	sessions map[int64]domain.Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[int64]domain.Session{}}
}

func (f *fakeStore) Create(_ context.Context, now time.Time, p sessionout.CreateSessionParams) (int64, error) {
	f.nextID++
	waitUntil := now
	if p.WaitMinutes > 0 {
		waitUntil = now.Add(time.Duration(p.WaitMinutes * float64(time.Minute)))
	}
	f.sessions[f.nextID] = domain.Session{
		ID:           f.nextID,
		Domains:      append([]string(nil), p.Domains...),
		CreatedAt:    now,
		WaitUntil:    waitUntil,
		EndTime:      waitUntil.Add(time.Duration(p.DurationMinutes * float64(time.Minute))),
		SessionType:  p.SessionType,
		IsAllDomains: p.IsAllDomains,
		TargetName:   p.TargetName,
		QueuedFor:    append([]string(nil), p.QueuedFor...),
	}
	return f.nextID, nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (domain.Session, error) {
	sess, ok := f.sessions[id]
	if !ok {
		return domain.Session{}, apperrors.ErrNotFound
	}
	return sess, nil
}

func (f *fakeStore) list(filter func(domain.Session) bool) []domain.Session {
	var out []domain.Session
	for _, sess := range f.sessions {
		if filter(sess) {
			out = append(out, sess)
		}
	}
	return out
}

func (f *fakeStore) ListActive(_ context.Context, now time.Time) ([]domain.Session, error) {
	out := f.list(func(s domain.Session) bool { return s.Active(now) })
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.After(out[j].EndTime) })
	return out, nil
}

func (f *fakeStore) ListPending(_ context.Context, now time.Time) ([]domain.Session, error) {
	out := f.list(func(s domain.Session) bool { return s.Pending(now) })
	sort.Slice(out, func(i, j int) bool { return out[i].WaitUntil.Before(out[j].WaitUntil) })
	return out, nil
}

func (f *fakeStore) ListQueued(_ context.Context) ([]domain.Session, error) {
	out := f.list(func(s domain.Session) bool { return s.Queued() })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) Cancel(_ context.Context, id int64) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeStore) ExtendEndTime(_ context.Context, id int64, newEnd time.Time) error {
	sess, ok := f.sessions[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	sess.EndTime = newEnd
	f.sessions[id] = sess
	return nil
}

func (f *fakeStore) ActivateQueued(_ context.Context, id int64, now time.Time, waitMinutes float64) error {
	sess, ok := f.sessions[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	duration := sess.ConfiguredDuration()
	sess.CreatedAt = now
	sess.WaitUntil = now.Add(time.Duration(waitMinutes * float64(time.Minute)))
	sess.EndTime = sess.WaitUntil.Add(duration)
	sess.QueuedFor = nil
	f.sessions[id] = sess
	return nil
}

func (f *fakeStore) PurgeExpired(_ context.Context, now time.Time) error {
	for id, sess := range f.sessions {
		if !sess.Queued() && sess.Expired(now) {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeStore) CountCreatedSince(_ context.Context, since time.Time, excludeTypes []string) (int, error) {
	excluded := map[string]bool{}
	for _, t := range excludeTypes {
		excluded[t] = true
	}
	count := 0
	for _, sess := range f.sessions {
		if sess.Queued() || excluded[sess.SessionType] {
			continue
		}
		if sess.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

type fakeCooldowns struct {
	lastUsed map[string]time.Time
}

func newFakeCooldowns() *fakeCooldowns {
	return &fakeCooldowns{lastUsed: map[string]time.Time{}}
}

func (f *fakeCooldowns) LastUsed(_ context.Context, profile string) (time.Time, bool, error) {
	t, ok := f.lastUsed[profile]
	return t, ok, nil
}

func (f *fakeCooldowns) MarkUsed(_ context.Context, profile string, now time.Time) error {
	f.lastUsed[profile] = now
	return nil
}

type fakePolicy struct {
	profiles map[string]sessionout.ProfilePolicy
	targets  map[string][]string
	baseWait float64
	duration float64
	universe []string
	limits   sessionout.Limits
}

func (f *fakePolicy) Profile(_ context.Context, name string) (sessionout.ProfilePolicy, error) {
	p, ok := f.profiles[name]
	if !ok {
		return sessionout.ProfilePolicy{}, apperrors.ErrUnknownProfile
	}
	return p, nil
}

func (f *fakePolicy) Resolve(_ context.Context, _ string, targets []string) ([]string, []string, error) {
	var domains []string
	for _, t := range targets {
		resolved, ok := f.targets[t]
		if !ok {
			resolved = []string{t}
		}
		domains = append(domains, resolved...)
	}
	return domains, nil, nil
}

func (f *fakePolicy) Timing(_ context.Context, name string, concurrent int, _ []string) (float64, float64, error) {
	p := f.profiles[name]
	return f.baseWait + float64(concurrent)*p.ConcurrentPenalty, f.duration, nil
}

func (f *fakePolicy) Universe(_ context.Context) ([]string, error) {
	return f.universe, nil
}

func (f *fakePolicy) Limits(_ context.Context) (sessionout.Limits, error) {
	return f.limits, nil
}

func (f *fakePolicy) CooldownProfiles(_ context.Context) ([]sessionout.ProfilePolicy, error) {
	var out []sessionout.ProfilePolicy
	for _, p := range f.profiles {
		if p.CooldownMinutes > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

type fixture struct {
	clock     *fakeClock
	store     *fakeStore
	cooldowns *fakeCooldowns
	policy    *fakePolicy
	svc       *SchedulerService
}

func newFixture() *fixture {
	clk := &fakeClock{now: time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)}
	store := newFakeStore()
	cooldowns := newFakeCooldowns()
	policy := &fakePolicy{
		profiles: map[string]sessionout.ProfilePolicy{
			"default": {Name: "default", ConcurrentPenalty: 5, Extendable: true},
			"work":    {Name: "work", Bulk: true, Extendable: true},
			"all":     {Name: "all", Bulk: true, All: true, Extendable: true},
			"bypass":  {Name: "bypass", CooldownMinutes: 240, Extendable: true},
			"peek":    {Name: "peek", Extendable: false},
		},
		targets: map[string][]string{
			"news":   {"news.example.com"},
			"social": {"social.example.com", "m.social.example.com"},
			"mail":   {"mail.example.com"},
		},
		baseWait: 5,
		duration: 30,
		universe: []string{"news.example.com", "social.example.com", "m.social.example.com", "mail.example.com"},
		limits: sessionout.Limits{
			SessionLimit:   4,
			DefaultProfile: "default",
			Penalty: sessionout.PenaltyPolicy{
				Enabled:           true,
				PerUnblockSeconds: 10,
				ResetHour:         4,
				ExcludeProfiles:   []string{"bypass"},
			},
		},
	}
	return &fixture{
		clock:     clk,
		store:     store,
		cooldowns: cooldowns,
		policy:    policy,
		svc:       NewSchedulerService(clk, store, cooldowns, policy, tx.NoopManager{}),
	}
}

func (f *fixture) mustRequest(t *testing.T, req Request) RequestResult {
	t.Helper()
	result, err := f.svc.RequestUnblock(context.Background(), req)
	if err != nil {
		t.Fatalf("RequestUnblock: %v", err)
	}
	return result
}

func TestRequestUnblockCreatesPendingSession(t *testing.T) {
	t.Parallel()
	f := newFixture()

	result := f.mustRequest(t, Request{Targets: []string{"news"}})

	if len(result.Created) != 1 {
		t.Fatalf("created = %d, want 1", len(result.Created))
	}
	sess := result.Created[0]
	if got := sess.ConfiguredWait(); got != 5*time.Minute {
		t.Errorf("wait = %s, want 5m", got)
	}
	if got := sess.ConfiguredDuration(); got != 30*time.Minute {
		t.Errorf("duration = %s, want 30m", got)
	}
	if !sess.Pending(f.clock.now) {
		t.Errorf("state = %s, want pending", sess.State(f.clock.now))
	}
	if sess.TargetName != "news" || sess.SessionType != "default" {
		t.Errorf("labels = %q/%q", sess.TargetName, sess.SessionType)
	}
}

func TestRequestUnblockWaitStepping(t *testing.T) {
	t.Parallel()
	f := newFixture()

	result := f.mustRequest(t, Request{Targets: []string{"news", "mail"}})

	if len(result.Created) != 2 {
		t.Fatalf("created = %d, want 2", len(result.Created))
	}
	if got := result.Created[0].ConfiguredWait(); got != 5*time.Minute {
		t.Errorf("first wait = %s, want 5m", got)
	}
	if got := result.Created[1].ConfiguredWait(); got != 10*time.Minute {
		t.Errorf("second wait = %s, want 10m", got)
	}
}

func TestRequestUnblockWaitOverrideSkipsStepping(t *testing.T) {
	t.Parallel()
	f := newFixture()
	wait := 2.0

	result := f.mustRequest(t, Request{Targets: []string{"news", "mail"}, WaitMinutes: &wait})

	for i, sess := range result.Created {
		if got := sess.ConfiguredWait(); got != 2*time.Minute {
			t.Errorf("session %d wait = %s, want 2m", i, got)
		}
	}
}

func TestRequestUnblockPendingDuplicate(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.mustRequest(t, Request{Targets: []string{"news"}})

	result := f.mustRequest(t, Request{Targets: []string{"news"}})

	if len(result.Created) != 0 || len(result.SkippedPending) != 1 {
		t.Fatalf("created = %d, skipped = %d, want 0/1", len(result.Created), len(result.SkippedPending))
	}
	if result.SkippedPending[0].Target != "news" {
		t.Errorf("skipped target = %q", result.SkippedPending[0].Target)
	}
}

func TestRequestUnblockActiveOffersQueue(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.mustRequest(t, Request{Targets: []string{"news"}})
	f.clock.advance(6 * time.Minute)

	result := f.mustRequest(t, Request{Targets: []string{"news"}})

	if len(result.QueueOffers) != 1 || len(result.Created) != 0 {
		t.Fatalf("offers = %d, created = %d, want 1/0", len(result.QueueOffers), len(result.Created))
	}

	accepted := f.mustRequest(t, Request{Targets: []string{"news"}, AcceptQueue: true})
	if len(accepted.Queued) != 1 {
		t.Fatalf("queued = %d, want 1", len(accepted.Queued))
	}
	if !accepted.Queued[0].Queued() {
		t.Error("session not marked queued")
	}
}

func TestRequestUnblockBulkDuplicate(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.mustRequest(t, Request{Profile: "work", Targets: []string{"news", "mail"}})
	f.clock.advance(6 * time.Minute)

	_, err := f.svc.RequestUnblock(context.Background(), Request{Profile: "work", Targets: []string{"news"}})

	var dup *apperrors.DuplicateSessionError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateSessionError", err)
	}
	if !dup.CanQueue || dup.Pending {
		t.Errorf("CanQueue = %v, Pending = %v", dup.CanQueue, dup.Pending)
	}

	result := f.mustRequest(t, Request{Profile: "work", Targets: []string{"news"}, AcceptQueue: true})
	if len(result.Queued) != 1 {
		t.Fatalf("queued = %d, want 1", len(result.Queued))
	}
}

func TestRequestUnblockAllDomainsCoversEverything(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.mustRequest(t, Request{Profile: "all"})
	f.clock.advance(6 * time.Minute)

	result := f.mustRequest(t, Request{Targets: []string{"news"}})

	if len(result.QueueOffers) != 1 {
		t.Fatalf("offers = %d, want 1 (all-domains session covers news)", len(result.QueueOffers))
	}
}

func TestRequestUnblockConcurrencyLimit(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.policy.limits.SessionLimit = 2
	f.mustRequest(t, Request{Targets: []string{"news"}})
	f.mustRequest(t, Request{Targets: []string{"mail"}})

	_, err := f.svc.RequestUnblock(context.Background(), Request{Targets: []string{"social"}})

	var limitErr *apperrors.ConcurrencyLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("err = %v, want ConcurrencyLimitError", err)
	}
	if limitErr.Limit != 2 || len(limitErr.Sessions) != 2 {
		t.Errorf("limit = %d, sessions = %d", limitErr.Limit, len(limitErr.Sessions))
	}
}

func TestRequestUnblockCooldown(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.mustRequest(t, Request{Profile: "bypass", Targets: []string{"news"}})

	_, err := f.svc.RequestUnblock(context.Background(), Request{Profile: "bypass", Targets: []string{"mail"}})

	var cool *apperrors.CooldownActiveError
	if !errors.As(err, &cool) {
		t.Fatalf("err = %v, want CooldownActiveError", err)
	}
	if cool.Profile != "bypass" || cool.Remaining != 240*time.Minute {
		t.Errorf("profile = %q, remaining = %s", cool.Profile, cool.Remaining)
	}

	f.clock.advance(241 * time.Minute)
	f.mustRequest(t, Request{Profile: "bypass", Targets: []string{"mail"}})
}

func TestRequestUnblockPenaltyAccrues(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.mustRequest(t, Request{Targets: []string{"news"}})
	f.mustRequest(t, Request{Targets: []string{"mail"}})
	f.mustRequest(t, Request{Targets: []string{"social"}})

	// Three prior unblocks at 10s each add half a minute of wait.
	result := f.mustRequest(t, Request{Profile: "work", Targets: []string{"news", "mail", "social"}, AcceptQueue: true})

	if result.PenaltyMinutes != 0.5 {
		t.Fatalf("penalty = %v, want 0.5", result.PenaltyMinutes)
	}
}

func TestRequestUnblockPenaltyExcludesProfiles(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.mustRequest(t, Request{Targets: []string{"news"}})

	result := f.mustRequest(t, Request{Profile: "bypass", Targets: []string{"mail"}})

	if result.PenaltyMinutes != 0 {
		t.Errorf("penalty = %v, want 0 for excluded profile", result.PenaltyMinutes)
	}
}

func TestReconcilePurgesAndActivatesQueued(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.policy.limits.Penalty.Enabled = false
	first := f.mustRequest(t, Request{Targets: []string{"news"}}).Created[0]
	f.clock.advance(6 * time.Minute)
	queued := f.mustRequest(t, Request{Targets: []string{"news"}, AcceptQueue: true}).Queued[0]

	activated, err := f.svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(activated) != 0 {
		t.Fatalf("activated early: %v", activated)
	}

	f.clock.advance(30 * time.Minute)
	activated, err = f.svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(activated) != 1 || activated[0].ID != queued.ID {
		t.Fatalf("activated = %v, want session %d", activated, queued.ID)
	}
	if activated[0].Queued() {
		t.Error("activated session still queued")
	}
	if got := activated[0].ConfiguredWait(); got != queued.ConfiguredWait() {
		t.Errorf("wait = %s, want %s preserved", got, queued.ConfiguredWait())
	}
	if _, err := f.store.Get(context.Background(), first.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expired session not purged: %v", err)
	}
}

func TestReconcileActivatesOnlyFreedDomains(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.policy.limits.Penalty.Enabled = false
	f.mustRequest(t, Request{Targets: []string{"news"}})
	f.clock.advance(6 * time.Minute)
	f.mustRequest(t, Request{Targets: []string{"mail"}})
	f.clock.advance(11 * time.Minute)
	qNews := f.mustRequest(t, Request{Targets: []string{"news"}, AcceptQueue: true}).Queued[0]
	qMail := f.mustRequest(t, Request{Targets: []string{"mail"}, AcceptQueue: true}).Queued[0]

	// news ends first; mail is still unblocked, so only qNews may start.
	f.clock.advance(20 * time.Minute)
	activated, err := f.svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(activated) != 1 || activated[0].ID != qNews.ID {
		t.Fatalf("activated = %v, want only session %d", activated, qNews.ID)
	}
	sess, err := f.store.Get(context.Background(), qMail.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !sess.Queued() {
		t.Error("queued session started while its domains were still held")
	}
}

func TestExtendActiveSession(t *testing.T) {
	t.Parallel()
	f := newFixture()
	sess := f.mustRequest(t, Request{Targets: []string{"news"}}).Created[0]
	f.clock.advance(6 * time.Minute)

	extended, err := f.svc.Extend(context.Background(), "news", 15)
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if got := extended.EndTime.Sub(sess.EndTime); got != 15*time.Minute {
		t.Errorf("extended by %s, want 15m", got)
	}
}

func TestExtendRejections(t *testing.T) {
	t.Parallel()
	f := newFixture()
	pending := f.mustRequest(t, Request{Targets: []string{"news"}}).Created[0]
	peeked := f.mustRequest(t, Request{Profile: "peek", Targets: []string{"mail"}}).Created[0]

	assertReason := func(ref string, want apperrors.ExtendReason) {
		t.Helper()
		_, err := f.svc.Extend(context.Background(), ref, 10)
		var notExt *apperrors.NotExtendableError
		if !errors.As(err, &notExt) || notExt.Reason != want {
			t.Errorf("Extend(%q): err = %v, want reason %q", ref, err, want)
		}
	}

	assertReason("news", apperrors.ExtendNotStarted)

	f.clock.advance(10 * time.Minute)
	assertReason(refID(peeked), apperrors.ExtendWrongType)

	f.clock.advance(2 * time.Hour)
	assertReason(refID(pending), apperrors.ExtendAlreadyEnded)
}

func refID(sess domain.Session) string {
	return strconv.FormatInt(sess.ID, 10)
}

func TestCancelAllLeavesQueued(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.mustRequest(t, Request{Targets: []string{"news"}})
	f.clock.advance(6 * time.Minute)
	f.mustRequest(t, Request{Targets: []string{"mail"}})
	queued := f.mustRequest(t, Request{Targets: []string{"news"}, AcceptQueue: true}).Queued[0]

	canceled, err := f.svc.Cancel(context.Background(), "")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(canceled) != 2 {
		t.Fatalf("canceled = %d, want 2", len(canceled))
	}
	if _, err := f.store.Get(context.Background(), queued.ID); err != nil {
		t.Errorf("queued session removed by cancel-all: %v", err)
	}
}

func TestCancelByName(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.mustRequest(t, Request{Targets: []string{"news"}})
	sess := f.mustRequest(t, Request{Targets: []string{"mail"}}).Created[0]

	canceled, err := f.svc.Cancel(context.Background(), "mail")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(canceled) != 1 || canceled[0].ID != sess.ID {
		t.Fatalf("canceled = %v, want session %d", canceled, sess.ID)
	}
}

func TestReplacePendingKeepsTiming(t *testing.T) {
	t.Parallel()
	f := newFixture()
	sess := f.mustRequest(t, Request{Targets: []string{"news"}}).Created[0]
	f.clock.advance(2 * time.Minute)

	replaced, err := f.svc.Replace(context.Background(), "news", []string{"mail"})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if got := replaced.ConfiguredWait(); got != 3*time.Minute {
		t.Errorf("wait = %s, want remaining 3m", got)
	}
	if got := replaced.ConfiguredDuration(); got != sess.ConfiguredDuration() {
		t.Errorf("duration = %s, want %s", got, sess.ConfiguredDuration())
	}
	if replaced.Domains[0] != "mail.example.com" {
		t.Errorf("domains = %v", replaced.Domains)
	}
	if _, err := f.store.Get(context.Background(), sess.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("original session survived replace: %v", err)
	}
}

func TestReplaceActiveRejected(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.mustRequest(t, Request{Targets: []string{"news"}})
	f.clock.advance(6 * time.Minute)

	_, err := f.svc.Replace(context.Background(), "news", []string{"mail"})

	var replaceErr *apperrors.ReplaceActiveError
	if !errors.As(err, &replaceErr) {
		t.Fatalf("err = %v, want ReplaceActiveError", err)
	}
}

func TestBlockedDomains(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.mustRequest(t, Request{Targets: []string{"social"}})
	f.clock.advance(6 * time.Minute)

	blocked, err := f.svc.BlockedDomains(context.Background())
	if err != nil {
		t.Fatalf("BlockedDomains: %v", err)
	}
	want := []string{"news.example.com", "mail.example.com"}
	if len(blocked) != len(want) {
		t.Fatalf("blocked = %v, want %v", blocked, want)
	}
	for i, d := range want {
		if blocked[i] != d {
			t.Errorf("blocked[%d] = %q, want %q", i, blocked[i], d)
		}
	}
}

func TestBlockedDomainsEmptyWhileAllOpen(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.mustRequest(t, Request{Profile: "all"})
	f.clock.advance(6 * time.Minute)

	blocked, err := f.svc.BlockedDomains(context.Background())
	if err != nil {
		t.Fatalf("BlockedDomains: %v", err)
	}
	if len(blocked) != 0 {
		t.Errorf("blocked = %v, want none while an all-domains session runs", blocked)
	}
}

func TestStatusReport(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.mustRequest(t, Request{Profile: "bypass", Targets: []string{"news"}})
	f.clock.advance(6 * time.Minute)
	f.mustRequest(t, Request{Targets: []string{"mail"}})

	report, err := f.svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(report.Active) != 1 || len(report.Pending) != 1 {
		t.Fatalf("active = %d, pending = %d", len(report.Active), len(report.Pending))
	}
	if len(report.Unblocked) != 1 || report.Unblocked[0] != "news.example.com" {
		t.Errorf("unblocked = %v", report.Unblocked)
	}
	if len(report.Cooldowns) != 1 || report.Cooldowns[0].Profile != "bypass" {
		t.Fatalf("cooldowns = %v", report.Cooldowns)
	}
	if got := report.Cooldowns[0].Remaining; got != 234*time.Minute {
		t.Errorf("cooldown remaining = %s, want 234m", got)
	}
	if !report.Penalty.Enabled || report.Penalty.Count != 1 {
		t.Errorf("penalty = %+v, want count 1 (bypass excluded)", report.Penalty)
	}
}

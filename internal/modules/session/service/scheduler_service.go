package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hostblock/internal/modules/session/domain"
	sessionout "hostblock/internal/modules/session/port/out"
	"hostblock/internal/platform/clock"
	apperrors "hostblock/internal/platform/errors"
	"hostblock/internal/platform/tx"
)

// Request describes one unblock invocation after CLI parsing. Nil overrides
// mean "use the profile's configured value".
type Request struct {
	Profile         string
	Targets         []string
	WaitMinutes     *float64
	DurationMinutes *float64
	// AcceptQueue turns queue offers into queued sessions instead of
	// reporting them back for confirmation.
	AcceptQueue bool
}

// SkippedTarget is a per-target request dropped because an equivalent session
// is already pending or queued.
type SkippedTarget struct {
	Target    string
	SessionID int64
	Remaining time.Duration
}

// QueueOffer is a per-target request whose domains are currently unblocked.
// The caller may re-invoke with AcceptQueue to queue it behind SessionID.
type QueueOffer struct {
	Target    string
	SessionID int64
	Remaining time.Duration
}

type RequestResult struct {
	Created        []domain.Session
	Queued         []domain.Session
	SkippedPending []SkippedTarget
	QueueOffers    []QueueOffer
	PenaltyMinutes float64
}

type CooldownStatus struct {
	Profile   string
	Remaining time.Duration
}

type PenaltyStatus struct {
	Enabled        bool
	Count          int
	PenaltyMinutes float64
	NextReset      time.Time
}

type StatusReport struct {
	Now            time.Time
	Active         []domain.Session
	Pending        []domain.Session
	Queued         []domain.Session
	Unblocked      []string
	AllDomainsOpen bool
	SessionLimit   int
	Cooldowns      []CooldownStatus
	Penalty        PenaltyStatus
}

// SchedulerService owns session lifecycle: admission (cooldowns, duplicates,
// the concurrency limit, the progressive penalty), queueing, and the derived
// blocked set the enforcement loop applies.
type SchedulerService struct {
	clock     clock.Clock
	store     sessionout.SessionStore
	cooldowns sessionout.CooldownStore
	policy    sessionout.Policy
	tx        tx.Manager
}

func NewSchedulerService(
	clk clock.Clock,
	store sessionout.SessionStore,
	cooldowns sessionout.CooldownStore,
	policy sessionout.Policy,
	txm tx.Manager,
) *SchedulerService {
	return &SchedulerService{clock: clk, store: store, cooldowns: cooldowns, policy: policy, tx: txm}
}

// RequestUnblock admits, queues, or rejects a request. Bulk profiles treat
// the target list as one atomic set and reject on any coverage; per-target
// profiles handle each target independently and report per-target outcomes
// in the result instead of failing the whole call.
func (s *SchedulerService) RequestUnblock(ctx context.Context, req Request) (RequestResult, error) {
	now := s.clock.Now()

	limits, err := s.policy.Limits(ctx)
	if err != nil {
		return RequestResult{}, err
	}
	profileName := req.Profile
	if profileName == "" {
		profileName = limits.DefaultProfile
	}
	profile, err := s.policy.Profile(ctx, profileName)
	if err != nil {
		return RequestResult{}, err
	}

	if err := s.checkCooldown(ctx, profile, now); err != nil {
		return RequestResult{}, err
	}

	var result RequestResult
	err = s.tx.Within(ctx, func(ctx context.Context) error {
		active, err := s.store.ListActive(ctx, now)
		if err != nil {
			return err
		}
		pending, err := s.store.ListPending(ctx, now)
		if err != nil {
			return err
		}
		queued, err := s.store.ListQueued(ctx)
		if err != nil {
			return err
		}

		penaltyMinutes, err := s.penaltyMinutes(ctx, limits.Penalty, profileName, now)
		if err != nil {
			return err
		}
		result.PenaltyMinutes = penaltyMinutes

		if profile.Bulk {
			result.Created, result.Queued, err = s.requestBulk(
				ctx, req, profile, active, pending, queued, limits, penaltyMinutes, now)
		} else {
			result, err = s.requestPerTarget(
				ctx, req, profile, active, pending, queued, limits, penaltyMinutes, now)
			result.PenaltyMinutes = penaltyMinutes
		}
		if err != nil {
			return err
		}

		if profile.CooldownMinutes > 0 && (len(result.Created) > 0 || len(result.Queued) > 0) {
			if err := s.cooldowns.MarkUsed(ctx, profile.Name, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return RequestResult{}, err
	}
	return result, nil
}

func (s *SchedulerService) requestBulk(
	ctx context.Context,
	req Request,
	profile sessionout.ProfilePolicy,
	active, pending, queued []domain.Session,
	limits sessionout.Limits,
	penaltyMinutes float64,
	now time.Time,
) (created, queuedOut []domain.Session, err error) {
	domains, tags, err := s.policy.Resolve(ctx, profile.Name, req.Targets)
	if err != nil {
		return nil, nil, err
	}

	for _, sess := range append(pending, queued...) {
		if sess.Covers(domains) {
			return nil, nil, &apperrors.DuplicateSessionError{
				SessionID: sess.ID,
				Targets:   req.Targets,
				Pending:   true,
				Remaining: sess.Remaining(now),
			}
		}
	}

	var behind *domain.Session
	for i, sess := range active {
		if sess.IsAllDomains || sess.Covers(domains) {
			behind = &active[i]
			break
		}
	}
	if behind != nil && !req.AcceptQueue {
		return nil, nil, &apperrors.DuplicateSessionError{
			SessionID: behind.ID,
			Targets:   req.Targets,
			Remaining: behind.Remaining(now),
			CanQueue:  true,
		}
	}

	concurrent := len(active) + len(pending)
	if behind == nil && concurrent+1 > limits.SessionLimit {
		return nil, nil, s.limitError(limits.SessionLimit, active, pending, now)
	}

	wait, duration, err := s.timing(ctx, req, profile, concurrent, tags)
	if err != nil {
		return nil, nil, err
	}
	wait += penaltyMinutes

	params := sessionout.CreateSessionParams{
		Domains:         domains,
		DurationMinutes: duration,
		WaitMinutes:     wait,
		SessionType:     profile.Name,
		IsAllDomains:    profile.All,
		TargetName:      bulkTargetName(req.Targets, profile),
	}
	if behind != nil {
		params.QueuedFor = domains
	}
	sess, err := s.create(ctx, now, params)
	if err != nil {
		return nil, nil, err
	}
	if behind != nil {
		return nil, []domain.Session{sess}, nil
	}
	return []domain.Session{sess}, nil, nil
}

func (s *SchedulerService) requestPerTarget(
	ctx context.Context,
	req Request,
	profile sessionout.ProfilePolicy,
	active, pending, queued []domain.Session,
	limits sessionout.Limits,
	penaltyMinutes float64,
	now time.Time,
) (RequestResult, error) {
	var result RequestResult

	type resolved struct {
		target  string
		domains []string
		tags    []string
	}
	var fresh []resolved
	toQueue := map[string]bool{}

	for _, target := range dedupe(req.Targets) {
		domains, tags, err := s.policy.Resolve(ctx, profile.Name, []string{target})
		if err != nil {
			return RequestResult{}, err
		}

		if skip, sess := coveredBy(append(pending, queued...), domains, now); skip {
			result.SkippedPending = append(result.SkippedPending, SkippedTarget{
				Target:    target,
				SessionID: sess.ID,
				Remaining: sess.Remaining(now),
			})
			continue
		}
		if open, sess := activeCoverage(active, domains); open {
			if req.AcceptQueue {
				toQueue[target] = true
				fresh = append(fresh, resolved{target: target, domains: domains, tags: tags})
			} else {
				result.QueueOffers = append(result.QueueOffers, QueueOffer{
					Target:    target,
					SessionID: sess.ID,
					Remaining: sess.Remaining(now),
				})
			}
			continue
		}
		fresh = append(fresh, resolved{target: target, domains: domains, tags: tags})
	}

	concurrent := len(active) + len(pending)
	newCount := 0
	for _, r := range fresh {
		if !toQueue[r.target] {
			newCount++
		}
	}
	if newCount > 0 && concurrent+newCount > limits.SessionLimit {
		return RequestResult{}, s.limitError(limits.SessionLimit, active, pending, now)
	}

	step := 0
	for _, r := range fresh {
		wait, duration, err := s.timing(ctx, req, profile, concurrent, r.tags)
		if err != nil {
			return RequestResult{}, err
		}
		if req.WaitMinutes == nil {
			wait += float64(step) * profile.ConcurrentPenalty
		}
		wait += penaltyMinutes

		params := sessionout.CreateSessionParams{
			Domains:         r.domains,
			DurationMinutes: duration,
			WaitMinutes:     wait,
			SessionType:     profile.Name,
			TargetName:      r.target,
		}
		if toQueue[r.target] {
			params.QueuedFor = r.domains
		}
		sess, err := s.create(ctx, now, params)
		if err != nil {
			return RequestResult{}, err
		}
		if toQueue[r.target] {
			result.Queued = append(result.Queued, sess)
		} else {
			result.Created = append(result.Created, sess)
			step++
		}
	}
	return result, nil
}

// Reconcile purges expired rows and activates queued sessions whose awaited
// domains are no longer held by any live session. Activation is FIFO and a
// freshly activated session immediately holds its domains against the rest
// of the queue.
func (s *SchedulerService) Reconcile(ctx context.Context) ([]domain.Session, error) {
	now := s.clock.Now()
	var activated []domain.Session
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		if err := s.store.PurgeExpired(ctx, now); err != nil {
			return err
		}
		queued, err := s.store.ListQueued(ctx)
		if err != nil {
			return err
		}
		if len(queued) == 0 {
			return nil
		}
		active, err := s.store.ListActive(ctx, now)
		if err != nil {
			return err
		}
		pending, err := s.store.ListPending(ctx, now)
		if err != nil {
			return err
		}

		held := map[string]bool{}
		for _, d := range domain.DomainUnion(append(active, pending...)) {
			held[d] = true
		}
		for _, q := range queued {
			if anyHeld(q.QueuedFor, held) {
				continue
			}
			wait := q.ConfiguredWait().Minutes()
			if err := s.store.ActivateQueued(ctx, q.ID, now, wait); err != nil {
				return err
			}
			sess, err := s.store.Get(ctx, q.ID)
			if err != nil {
				return err
			}
			activated = append(activated, sess)
			for _, d := range sess.Domains {
				held[d] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activated, nil
}

// Extend lengthens an active session. Pending and queued sessions have not
// started, expired ones are gone, and some profiles opt out of extension.
func (s *SchedulerService) Extend(ctx context.Context, ref string, minutes float64) (domain.Session, error) {
	now := s.clock.Now()
	var out domain.Session
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		sess, err := s.findSession(ctx, ref, now)
		if err != nil {
			return err
		}
		switch sess.State(now) {
		case domain.StateActive:
		case domain.StatePending, domain.StateQueued:
			return &apperrors.NotExtendableError{SessionID: sess.ID, Reason: apperrors.ExtendNotStarted}
		default:
			return &apperrors.NotExtendableError{SessionID: sess.ID, Reason: apperrors.ExtendAlreadyEnded}
		}
		if profile, err := s.policy.Profile(ctx, sess.SessionType); err == nil && !profile.Extendable {
			return &apperrors.NotExtendableError{SessionID: sess.ID, Reason: apperrors.ExtendWrongType}
		}
		newEnd := sess.EndTime.Add(minutesDuration(minutes))
		if err := s.store.ExtendEndTime(ctx, sess.ID, newEnd); err != nil {
			return err
		}
		out, err = s.store.Get(ctx, sess.ID)
		return err
	})
	if err != nil {
		return domain.Session{}, err
	}
	return out, nil
}

// Cancel removes sessions. An empty ref cancels every active and pending
// session; queued sessions survive and activate later. A specific ref
// cancels that one session in any state.
func (s *SchedulerService) Cancel(ctx context.Context, ref string) ([]domain.Session, error) {
	now := s.clock.Now()
	var canceled []domain.Session
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		if ref == "" {
			active, err := s.store.ListActive(ctx, now)
			if err != nil {
				return err
			}
			pending, err := s.store.ListPending(ctx, now)
			if err != nil {
				return err
			}
			for _, sess := range append(active, pending...) {
				if err := s.store.Cancel(ctx, sess.ID); err != nil {
					return err
				}
				canceled = append(canceled, sess)
			}
			return nil
		}
		sess, err := s.findSession(ctx, ref, now)
		if err != nil {
			return err
		}
		if err := s.store.Cancel(ctx, sess.ID); err != nil {
			return err
		}
		canceled = append(canceled, sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return canceled, nil
}

// Replace swaps a pending session's targets while keeping its place in line:
// the remaining wait and the configured duration carry over unchanged.
func (s *SchedulerService) Replace(ctx context.Context, ref string, targets []string) (domain.Session, error) {
	now := s.clock.Now()
	var out domain.Session
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		sess, err := s.findSession(ctx, ref, now)
		if err != nil {
			return err
		}
		if sess.State(now) != domain.StatePending {
			return &apperrors.ReplaceActiveError{SessionID: sess.ID}
		}
		domains, _, err := s.policy.Resolve(ctx, sess.SessionType, targets)
		if err != nil {
			return err
		}
		remaining := sess.WaitRemaining(now)
		if remaining < 0 {
			remaining = 0
		}
		if err := s.store.Cancel(ctx, sess.ID); err != nil {
			return err
		}
		out, err = s.create(ctx, now, sessionout.CreateSessionParams{
			Domains:         domains,
			DurationMinutes: sess.ConfiguredDuration().Minutes(),
			WaitMinutes:     remaining.Minutes(),
			SessionType:     sess.SessionType,
			TargetName:      strings.Join(targets, ","),
		})
		return err
	})
	if err != nil {
		return domain.Session{}, err
	}
	return out, nil
}

// Status is the read-only snapshot the status command and the TUI render.
func (s *SchedulerService) Status(ctx context.Context) (StatusReport, error) {
	now := s.clock.Now()
	report := StatusReport{Now: now}

	limits, err := s.policy.Limits(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	report.SessionLimit = limits.SessionLimit

	report.Active, err = s.store.ListActive(ctx, now)
	if err != nil {
		return StatusReport{}, err
	}
	report.Pending, err = s.store.ListPending(ctx, now)
	if err != nil {
		return StatusReport{}, err
	}
	report.Queued, err = s.store.ListQueued(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	report.Unblocked = domain.DomainUnion(report.Active)
	for _, sess := range report.Active {
		if sess.IsAllDomains {
			report.AllDomainsOpen = true
			break
		}
	}

	profiles, err := s.policy.CooldownProfiles(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	for _, p := range profiles {
		last, ok, err := s.cooldowns.LastUsed(ctx, p.Name)
		if err != nil {
			return StatusReport{}, err
		}
		if !ok {
			continue
		}
		until := last.Add(minutesDuration(p.CooldownMinutes))
		if until.After(now) {
			report.Cooldowns = append(report.Cooldowns, CooldownStatus{
				Profile:   p.Name,
				Remaining: until.Sub(now),
			})
		}
	}

	report.Penalty, err = s.penaltyStatus(ctx, limits.Penalty, now)
	if err != nil {
		return StatusReport{}, err
	}
	return report, nil
}

// BlockedDomains is the hosts-file input: the configured universe minus the
// domains of active sessions. An active all-domains session empties it.
func (s *SchedulerService) BlockedDomains(ctx context.Context) ([]string, error) {
	now := s.clock.Now()
	universe, err := s.policy.Universe(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.store.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}
	open := map[string]bool{}
	for _, sess := range active {
		if sess.IsAllDomains {
			return nil, nil
		}
		for _, d := range sess.Domains {
			open[d] = true
		}
	}
	var blocked []string
	for _, d := range universe {
		if !open[d] {
			blocked = append(blocked, d)
		}
	}
	return blocked, nil
}

func (s *SchedulerService) PenaltyStatus(ctx context.Context) (PenaltyStatus, error) {
	limits, err := s.policy.Limits(ctx)
	if err != nil {
		return PenaltyStatus{}, err
	}
	return s.penaltyStatus(ctx, limits.Penalty, s.clock.Now())
}

func (s *SchedulerService) penaltyStatus(ctx context.Context, policy sessionout.PenaltyPolicy, now time.Time) (PenaltyStatus, error) {
	if !policy.Enabled {
		return PenaltyStatus{}, nil
	}
	start := domain.PenaltyPeriodStart(now, policy.ResetHour)
	count, err := s.store.CountCreatedSince(ctx, start, policy.ExcludeProfiles)
	if err != nil {
		return PenaltyStatus{}, err
	}
	return PenaltyStatus{
		Enabled:        true,
		Count:          count,
		PenaltyMinutes: domain.PenaltyMinutes(count, policy.PerUnblockSeconds),
		NextReset:      domain.PenaltyNextReset(now, policy.ResetHour),
	}, nil
}

func (s *SchedulerService) penaltyMinutes(ctx context.Context, policy sessionout.PenaltyPolicy, profile string, now time.Time) (float64, error) {
	if !policy.Enabled || policy.Excludes(profile) {
		return 0, nil
	}
	start := domain.PenaltyPeriodStart(now, policy.ResetHour)
	count, err := s.store.CountCreatedSince(ctx, start, policy.ExcludeProfiles)
	if err != nil {
		return 0, err
	}
	return domain.PenaltyMinutes(count, policy.PerUnblockSeconds), nil
}

func (s *SchedulerService) checkCooldown(ctx context.Context, profile sessionout.ProfilePolicy, now time.Time) error {
	if profile.CooldownMinutes <= 0 {
		return nil
	}
	last, ok, err := s.cooldowns.LastUsed(ctx, profile.Name)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	until := last.Add(minutesDuration(profile.CooldownMinutes))
	if until.After(now) {
		return &apperrors.CooldownActiveError{Profile: profile.Name, Remaining: until.Sub(now)}
	}
	return nil
}

// timing resolves the wait and duration for one admission, applying request
// overrides. A wait override replaces the concurrency-derived wait entirely.
func (s *SchedulerService) timing(ctx context.Context, req Request, profile sessionout.ProfilePolicy, concurrent int, tags []string) (wait, duration float64, err error) {
	wait, duration, err = s.policy.Timing(ctx, profile.Name, concurrent, tags)
	if err != nil {
		return 0, 0, err
	}
	if req.WaitMinutes != nil {
		wait = *req.WaitMinutes
	}
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}
	return wait, duration, nil
}

func (s *SchedulerService) create(ctx context.Context, now time.Time, params sessionout.CreateSessionParams) (domain.Session, error) {
	id, err := s.store.Create(ctx, now, params)
	if err != nil {
		return domain.Session{}, err
	}
	return s.store.Get(ctx, id)
}

// findSession resolves a user-supplied ref: a numeric id fetches directly,
// anything else fuzzy-matches against live sessions, newest first.
func (s *SchedulerService) findSession(ctx context.Context, ref string, now time.Time) (domain.Session, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.store.Get(ctx, id)
	}
	active, err := s.store.ListActive(ctx, now)
	if err != nil {
		return domain.Session{}, err
	}
	pending, err := s.store.ListPending(ctx, now)
	if err != nil {
		return domain.Session{}, err
	}
	for _, sess := range append(active, pending...) {
		if sess.MatchesName(ref) {
			return sess, nil
		}
	}
	return domain.Session{}, fmt.Errorf("%w: %s", apperrors.ErrNotFound, ref)
}

func (s *SchedulerService) limitError(limit int, active, pending []domain.Session, now time.Time) error {
	var labels []string
	for _, sess := range append(active, pending...) {
		labels = append(labels, sessionLabel(sess, now))
	}
	return &apperrors.ConcurrencyLimitError{Limit: limit, Sessions: labels}
}

func sessionLabel(sess domain.Session, now time.Time) string {
	name := sess.TargetName
	if name == "" {
		name = strings.Join(sess.Domains, ",")
	}
	return fmt.Sprintf("%d: %s (%s left)", sess.ID, name, sess.Remaining(now).Round(time.Second))
}

func bulkTargetName(targets []string, profile sessionout.ProfilePolicy) string {
	if profile.All {
		return "all"
	}
	if len(targets) == 0 {
		return profile.Name
	}
	return strings.Join(targets, ",")
}

func coveredBy(sessions []domain.Session, domains []string, now time.Time) (bool, domain.Session) {
	for _, sess := range sessions {
		if sess.Covers(domains) {
			return true, sess
		}
	}
	return false, domain.Session{}
}

func activeCoverage(active []domain.Session, domains []string) (bool, domain.Session) {
	for _, sess := range active {
		if sess.IsAllDomains || sess.Covers(domains) {
			return true, sess
		}
	}
	return false, domain.Session{}
}

func anyHeld(domains []string, held map[string]bool) bool {
	for _, d := range domains {
		if held[d] {
			return true
		}
	}
	return false
}

func dedupe(targets []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range targets {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func minutesDuration(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

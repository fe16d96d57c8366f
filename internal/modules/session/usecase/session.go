package usecase

import (
	"context"
	"time"

	"hostblock/internal/modules/session/domain"
	"hostblock/internal/modules/session/dto"
	sessionin "hostblock/internal/modules/session/port/in"
	"hostblock/internal/modules/session/service"
	"hostblock/internal/platform/clock"
)

type Interactor struct {
	svc   *service.SchedulerService
	clock clock.Clock
}

func NewInteractor(svc *service.SchedulerService, clk clock.Clock) sessionin.Usecase {
	return &Interactor{svc: svc, clock: clk}
}

func (i *Interactor) Unblock(ctx context.Context, input dto.UnblockInput) (dto.UnblockOutput, error) {
	result, err := i.svc.RequestUnblock(ctx, service.Request{
		Profile:         input.Profile,
		Targets:         input.Targets,
		WaitMinutes:     input.WaitMinutes,
		DurationMinutes: input.DurationMinutes,
		AcceptQueue:     input.AcceptQueue,
	})
	if err != nil {
		return dto.UnblockOutput{}, err
	}
	now := i.clock.Now()
	out := dto.UnblockOutput{
		Created:        i.sessions(result.Created, now),
		Queued:         i.sessions(result.Queued, now),
		PenaltyMinutes: result.PenaltyMinutes,
	}
	for _, s := range result.SkippedPending {
		out.Skipped = append(out.Skipped, dto.SkippedOutput{
			Target: s.Target, SessionID: s.SessionID, Remaining: s.Remaining,
		})
	}
	for _, o := range result.QueueOffers {
		out.Offers = append(out.Offers, dto.QueueOfferOutput{
			Target: o.Target, SessionID: o.SessionID, Remaining: o.Remaining,
		})
	}
	return out, nil
}

func (i *Interactor) Status(ctx context.Context) (dto.StatusOutput, error) {
	report, err := i.svc.Status(ctx)
	if err != nil {
		return dto.StatusOutput{}, err
	}
	out := dto.StatusOutput{
		Now:            report.Now,
		Active:         i.sessions(report.Active, report.Now),
		Pending:        i.sessions(report.Pending, report.Now),
		Queued:         i.sessions(report.Queued, report.Now),
		Unblocked:      report.Unblocked,
		AllDomainsOpen: report.AllDomainsOpen,
		SessionLimit:   report.SessionLimit,
		Penalty:        penaltyOutput(report.Penalty),
	}
	for _, c := range report.Cooldowns {
		out.Cooldowns = append(out.Cooldowns, dto.CooldownOutput{Profile: c.Profile, Remaining: c.Remaining})
	}
	return out, nil
}

func (i *Interactor) Cancel(ctx context.Context, ref string) ([]dto.SessionOutput, error) {
	canceled, err := i.svc.Cancel(ctx, ref)
	if err != nil {
		return nil, err
	}
	return i.sessions(canceled, i.clock.Now()), nil
}

func (i *Interactor) Extend(ctx context.Context, ref string, minutes float64) (dto.SessionOutput, error) {
	sess, err := i.svc.Extend(ctx, ref, minutes)
	if err != nil {
		return dto.SessionOutput{}, err
	}
	return sessionOutput(sess, i.clock.Now()), nil
}

func (i *Interactor) Replace(ctx context.Context, ref string, targets []string) (dto.SessionOutput, error) {
	sess, err := i.svc.Replace(ctx, ref, targets)
	if err != nil {
		return dto.SessionOutput{}, err
	}
	return sessionOutput(sess, i.clock.Now()), nil
}

func (i *Interactor) Reconcile(ctx context.Context) ([]dto.SessionOutput, error) {
	activated, err := i.svc.Reconcile(ctx)
	if err != nil {
		return nil, err
	}
	return i.sessions(activated, i.clock.Now()), nil
}

func (i *Interactor) BlockedDomains(ctx context.Context) ([]string, error) {
	return i.svc.BlockedDomains(ctx)
}

func (i *Interactor) Penalty(ctx context.Context) (dto.PenaltyOutput, error) {
	status, err := i.svc.PenaltyStatus(ctx)
	if err != nil {
		return dto.PenaltyOutput{}, err
	}
	return penaltyOutput(status), nil
}

func (i *Interactor) sessions(sessions []domain.Session, now time.Time) []dto.SessionOutput {
	out := make([]dto.SessionOutput, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionOutput(sess, now))
	}
	return out
}

func sessionOutput(sess domain.Session, now time.Time) dto.SessionOutput {
	return dto.SessionOutput{
		ID:            sess.ID,
		TargetName:    sess.TargetName,
		SessionType:   sess.SessionType,
		Domains:       sess.Domains,
		State:         string(sess.State(now)),
		WaitUntil:     sess.WaitUntil,
		EndTime:       sess.EndTime,
		WaitRemaining: sess.WaitRemaining(now),
		Remaining:     sess.Remaining(now),
		Queued:        sess.Queued(),
	}
}

func penaltyOutput(status service.PenaltyStatus) dto.PenaltyOutput {
	return dto.PenaltyOutput{
		Enabled:        status.Enabled,
		Count:          status.Count,
		PenaltyMinutes: status.PenaltyMinutes,
		NextReset:      status.NextReset,
	}
}

package usecase

import (
	"context"

	"hostblock/internal/modules/blocklist/domain"
	"hostblock/internal/modules/blocklist/dto"
	blocklistin "hostblock/internal/modules/blocklist/port/in"
	"hostblock/internal/modules/blocklist/service"
)

type Interactor struct {
	svc *service.ResolverService
}

func NewInteractor(svc *service.ResolverService) blocklistin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Resolve(_ context.Context, input dto.ResolveInput) (dto.ResolveOutput, error) {
	domains, tags, err := i.svc.Resolve(input.Profile, input.Targets)
	if err != nil {
		return dto.ResolveOutput{}, err
	}
	return dto.ResolveOutput{Profile: input.Profile, Domains: domains, Tags: tags}, nil
}

func (i *Interactor) Timing(_ context.Context, input dto.TimingInput) (dto.TimingOutput, error) {
	wait, duration, err := i.svc.Timing(input.Profile, input.ConcurrentSessions, input.Tags)
	if err != nil {
		return dto.TimingOutput{}, err
	}
	return dto.TimingOutput{WaitMinutes: wait, DurationMinutes: duration}, nil
}

func (i *Interactor) ProfileInfo(_ context.Context, name string) (dto.ProfileOutput, error) {
	profile, err := i.svc.Profile(name)
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return profileOutput(profile), nil
}

func (i *Interactor) ListProfiles(_ context.Context) ([]dto.ProfileOutput, error) {
	names := i.svc.ProfileNames()
	out := make([]dto.ProfileOutput, 0, len(names))
	for _, name := range names {
		profile, err := i.svc.Profile(name)
		if err != nil {
			return nil, err
		}
		out = append(out, profileOutput(profile))
	}
	return out, nil
}

func profileOutput(profile domain.Profile) dto.ProfileOutput {
	return dto.ProfileOutput{
		Name:              profile.Name,
		Bulk:              profile.Bulk(),
		All:               profile.Mode == domain.ModeAll,
		BaseWaitMinutes:   profile.Wait.BaseMinutes,
		ConcurrentPenalty: profile.Wait.ConcurrentPenalty,
		DurationMinutes:   profile.DurationMinutes,
		CooldownMinutes:   profile.CooldownMinutes,
		Extendable:        profile.Extendable,
	}
}

func (i *Interactor) ListTargets(_ context.Context) ([]dto.TargetOutput, error) {
	entries := i.svc.Entries()
	out := make([]dto.TargetOutput, 0, len(entries))
	for _, entry := range entries {
		target := dto.TargetOutput{Name: entry.Name, Tags: entry.Tags}
		if entry.IsGroup() {
			target.Domains = entry.Domains
		} else {
			target.Domains = []string{entry.Name}
		}
		out = append(out, target)
	}
	return out, nil
}

func (i *Interactor) Universe(_ context.Context) ([]string, error) {
	return i.svc.Universe(), nil
}

func (i *Interactor) Limits(_ context.Context) (dto.LimitsOutput, error) {
	penalty := i.svc.Penalty()
	return dto.LimitsOutput{
		SessionLimit:   i.svc.SessionLimit(),
		DefaultProfile: i.svc.DefaultProfile(),
		Penalty: dto.PenaltyPolicyOutput{
			Enabled:           penalty.Enabled,
			PerUnblockSeconds: penalty.PerUnblockSeconds,
			ResetHour:         penalty.ResetHour,
			ExcludeProfiles:   penalty.ExcludeProfiles,
		},
	}, nil
}

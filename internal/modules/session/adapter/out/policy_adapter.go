package out

import (
	"context"

	blocklistdto "hostblock/internal/modules/blocklist/dto"
	blocklistin "hostblock/internal/modules/blocklist/port/in"
	sessionout "hostblock/internal/modules/session/port/out"
)

// BlocklistPolicy adapts the blocklist module's inbound port to the
// scheduler's outbound Policy port.
type BlocklistPolicy struct {
	blocklist blocklistin.Usecase
}

func NewBlocklistPolicy(blocklist blocklistin.Usecase) *BlocklistPolicy {
	return &BlocklistPolicy{blocklist: blocklist}
}

func (p *BlocklistPolicy) Profile(ctx context.Context, name string) (sessionout.ProfilePolicy, error) {
	profile, err := p.blocklist.ProfileInfo(ctx, name)
	if err != nil {
		return sessionout.ProfilePolicy{}, err
	}
	return profilePolicy(profile), nil
}

func (p *BlocklistPolicy) Resolve(ctx context.Context, profile string, targets []string) ([]string, []string, error) {
	resolved, err := p.blocklist.Resolve(ctx, blocklistdto.ResolveInput{Profile: profile, Targets: targets})
	if err != nil {
		return nil, nil, err
	}
	return resolved.Domains, resolved.Tags, nil
}

func (p *BlocklistPolicy) Timing(ctx context.Context, profile string, concurrentSessions int, tags []string) (float64, float64, error) {
	timing, err := p.blocklist.Timing(ctx, blocklistdto.TimingInput{
		Profile:            profile,
		ConcurrentSessions: concurrentSessions,
		Tags:               tags,
	})
	if err != nil {
		return 0, 0, err
	}
	return timing.WaitMinutes, timing.DurationMinutes, nil
}

func (p *BlocklistPolicy) Universe(ctx context.Context) ([]string, error) {
	return p.blocklist.Universe(ctx)
}

func (p *BlocklistPolicy) Limits(ctx context.Context) (sessionout.Limits, error) {
	limits, err := p.blocklist.Limits(ctx)
	if err != nil {
		return sessionout.Limits{}, err
	}
	return sessionout.Limits{
		SessionLimit:   limits.SessionLimit,
		DefaultProfile: limits.DefaultProfile,
		Penalty: sessionout.PenaltyPolicy{
			Enabled:           limits.Penalty.Enabled,
			PerUnblockSeconds: limits.Penalty.PerUnblockSeconds,
			ResetHour:         limits.Penalty.ResetHour,
			ExcludeProfiles:   limits.Penalty.ExcludeProfiles,
		},
	}, nil
}

func (p *BlocklistPolicy) CooldownProfiles(ctx context.Context) ([]sessionout.ProfilePolicy, error) {
	profiles, err := p.blocklist.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	var out []sessionout.ProfilePolicy
	for _, profile := range profiles {
		if profile.CooldownMinutes > 0 {
			out = append(out, profilePolicy(profile))
		}
	}
	return out, nil
}

func profilePolicy(profile blocklistdto.ProfileOutput) sessionout.ProfilePolicy {
	return sessionout.ProfilePolicy{
		Name:              profile.Name,
		Bulk:              profile.Bulk,
		All:               profile.All,
		ConcurrentPenalty: profile.ConcurrentPenalty,
		CooldownMinutes:   profile.CooldownMinutes,
		Extendable:        profile.Extendable,
	}
}

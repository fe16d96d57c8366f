package out

import "context"

// ProfilePolicy is the slice of blocklist configuration the scheduler needs
// to gate and time a request.
type ProfilePolicy struct {
	Name              string
	Bulk              bool
	All               bool
	ConcurrentPenalty float64
	CooldownMinutes   float64
	Extendable        bool
}

type PenaltyPolicy struct {
	Enabled           bool
	PerUnblockSeconds float64
	ResetHour         int
	ExcludeProfiles   []string
}

func (p PenaltyPolicy) Excludes(profile string) bool {
	for _, name := range p.ExcludeProfiles {
		if name == profile {
			return true
		}
	}
	return false
}

type Limits struct {
	SessionLimit   int
	DefaultProfile string
	Penalty        PenaltyPolicy
}

// Policy is the scheduler's read-only view of the blocklist module.
type Policy interface {
	Profile(ctx context.Context, name string) (ProfilePolicy, error)
	Resolve(ctx context.Context, profile string, targets []string) (domains, tags []string, err error)
	Timing(ctx context.Context, profile string, concurrentSessions int, tags []string) (waitMinutes, durationMinutes float64, err error)
	Universe(ctx context.Context) ([]string, error)
	Limits(ctx context.Context) (Limits, error)
	// CooldownProfiles lists every profile with a non-zero cooldown, for
	// status display.
	CooldownProfiles(ctx context.Context) ([]ProfilePolicy, error)
}

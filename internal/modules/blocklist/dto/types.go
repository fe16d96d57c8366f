package dto

type ResolveInput struct {
	Profile string
	Targets []string
}

type ResolveOutput struct {
	Profile string
	Domains []string
	Tags    []string
}

type TimingInput struct {
	Profile            string
	ConcurrentSessions int
	Tags               []string
}

type TimingOutput struct {
	WaitMinutes     float64
	DurationMinutes float64
}

type TargetOutput struct {
	Name    string
	Domains []string
	Tags    []string
}

type ProfileOutput struct {
	Name              string
	Bulk              bool
	All               bool
	BaseWaitMinutes   float64
	ConcurrentPenalty float64
	DurationMinutes   float64
	CooldownMinutes   float64
	Extendable        bool
}

type PenaltyPolicyOutput struct {
	Enabled           bool
	PerUnblockSeconds float64
	ResetHour         int
	ExcludeProfiles   []string
}

type LimitsOutput struct {
	SessionLimit   int
	DefaultProfile string
	Penalty        PenaltyPolicyOutput
}

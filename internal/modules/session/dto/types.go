package dto

import "time"

type UnblockInput struct {
	Profile         string
	Targets         []string
	WaitMinutes     *float64
	DurationMinutes *float64
	AcceptQueue     bool
}

type SessionOutput struct {
	ID            int64
	TargetName    string
	SessionType   string
	Domains       []string
	State         string
	WaitUntil     time.Time
	EndTime       time.Time
	WaitRemaining time.Duration
	Remaining     time.Duration
	Queued        bool
}

type SkippedOutput struct {
	Target    string
	SessionID int64
	Remaining time.Duration
}

type QueueOfferOutput struct {
	Target    string
	SessionID int64
	Remaining time.Duration
}

type UnblockOutput struct {
	Created        []SessionOutput
	Queued         []SessionOutput
	Skipped        []SkippedOutput
	Offers         []QueueOfferOutput
	PenaltyMinutes float64
}

type CooldownOutput struct {
	Profile   string
	Remaining time.Duration
}

type PenaltyOutput struct {
	Enabled        bool
	Count          int
	PenaltyMinutes float64
	NextReset      time.Time
}

type StatusOutput struct {
	Now            time.Time
	Active         []SessionOutput
	Pending        []SessionOutput
	Queued         []SessionOutput
	Unblocked      []string
	AllDomainsOpen bool
	SessionLimit   int
	Cooldowns      []CooldownOutput
	Penalty        PenaltyOutput
}

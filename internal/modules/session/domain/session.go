package domain

import (
	"strings"
	"time"
)

type State string

const (
	StateQueued  State = "queued"
	StatePending State = "pending"
	StateActive  State = "active"
	StateExpired State = "expired"
)

// Session is a time-boxed grant that unblocks a specific domain set.
// Invariants: WaitUntil >= CreatedAt and EndTime >= WaitUntil. A queued
// session (QueuedFor set) is inert; its timestamps only become meaningful
// once activation recomputes them.
type Session struct {
	ID           int64
	Domains      []string
	CreatedAt    time.Time
	WaitUntil    time.Time
	EndTime      time.Time
	SessionType  string
	IsAllDomains bool
	TargetName   string
	QueuedFor    []string
}

func (s Session) Queued() bool {
	return len(s.QueuedFor) > 0
}

func (s Session) State(now time.Time) State {
	switch {
	case s.Queued():
		return StateQueued
	case now.Before(s.WaitUntil):
		return StatePending
	case now.Before(s.EndTime):
		return StateActive
	default:
		return StateExpired
	}
}

func (s Session) Active(now time.Time) bool {
	return s.State(now) == StateActive
}

func (s Session) Pending(now time.Time) bool {
	return s.State(now) == StatePending
}

func (s Session) Expired(now time.Time) bool {
	return s.State(now) == StateExpired
}

// ConfiguredWait is the wait the session was created with, preserved across
// queued activation.
func (s Session) ConfiguredWait() time.Duration {
	return s.WaitUntil.Sub(s.CreatedAt)
}

// ConfiguredDuration is the active span the session was created with.
func (s Session) ConfiguredDuration() time.Duration {
	return s.EndTime.Sub(s.WaitUntil)
}

func (s Session) Remaining(now time.Time) time.Duration {
	return s.EndTime.Sub(now)
}

func (s Session) WaitRemaining(now time.Time) time.Duration {
	return s.WaitUntil.Sub(now)
}

// Covers reports whether the session's domain set is a superset of domains.
func (s Session) Covers(domains []string) bool {
	if len(domains) == 0 {
		return false
	}
	set := toSet(s.Domains)
	for _, d := range domains {
		if _, ok := set[d]; !ok {
			return false
		}
	}
	return true
}

// SameDomains is set equality, order irrelevant.
func (s Session) SameDomains(domains []string) bool {
	if len(toSet(s.Domains)) != len(toSet(domains)) {
		return false
	}
	return s.Covers(domains)
}

// MatchesName implements fuzzy lookup for cancel/replace: the target label,
// an exact domain, or a domain prefix/substring match.
func (s Session) MatchesName(name string) bool {
	if name == "" {
		return false
	}
	if strings.EqualFold(s.TargetName, name) {
		return true
	}
	for _, d := range s.Domains {
		if d == name || strings.Contains(d, name) {
			return true
		}
	}
	return false
}

// DomainUnion collects the distinct domains across sessions, preserving
// first-seen order.
func DomainUnion(sessions []Session) []string {
	seen := map[string]struct{}{}
	var union []string
	for _, s := range sessions {
		for _, d := range s.Domains {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			union = append(union, d)
		}
	}
	return union
}

func toSet(domains []string) map[string]struct{} {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		set[d] = struct{}{}
	}
	return set
}

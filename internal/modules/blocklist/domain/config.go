package domain

import (
	"strings"

	apperrors "hostblock/internal/platform/errors"
)

// ProfileMode is fixed at config-load time; resolution never probes the raw
// profile shape again.
type ProfileMode int

const (
	ModePerTarget ProfileMode = iota
	ModeAll
	ModeByTags
	ModeOnlyList
)

// Entry is one configured name: a single domain, or a named group of domains.
type Entry struct {
	Name    string
	Domains []string
	Tags    []string
}

// IsGroup reports whether the entry expands to multiple domains.
func (e Entry) IsGroup() bool {
	return len(e.Domains) > 0
}

func (e Entry) resolvedDomains() []string {
	if e.IsGroup() {
		return e.Domains
	}
	return []string{e.Name}
}

type WaitRule struct {
	BaseMinutes       float64
	ConcurrentPenalty float64
}

// TagRule overrides the wait when any of its tags appears on a target.
type TagRule struct {
	Tags         []string
	WaitOverride float64
}

type Profile struct {
	Name            string
	Mode            ProfileMode
	Tags            []string
	Only            []string
	Wait            WaitRule
	TagRules        []TagRule
	DurationMinutes float64
	CooldownMinutes float64
	Extendable      bool
}

// Bulk profiles always produce exactly one session per request.
func (p Profile) Bulk() bool {
	return p.Mode != ModePerTarget
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

type Config struct {
	Entries        []Entry
	Profiles       map[string]Profile
	DefaultProfile string
	SessionLimit   int
	Penalty        PenaltyPolicy
}

// Universe is the full configured domain set, insertion-ordered and deduped.
func (c Config) Universe() []string {
	set := newOrderedSet()
	for _, entry := range c.Entries {
		set.addAll(entry.resolvedDomains())
	}
	return set.values
}

// AllTags collects every tag present on any entry.
func (c Config) AllTags() []string {
	set := newOrderedSet()
	for _, entry := range c.Entries {
		set.addAll(entry.Tags)
	}
	return set.values
}

// TargetNames lists the names a user may pass as targets, for error display.
func (c Config) TargetNames() []string {
	names := make([]string, 0, len(c.Entries))
	for _, entry := range c.Entries {
		names = append(names, entry.Name)
	}
	return names
}

func (c Config) Profile(name string) (Profile, bool) {
	p, ok := c.Profiles[name]
	return p, ok
}

func (c Config) entry(name string) (Entry, bool) {
	for _, e := range c.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Resolve maps request targets to a concrete domain set and the union of
// their tags, following the profile's mode. Literal names try an exact entry
// match, then one ".com" retry, then pass through as raw domains when they
// already look like one.
func (c Config) Resolve(targets []string, profile Profile) ([]string, []string, error) {
	domains := newOrderedSet()
	tags := newOrderedSet()

	switch profile.Mode {
	case ModeAll:
		return c.Universe(), c.AllTags(), nil
	case ModeByTags:
		for _, tag := range profile.Tags {
			for _, entry := range c.Entries {
				if containsTag(entry.Tags, tag) {
					domains.addAll(entry.resolvedDomains())
				}
			}
		}
		tags.addAll(profile.Tags)
		return domains.values, tags.values, nil
	case ModeOnlyList:
		targets = profile.Only
	}

	for _, target := range targets {
		name := strings.TrimSpace(target)
		entry, ok := c.entry(name)
		if !ok && !strings.HasSuffix(name, ".com") {
			entry, ok = c.entry(name + ".com")
		}
		if ok {
			domains.addAll(entry.resolvedDomains())
			tags.addAll(entry.Tags)
			continue
		}
		if strings.Contains(name, ".") {
			domains.add(name)
			continue
		}
		return nil, nil, &apperrors.UnknownTargetError{Name: name, Available: c.TargetNames()}
	}
	return domains.values, tags.values, nil
}

// Timing computes the request's wait and duration in minutes. The wait is
// base plus the concurrent-session penalty; a matching tag rule overrides it
// outright.
func (p Profile) Timing(concurrentSessions int, tags []string) (wait, duration float64) {
	wait = p.Wait.BaseMinutes + float64(concurrentSessions)*p.Wait.ConcurrentPenalty
	for _, rule := range p.TagRules {
		if anyTagMatches(rule.Tags, tags) {
			wait = rule.WaitOverride
			break
		}
	}
	return wait, p.DurationMinutes
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func anyTagMatches(ruleTags, tags []string) bool {
	for _, t := range ruleTags {
		if containsTag(tags, t) {
			return true
		}
	}
	return false
}

type orderedSet struct {
	values []string
	seen   map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[string]struct{}{}}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.values = append(s.values, v)
}

func (s *orderedSet) addAll(vs []string) {
	for _, v := range vs {
		s.add(v)
	}
}

package out

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"hostblock/internal/modules/blocklist/domain"
	blocklistout "hostblock/internal/modules/blocklist/port/out"
)

const (
	defaultBaseWait     = 5
	defaultDuration     = 30
	defaultSessionLimit = 4
	defaultResetHour    = 4
	defaultPerUnblock   = 10
)

type YAMLConfigStore struct {
	path string
}

func NewYAMLConfigStore(path string) blocklistout.ConfigStore {
	return &YAMLConfigStore{path: path}
}

type fileDoc struct {
	DefaultProfile     string                   `yaml:"default_profile"`
	SessionLimit       int                      `yaml:"session_limit"`
	ProgressivePenalty penaltyDoc               `yaml:"progressive_penalty"`
	Domains            yaml.Node                `yaml:"domains"`
	Profiles           map[string]profileDoc    `yaml:"profiles"`
}

type penaltyDoc struct {
	Enabled         bool     `yaml:"enabled"`
	PerUnblock      *float64 `yaml:"per_unblock"`
	ResetHour       *int     `yaml:"reset_hour"`
	ExcludeProfiles []string `yaml:"exclude_profiles"`
}

type entryDoc struct {
	Domains []string `yaml:"domains"`
	Tags    []string `yaml:"tags"`
}

type profileDoc struct {
	All        bool         `yaml:"all"`
	Tags       []string     `yaml:"tags"`
	Only       []string     `yaml:"only"`
	Wait       yaml.Node    `yaml:"wait"`
	Duration   *float64     `yaml:"duration"`
	Cooldown   float64      `yaml:"cooldown"`
	Extendable *bool        `yaml:"extendable"`
	TagRules   []tagRuleDoc `yaml:"tag_rules"`
}

type tagRuleDoc struct {
	Tags         []string `yaml:"tags"`
	WaitOverride float64  `yaml:"wait_override"`
}

func (s *YAMLConfigStore) Load(_ context.Context) (domain.Config, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Config{}, fmt.Errorf("read config: %w", err)
	}
	var doc fileDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return domain.Config{}, fmt.Errorf("parse config: %w", err)
	}

	entries, err := decodeEntries(doc.Domains)
	if err != nil {
		return domain.Config{}, err
	}

	profiles := make(map[string]domain.Profile, len(doc.Profiles))
	for name, p := range doc.Profiles {
		profile, err := decodeProfile(name, p)
		if err != nil {
			return domain.Config{}, err
		}
		profiles[name] = profile
	}

	cfg := domain.Config{
		Entries:        entries,
		Profiles:       profiles,
		DefaultProfile: doc.DefaultProfile,
		SessionLimit:   doc.SessionLimit,
		Penalty: domain.PenaltyPolicy{
			Enabled:           doc.ProgressivePenalty.Enabled,
			PerUnblockSeconds: defaultPerUnblock,
			ResetHour:         defaultResetHour,
			ExcludeProfiles:   doc.ProgressivePenalty.ExcludeProfiles,
		},
	}
	if doc.ProgressivePenalty.PerUnblock != nil {
		cfg.Penalty.PerUnblockSeconds = *doc.ProgressivePenalty.PerUnblock
	}
	if doc.ProgressivePenalty.ResetHour != nil {
		cfg.Penalty.ResetHour = *doc.ProgressivePenalty.ResetHour
	}
	if cfg.SessionLimit <= 0 {
		cfg.SessionLimit = defaultSessionLimit
	}
	if cfg.DefaultProfile != "" {
		if _, ok := cfg.Profiles[cfg.DefaultProfile]; !ok {
			return domain.Config{}, fmt.Errorf("default_profile %q is not a configured profile", cfg.DefaultProfile)
		}
	}
	return cfg, nil
}

// decodeEntries walks the domains mapping node directly so the configured
// order survives into the universe.
func decodeEntries(node yaml.Node) ([]domain.Entry, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("domains must be a mapping")
	}
	entries := make([]domain.Entry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		value := node.Content[i+1]
		entry := domain.Entry{Name: key.Value}
		if value.Kind == yaml.MappingNode {
			var body entryDoc
			if err := value.Decode(&body); err != nil {
				return nil, fmt.Errorf("domain %q: %w", key.Value, err)
			}
			entry.Domains = body.Domains
			entry.Tags = body.Tags
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func decodeProfile(name string, doc profileDoc) (domain.Profile, error) {
	profile := domain.Profile{
		Name:            name,
		Tags:            doc.Tags,
		Only:            doc.Only,
		DurationMinutes: defaultDuration,
		CooldownMinutes: doc.Cooldown,
		Extendable:      true,
	}
	switch {
	case doc.All:
		profile.Mode = domain.ModeAll
	case len(doc.Tags) > 0:
		profile.Mode = domain.ModeByTags
	case len(doc.Only) > 0:
		profile.Mode = domain.ModeOnlyList
	default:
		profile.Mode = domain.ModePerTarget
	}
	if doc.Duration != nil {
		profile.DurationMinutes = *doc.Duration
	}
	if doc.Extendable != nil {
		profile.Extendable = *doc.Extendable
	}

	wait, err := decodeWait(name, doc.Wait)
	if err != nil {
		return domain.Profile{}, err
	}
	profile.Wait = wait

	for _, rule := range doc.TagRules {
		profile.TagRules = append(profile.TagRules, domain.TagRule{
			Tags:         rule.Tags,
			WaitOverride: rule.WaitOverride,
		})
	}
	return profile, nil
}

// decodeWait accepts either a bare number of minutes or a mapping with a
// base and per-concurrent-session penalty.
func decodeWait(profile string, node yaml.Node) (domain.WaitRule, error) {
	switch node.Kind {
	case 0:
		return domain.WaitRule{BaseMinutes: defaultBaseWait}, nil
	case yaml.ScalarNode:
		var minutes float64
		if err := node.Decode(&minutes); err != nil {
			return domain.WaitRule{}, fmt.Errorf("profile %q wait: %w", profile, err)
		}
		return domain.WaitRule{BaseMinutes: minutes}, nil
	case yaml.MappingNode:
		var body struct {
			Base              *float64 `yaml:"base"`
			ConcurrentPenalty float64  `yaml:"concurrent_penalty"`
		}
		if err := node.Decode(&body); err != nil {
			return domain.WaitRule{}, fmt.Errorf("profile %q wait: %w", profile, err)
		}
		rule := domain.WaitRule{BaseMinutes: defaultBaseWait, ConcurrentPenalty: body.ConcurrentPenalty}
		if body.Base != nil {
			rule.BaseMinutes = *body.Base
		}
		return rule, nil
	default:
		return domain.WaitRule{}, fmt.Errorf("profile %q wait: unsupported shape", profile)
	}
}

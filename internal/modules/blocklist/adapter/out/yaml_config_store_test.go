package out_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	blocklistout "hostblock/internal/modules/blocklist/adapter/out"
	"hostblock/internal/modules/blocklist/domain"
)

const sampleConfig = `
default_profile: unblock
session_limit: 3
progressive_penalty:
  enabled: true
  per_unblock: 10
  reset_hour: 4
  exclude_profiles: [bypass]
domains:
  gmail.com:
    tags: [work]
  reddit.com:
    tags: [social, ultra]
  news:
    domains: [nytimes.com, cnn.com]
    tags: [news]
  plain.com:
profiles:
  unblock:
    wait:
      base: 5
      concurrent_penalty: 5
    duration: 30
    tag_rules:
      - tags: [ultra]
        wait_override: 30
  bypass:
    all: true
    wait: 0
    duration: 5
    cooldown: 60
    extendable: false
  peek:
    all: true
    wait: 1
    duration: 1
`

func loadSample(t *testing.T) domain.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := blocklistout.NewYAMLConfigStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestLoadKeepsDomainOrderAndShapes(t *testing.T) {
	t.Parallel()
	cfg := loadSample(t)
	want := []string{"gmail.com", "reddit.com", "nytimes.com", "cnn.com", "plain.com"}
	if !reflect.DeepEqual(cfg.Universe(), want) {
		t.Fatalf("universe = %v, want %v", cfg.Universe(), want)
	}
	if cfg.SessionLimit != 3 || cfg.DefaultProfile != "unblock" {
		t.Fatalf("top-level fields not parsed: %+v", cfg)
	}
}

func TestLoadDecidesProfileModeOnce(t *testing.T) {
	t.Parallel()
	cfg := loadSample(t)

	unblock := cfg.Profiles["unblock"]
	if unblock.Mode != domain.ModePerTarget {
		t.Fatalf("unblock mode = %v", unblock.Mode)
	}
	if unblock.Wait.BaseMinutes != 5 || unblock.Wait.ConcurrentPenalty != 5 {
		t.Fatalf("unblock wait = %+v", unblock.Wait)
	}
	if len(unblock.TagRules) != 1 || unblock.TagRules[0].WaitOverride != 30 {
		t.Fatalf("unblock tag rules = %+v", unblock.TagRules)
	}
	if !unblock.Extendable {
		t.Fatalf("extendable should default to true")
	}

	bypass := cfg.Profiles["bypass"]
	if bypass.Mode != domain.ModeAll {
		t.Fatalf("bypass mode = %v", bypass.Mode)
	}
	if bypass.Wait.BaseMinutes != 0 || bypass.CooldownMinutes != 60 || bypass.Extendable {
		t.Fatalf("bypass profile = %+v", bypass)
	}
}

func TestLoadPenaltyPolicy(t *testing.T) {
	t.Parallel()
	cfg := loadSample(t)
	p := cfg.Penalty
	if !p.Enabled || p.PerUnblockSeconds != 10 || p.ResetHour != 4 {
		t.Fatalf("penalty = %+v", p)
	}
	if !p.Excludes("bypass") || p.Excludes("unblock") {
		t.Fatalf("exclusion list wrong: %+v", p)
	}
}

func TestLoadRejectsUnknownDefaultProfile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "default_profile: ghost\nprofiles:\n  unblock:\n    duration: 30\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := blocklistout.NewYAMLConfigStore(path).Load(context.Background()); err == nil {
		t.Fatalf("expected error for unknown default profile")
	}
}

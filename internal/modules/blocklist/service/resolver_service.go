package service

import (
	"context"
	"fmt"
	"sort"

	"hostblock/internal/modules/blocklist/domain"
	blocklistout "hostblock/internal/modules/blocklist/port/out"
	apperrors "hostblock/internal/platform/errors"
)

// ResolverService answers target-resolution and policy questions against the
// configuration loaded once at startup.
type ResolverService struct {
	cfg domain.Config
}

func NewResolverService(ctx context.Context, store blocklistout.ConfigStore) (*ResolverService, error) {
	cfg, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load blocklist config: %w", err)
	}
	return &ResolverService{cfg: cfg}, nil
}

func NewResolverServiceFromConfig(cfg domain.Config) *ResolverService {
	return &ResolverService{cfg: cfg}
}

func (s *ResolverService) Profile(name string) (domain.Profile, error) {
	profile, ok := s.cfg.Profile(name)
	if !ok {
		return domain.Profile{}, fmt.Errorf("%w: %s", apperrors.ErrUnknownProfile, name)
	}
	return profile, nil
}

func (s *ResolverService) Resolve(profileName string, targets []string) ([]string, []string, error) {
	profile, err := s.Profile(profileName)
	if err != nil {
		return nil, nil, err
	}
	return s.cfg.Resolve(targets, profile)
}

func (s *ResolverService) Timing(profileName string, concurrent int, tags []string) (float64, float64, error) {
	profile, err := s.Profile(profileName)
	if err != nil {
		return 0, 0, err
	}
	wait, duration := profile.Timing(concurrent, tags)
	return wait, duration, nil
}

func (s *ResolverService) Universe() []string {
	return s.cfg.Universe()
}

func (s *ResolverService) Entries() []domain.Entry {
	return s.cfg.Entries
}

func (s *ResolverService) ProfileNames() []string {
	names := make([]string, 0, len(s.cfg.Profiles))
	for name := range s.cfg.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *ResolverService) SessionLimit() int {
	return s.cfg.SessionLimit
}

func (s *ResolverService) DefaultProfile() string {
	return s.cfg.DefaultProfile
}

func (s *ResolverService) Penalty() domain.PenaltyPolicy {
	return s.cfg.Penalty
}

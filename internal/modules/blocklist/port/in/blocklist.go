package in

import (
	"context"

	"hostblock/internal/modules/blocklist/dto"
)

type Usecase interface {
	Resolve(ctx context.Context, input dto.ResolveInput) (dto.ResolveOutput, error)
	Timing(ctx context.Context, input dto.TimingInput) (dto.TimingOutput, error)
	ProfileInfo(ctx context.Context, name string) (dto.ProfileOutput, error)
	ListProfiles(ctx context.Context) ([]dto.ProfileOutput, error)
	ListTargets(ctx context.Context) ([]dto.TargetOutput, error)
	Universe(ctx context.Context) ([]string, error)
	Limits(ctx context.Context) (dto.LimitsOutput, error)
}

package in

import (
	"context"

	"hostblock/internal/modules/session/dto"
)

type Usecase interface {
	Unblock(ctx context.Context, input dto.UnblockInput) (dto.UnblockOutput, error)
	Status(ctx context.Context) (dto.StatusOutput, error)
	Cancel(ctx context.Context, ref string) ([]dto.SessionOutput, error)
	Extend(ctx context.Context, ref string, minutes float64) (dto.SessionOutput, error)
	Replace(ctx context.Context, ref string, targets []string) (dto.SessionOutput, error)
	Reconcile(ctx context.Context) ([]dto.SessionOutput, error)
	BlockedDomains(ctx context.Context) ([]string, error)
	Penalty(ctx context.Context) (dto.PenaltyOutput, error)
}

package in

import (
	"context"

	"hostblock/internal/modules/session/dto"
	sessionin "hostblock/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Unblock(ctx context.Context, input dto.UnblockInput) (dto.UnblockOutput, error) {
	return h.usecase.Unblock(ctx, input)
}

func (h CLIHandler) Status(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) Cancel(ctx context.Context, ref string) ([]dto.SessionOutput, error) {
	return h.usecase.Cancel(ctx, ref)
}

func (h CLIHandler) Extend(ctx context.Context, ref string, minutes float64) (dto.SessionOutput, error) {
	return h.usecase.Extend(ctx, ref, minutes)
}

func (h CLIHandler) Replace(ctx context.Context, ref string, targets []string) (dto.SessionOutput, error) {
	return h.usecase.Replace(ctx, ref, targets)
}

func (h CLIHandler) Penalty(ctx context.Context) (dto.PenaltyOutput, error) {
	return h.usecase.Penalty(ctx)
}

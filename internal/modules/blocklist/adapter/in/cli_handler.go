package in

import (
	"context"

	"hostblock/internal/modules/blocklist/dto"
	blocklistin "hostblock/internal/modules/blocklist/port/in"
)

type CLIHandler struct {
	usecase blocklistin.Usecase
}

func NewCLIHandler(usecase blocklistin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) ListTargets(ctx context.Context) ([]dto.TargetOutput, error) {
	return h.usecase.ListTargets(ctx)
}

func (h CLIHandler) Resolve(ctx context.Context, profile string, targets []string) (dto.ResolveOutput, error) {
	return h.usecase.Resolve(ctx, dto.ResolveInput{Profile: profile, Targets: targets})
}

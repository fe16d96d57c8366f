package in

import (
	"context"

	"hostblock/internal/modules/enforce/dto"
	enforcein "hostblock/internal/modules/enforce/port/in"
)

type CLIHandler struct {
	usecase enforcein.Usecase
}

func NewCLIHandler(usecase enforcein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Run(ctx context.Context) error {
	return h.usecase.Run(ctx)
}

func (h CLIHandler) ApplyOnce(ctx context.Context) error {
	return h.usecase.ApplyOnce(ctx)
}

func (h CLIHandler) ListSinks(ctx context.Context) ([]dto.SinkOutput, error) {
	return h.usecase.ListSinks(ctx)
}

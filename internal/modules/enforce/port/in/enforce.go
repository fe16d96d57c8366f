package in

import (
	"context"

	"hostblock/internal/modules/enforce/dto"
)

type Usecase interface {
	// Run blocks until ctx is canceled, then restores full blocking.
	Run(ctx context.Context) error
	ApplyOnce(ctx context.Context) error
	ListSinks(ctx context.Context) ([]dto.SinkOutput, error)
}

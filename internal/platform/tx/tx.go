package tx

import "context"

// Manager wraps a transactional boundary around multi-step store operations.
// Duplicate and limit checks must observe the same snapshot their write lands in.
type Manager interface {
	Within(ctx context.Context, fn func(context.Context) error) error
}

type NoopManager struct{}

func (NoopManager) Within(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

package out

import (
	"context"

	"hostblock/internal/modules/blocklist/domain"
)

type ConfigStore interface {
	Load(ctx context.Context) (domain.Config, error)
}

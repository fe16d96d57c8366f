package out

import (
	"context"

	"hostblock/internal/modules/enforce/domain"
)

// Sink applies a blocked domain set to one enforcement backend. Apply with
// the full set restores blocking; Apply with nil opens everything the sink
// controls inside its managed scope.
type Sink interface {
	Name() string
	Apply(ctx context.Context, blocked []string) error
}

// Scheduler is the enforcement loop's view of the session module.
type Scheduler interface {
	Reconcile(ctx context.Context) (activated int, err error)
	BlockedDomains(ctx context.Context) ([]string, error)
	FullBlockSet(ctx context.Context) ([]string, error)
}

type ManifestStore interface {
	Load(ctx context.Context) ([]domain.SinkManifest, error)
}

// SinkHost talks to one manifest's subprocess.
type SinkHost interface {
	GetMetadata(ctx context.Context, manifest domain.SinkManifest) (domain.SinkMetadata, error)
	Apply(ctx context.Context, manifest domain.SinkManifest, blocked []string) error
}

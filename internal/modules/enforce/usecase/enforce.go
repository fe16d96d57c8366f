package usecase

import (
	"context"

	"hostblock/internal/modules/enforce/dto"
	enforcein "hostblock/internal/modules/enforce/port/in"
	enforceout "hostblock/internal/modules/enforce/port/out"
	"hostblock/internal/modules/enforce/service"
)

type Interactor struct {
	svc       *service.DaemonService
	manifests enforceout.ManifestStore
}

func NewInteractor(svc *service.DaemonService, manifests enforceout.ManifestStore) enforcein.Usecase {
	return &Interactor{svc: svc, manifests: manifests}
}

func (i *Interactor) Run(ctx context.Context) error {
	return i.svc.Run(ctx)
}

func (i *Interactor) ApplyOnce(ctx context.Context) error {
	return i.svc.ApplyOnce(ctx)
}

func (i *Interactor) ListSinks(ctx context.Context) ([]dto.SinkOutput, error) {
	manifests, err := i.manifests.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SinkOutput, 0, len(manifests))
	for _, m := range manifests {
		out = append(out, dto.SinkOutput{
			Name:    m.Name,
			Version: m.Version,
			Enabled: m.Enabled,
			Binary:  m.Binary,
		})
	}
	return out, nil
}

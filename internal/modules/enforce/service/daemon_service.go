package service

import (
	"context"
	"time"

	"hostblock/internal/modules/enforce/domain"
	enforceout "hostblock/internal/modules/enforce/port/out"

	"go.uber.org/zap"
)

const DefaultInterval = 10 * time.Second

// DaemonService runs the enforcement loop: reconcile sessions, derive the
// blocked set, and fan it out to every sink when it changes. Sink and storage
// failures are logged and retried next tick; the loop itself only stops on
// context cancellation, after restoring full blocking.
type DaemonService struct {
	scheduler enforceout.Scheduler
	hosts     enforceout.Sink
	manifests enforceout.ManifestStore
	host      enforceout.SinkHost
	logger    *zap.Logger
	interval  time.Duration
}

func NewDaemonService(
	scheduler enforceout.Scheduler,
	hosts enforceout.Sink,
	manifests enforceout.ManifestStore,
	host enforceout.SinkHost,
	logger *zap.Logger,
	interval time.Duration,
) *DaemonService {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &DaemonService{
		scheduler: scheduler,
		hosts:     hosts,
		manifests: manifests,
		host:      host,
		logger:    logger,
		interval:  interval,
	}
}

func (s *DaemonService) Run(ctx context.Context) error {
	sinks := s.loadSinks(ctx)
	s.logger.Info("daemon started",
		zap.Duration("interval", s.interval),
		zap.Int("sinks", len(sinks)))

	var last []string
	applied := false
	tick := func() {
		blocked, ok := s.reconcileAndDerive(ctx)
		if !ok {
			return
		}
		if applied && sameSet(blocked, last) {
			return
		}
		if s.fanOut(ctx, sinks, blocked) {
			last = blocked
			applied = true
		}
	}

	tick()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.restore(sinks)
			return nil
		case <-ticker.C:
			tick()
		}
	}
}

// ApplyOnce reconciles and pushes the current blocked set without looping.
func (s *DaemonService) ApplyOnce(ctx context.Context) error {
	if _, err := s.scheduler.Reconcile(ctx); err != nil {
		return err
	}
	blocked, err := s.scheduler.BlockedDomains(ctx)
	if err != nil {
		return err
	}
	for _, sink := range s.loadSinks(ctx) {
		if err := sink.Apply(ctx, blocked); err != nil {
			return err
		}
	}
	return nil
}

func (s *DaemonService) reconcileAndDerive(ctx context.Context) ([]string, bool) {
	activated, err := s.scheduler.Reconcile(ctx)
	if err != nil {
		s.logger.Error("reconcile failed", zap.Error(err))
		return nil, false
	}
	if activated > 0 {
		s.logger.Info("activated queued sessions", zap.Int("count", activated))
	}
	blocked, err := s.scheduler.BlockedDomains(ctx)
	if err != nil {
		s.logger.Error("derive blocked set failed", zap.Error(err))
		return nil, false
	}
	return blocked, true
}

// fanOut applies the set to all sinks; reports true when every sink took it,
// so a partial failure retries the same set next tick.
func (s *DaemonService) fanOut(ctx context.Context, sinks []enforceout.Sink, blocked []string) bool {
	allApplied := true
	for _, sink := range sinks {
		if err := sink.Apply(ctx, blocked); err != nil {
			s.logger.Error("sink apply failed",
				zap.String("sink", sink.Name()), zap.Error(err))
			allApplied = false
			continue
		}
	}
	if allApplied {
		s.logger.Info("blocked set applied", zap.Int("domains", len(blocked)))
	}
	return allApplied
}

// restore puts full blocking back before the daemon exits. The loop context
// is already canceled, so this uses a short independent one.
func (s *DaemonService) restore(sinks []enforceout.Sink) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	full, err := s.scheduler.FullBlockSet(ctx)
	if err != nil {
		s.logger.Error("restore full block failed", zap.Error(err))
		return
	}
	for _, sink := range sinks {
		if err := sink.Apply(ctx, full); err != nil {
			s.logger.Error("sink restore failed",
				zap.String("sink", sink.Name()), zap.Error(err))
		}
	}
	s.logger.Info("full blocking restored", zap.Int("domains", len(full)))
}

func (s *DaemonService) loadSinks(ctx context.Context) []enforceout.Sink {
	sinks := []enforceout.Sink{s.hosts}
	manifests, err := s.manifests.Load(ctx)
	if err != nil {
		s.logger.Error("load sink manifests failed", zap.Error(err))
		return sinks
	}
	for _, manifest := range manifests {
		if !manifest.Enabled {
			s.logger.Info("sink disabled", zap.String("sink", manifest.Name))
			continue
		}
		sinks = append(sinks, newPluginSink(manifest, s.host))
	}
	return sinks
}

// pluginSink binds one manifest to the subprocess host.
type pluginSink struct {
	manifest domain.SinkManifest
	host     enforceout.SinkHost
}

func newPluginSink(manifest domain.SinkManifest, host enforceout.SinkHost) enforceout.Sink {
	return &pluginSink{manifest: manifest, host: host}
}

func (s *pluginSink) Name() string {
	return s.manifest.Name
}

func (s *pluginSink) Apply(ctx context.Context, blocked []string) error {
	if !s.manifest.Enabled {
		return domain.ErrSinkDisabled
	}
	return s.host.Apply(ctx, s.manifest, blocked)
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package out

import (
	"context"

	blocklistin "hostblock/internal/modules/blocklist/port/in"
	enforceout "hostblock/internal/modules/enforce/port/out"
	sessionin "hostblock/internal/modules/session/port/in"
)

// SessionScheduler adapts the session and blocklist inbound ports to the
// enforcement loop's Scheduler port.
type SessionScheduler struct {
	sessions  sessionin.Usecase
	blocklist blocklistin.Usecase
}

func NewSessionScheduler(sessions sessionin.Usecase, blocklist blocklistin.Usecase) enforceout.Scheduler {
	return &SessionScheduler{sessions: sessions, blocklist: blocklist}
}

func (s *SessionScheduler) Reconcile(ctx context.Context) (int, error) {
	activated, err := s.sessions.Reconcile(ctx)
	if err != nil {
		return 0, err
	}
	return len(activated), nil
}

func (s *SessionScheduler) BlockedDomains(ctx context.Context) ([]string, error) {
	return s.sessions.BlockedDomains(ctx)
}

func (s *SessionScheduler) FullBlockSet(ctx context.Context) ([]string, error) {
	return s.blocklist.Universe(ctx)
}

package out

import (
	"context"
	"fmt"
	"os"

	"hostblock/internal/modules/enforce/domain"
	enforceout "hostblock/internal/modules/enforce/port/out"
	"hostblock/internal/platform/hostsfile"
)

// HostsSink maintains the managed block in the OS hosts file. The first write
// keeps a .backup copy of the untouched file next to it.
type HostsSink struct {
	path string
}

func NewHostsSink(path string) enforceout.Sink {
	return &HostsSink{path: path}
}

func (s *HostsSink) Name() string {
	return "hosts"
}

func (s *HostsSink) Apply(_ context.Context, blocked []string) error {
	body, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read hosts file: %w", err)
	}
	if err := s.ensureBackup(body); err != nil {
		return err
	}

	lines := domain.Lines(domain.Expand(blocked))
	updated := hostsfile.Splice(string(body), lines)
	if updated == string(body) {
		return nil
	}
	if err := os.WriteFile(s.path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("write hosts file: %w", err)
	}
	return nil
}

func (s *HostsSink) ensureBackup(body []byte) error {
	backup := s.path + ".backup"
	if _, err := os.Stat(backup); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat hosts backup: %w", err)
	}
	// Back up the pristine file, not one that already carries our block.
	pristine := hostsfile.Strip(string(body))
	if err := os.WriteFile(backup, []byte(pristine), 0o644); err != nil {
		return fmt.Errorf("write hosts backup: %w", err)
	}
	return nil
}

package domain

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrSinkDisabled  = errors.New("sink is disabled")
	ErrSinkTimeout   = errors.New("sink timeout")
	ErrChecksumShape = errors.New("sink sha256 must be lowercase 64-char hex")
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// SinkManifest describes one external enforcement backend launched as a
// subprocess. Binary paths are resolved against the manifest directory when
// relative.
type SinkManifest struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Binary  string `yaml:"binary"`
	SHA256  string `yaml:"sha256"`
	Enabled bool   `yaml:"enabled"`
}

func (m SinkManifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("sink name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("sink version is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("sink binary path is required")
	}
	if m.SHA256 != "" && !sha256Pattern.MatchString(m.SHA256) {
		return ErrChecksumShape
	}
	return nil
}

// SinkMetadata is what a running sink reports about itself.
type SinkMetadata struct {
	Name    string
	Version string
}

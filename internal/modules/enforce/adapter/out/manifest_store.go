package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"hostblock/internal/modules/enforce/domain"
	enforceout "hostblock/internal/modules/enforce/port/out"

	"gopkg.in/yaml.v3"
)

type YAMLManifestStore struct {
	dir  string
	path string
}

func NewYAMLManifestStore(pluginDir string) enforceout.ManifestStore {
	return &YAMLManifestStore{dir: pluginDir, path: filepath.Join(pluginDir, "sinks.yaml")}
}

// Load reads the sink manifests. A missing file means no sinks are installed
// and is not an error.
func (s *YAMLManifestStore) Load(_ context.Context) ([]domain.SinkManifest, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.SinkManifest{}, nil
		}
		return nil, fmt.Errorf("read sink manifests: %w", err)
	}
	var doc struct {
		Sinks []domain.SinkManifest `yaml:"sinks"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode sink manifests: %w", err)
	}
	for i := range doc.Sinks {
		if err := doc.Sinks[i].Validate(); err != nil {
			return nil, fmt.Errorf("sink manifest %d: %w", i, err)
		}
		if !filepath.IsAbs(doc.Sinks[i].Binary) {
			doc.Sinks[i].Binary = filepath.Clean(filepath.Join(s.dir, doc.Sinks[i].Binary))
		}
	}
	return doc.Sinks, nil
}

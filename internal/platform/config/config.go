package config

import (
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	ConfigPath string
	DBPath     string
	HostsPath  string
	PluginDir  string
}

// New resolves tool paths. Empty arguments fall back to the standard
// locations; the config file must exist at one of them.
func New(configPath, dbPath string) (Config, error) {
	if configPath == "" {
		found, err := findConfig()
		if err != nil {
			return Config{}, err
		}
		configPath = found
	}
	if dbPath == "" {
		dbPath = "/var/lib/hostblock/state.db"
	}
	return Config{
		ConfigPath: configPath,
		DBPath:     dbPath,
		HostsPath:  "/etc/hosts",
		PluginDir:  filepath.Join(filepath.Dir(configPath), "plugins"),
	}, nil
}

func findConfig() (string, error) {
	candidates := []string{
		"/etc/hostblock/config.yaml",
		filepath.Join(homeDir(), ".hostblock", "config.yaml"),
		"config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("config file not found in %v", candidates)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnknownProfile is returned by Resolve for a profile not in the file.
var ErrUnknownProfile = errors.New("unknown profile")

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".objhost", "cli.yaml")
}

// Load loads CLI configuration from file. A missing file yields the
// defaults.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cli config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse cli config %s: %w", path, err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}
	return cfg, nil
}

// Save writes cfg to path with owner-only permissions. The file is
// replaced atomically.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode cli config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cli-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Resolve returns the named profile, or the current profile when name is
// empty, with blank fields filled from the file defaults.
func (c *CLIConfig) Resolve(name string) (Profile, error) {
	if name == "" {
		name = c.CurrentProfile
	}

	var p Profile
	if name != "" {
		var ok bool
		if p, ok = c.Profiles[name]; !ok {
			return Profile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
		}
	}
	if p.Server == "" {
		p.Server = c.DefaultServer
	}
	if p.Output == "" {
		p.Output = c.DefaultOutput
	}
	return p, nil
}

// ProfileNames returns the profile names in sorted order.
func (c *CLIConfig) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DefaultServer != "127.0.0.1:5180" {
		t.Errorf("DefaultServer = %q", cfg.DefaultServer)
	}
	if cfg.DefaultOutput != "table" {
		t.Errorf("DefaultOutput = %q, want %q", cfg.DefaultOutput, "table")
	}
	if cfg.Profiles == nil || len(cfg.Profiles) != 0 {
		t.Errorf("Profiles = %v, want empty map", cfg.Profiles)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if !filepath.IsAbs(path) {
		t.Errorf("path %q should be absolute", path)
	}
	if filepath.Base(filepath.Dir(path)) != ".objhost" || filepath.Base(path) != "cli.yaml" {
		t.Errorf("path = %q, want .../.objhost/cli.yaml", path)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load should not error for a missing file: %v", err)
	}
	if cfg.DefaultServer != "127.0.0.1:5180" {
		t.Error("should return the default config for a missing file")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	content := `
default_output: json
current_profile: staging
profiles:
  staging:
    server: staging.internal:5180
    token: s3cret
    ca_file: /etc/objhost/ca.pem
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.DefaultServer != "127.0.0.1:5180" {
		t.Errorf("unset default_server should keep the default, got %q", cfg.DefaultServer)
	}
	if cfg.DefaultOutput != "json" {
		t.Errorf("DefaultOutput = %q", cfg.DefaultOutput)
	}
	if p := cfg.Profiles["staging"]; p.Token != "s3cret" || p.CAFile != "/etc/objhost/ca.pem" {
		t.Errorf("profiles = %+v", cfg.Profiles)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte("profiles: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should fail on malformed YAML")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cli.yaml")

	cfg := Default()
	cfg.CurrentProfile = "local"
	cfg.Profiles["local"] = Profile{Socket: "/run/objhost/objhost.sock"}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if loaded.CurrentProfile != "local" || loaded.Profiles["local"].Socket != "/run/objhost/objhost.sock" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.DefaultOutput = "yaml"
	cfg.Profiles["prod"] = Profile{Server: "prod:5180", Output: "json"}
	cfg.Profiles["local"] = Profile{Socket: "/tmp/objhost.sock"}

	p, err := cfg.Resolve("")
	if err != nil || p.Server != "127.0.0.1:5180" || p.Output != "yaml" {
		t.Errorf("Resolve(\"\") = %+v, %v", p, err)
	}

	p, err = cfg.Resolve("prod")
	if err != nil || p.Server != "prod:5180" || p.Output != "json" {
		t.Errorf("Resolve(prod) = %+v, %v", p, err)
	}

	cfg.CurrentProfile = "local"
	p, err = cfg.Resolve("")
	if err != nil || p.Socket != "/tmp/objhost.sock" || p.Server != "127.0.0.1:5180" {
		t.Errorf("Resolve(current) = %+v, %v", p, err)
	}

	if _, err := cfg.Resolve("missing"); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("Resolve(missing) = %v, want ErrUnknownProfile", err)
	}

	if names := cfg.ProfileNames(); len(names) != 2 || names[0] != "local" || names[1] != "prod" {
		t.Errorf("ProfileNames() = %v", names)
	}
}

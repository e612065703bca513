package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	m := loadTestConfig(t, "")

	cfg := m.Current()
	if cfg.Kick.ThresholdMinutes != 1 {
		t.Errorf("expected default threshold 1, got %d", cfg.Kick.ThresholdMinutes)
	}
	if cfg.Tracking.TickPeriod != "1m" {
		t.Errorf("expected default tick period 1m, got %s", cfg.Tracking.TickPeriod)
	}
	if cfg.Storage.Type != "bolt" {
		t.Errorf("expected default storage type bolt, got %s", cfg.Storage.Type)
	}

	kick := m.Kick()
	if kick.KickMessage == "" || kick.KickBroadcast == "" {
		t.Error("expected default kick messages to be set")
	}
	if len(kick.IgnoredUsers) != 0 {
		t.Errorf("expected empty ignore list, got %v", kick.IgnoredUsers)
	}
}

func TestLoadFromFile(t *testing.T) {
	m := loadTestConfig(t, `
kick:
  threshold_minutes: 120
  message: "Done for today."
  broadcast: "{player} is done."
  ignored_users:
    - "admin-uuid"
tracking:
  tick_period: "30s"
`)

	kick := m.Kick()
	if kick.ThresholdMinutes != 120 {
		t.Errorf("expected threshold 120, got %d", kick.ThresholdMinutes)
	}
	if kick.KickMessage != "Done for today." {
		t.Errorf("unexpected kick message: %q", kick.KickMessage)
	}
	if len(kick.IgnoredUsers) != 1 || kick.IgnoredUsers[0] != "admin-uuid" {
		t.Errorf("unexpected ignore list: %v", kick.IgnoredUsers)
	}
	if m.Current().Tracking.TickPeriod != "30s" {
		t.Errorf("expected tick period 30s, got %s", m.Current().Tracking.TickPeriod)
	}
}

func TestLoadRejectsBrokenConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero threshold", "kick:\n  threshold_minutes: 0\n"},
		{"broadcast without placeholder", "kick:\n  broadcast: \"someone got kicked\"\n"},
		{"unknown storage type", "storage:\n  type: \"postgres\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			content := tt.yaml + "storage:\n  path: " + filepath.Join(dir, "db.bolt") + "\n"
			if tt.name == "unknown storage type" {
				content = tt.yaml
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("expected load to fail")
			}
		})
	}
}

func TestReloadAppliesNewKickConfig(t *testing.T) {
	m := loadTestConfig(t, `
kick:
  threshold_minutes: 60
`)

	if got := m.Kick().ThresholdMinutes; got != 60 {
		t.Fatalf("initial threshold = %d, want 60", got)
	}

	rewriteTestConfig(t, m, `
kick:
  threshold_minutes: 240
  ignored_users:
    - "admin-uuid"
`)

	kick := m.Kick()
	if kick.ThresholdMinutes != 240 {
		t.Errorf("threshold after reload = %d, want 240", kick.ThresholdMinutes)
	}
	if len(kick.IgnoredUsers) != 1 || kick.IgnoredUsers[0] != "admin-uuid" {
		t.Errorf("ignore list after reload = %v", kick.IgnoredUsers)
	}
}

func TestReloadKeepsLastGoodConfigOnBadEdit(t *testing.T) {
	m := loadTestConfig(t, `
kick:
  threshold_minutes: 60
  broadcast: "{player} is done."
`)

	rewriteTestConfig(t, m, `
kick:
  threshold_minutes: 90
  broadcast: "someone got kicked"
`)

	kick := m.Kick()
	if kick.ThresholdMinutes != 60 {
		t.Errorf("threshold after bad edit = %d, want previous 60", kick.ThresholdMinutes)
	}
	if kick.KickBroadcast != "{player} is done." {
		t.Errorf("broadcast after bad edit = %q, want previous value", kick.KickBroadcast)
	}
}

func TestValidateCreatesNoDirectories(t *testing.T) {
	dir := t.TempDir()
	dbDir := filepath.Join(dir, "does", "not", "exist")
	path := filepath.Join(dir, "config.yaml")
	content := "storage:\n  path: " + filepath.Join(dbDir, "db.bolt") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err != nil {
		t.Fatalf("load config: %v", err)
	}

	if _, err := os.Stat(dbDir); !os.IsNotExist(err) {
		t.Errorf("loading config created the storage directory %s", dbDir)
	}
}

func loadTestConfig(t *testing.T, yaml string) *Manager {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := yaml + "\nstorage:\n  path: " + filepath.Join(dir, "db.bolt") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return m
}

// rewriteTestConfig overwrites the watched file and drives the same
// path the file watcher takes: re-read, then reload.
func rewriteTestConfig(t *testing.T, m *Manager, yaml string) {
	t.Helper()

	if err := os.WriteFile(m.v.ConfigFileUsed(), []byte(yaml), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := m.v.ReadInConfig(); err != nil {
		t.Fatalf("re-read config: %v", err)
	}
	m.reload()
}

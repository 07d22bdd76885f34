package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskdeck", "config.json")

	cfg, styles, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.APIURL != "http://localhost:8080" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.SessionFile != filepath.Join(dir, "taskdeck", "session.json") {
		t.Errorf("SessionFile = %q", cfg.SessionFile)
	}
	if cfg.Server.TokenTTL != time.Hour || cfg.Server.SignInBurst != 5 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if len(cfg.KeyMap) == 0 {
		t.Error("default keymap missing")
	}
	if styles != DefaultStyles() {
		t.Errorf("styles = %+v", styles)
	}
	if _, err := os.Stat(cfg.StylesFile); err != nil {
		t.Errorf("styles file not written: %v", err)
	}
}

func TestLoadReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
  "api_url": "https://tasks.example.com",
  "keymap": {"AddTask": "n"},
  "styles_file": "` + filepath.Join(dir, "styles.json") + `",
  "identity": {"api_key": "real-key"},
  "server": {"token_ttl": "15m"}
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "styles.json"), []byte(`{"accent_color": "99"}`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TASKDECK_SERVER_ADDR", ":9999")

	cfg, styles, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIURL != "https://tasks.example.com" || cfg.Identity.APIKey != "real-key" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Server.TokenTTL != 15*time.Minute {
		t.Errorf("TokenTTL = %v", cfg.Server.TokenTTL)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Addr = %q, want env override", cfg.Server.Addr)
	}
	found := false
	for action, keys := range cfg.KeyMap {
		if strings.EqualFold(action, "AddTask") && keys == "n" {
			found = true
		}
	}
	if !found {
		t.Errorf("keymap override missing: %v", cfg.KeyMap)
	}
	if styles.AccentColor != "99" || styles.BorderColor != DefaultStyles().BorderColor {
		t.Errorf("styles = %+v", styles)
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{not json"), 0644)
	if _, _, err := Load(path); err == nil {
		t.Error("broken config accepted")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/x/db"); got != filepath.Join(home, "x", "db") {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("/abs/db"); got != "/abs/db" {
		t.Errorf("expandHome = %q", got)
	}
}

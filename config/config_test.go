package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// resetConfig lets LoadConfig run again and restores the empty singleton
// when the test ends.
func resetConfig(t *testing.T) {
	t.Helper()
	reset := func() {
		mu.Lock()
		once = sync.Once{}
		instance = nil
		mu.Unlock()
	}
	reset()
	t.Cleanup(reset)
}

func TestLoadConfigCreatesDefaultsAndAppliesEnv(t *testing.T) {
	resetConfig(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	t.Setenv("SNAKE_PORT", "9999")
	t.Setenv("SNAKE_TILECOUNT", "not-a-number")

	cfg := LoadConfig(path)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want env override 9999", cfg.Port)
	}
	if cfg.TileCount != 60 {
		t.Errorf("TileCount = %d, want default 60 after invalid override", cfg.TileCount)
	}
	if GetConfigValue("blocksize").(int) != 10 {
		t.Errorf("blocksize = %v", GetConfigValue("blocksize"))
	}
	if GetConfigValue("unknown") != "" {
		t.Errorf("unknown key = %v", GetConfigValue("unknown"))
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"tilecount": 40, "blocksize": 16}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := defaultConfig()
	if err := loadConfig(path, cfg); err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.TileCount != 40 || cfg.Blocksize != 16 || cfg.Port != "38870" {
		t.Errorf("cfg = %+v", cfg)
	}

	if err := os.WriteFile(path, []byte(`{not json`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := loadConfig(path, defaultConfig()); err == nil {
		t.Error("expected decode error")
	}
}

func TestLoadConfigReadsExistingFile(t *testing.T) {
	resetConfig(t)
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"tilecount": 40, "port": "8080"}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := LoadConfig(path)
	if cfg.TileCount != 40 || cfg.Port != "8080" || cfg.Blocksize != 10 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfigRejectsNonPositiveSizes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero", `{"blocksize": 0, "tilecount": 0}`},
		{"negative", `{"blocksize": -4, "tilecount": -60}`},
	}
	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
			t.Fatal(err)
		}
		cfg := defaultConfig()
		if err := loadConfig(path, cfg); err != nil {
			t.Fatalf("%s: loadConfig: %v", tt.name, err)
		}
		if cfg.Blocksize != 10 || cfg.TileCount != 60 {
			t.Errorf("%s: blocksize = %d tilecount = %d, want defaults", tt.name, cfg.Blocksize, cfg.TileCount)
		}
	}
}

func TestWatchConfigReloads(t *testing.T) {
	resetConfig(t)
	path := filepath.Join(t.TempDir(), "config.json")
	if err := saveConfig(path, defaultConfig()); err != nil {
		t.Fatal(err)
	}
	set(defaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- WatchConfig(ctx, path) }()
	time.Sleep(100 * time.Millisecond)

	updated := defaultConfig()
	updated.Blocksize = 24
	if err := saveConfig(path, updated); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for Get().Blocksize != 24 {
		if time.Now().After(deadline) {
			t.Fatal("config was not reloaded")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WatchConfig: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("watcher did not stop")
	}
}

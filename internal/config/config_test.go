package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vango-dev/sharedstate/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Inspector.Port != DefaultInspectorPort {
		t.Errorf("Inspector.Port = %d, want %d", cfg.Inspector.Port, DefaultInspectorPort)
	}
	if cfg.Inspector.Host != DefaultInspectorHost {
		t.Errorf("Inspector.Host = %q, want %q", cfg.Inspector.Host, DefaultInspectorHost)
	}
	if cfg.Runtime.MaxFlushPasses != DefaultMaxFlushPasses {
		t.Errorf("Runtime.MaxFlushPasses = %d", cfg.Runtime.MaxFlushPasses)
	}
	if cfg.Persist.Backend != BackendNone {
		t.Errorf("Persist.Backend = %q, want none", cfg.Persist.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()

	// Test loading non-existent config
	_, err := Load(tmpDir)
	if !errors.HasCode(err, errors.CodeConfigNotFound) {
		t.Errorf("missing config error = %v, want %s", err, errors.CodeConfigNotFound)
	}

	configJSON := `{
  "log": {"level": "debug", "format": "json"},
  "inspector": {"enabled": true, "port": 9090},
  "persist": {"backend": "disk", "dir": "snapshots"}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.SlogLevel() != slog.LevelDebug || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if !cfg.Inspector.Enabled || cfg.InspectorAddress() != "localhost:9090" {
		t.Errorf("Inspector = %+v", cfg.Inspector)
	}
	if cfg.PersistPath() != filepath.Join(tmpDir, "snapshots") {
		t.Errorf("PersistPath() = %q", cfg.PersistPath())
	}
	// Defaults fill the rest.
	if cfg.Runtime.DispatchQueue != DefaultDispatchQueue || cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("defaults not applied: %+v %+v", cfg.Runtime, cfg.Metrics)
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) || cfg.Dir() != tmpDir {
		t.Errorf("Path() = %q Dir() = %q", cfg.Path(), cfg.Dir())
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configYAML := `
log:
  level: warn
runtime:
  debug: true
  maxFlushPasses: 10
metrics:
  prometheus: true
  tracing: true
persist:
  backend: s3
  bucket: app-state
  region: eu-west-1
`
	if err := os.WriteFile(filepath.Join(tmpDir, YAMLFileName), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.SlogLevel() != slog.LevelWarn {
		t.Errorf("level = %v", cfg.SlogLevel())
	}
	if !cfg.Runtime.Debug || cfg.Runtime.MaxFlushPasses != 10 {
		t.Errorf("Runtime = %+v", cfg.Runtime)
	}
	if !cfg.Metrics.Prometheus || !cfg.Metrics.Tracing {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.Persist.Bucket != "app-state" || cfg.Persist.Prefix != "states/" || cfg.Persist.Region != "eu-west-1" {
		t.Errorf("Persist = %+v", cfg.Persist)
	}
}

func TestLoadOptional(t *testing.T) {
	cfg, err := LoadOptional(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Inspector.Port != DefaultInspectorPort {
		t.Error("LoadOptional should return defaults")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		yaml bool
		code string
	}{
		{"bad json", `{"log":`, false, errors.CodeConfigParse},
		{"bad yaml", "log: [", true, errors.CodeConfigParse},
		{"bad level", `{"log":{"level":"loud"}}`, false, errors.CodeConfigInvalid},
		{"bad format", `{"log":{"format":"xml"}}`, false, errors.CodeConfigInvalid},
		{"bad port", `{"inspector":{"port":70000}}`, false, errors.CodeConfigInvalid},
		{"negative passes", `{"runtime":{"maxFlushPasses":-1}}`, false, errors.CodeConfigInvalid},
		{"bad backend", `{"persist":{"backend":"tape"}}`, false, errors.CodeConfigInvalid},
		{"s3 without bucket", "persist:\n  backend: s3\n", true, errors.CodeConfigInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), tt.yaml)
			if !errors.HasCode(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{ConfigFileName, YAMLFileName} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := New()
			cfg.Inspector.Enabled = true
			cfg.Persist.Backend = BackendDisk
			if err := cfg.SaveTo(path); err != nil {
				t.Fatal(err)
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !loaded.Inspector.Enabled || loaded.Persist.Backend != BackendDisk {
				t.Errorf("loaded = %+v", loaded)
			}

			loaded.Log.Level = "error"
			if err := loaded.Save(); err != nil {
				t.Fatal(err)
			}
			again, _ := LoadFile(path)
			if again.Log.Level != "error" {
				t.Errorf("Save did not persist, level = %q", again.Log.Level)
			}
		})
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := New().Save(); err == nil {
		t.Error("Save without a path should fail")
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	os.MkdirAll(nested, 0755)
	os.WriteFile(filepath.Join(root, YAMLFileName), []byte("log:\n  level: info\n"), 0644)

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatal(err)
	}
	if got != root {
		t.Errorf("FindProjectRoot() = %q, want %q", got, root)
	}

	if _, err := FindProjectRoot(t.TempDir()); !errors.HasCode(err, errors.CodeConfigNotFound) {
		t.Errorf("error = %v", err)
	}
}

func TestWatch(t *testing.T) {
	WatchDebounce = 10 * time.Millisecond
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	os.WriteFile(path, []byte(`{"log":{"level":"info"}}`), 0644)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		cfg *Config
		err error
	}
	results := make(chan result, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config, err error) { results <- result{cfg, err} })
	}()

	// Give the watcher time to register.
	time.Sleep(50 * time.Millisecond)

	// A neighbouring file must not trigger a reload.
	os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644)
	os.WriteFile(path, []byte(`{"log":{"level":"debug"}}`), 0644)

	waitFor := time.After(2 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case r := <-results:
			// A reload can observe the file mid-write; wait for the final one.
			reloaded = r.err == nil && r.cfg.Log.Level == "debug"
		case <-waitFor:
			t.Fatal("no reload after write")
		}
	}

	os.WriteFile(path, []byte(`{"log":{"level":"nope"}}`), 0644)
	timeout := time.After(2 * time.Second)
	for {
		var r result
		select {
		case r = <-results:
		case <-timeout:
			t.Fatal("no reload after invalid write")
		}
		if errors.HasCode(r.err, errors.CodeConfigInvalid) {
			break
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}

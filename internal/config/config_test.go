package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if len(cfg.Data.GRPPaths) != 1 || cfg.Data.GRPPaths[0] != "DUKE3D.GRP" {
		t.Errorf("expected default archive DUKE3D.GRP, got %v", cfg.Data.GRPPaths)
	}
	if cfg.Data.Map != "E1L1.MAP" {
		t.Errorf("expected default map E1L1.MAP, got %s", cfg.Data.Map)
	}

	if cfg.Geometry.SlopeDivisor != 4096 {
		t.Errorf("expected slope divisor 4096, got %v", cfg.Geometry.SlopeDivisor)
	}
	if cfg.Geometry.CeilingSlopes {
		t.Error("expected ceiling slopes to be off by default")
	}
	if cfg.Geometry.Workers != 1 {
		t.Errorf("expected 1 worker, got %d", cfg.Geometry.Workers)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
data:
  grp_paths:
    - "DUKE3D.GRP"
    - "addon.grp"
  map: "E2L3.MAP"

geometry:
  slope_divisor: 2048
  ceiling_slopes: true
  workers: 8

logging:
  level: "debug"
  log_file: "buildgeo.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !reflect.DeepEqual(cfg.Data.GRPPaths, []string{"DUKE3D.GRP", "addon.grp"}) {
		t.Errorf("unexpected archives %v", cfg.Data.GRPPaths)
	}
	if cfg.Data.Map != "E2L3.MAP" {
		t.Errorf("expected map E2L3.MAP, got %s", cfg.Data.Map)
	}
	if cfg.Geometry.SlopeDivisor != 2048 {
		t.Errorf("expected slope divisor 2048, got %v", cfg.Geometry.SlopeDivisor)
	}
	if !cfg.Geometry.CeilingSlopes {
		t.Error("expected ceiling slopes to be on")
	}
	if cfg.Geometry.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Geometry.Workers)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "buildgeo.log" {
		t.Errorf("expected log file 'buildgeo.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("geometry:\n  workers: 3\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Geometry.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Geometry.Workers)
	}
	if cfg.Geometry.SlopeDivisor != 4096 || cfg.Data.Map != "E1L1.MAP" {
		t.Error("unset keys should keep their defaults")
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Errorf("empty file should load, got %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Error("empty file should leave defaults untouched")
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad syntax", "geometry:\n  workers: not a number\n  invalid syntax here\n"},
		{"unknown key", "graphics:\n  width: 800\n"},
		{"wrong type", "geometry:\n  ceiling_slopes: [1, 2]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			cfg := Default()
			if err := loadFromFile(cfg, configPath); err == nil {
				t.Error("expected error loading invalid YAML, got nil")
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("data:\n  map: \"E3L1.MAP\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(good)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Data.Map != "E3L1.MAP" {
		t.Errorf("expected map E3L1.MAP, got %s", cfg.Data.Map)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("geometry:\n  slope_divisor: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(bad); !errors.Is(err, ErrInvalidSlopeDivisor) {
		t.Errorf("expected ErrInvalidSlopeDivisor, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"defaults", func(*Config) {}, nil},
		{"zero divisor", func(c *Config) { c.Geometry.SlopeDivisor = 0 }, ErrInvalidSlopeDivisor},
		{"negative workers", func(c *Config) { c.Geometry.Workers = -2 }, ErrInvalidWorkers},
		{"zero workers", func(c *Config) { c.Geometry.Workers = 0 }, nil},
		{"unknown level", func(c *Config) { c.Logging.Level = "verbose" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == nil && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("geometry:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	path = findConfigFile()
	if path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "workers flag",
			setup: func() { *flagWorkers = 6 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Geometry.Workers != 6 {
					t.Errorf("expected 6 workers, got %d", cfg.Geometry.Workers)
				}
			},
			teardown: func() { *flagWorkers = 0 },
		},
		{
			name:  "slope divisor flag",
			setup: func() { *flagSlopeDivisor = 1024 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Geometry.SlopeDivisor != 1024 {
					t.Errorf("expected slope divisor 1024, got %v", cfg.Geometry.SlopeDivisor)
				}
			},
			teardown: func() { *flagSlopeDivisor = 0 },
		},
		{
			name:  "ceiling slopes flag",
			setup: func() { *flagCeilingSlopes = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Geometry.CeilingSlopes {
					t.Error("expected ceiling slopes to be on")
				}
			},
			teardown: func() { *flagCeilingSlopes = false },
		},
		{
			name:  "unset flags keep config",
			setup: func() {},
			verify: func(t *testing.T, cfg *Config) {
				if !reflect.DeepEqual(cfg, Default()) {
					t.Error("unset flags should not change the config")
				}
			},
			teardown: func() {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
geometry:
  workers: 2
  slope_divisor: 2048
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWorkers = 12
	defer func() {
		*flagConfig = ""
		*flagWorkers = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers should be from flag (12), not file (2)
	if cfg.Geometry.Workers != 12 {
		t.Errorf("expected 12 workers from flag, got %d", cfg.Geometry.Workers)
	}

	// Divisor should be from file since no flag override
	if cfg.Geometry.SlopeDivisor != 2048 {
		t.Errorf("expected slope divisor 2048 from file, got %v", cfg.Geometry.SlopeDivisor)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	cfg := Default()
	cfg.Data.GRPPaths = []string{"a.grp", "b.grp"}
	cfg.Geometry.Workers = 4
	cfg.Geometry.CeilingSlopes = true

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("saved config did not survive a reload:\n got  %+v\n want %+v", loaded, cfg)
	}
}

func TestSave(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", xdg)
	t.Setenv("APPDATA", xdg)

	if err := Default().Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ConfigDir(), "config.yaml")); err != nil {
		t.Errorf("expected config in %s: %v", ConfigDir(), err)
	}
}

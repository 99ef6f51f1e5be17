package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	body := `
[engine]
name = "test-host"

[memory]
cpu_generic = 4096

[frame]
tick_rate = "8ms"
max_frames = 10
process_approach = "DataTexture"

[database]
dsn = "postgres://localhost/scenes"
snapshot_interval = "30s"

[scene]
path = "scenes/demo.yaml"
inspect = true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.Name != "test-host" {
		t.Errorf("engine name = %q", cfg.Engine.Name)
	}
	if cfg.Memory.CPUGeneric != 4096 {
		t.Errorf("cpu_generic = %d", cfg.Memory.CPUGeneric)
	}
	if cfg.Memory.GPUInstanceData != 8<<20 {
		t.Errorf("gpu_instance_data should keep its default, got %d", cfg.Memory.GPUInstanceData)
	}
	if cfg.Frame.TickRate != 8*time.Millisecond || cfg.Frame.MaxFrames != 10 {
		t.Errorf("frame = %+v", cfg.Frame)
	}
	if cfg.Frame.ProcessApproach != "DataTexture" {
		t.Errorf("process_approach = %q", cfg.Frame.ProcessApproach)
	}
	if cfg.Database.SnapshotInterval != 30*time.Second || cfg.Database.MaxOpenConns != 4 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if !cfg.Scene.Inspect || cfg.Scene.Path != "scenes/demo.yaml" {
		t.Errorf("scene = %+v", cfg.Scene)
	}
	if cfg.Engine.StartTime == 0 {
		t.Error("start time not set")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(path, []byte("[memory\ncpu_generic = "), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Database.DSN != "" {
		t.Error("persistence should be off by default")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Components.MaxTransforms <= 0 || cfg.Frame.TickRate <= 0 {
		t.Errorf("unusable defaults: %+v %+v", cfg.Components, cfg.Frame)
	}
}

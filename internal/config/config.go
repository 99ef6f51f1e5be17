package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine     EngineConfig     `toml:"engine"`
	Memory     MemoryConfig     `toml:"memory"`
	Components ComponentsConfig `toml:"components"`
	Frame      FrameConfig      `toml:"frame"`
	Logging    LoggingConfig    `toml:"logging"`
	Database   DatabaseConfig   `toml:"database"`
	Scripting  ScriptingConfig  `toml:"scripting"`
	Scene      SceneConfig      `toml:"scene"`
}

type EngineConfig struct {
	Name      string `toml:"name"`
	StartTime int64  // set at boot, not from config
}

// MemoryConfig sizes the four fixed buffers in bytes. They never grow.
type MemoryConfig struct {
	CPUGeneric      int `toml:"cpu_generic"`
	GPUInstanceData int `toml:"gpu_instance_data"`
	GPUVertexData   int `toml:"gpu_vertex_data"`
	UBOGeneric      int `toml:"ubo_generic"`
}

type ComponentsConfig struct {
	DefaultMaxCount int `toml:"default_max_count"`
	MaxTransforms   int `toml:"max_transforms"`
	MaxSceneGraphs  int `toml:"max_scene_graphs"`
	MaxScripts      int `toml:"max_scripts"`
}

type FrameConfig struct {
	TickRate        time.Duration `toml:"tick_rate"`
	MaxFrames       uint64        `toml:"max_frames"`       // 0 = run until signalled
	ProcessApproach string        `toml:"process_approach"` // "None", "Uniform", "DataTexture", "WebGPU"
	StatsEvery      uint64        `toml:"stats_every"`      // frames between memory usage logs, 0 = off
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
	File   string `toml:"file"`   // empty = stderr
}

// DatabaseConfig enables scene snapshots. An empty DSN turns them off.
type DatabaseConfig struct {
	DSN              string        `toml:"dsn"`
	MaxOpenConns     int           `toml:"max_open_conns"`
	MaxIdleConns     int           `toml:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `toml:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `toml:"conn_max_idle_time"`
	SnapshotInterval time.Duration `toml:"snapshot_interval"`
}

type ScriptingConfig struct {
	Dir string `toml:"dir"`
}

type SceneConfig struct {
	Path         string  `toml:"path"`           // YAML scene description, empty = restore or empty scene
	Prefabs      string  `toml:"prefabs"`        // YAML prefab list, optional
	Inspect      bool    `toml:"inspect"`        // show the hierarchy viewer
	GridCellSize float32 `toml:"grid_cell_size"` // spatial grid cell edge, world units
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Engine.StartTime = time.Now().Unix()
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := defaults()
	cfg.Engine.StartTime = time.Now().Unix()
	return cfg
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			Name: "scened",
		},
		Memory: MemoryConfig{
			CPUGeneric:      16 << 20,
			GPUInstanceData: 8 << 20,
			GPUVertexData:   4 << 20,
			UBOGeneric:      1 << 20,
		},
		Components: ComponentsConfig{
			DefaultMaxCount: 1024,
			MaxTransforms:   4096,
			MaxSceneGraphs:  4096,
			MaxScripts:      512,
		},
		Frame: FrameConfig{
			TickRate:        16 * time.Millisecond,
			ProcessApproach: "Uniform",
			StatsEvery:      600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Database: DatabaseConfig{
			MaxOpenConns:     4,
			MaxIdleConns:     1,
			ConnMaxLifetime:  30 * time.Minute,
			ConnMaxIdleTime:  5 * time.Minute,
			SnapshotInterval: time.Minute,
		},
		Scripting: ScriptingConfig{
			Dir: "scripts",
		},
		Scene: SceneConfig{
			GridCellSize: 8,
		},
	}
}

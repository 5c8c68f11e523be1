package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfig        = "NOVA_CONFIG"
	EnvTrace         = "NOVA_ENGINE_TRACE"
	EnvHeadless      = "NOVA_ENGINE_HEADLESS"
	EnvMaxFrames     = "NOVA_ENGINE_MAX_FRAMES"
	EnvCameraProfile = "NOVA_CAMERA_PROFILE"

	DefaultPath      = "config/engine.toml"
	DefaultMaxFrames = 300
)

type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Pacing  PacingConfig  `toml:"pacing"`
	Camera  CameraConfig  `toml:"camera"`
	Data    DataConfig    `toml:"data"`
	Audio   AudioConfig   `toml:"audio"`
	HUD     HUDConfig     `toml:"hud"`
	Trace   TraceConfig   `toml:"trace"`
	Logging LoggingConfig `toml:"logging"`
}

type EngineConfig struct {
	FixedUpdateHz float64 `toml:"fixed_update_hz"`
	MaxRenderHz   float64 `toml:"max_render_hz"` // 0 = uncapped
	TimingHistory int     `toml:"timing_history"`
	PausedStart   bool    `toml:"paused_start"`

	Headless  bool `toml:"headless"`
	MaxFrames int  `toml:"max_frames"` // headless only; 0 = DefaultMaxFrames
}

type PacingConfig struct {
	VSync         bool    `toml:"vsync"`
	TargetFPS     float64 `toml:"target_fps"`
	Adaptive      bool    `toml:"adaptive"`
	AdaptiveVSync bool    `toml:"adaptive_vsync"`
}

type CameraConfig struct {
	ProfileFile string `toml:"profile_file"`
	Profile     string `toml:"profile"`
	Watch       bool   `toml:"watch"`
}

type DataConfig struct {
	LoadoutFile   string `toml:"loadout_file"`
	ObstacleFile  string `toml:"obstacle_file"`
	ScriptsDir    string `toml:"scripts_dir"`
	PlayerLoadout string `toml:"player_loadout"`
	TargetLoadout string `toml:"target_loadout"`
	Targets       int    `toml:"targets"`
}

type AudioConfig struct {
	Enabled bool    `toml:"enabled"`
	Volume  float64 `toml:"volume"` // 0..1
}

type HUDConfig struct {
	Locale      string `toml:"locale"`
	MaxAlerts   int    `toml:"max_alerts"`
	MinSeverity string `toml:"min_severity"` // info, warning, critical, emergency
}

type TraceConfig struct {
	Path string `toml:"path"` // empty disables the msgpack frame trace
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
	File   string `toml:"file"`   // used while the terminal UI owns stdout
}

// Load decodes path over the defaults. A missing file is not an error when
// path is the default location; the defaults are returned instead.
func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultPath {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// Path returns NOVA_CONFIG if set, else DefaultPath.
func Path(getenv func(string) string) string {
	if p := strings.TrimSpace(getenv(EnvConfig)); p != "" {
		return p
	}
	return DefaultPath
}

// ApplyEnv layers environment overrides on top of the file values.
// Headless mode turns off vsync and every frame cap.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if p := getenv(EnvTrace); p != "" {
		c.Trace.Path = p
	}
	if p := strings.TrimSpace(getenv(EnvCameraProfile)); p != "" {
		c.Camera.Profile = p
	}
	if v := getenv(EnvHeadless); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Engine.Headless = on
		}
	}
	if v := getenv(EnvMaxFrames); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			c.Engine.MaxFrames = n
		}
	}
	if c.Engine.Headless {
		c.Pacing.VSync = false
		c.Pacing.TargetFPS = 0
		c.Engine.MaxRenderHz = 0
		c.Audio.Enabled = false
		c.Camera.Watch = false
		if c.Engine.MaxFrames <= 0 {
			c.Engine.MaxFrames = DefaultMaxFrames
		}
	}
}

func (c *Config) normalize() {
	if c.Engine.FixedUpdateHz < 0 {
		c.Engine.FixedUpdateHz = 0
	}
	if c.Engine.MaxRenderHz < 0 {
		c.Engine.MaxRenderHz = 0
	}
	if c.Engine.TimingHistory <= 0 {
		c.Engine.TimingHistory = 120
	}
	if c.Audio.Volume < 0 {
		c.Audio.Volume = 0
	}
	if c.Audio.Volume > 1 {
		c.Audio.Volume = 1
	}
	if c.HUD.MaxAlerts <= 0 {
		c.HUD.MaxAlerts = 8
	}
	if c.Data.Targets < 0 {
		c.Data.Targets = 0
	}
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			FixedUpdateHz: 60,
			MaxRenderHz:   0,
			TimingHistory: 120,
		},
		Pacing: PacingConfig{
			VSync:         true,
			TargetFPS:     60,
			Adaptive:      true,
			AdaptiveVSync: true,
		},
		Camera: CameraConfig{
			ProfileFile: "config/camera_follow.ini",
			Profile:     "default",
		},
		Data: DataConfig{
			LoadoutFile:   "data/loadouts.yaml",
			ObstacleFile:  "data/obstacles.yaml",
			ScriptsDir:    "scripts",
			PlayerLoadout: "interceptor",
			TargetLoadout: "drone",
			Targets:       3,
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  0.6,
		},
		HUD: HUDConfig{
			Locale:      "en",
			MaxAlerts:   8,
			MinSeverity: "info",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   "nova.log",
		},
	}
}

// Defaults returns a fresh copy of the built-in configuration.
func Defaults() *Config { return defaults() }

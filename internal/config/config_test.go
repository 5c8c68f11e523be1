package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[engine]
fixed_update_hz = 120

[pacing]
vsync = false

[hud]
locale = "zh-TW"
max_alerts = 0

[audio]
volume = 3.0
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120.0, cfg.Engine.FixedUpdateHz)
	assert.Equal(t, 120, cfg.Engine.TimingHistory)
	assert.False(t, cfg.Pacing.VSync)
	assert.Equal(t, 60.0, cfg.Pacing.TargetFPS)
	assert.Equal(t, "zh-TW", cfg.HUD.Locale)
	assert.Equal(t, 8, cfg.HUD.MaxAlerts)
	assert.Equal(t, 1.0, cfg.Audio.Volume)
	assert.Equal(t, "data/loadouts.yaml", cfg.Data.LoadoutFile)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[engine\nfixed_update_hz = "), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestPath(t *testing.T) {
	assert.Equal(t, DefaultPath, Path(env(nil)))
	assert.Equal(t, "/etc/nova.toml", Path(env(map[string]string{EnvConfig: " /etc/nova.toml "})))
}

func TestApplyEnv_Headless(t *testing.T) {
	cfg := Defaults()
	cfg.Engine.MaxRenderHz = 144
	cfg.Camera.Watch = true
	cfg.ApplyEnv(env(map[string]string{
		EnvHeadless:      "1",
		EnvTrace:         "/tmp/frames.msgpack",
		EnvCameraProfile: "cinematic",
	}))

	assert.True(t, cfg.Engine.Headless)
	assert.Equal(t, DefaultMaxFrames, cfg.Engine.MaxFrames)
	assert.False(t, cfg.Pacing.VSync)
	assert.Zero(t, cfg.Pacing.TargetFPS)
	assert.Zero(t, cfg.Engine.MaxRenderHz)
	assert.False(t, cfg.Audio.Enabled)
	assert.False(t, cfg.Camera.Watch)
	assert.Equal(t, "/tmp/frames.msgpack", cfg.Trace.Path)
	assert.Equal(t, "cinematic", cfg.Camera.Profile)
}

func TestApplyEnv_MaxFrames(t *testing.T) {
	tests := []struct {
		name string
		val  string
		want int
	}{
		{"valid", "42", 42},
		{"garbage keeps default", "lots", DefaultMaxFrames},
		{"zero keeps default", "0", DefaultMaxFrames},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.ApplyEnv(env(map[string]string{EnvHeadless: "true", EnvMaxFrames: tt.val}))
			assert.Equal(t, tt.want, cfg.Engine.MaxFrames)
		})
	}
}

func TestApplyEnv_NotHeadlessKeepsPacing(t *testing.T) {
	cfg := Defaults()
	cfg.ApplyEnv(env(map[string]string{EnvHeadless: "0"}))
	assert.False(t, cfg.Engine.Headless)
	assert.True(t, cfg.Pacing.VSync)
	assert.Equal(t, 60.0, cfg.Pacing.TargetFPS)
}

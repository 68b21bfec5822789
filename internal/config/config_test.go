package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notchd/internal/model"
)

func TestDefaultDaemonConfig(t *testing.T) {
	cfg := DefaultDaemonConfig()

	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.Display.ShowOnAllDisplays)
	assert.Equal(t, 640, cfg.Layout.Width)
	assert.Equal(t, 190, cfg.Layout.Height)
	assert.Equal(t, 20, cfg.Layout.ShadowPadding)
	assert.Equal(t, 30.0, cfg.Detection.SwipeThreshold)
	assert.Equal(t, 1500*time.Millisecond, cfg.Peek.Duration.Duration())
	assert.Equal(t, 3*time.Second, cfg.Timing.AutoClose.Duration())
	assert.Equal(t, 150*time.Millisecond, cfg.Timing.UnlockDelay.Duration())
	assert.Equal(t, BackendAuto, cfg.Backend.Name)
}

func TestLoadDaemonConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadDaemonConfig("/nonexistent/path/notchd.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultDaemonConfig(), cfg)
}

func TestLoadDaemonConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notchd.toml")

	content := `
[display]
show_on_all_displays = true
show_on_lock_screen = true

[layout]
width = 800
height = 240

[detection]
enabled = false
swipe_threshold = 45.5

[peek]
style = "inline"
duration = "2s"
hud_replacement = true

[timing]
auto_close = "5s"
unlock_delay = "300ms"

[backend]
name = "x11"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadDaemonConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Display.ShowOnAllDisplays)
	assert.True(t, cfg.Display.ShowOnLockScreen)
	assert.Equal(t, 800, cfg.Layout.Width)
	assert.Equal(t, 240, cfg.Layout.Height)
	assert.Equal(t, 20, cfg.Layout.ShadowPadding, "unset keys keep defaults")
	assert.False(t, cfg.Detection.Enabled)
	assert.Equal(t, 45.5, cfg.Detection.SwipeThreshold)
	assert.Equal(t, PeekStyleInline, cfg.Peek.Style)
	assert.Equal(t, 2*time.Second, cfg.Peek.Duration.Duration())
	assert.True(t, cfg.Peek.HUDReplacement)
	assert.Equal(t, 5*time.Second, cfg.Timing.AutoClose.Duration())
	assert.Equal(t, 300*time.Millisecond, cfg.Timing.UnlockDelay.Duration())
	assert.Equal(t, BackendX11, cfg.Backend.Name)
}

func TestLoadDaemonConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not toml", `this is not valid toml [`},
		{"bad style", "[peek]\nstyle = \"sideways\"\n"},
		{"bad backend", "[backend]\nname = \"quartz\"\n"},
		{"bad duration", "[timing]\nauto_close = \"soon\"\n"},
		{"zero auto close", "[timing]\nauto_close = \"0s\"\n"},
		{"closed wider than open", "[layout]\nclosed_width = 900\n"},
		{"negative threshold", "[detection]\nthreshold = -1.0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "notchd.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := LoadDaemonConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveDaemonConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "notchd.toml")

	cfg := DefaultDaemonConfig()
	cfg.Display.ShowOnAllDisplays = true
	cfg.Timing.UnlockDelay = Duration(250 * time.Millisecond)
	require.NoError(t, SaveDaemonConfig(cfg, path))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file renamed away")

	loaded, err := LoadDaemonConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1.5s")))
	assert.Equal(t, 1500*time.Millisecond, d.Duration())

	require.NoError(t, d.UnmarshalText([]byte("150")))
	assert.Equal(t, 150*time.Millisecond, d.Duration(), "bare integers are milliseconds")

	assert.Error(t, d.UnmarshalText([]byte("later")))

	text, err := Duration(3 * time.Second).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "3s", string(text))
}

func TestPreferences(t *testing.T) {
	cfg := DefaultDaemonConfig()
	cfg.Display.ShowOnAllDisplays = true

	p := cfg.Preferences("ABC")
	assert.True(t, p.ShowOnAllDisplays)
	assert.True(t, p.RegionDetection)
	assert.Equal(t, model.DisplayIdentity("ABC"), p.PreferredDisplay)
	assert.Equal(t, model.Size{Width: 640, Height: 190}, p.SurfaceSize)
	assert.Equal(t, model.Size{Width: 640, Height: 210}, p.WindowSize())
	assert.Equal(t, 30.0, p.SwipeThreshold)
}

func TestGetSet(t *testing.T) {
	cfg := DefaultDaemonConfig()

	v, err := cfg.Get("display.show_on_all_displays")
	require.NoError(t, err)
	assert.Equal(t, "false", v)

	require.NoError(t, cfg.Set("display.show_on_all_displays", "true"))
	assert.True(t, cfg.Display.ShowOnAllDisplays)

	require.NoError(t, cfg.Set("layout.width", "720"))
	assert.Equal(t, 720, cfg.Layout.Width)

	require.NoError(t, cfg.Set("peek.style", "inline"))
	assert.Equal(t, PeekStyleInline, cfg.Peek.Style)

	require.NoError(t, cfg.Set("timing.auto_close", "4s"))
	assert.Equal(t, 4*time.Second, cfg.Timing.AutoClose.Duration())

	v, err = cfg.Get("timing.auto_close")
	require.NoError(t, err)
	assert.Equal(t, "4s", v)
}

func TestSet_RejectsInvalid(t *testing.T) {
	cfg := DefaultDaemonConfig()

	assert.Error(t, cfg.Set("layout.nope", "1"))
	assert.Error(t, cfg.Set("nosection.width", "1"))
	assert.Error(t, cfg.Set("width", "1"))
	assert.Error(t, cfg.Set("peek.style", "sideways"))
	assert.Error(t, cfg.Set("layout.width", "wide"))

	assert.Equal(t, DefaultDaemonConfig(), cfg, "config unchanged after failed sets")
}

func TestKeys(t *testing.T) {
	keys, err := DefaultDaemonConfig().Keys()
	require.NoError(t, err)
	assert.Contains(t, keys, "display.show_on_all_displays")
	assert.Contains(t, keys, "timing.unlock_delay")
	assert.Contains(t, keys, "backend.name")
	assert.IsIncreasing(t, keys)
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	t.Setenv("XDG_DATA_HOME", "/custom/data")

	assert.Equal(t, "/custom/config/notchd/notchd.toml", ConfigPath())
	assert.Equal(t, "/custom/data/notchd", DataPath())
	assert.Equal(t, "/custom/data/notchd/state.json", StatePath())
}

func TestEnsureDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	require.NoError(t, EnsureDataDir())

	info, err := os.Stat(filepath.Join(dir, "notchd"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/notchd/internal/model"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "150ms", "1.5s", "3s", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '150ms', '1.5s' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DaemonConfig is the configuration for notchd.
// Loaded from ~/.config/notchd/notchd.toml
type DaemonConfig struct {
	Display   DisplayConfig   `toml:"display"`
	Layout    LayoutConfig    `toml:"layout"`
	Detection DetectionConfig `toml:"detection"`
	Peek      PeekConfig      `toml:"peek"`
	Timing    TimingConfig    `toml:"timing"`
	Backend   BackendConfig   `toml:"backend"`
	Theme     ThemeConfig     `toml:"theme"`
}

// DisplayConfig selects which displays get a surface.
type DisplayConfig struct {
	ShowOnAllDisplays bool `toml:"show_on_all_displays"`
	ShowOnLockScreen  bool `toml:"show_on_lock_screen"` // privacy mode instead of hiding
}

// LayoutConfig contains surface dimensions in pixels.
type LayoutConfig struct {
	Width         int `toml:"width"`
	Height        int `toml:"height"`
	ShadowPadding int `toml:"shadow_padding"`
	ClosedWidth   int `toml:"closed_width"`
	ClosedHeight  int `toml:"closed_height"`
}

// DetectionConfig contains gesture settings.
type DetectionConfig struct {
	Enabled        bool    `toml:"enabled"`         // open the surface on a pull into the top region
	Threshold      float64 `toml:"threshold"`       // accumulated pixels before the region fires
	SwipeThreshold float64 `toml:"swipe_threshold"` // horizontal pixels for a tab swipe
}

// PeekConfig contains transient overlay settings.
type PeekConfig struct {
	Style          string   `toml:"style"` // "standard" or "inline"
	Duration       Duration `toml:"duration"`
	HUDReplacement bool     `toml:"hud_replacement"` // show volume/brightness peeks
	OSDCapture     bool     `toml:"osd_capture"`     // turn OSD notifications into peeks
}

// TimingConfig contains surface timers.
type TimingConfig struct {
	AutoClose   Duration `toml:"auto_close"`
	UnlockDelay Duration `toml:"unlock_delay"`
}

// BackendConfig selects the window system backend.
type BackendConfig struct {
	Name string `toml:"name"` // "auto", "wayland", "x11"
}

// ThemeConfig selects the CSS theme used by the wayland backend.
type ThemeConfig struct {
	Name      string `toml:"name"`       // Bundled or user theme name
	HotReload bool   `toml:"hot_reload"` // Reload the theme file when it changes
}

// PeekStyle values.
const (
	PeekStyleStandard = "standard"
	PeekStyleInline   = "inline"
)

// ValidPeekStyles returns all valid peek style values.
func ValidPeekStyles() []string {
	return []string{PeekStyleStandard, PeekStyleInline}
}

// Backend names.
const (
	BackendAuto    = "auto"
	BackendWayland = "wayland"
	BackendX11     = "x11"
)

// ValidBackends returns all valid backend names.
func ValidBackends() []string {
	return []string{BackendAuto, BackendWayland, BackendX11}
}

// DefaultDaemonConfig returns a new DaemonConfig with default values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Display: DisplayConfig{
			ShowOnAllDisplays: false,
			ShowOnLockScreen:  false,
		},
		Layout: LayoutConfig{
			Width:         640,
			Height:        190,
			ShadowPadding: 20,
			ClosedWidth:   185,
			ClosedHeight:  32,
		},
		Detection: DetectionConfig{
			Enabled:        true,
			Threshold:      30,
			SwipeThreshold: 30,
		},
		Peek: PeekConfig{
			Style:          PeekStyleStandard,
			Duration:       Duration(1500 * time.Millisecond),
			HUDReplacement: false,
			OSDCapture:     true,
		},
		Timing: TimingConfig{
			AutoClose:   Duration(3 * time.Second),
			UnlockDelay: Duration(150 * time.Millisecond),
		},
		Backend: BackendConfig{
			Name: BackendAuto,
		},
		Theme: ThemeConfig{
			Name:      "default",
			HotReload: true,
		},
	}
}

// LoadDaemonConfig loads the daemon configuration from path, or the default
// path when empty. If the file doesn't exist, returns the default configuration.
func LoadDaemonConfig(path string) (*DaemonConfig, error) {
	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDaemonConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseDaemonConfig(data)
}

// ParseDaemonConfig overlays TOML data on the defaults and validates it.
func ParseDaemonConfig(data []byte) (*DaemonConfig, error) {
	config := DefaultDaemonConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveDaemonConfig saves the daemon configuration to path, or the default
// path when empty.
func SaveDaemonConfig(config *DaemonConfig, path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	if c.Layout.Width < 100 || c.Layout.Width > 4000 {
		return fmt.Errorf("layout.width must be between 100 and 4000, got %d", c.Layout.Width)
	}
	if c.Layout.Height < 20 || c.Layout.Height > 2000 {
		return fmt.Errorf("layout.height must be between 20 and 2000, got %d", c.Layout.Height)
	}
	if c.Layout.ShadowPadding < 0 || c.Layout.ShadowPadding > 200 {
		return fmt.Errorf("layout.shadow_padding must be between 0 and 200, got %d", c.Layout.ShadowPadding)
	}
	if c.Layout.ClosedWidth <= 0 || c.Layout.ClosedWidth > c.Layout.Width {
		return fmt.Errorf("layout.closed_width must be between 1 and width (%d), got %d", c.Layout.Width, c.Layout.ClosedWidth)
	}
	if c.Layout.ClosedHeight <= 0 || c.Layout.ClosedHeight > c.Layout.Height {
		return fmt.Errorf("layout.closed_height must be between 1 and height (%d), got %d", c.Layout.Height, c.Layout.ClosedHeight)
	}

	if c.Detection.Threshold <= 0 {
		return fmt.Errorf("detection.threshold must be positive, got %v", c.Detection.Threshold)
	}
	if c.Detection.SwipeThreshold <= 0 {
		return fmt.Errorf("detection.swipe_threshold must be positive, got %v", c.Detection.SwipeThreshold)
	}

	if !contains(ValidPeekStyles(), c.Peek.Style) {
		return fmt.Errorf("invalid peek.style %q, must be one of: %v", c.Peek.Style, ValidPeekStyles())
	}
	if c.Peek.Duration.Duration() <= 0 {
		return fmt.Errorf("peek.duration must be positive, got %s", c.Peek.Duration.Duration())
	}

	if c.Timing.AutoClose.Duration() <= 0 {
		return fmt.Errorf("timing.auto_close must be positive, got %s", c.Timing.AutoClose.Duration())
	}
	if c.Timing.UnlockDelay.Duration() < 0 {
		return fmt.Errorf("timing.unlock_delay must not be negative, got %s", c.Timing.UnlockDelay.Duration())
	}

	if !contains(ValidBackends(), c.Backend.Name) {
		return fmt.Errorf("invalid backend.name %q, must be one of: %v", c.Backend.Name, ValidBackends())
	}

	return nil
}

// Preferences converts the configuration into the values that drive
// reconciliation. preferred is the persisted preferred display, if any.
func (c *DaemonConfig) Preferences(preferred model.DisplayIdentity) model.Preferences {
	return model.Preferences{
		ShowOnAllDisplays:  c.Display.ShowOnAllDisplays,
		RegionDetection:    c.Detection.Enabled,
		ShowOnLockScreen:   c.Display.ShowOnLockScreen,
		PreferredDisplay:   preferred,
		SurfaceSize:        model.Size{Width: c.Layout.Width, Height: c.Layout.Height},
		ShadowPadding:      c.Layout.ShadowPadding,
		DetectionThreshold: c.Detection.Threshold,
		SwipeThreshold:     c.Detection.SwipeThreshold,
	}
}

// Keys returns every settable "section.key" name in sorted order.
func (c *DaemonConfig) Keys() ([]string, error) {
	tree, err := c.tree()
	if err != nil {
		return nil, err
	}
	var keys []string
	for section, v := range tree {
		table, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for key := range table {
			keys = append(keys, section+"."+key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Get returns the TOML representation of a "section.key" value.
func (c *DaemonConfig) Get(key string) (string, error) {
	tree, err := c.tree()
	if err != nil {
		return "", err
	}
	section, name, err := splitKey(key)
	if err != nil {
		return "", err
	}
	table, ok := tree[section].(map[string]any)
	if !ok {
		return "", fmt.Errorf("unknown config section %q", section)
	}
	v, ok := table[name]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	switch v := v.(type) {
	case string:
		return v, nil
	default:
		return fmt.Sprint(v), nil
	}
}

// Set parses value as TOML (falling back to a plain string), assigns it to
// "section.key" and validates the result. c is unchanged on error.
func (c *DaemonConfig) Set(key, value string) error {
	tree, err := c.tree()
	if err != nil {
		return err
	}
	section, name, err := splitKey(key)
	if err != nil {
		return err
	}
	table, ok := tree[section].(map[string]any)
	if !ok {
		return fmt.Errorf("unknown config section %q", section)
	}
	if _, ok := table[name]; !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	table[name] = parseValue(value)

	data, err := toml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	updated := DefaultDaemonConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(updated); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	*c = *updated
	return nil
}

func (c *DaemonConfig) tree() (map[string]any, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return tree, nil
}

func splitKey(key string) (string, string, error) {
	section, name, ok := strings.Cut(key, ".")
	if !ok || section == "" || name == "" {
		return "", "", fmt.Errorf("config key %q must look like section.key", key)
	}
	return section, name, nil
}

func parseValue(value string) any {
	var doc struct {
		V any `toml:"v"`
	}
	if err := toml.Unmarshal([]byte("v = "+value), &doc); err == nil && doc.V != nil {
		return doc.V
	}
	return value
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

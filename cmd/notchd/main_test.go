package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notchd/internal/config"
)

func TestDetectBackend(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"wayland display", map[string]string{"WAYLAND_DISPLAY": "wayland-0", "DISPLAY": ":0"}, config.BackendWayland},
		{"wayland session without x", map[string]string{"XDG_SESSION_TYPE": "wayland"}, config.BackendWayland},
		{"xwayland only", map[string]string{"XDG_SESSION_TYPE": "wayland", "DISPLAY": ":0"}, config.BackendX11},
		{"x11", map[string]string{"DISPLAY": ":0"}, config.BackendX11},
		{"nothing", nil, config.BackendX11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectBackend(func(k string) string { return tt.env[k] })
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectBackend_Unknown(t *testing.T) {
	_, err := selectBackend("quartz", config.DefaultDaemonConfig(), slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

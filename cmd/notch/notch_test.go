package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"0.4", 0.4},
		{"40%", 0.4},
		{"40", 0.4},
		{"1", 1},
		{"150%", 1},
		{"-3", 0},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}

	_, err := parseLevel("loud")
	assert.Error(t, err)
}

func TestReadLine(t *testing.T) {
	line, err := readLine(strings.NewReader("\n  \n2 | eDP-1 | Built-in\nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "2 | eDP-1 | Built-in", line)

	_, err = readLine(strings.NewReader(""))
	assert.EqualError(t, err, "no selection")
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"toggle"},
		{"peek", "clear"},
		{"peek", "toggle"},
		{"peek", "payload"},
		{"expand"},
		{"tab"},
		{"reconcile"},
		{"status"},
		{"displays"},
		{"display", "use"},
		{"display", "reset"},
		{"config", "get"},
		{"config", "set"},
		{"config", "path"},
		{"themes"},
		{"watch"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name(), path)
	}
}

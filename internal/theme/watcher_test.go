package theme

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnPartialWrite(t *testing.T) {
	tmpDir := t.TempDir()
	partialPath := filepath.Join(tmpDir, "_colors.css")
	require.NoError(t, os.WriteFile(partialPath, []byte(`.notch { color: red; }`), 0644))
	themePath := filepath.Join(tmpDir, "mine.css")
	require.NoError(t, os.WriteFile(themePath, []byte(`@import "_colors.css";`), 0644))

	theme, err := Load("mine", themePath)
	require.NoError(t, err)

	w := NewWatcher(theme, nil)
	var (
		mu  sync.Mutex
		got string
	)
	w.OnChange(func(css string) {
		mu.Lock()
		got = css
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()
	assert.True(t, w.Running())

	require.NoError(t, os.WriteFile(partialPath, []byte(`.notch { color: blue; }`), 0644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got != ""
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.Contains(t, got, "color: blue")
	mu.Unlock()
}

func TestWatcher_EmbeddedThemeNotWatched(t *testing.T) {
	w := NewWatcher(Default(), nil)
	require.NoError(t, w.Start(context.Background()))
	assert.False(t, w.Running())
	w.Stop()
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	themePath := filepath.Join(tmpDir, "mine.css")
	require.NoError(t, os.WriteFile(themePath, []byte(`.notch {}`), 0644))
	theme, err := Load("mine", themePath)
	require.NoError(t, err)

	w := NewWatcher(theme, nil)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
	assert.False(t, w.Running())
}

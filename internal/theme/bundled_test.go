package theme

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundledNames(t *testing.T) {
	names := BundledNames()
	assert.Equal(t, []string{"compact", "default"}, names)
	for _, name := range names {
		assert.False(t, strings.HasPrefix(name, "_"), name)
	}
}

func TestLoadBundled_NotATheme(t *testing.T) {
	for _, name := range []string{"_base", "neon"} {
		_, ok := LoadBundled(name)
		assert.False(t, ok, name)
	}
}

func TestLoadBundled(t *testing.T) {
	for _, name := range BundledNames() {
		t.Run(name, func(t *testing.T) {
			th, ok := LoadBundled(name)
			require.True(t, ok)
			assert.Equal(t, name, th.Name)
			assert.Contains(t, th.CSS, "/* imported bundled: _base.css */")
			assert.Contains(t, th.CSS, ".notch-pill")
			assert.NotContains(t, th.CSS, "import failed")
			assert.NotContains(t, th.CSS, "@import")
		})
	}

	_, ok := LoadBundled("_base")
	assert.False(t, ok)
	_, ok = LoadBundled("neon")
	assert.False(t, ok)
}

func TestBundledStylesheetsBalanced(t *testing.T) {
	for _, file := range []string{"_base.css", "default.css", "compact.css"} {
		css, ok := bundledFile(file)
		require.True(t, ok, file)
		assert.Equal(t, strings.Count(css, "{"), strings.Count(css, "}"), file)
	}
}

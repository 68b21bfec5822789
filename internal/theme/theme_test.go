package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSS(t *testing.T, dir, name, css string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(css), 0644))
	return path
}

func TestInline_NoImports(t *testing.T) {
	css := `.notch { color: red; }`
	assert.Equal(t, css, Inline(css, ""))
}

func TestInline_Nested(t *testing.T) {
	dir := t.TempDir()
	writeCSS(t, dir, "_inner.css", `.notch-tab { color: blue; }`)
	writeCSS(t, dir, "_outer.css", "@import \"_inner.css\";\n.notch-pill { min-height: 20px; }")

	got := Inline("@import url('_outer.css');\n.notch { color: red; }", dir)

	assert.Contains(t, got, "/* imported: _outer.css */")
	assert.Contains(t, got, "/* imported: _inner.css */")
	assert.Contains(t, got, ".notch-tab")
	assert.Contains(t, got, ".notch-pill")
	assert.NotContains(t, got, "@import")
}

func TestInline_Circular(t *testing.T) {
	dir := t.TempDir()
	writeCSS(t, dir, "_a.css", "@import \"_b.css\";\n.a {}")
	writeCSS(t, dir, "_b.css", "@import \"_a.css\";\n.b {}")

	got := Inline(`@import "_a.css";`, dir)

	assert.Contains(t, got, "/* imported: _a.css */")
	assert.Contains(t, got, "/* imported: _b.css */")
	assert.Contains(t, got, "/* circular import skipped: _a.css */")
}

func TestInline_FallsBackToBundled(t *testing.T) {
	got := Inline(`@import "_base.css";`, t.TempDir())

	assert.Contains(t, got, "/* imported bundled: _base.css */")
	assert.Contains(t, got, ".notch.privacy .notch-content")
}

func TestInline_Missing(t *testing.T) {
	got := Inline(`@import "nope.css";`, t.TempDir())
	assert.Contains(t, got, "/* import failed: nope.css")
}

func TestImportPattern(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`@import "file.css";`, "file.css"},
		{`@import 'file.css';`, "file.css"},
		{`@import url("file.css");`, "file.css"},
		{`@import url( 'file.css' );`, "file.css"},
		{`@import "_partial.css"`, "_partial.css"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := importPattern.FindStringSubmatch(tt.input)
			require.Len(t, m, 2)
			assert.Equal(t, tt.want, m[1])
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeCSS(t, dir, "_colors.css", `.notch { background-color: navy; }`)
	path := writeCSS(t, dir, "mine.css", `@import "_colors.css";`)

	th, err := Load("mine", path)
	require.NoError(t, err)
	assert.False(t, th.Bundled())
	assert.Contains(t, th.CSS, "navy")
	assert.False(t, th.ModTime.IsZero())

	_, err = Load("gone", filepath.Join(dir, "gone.css"))
	assert.Error(t, err)
}

func TestTheme_ReloadDetectsPartialChange(t *testing.T) {
	dir := t.TempDir()
	partial := writeCSS(t, dir, "_colors.css", `.notch { color: red; }`)
	path := writeCSS(t, dir, "mine.css", `@import "_colors.css";`)

	th, err := Load("mine", path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(partial, []byte(`.notch { color: blue; }`), 0644))

	changed, err := th.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, th.CSS, "color: blue")

	changed, err = th.Reload()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestTheme_ReloadBundled(t *testing.T) {
	th := Default()
	require.NotNil(t, th)
	assert.True(t, th.Bundled())

	changed, err := th.Reload()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeCSS(t, dir, "compact.css", `.notch {}`)
	writeCSS(t, dir, "neon.css", `.notch {}`)
	writeCSS(t, dir, "_shared.css", `.notch {}`)
	writeCSS(t, dir, "notes.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.css"), 0755))

	infos, err := List(dir)
	require.NoError(t, err)

	var names []string
	for _, i := range infos {
		names = append(names, i.Name)
	}
	assert.Equal(t, []string{"compact", "default", "neon"}, names)

	assert.False(t, infos[0].Bundled(), "user theme shadows bundled compact")
	assert.True(t, infos[1].Bundled())
	assert.True(t, infos[1].Default)
	assert.Equal(t, filepath.Join(dir, "neon.css"), infos[2].Path)
}

func TestList_MissingDir(t *testing.T) {
	infos, err := List(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Len(t, infos, len(BundledNames()))
}

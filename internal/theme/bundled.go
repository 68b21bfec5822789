package theme

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed themes/*.css
var bundled embed.FS

// DefaultThemeName is the bundled theme used when none is configured or the
// configured one cannot be found.
const DefaultThemeName = "default"

// bundledFile returns an embedded stylesheet by base name, such as
// "compact.css" or "_base.css".
func bundledFile(file string) (string, bool) {
	data, err := bundled.ReadFile(path.Join("themes", file))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// BundledNames returns the embedded theme names, sorted.
func BundledNames() []string {
	entries, err := fs.ReadDir(bundled, "themes")
	if err != nil {
		return []string{DefaultThemeName}
	}

	var names []string
	for _, e := range entries {
		if name, ok := themeName(e.Name()); ok && !e.IsDir() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Partials start with an underscore and are only ever imported.
func isPartial(file string) bool {
	return strings.HasPrefix(file, "_")
}

// themeName maps a file name to a theme name.
func themeName(file string) (string, bool) {
	if isPartial(file) || path.Ext(file) != ".css" {
		return "", false
	}
	return strings.TrimSuffix(file, ".css"), true
}

package theme

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Theme is a stylesheet for the notch surfaces with every import inlined.
type Theme struct {
	Name    string
	Path    string // empty for bundled themes
	CSS     string
	ModTime time.Time
}

// Bundled reports whether the theme came from the embedded set.
func (t *Theme) Bundled() bool {
	return t.Path == ""
}

// Load reads the user theme at path.
func Load(name, path string) (*Theme, error) {
	t := &Theme{Name: name, Path: path}
	if _, err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadBundled returns the embedded theme called name.
func LoadBundled(name string) (*Theme, bool) {
	if isPartial(name) {
		return nil, false
	}
	css, ok := bundledFile(name + ".css")
	if !ok {
		return nil, false
	}
	return &Theme{Name: name, CSS: Inline(css, "")}, true
}

// Default returns the embedded default theme.
func Default() *Theme {
	t, _ := LoadBundled(DefaultThemeName)
	return t
}

// Reload re-reads a user theme and reports whether its flattened CSS
// changed. Partials can change without touching the theme file, so the
// content is compared instead of the modification time.
func (t *Theme) Reload() (bool, error) {
	if t.Bundled() {
		return false, nil
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return false, err
	}

	css := Inline(string(data), filepath.Dir(t.Path))
	changed := css != t.CSS
	t.CSS = css
	t.ModTime = info.ModTime()
	return changed, nil
}

// Info describes an available theme.
type Info struct {
	Name    string
	Path    string // empty for bundled themes
	Default bool
}

// Bundled reports whether the embedded copy is the one that will load.
func (i Info) Bundled() bool {
	return i.Path == ""
}

// List returns every theme that can be selected, sorted by name. A user
// theme in dir shadows the bundled theme of the same name, matching the
// loader's resolution order.
func List(dir string) ([]Info, error) {
	byName := make(map[string]Info)
	for _, name := range BundledNames() {
		byName[name] = Info{Name: name, Default: name == DefaultThemeName}
	}

	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		for _, e := range entries {
			name, ok := themeName(e.Name())
			if !ok || e.IsDir() {
				continue
			}
			info := byName[name]
			info.Name = name
			info.Path = filepath.Join(dir, e.Name())
			byName[name] = info
		}
	}

	infos := make([]Info, 0, len(byName))
	for _, info := range byName {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(a, b int) bool {
		return infos[a].Name < infos[b].Name
	})
	return infos, nil
}

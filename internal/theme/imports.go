package theme

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

// importPattern matches @import "x.css", @import 'x.css' and
// @import url("x.css"), with or without the trailing semicolon.
var importPattern = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

const maxImportDepth = 8

// Inline replaces every @import rule in css with the imported stylesheet.
// The GTK provider is loaded from a string and has no base path, so imports
// must be flattened first. Relative imports resolve against dir. A file that
// cannot be read falls back to the bundled stylesheet with the same base
// name, which lets user themes import "_base.css" without copying it.
func Inline(css, dir string) string {
	in := inliner{seen: make(map[string]bool)}
	return in.inline(css, dir, 0)
}

type inliner struct {
	seen map[string]bool
}

func (in *inliner) inline(css, dir string, depth int) string {
	return importPattern.ReplaceAllStringFunc(css, func(rule string) string {
		ref := importPattern.FindStringSubmatch(rule)[1]
		if depth >= maxImportDepth {
			return comment("import too deep", ref)
		}

		err := fs.ErrNotExist
		if dir != "" || filepath.IsAbs(ref) {
			file := ref
			if !filepath.IsAbs(file) {
				file = filepath.Join(dir, ref)
			}
			if in.seen[file] {
				return comment("circular import skipped", ref)
			}
			in.seen[file] = true

			var data []byte
			if data, err = os.ReadFile(file); err == nil {
				return comment("imported", ref) + "\n" + in.inline(string(data), filepath.Dir(file), depth+1)
			}
		}

		base := filepath.Base(ref)
		if css, ok := bundledFile(base); ok {
			key := "bundled:" + base
			if in.seen[key] {
				return comment("circular import skipped", ref)
			}
			in.seen[key] = true
			return comment("imported bundled", ref) + "\n" + in.inline(css, "", depth+1)
		}
		return comment("import failed", ref+" ("+err.Error()+")")
	})
}

func comment(what, ref string) string {
	return "/* " + what + ": " + ref + " */"
}

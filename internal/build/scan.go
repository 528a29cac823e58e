package build

import (
	"io/fs"
	"path/filepath"
	"strings"

	dmerrors "github.com/dompile/cli/internal/errors"
)

// sourceSet is the classified view of one source-tree scan.
type sourceSet struct {
	Pages    []string // content files emitted as output pages
	Partials []string // layouts/components, never emitted directly
	Assets   []string // copy candidates, gated by the reference tracker
}

// All returns every scanned source path.
func (s *sourceSet) All() []string {
	out := make([]string, 0, len(s.Pages)+len(s.Partials)+len(s.Assets))
	out = append(out, s.Pages...)
	out = append(out, s.Partials...)
	out = append(out, s.Assets...)
	return out
}

var pageExts = map[string]bool{
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
}

// scan walks the source root and classifies every file. Files under
// the layouts or components roots and underscore-prefixed files are
// partials; recognized content extensions are pages; everything else
// is an asset. The output directory and dotfile directories other than
// the layouts/components roots are skipped outright.
func (d *Driver) scan() (*sourceSet, error) {
	srcs := &sourceSet{}

	err := filepath.WalkDir(d.roots.Source, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path == d.roots.Source {
				return nil
			}
			if path == d.roots.Output {
				return filepath.SkipDir
			}
			if strings.HasPrefix(entry.Name(), ".") && !d.isPartialRoot(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") {
			return nil
		}

		switch {
		case d.isPartial(path):
			srcs.Partials = append(srcs.Partials, path)
		case pageExts[strings.ToLower(filepath.Ext(path))]:
			srcs.Pages = append(srcs.Pages, path)
		default:
			srcs.Assets = append(srcs.Assets, path)
		}
		return nil
	})
	if err != nil {
		return nil, dmerrors.WrapError(err, dmerrors.CategoryFileSystem, "scan source tree")
	}
	return srcs, nil
}

func (d *Driver) isPartialRoot(path string) bool {
	return path == d.roots.Layouts || path == d.roots.Components
}

func (d *Driver) isPartial(path string) bool {
	if strings.HasPrefix(filepath.Base(path), "_") {
		return true
	}
	return within(path, d.roots.Layouts) || within(path, d.roots.Components)
}

func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

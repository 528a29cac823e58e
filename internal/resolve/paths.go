package resolve

import (
	"path/filepath"
	"strings"

	dmerrors "github.com/dompile/cli/internal/errors"
	"github.com/dompile/cli/internal/util/sets"
)

// allowedIncludeExts is the extension allow-list enforced at include
// sites. Disallowed extensions fail softly with an inline marker.
var allowedIncludeExts = sets.New(".html", ".htm", ".md", ".markdown", ".txt", ".svg")

// IncludeExtensionAllowed reports whether path may be the target of an
// include directive.
func IncludeExtensionAllowed(path string) bool {
	return allowedIncludeExts.Has(strings.ToLower(filepath.Ext(path)))
}

// ResolveVirtual resolves an include path rooted at sourceRoot
// (virtual="..." directives).
func ResolveVirtual(path, sourceRoot string) (string, error) {
	target := filepath.Join(sourceRoot, filepath.FromSlash(strings.TrimPrefix(path, "/")))
	return ensureWithin(target, sourceRoot, path)
}

// ResolveRelative resolves an include path relative to the including
// file's directory (file="..." directives). Containment is still
// checked against sourceRoot: a relative reference may climb
// directories but never out of the site.
func ResolveRelative(path, currentFileDir, sourceRoot string) (string, error) {
	target := filepath.Join(currentFileDir, filepath.FromSlash(path))
	return ensureWithin(target, sourceRoot, path)
}

// ResolveLayoutReference resolves a layout reference with the
// precedence the directive syntax promises:
//
//   - a path starting with "/" is source-root relative
//   - a path containing any "/" is source-root relative as given (the
//     layouts directory is NOT additionally prefixed)
//   - a bare filename is resolved inside layoutsDir
//
// Bare filenames are sandboxed to layoutsDir, everything else to
// sourceRoot.
func ResolveLayoutReference(path, sourceRoot, layoutsDir string) (string, error) {
	switch {
	case strings.HasPrefix(path, "/"):
		target := filepath.Join(sourceRoot, filepath.FromSlash(strings.TrimPrefix(path, "/")))
		return ensureWithin(target, sourceRoot, path)
	case strings.ContainsRune(path, '/'):
		target := filepath.Join(sourceRoot, filepath.FromSlash(path))
		return ensureWithin(target, sourceRoot, path)
	default:
		target := filepath.Join(layoutsDir, path)
		return ensureWithin(target, layoutsDir, path)
	}
}

// ensureWithin verifies that target's ancestry includes root. On
// violation the caller must not open the file.
func ensureWithin(target, root, original string) (string, error) {
	absTarget, err := filepath.Abs(filepath.Clean(target))
	if err != nil {
		return "", dmerrors.WrapError(err, dmerrors.CategoryFileSystem, "resolve path "+original)
	}
	absRoot, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", dmerrors.WrapError(err, dmerrors.CategoryFileSystem, "resolve root "+root)
	}

	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", dmerrors.NewSecurityError(original, absRoot)
	}
	return absTarget, nil
}

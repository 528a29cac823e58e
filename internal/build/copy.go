package build

import (
	"io"
	"os"
	"path/filepath"

	dmerrors "github.com/dompile/cli/internal/errors"
)

// copyAssets copies every referenced asset into the output directory,
// mirroring the source layout. Unreferenced files never reach the
// output.
func (d *Driver) copyAssets(candidates []string) (int, error) {
	copied := 0
	for _, asset := range candidates {
		if !d.assets.IsReferenced(asset) {
			continue
		}
		rel, err := filepath.Rel(d.roots.Source, asset)
		if err != nil {
			continue
		}
		dst := filepath.Join(d.roots.Output, rel)
		if err := copyFile(asset, dst); err != nil {
			return copied, dmerrors.WrapError(err, dmerrors.CategoryFileSystem, "copy asset").WithContext("asset", asset)
		}
		copied++
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src) // #nosec G304 -- paths come from the sandboxed scan
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst) // #nosec G304
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

package build

import (
	"os"
	"path/filepath"
	"strings"

	dmerrors "github.com/dompile/cli/internal/errors"
	"github.com/dompile/cli/internal/markdown"
	"github.com/dompile/cli/internal/resolve"
)

// buildPage resolves one content file and writes its output. The
// returned error is page-fatal (root file unreadable or output
// unwritable); everything else degrades to warnings.
func (d *Driver) buildPage(page string) ([]*dmerrors.BuildError, error) {
	raw, err := os.ReadFile(page) // #nosec G304 -- paths come from the sandboxed scan
	if err != nil {
		return nil, dmerrors.NewNotFoundError(page, err).WithSeverity(dmerrors.SeverityFatal)
	}

	// clear-then-rerecord so stale edges from removed directives do
	// not linger across rebuilds
	d.tracker.ClearPage(page)
	res := d.resolver.Begin(page)

	name := strings.TrimSuffix(filepath.Base(page), filepath.Ext(page))
	content := string(raw)
	layout := ""
	title := markdown.TitleFromName(name)

	var warnings []*dmerrors.BuildError
	if isMarkdown(page) {
		doc, err := markdown.Convert(raw, name)
		if err != nil {
			// bad frontmatter degrades to a body-only conversion
			warnings = append(warnings, asWarning(err, page))
			html, cerr := markdown.ConvertBody(raw)
			if cerr != nil {
				return warnings, asWarning(cerr, page).WithSeverity(dmerrors.SeverityFatal)
			}
			content = html
		} else {
			content = doc.HTML
			layout = doc.Layout
			title = doc.Title
		}
	}

	return d.finishPage(res, page, content, layout, title, warnings)
}

// finishPage runs include expansion and layout application, registers
// asset references, and writes the output file.
func (d *Driver) finishPage(res *resolve.Resolution, page, content, layout, title string, pre []*dmerrors.BuildError) ([]*dmerrors.BuildError, error) {
	expanded := res.ExpandIncludes(content)
	final := res.ApplyLayout(expanded, layout, title)
	d.assets.RecordReferences(page, []byte(final))
	warnings := append(pre, res.Warnings()...)

	out := d.outputPath(page)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return warnings, dmerrors.WrapError(err, dmerrors.CategoryFileSystem, "create output directory").WithContext("path", out)
	}
	if err := os.WriteFile(out, []byte(final), 0o644); err != nil {
		return warnings, dmerrors.WrapError(err, dmerrors.CategoryFileSystem, "write page output").WithContext("path", out)
	}
	return warnings, nil
}

func asWarning(err error, page string) *dmerrors.BuildError {
	if be, ok := err.(*dmerrors.BuildError); ok {
		return be.WithContext("page", page)
	}
	return dmerrors.WrapError(err, dmerrors.CategoryBuild, "page processing failed").WithContext("page", page)
}

// outputPath maps a source page to its output file. Markdown becomes
// .html; with pretty URLs enabled, non-index pages become
// <slug>/index.html.
func (d *Driver) outputPath(page string) string {
	rel, err := filepath.Rel(d.roots.Source, page)
	if err != nil {
		rel = filepath.Base(page)
	}

	dir := filepath.Dir(rel)
	name := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	ext := strings.ToLower(filepath.Ext(rel))
	if ext == ".md" || ext == ".markdown" || ext == ".htm" {
		ext = ".html"
	}

	if d.cfg.PrettyURLs && name != "index" {
		return filepath.Join(d.roots.Output, dir, markdown.Slugify(name), "index.html")
	}
	return filepath.Join(d.roots.Output, dir, name+ext)
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

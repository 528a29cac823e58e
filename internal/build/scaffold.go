package build

import (
	"fmt"
	"os"
	"path/filepath"

	dmerrors "github.com/dompile/cli/internal/errors"
)

var scaffoldFiles = map[string]string{
	"dompile.yaml": `source: src
output: dist
site:
  title: My Site
`,
	"src/index.md": `---
title: Welcome
---

# Welcome

This page is built by dompile. Edit ` + "`src/index.md`" + ` and run
` + "`dompile serve`" + ` to see changes live.
`,
	"src/.layouts/default.html": `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<link rel="stylesheet" href="/css/site.css">
<title><slot name="title">My Site</slot></title>
</head>
<body>
<header><!--#include virtual="/.components/nav.html" --></header>
<main><slot></slot></main>
</body>
</html>
`,
	"src/.components/nav.html": `<nav><a href="/">Home</a></nav>
`,
	"src/css/site.css": `body { font-family: sans-serif; margin: 2rem auto; max-width: 42rem; }
`,
}

// Scaffold writes a minimal starter site into dir. Existing files are
// only overwritten with force.
func Scaffold(dir string, force bool) error {
	for rel, content := range scaffoldFiles {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if !force {
			if _, err := os.Stat(path); err == nil {
				return dmerrors.NewConfigError(fmt.Sprintf("%s already exists (use --force to overwrite)", rel), nil)
			}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return dmerrors.WrapError(err, dmerrors.CategoryFileSystem, "create scaffold directory")
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return dmerrors.WrapError(err, dmerrors.CategoryFileSystem, "write scaffold file")
		}
	}
	return nil
}

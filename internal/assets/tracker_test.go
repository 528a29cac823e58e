package assets

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRecordSrcAndHref(t *testing.T) {
	root := t.TempDir()
	tr := NewTracker(root, nil)
	page := filepath.Join(root, "index.html")

	tr.RecordReferences(page, []byte(`
<img src="/images/logo.png" alt="">
<a href="docs/guide.pdf">guide</a>
<script src="js/app.js"></script>
`))

	assert.True(t, tr.IsReferenced(filepath.Join(root, "images", "logo.png")))
	assert.True(t, tr.IsReferenced(filepath.Join(root, "docs", "guide.pdf")))
	assert.True(t, tr.IsReferenced(filepath.Join(root, "js", "app.js")))
	assert.False(t, tr.IsReferenced(filepath.Join(root, "never.png")))
}

func TestExternalAndDataURLsIgnored(t *testing.T) {
	root := t.TempDir()
	tr := NewTracker(root, nil)

	tr.RecordReferences(filepath.Join(root, "p.html"), []byte(`
<img src="https://cdn.example.com/x.png">
<img src="data:image/png;base64,AAAA">
<a href="#section">anchor</a>
<a href="mailto:x@example.com">mail</a>
`))

	assert.Empty(t, tr.Referenced())
}

func TestEscapingReferenceDropped(t *testing.T) {
	root := t.TempDir()
	tr := NewTracker(root, nil)

	tr.RecordReferences(filepath.Join(root, "p.html"), []byte(`<img src="../../outside.png">`))
	assert.Empty(t, tr.Referenced())
}

func TestQueryAndFragmentStripped(t *testing.T) {
	root := t.TempDir()
	tr := NewTracker(root, nil)

	tr.RecordReferences(filepath.Join(root, "p.html"), []byte(`<link href="/css/site.css?v=3#x" rel="stylesheet">`))
	assert.True(t, tr.IsReferenced(filepath.Join(root, "css", "site.css")))
}

func TestStylesheetScannedTransitively(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "css/site.css", `
@import "fonts.css";
body { background: url(/images/bg.png); }
`)
	writeFile(t, root, "css/fonts.css", `
@font-face { src: url("../fonts/mono.woff2"); }
`)

	tr := NewTracker(root, nil)
	tr.RecordReferences(filepath.Join(root, "index.html"), []byte(`<link rel="stylesheet" href="/css/site.css">`))

	// an asset referenced only via a stylesheet's url() is still copied
	assert.True(t, tr.IsReferenced(filepath.Join(root, "images", "bg.png")))
	assert.True(t, tr.IsReferenced(filepath.Join(root, "css", "fonts.css")))
	assert.True(t, tr.IsReferenced(filepath.Join(root, "fonts", "mono.woff2")))
}

func TestCircularImportsTerminate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.css", `@import "b.css";`)
	writeFile(t, root, "b.css", `@import "a.css";`)

	tr := NewTracker(root, nil)
	tr.RecordReferences(filepath.Join(root, "p.html"), []byte(`<link href="/a.css">`))

	assert.True(t, tr.IsReferenced(filepath.Join(root, "a.css")))
	assert.True(t, tr.IsReferenced(filepath.Join(root, "b.css")))
}

func TestInlineStyleAndStyleBlock(t *testing.T) {
	root := t.TempDir()
	tr := NewTracker(root, nil)

	tr.RecordReferences(filepath.Join(root, "p.html"), []byte(`
<style>.hero { background: url('/images/hero.jpg'); }</style>
<div style="background-image: url(images/tile.png)"></div>
`))

	assert.True(t, tr.IsReferenced(filepath.Join(root, "images", "hero.jpg")))
	assert.True(t, tr.IsReferenced(filepath.Join(root, "images", "tile.png")))
}

func TestSrcset(t *testing.T) {
	root := t.TempDir()
	tr := NewTracker(root, nil)

	tr.RecordReferences(filepath.Join(root, "p.html"), []byte(`<img srcset="/img/small.png 480w, /img/big.png 1080w">`))

	assert.True(t, tr.IsReferenced(filepath.Join(root, "img", "small.png")))
	assert.True(t, tr.IsReferenced(filepath.Join(root, "img", "big.png")))
}

func TestReferrersDiagnostics(t *testing.T) {
	root := t.TempDir()
	tr := NewTracker(root, nil)
	a := filepath.Join(root, "a.html")
	b := filepath.Join(root, "b.html")

	tr.RecordReferences(a, []byte(`<img src="/logo.png">`))
	tr.RecordReferences(b, []byte(`<img src="/logo.png">`))

	assert.Equal(t, []string{a, b}, tr.Referrers(filepath.Join(root, "logo.png")))
}

func TestConcurrentRecording(t *testing.T) {
	root := t.TempDir()
	tr := NewTracker(root, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			page := filepath.Join(root, "p.html")
			for j := 0; j < 50; j++ {
				tr.RecordReferences(page, []byte(`<img src="/shared.png">`))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, []string{filepath.Join(root, "shared.png")}, tr.Referenced())
}

// Package assets tracks which static files are actually referenced by
// resolved output, gating the build driver's copy pass.
package assets

import (
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/dompile/cli/internal/resolve"
	"github.com/dompile/cli/internal/util/sets"
)

// urlAttrs are the attributes scanned for asset references.
var urlAttrs = sets.New("src", "href", "poster", "data-src")

// Tracker is the build-wide referenced-asset registry. It persists
// across incremental-build cycles and is safe for concurrent use by
// page-resolution workers.
type Tracker struct {
	sourceRoot string
	reader     resolve.FileReader

	mu         sync.Mutex
	referenced sets.Set[string]
	// referrers maps asset -> referencing files, for diagnostics.
	referrers map[string]sets.Set[string]
}

// NewTracker creates a tracker rooted at sourceRoot (absolute).
func NewTracker(sourceRoot string, reader resolve.FileReader) *Tracker {
	if reader == nil {
		reader = resolve.OSFileReader
	}
	return &Tracker{
		sourceRoot: sourceRoot,
		reader:     reader,
		referenced: sets.New[string](),
		referrers:  make(map[string]sets.Set[string]),
	}
}

// RecordReferences scans finalHTML (as produced for page) for
// URL-bearing constructs that resolve inside the source root and adds
// each to the referenced-set. Stylesheets found this way are scanned
// transitively for url() and @import references.
func (t *Tracker) RecordReferences(page string, finalHTML []byte) {
	for _, ref := range extractHTMLRefs(finalHTML) {
		t.record(page, ref)
	}
}

// IsReferenced reports whether the given absolute source path was
// referenced by any scanned page or stylesheet.
func (t *Tracker) IsReferenced(assetPath string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.referenced.Has(filepath.Clean(assetPath))
}

// Referenced returns every referenced source path in lexical order.
func (t *Tracker) Referenced() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sets.SortedStrings(t.referenced)
}

// Referrers returns the files that reference asset, in lexical order.
func (t *Tracker) Referrers(asset string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sets.SortedStrings(t.referrers[filepath.Clean(asset)])
}

// record normalizes one reference against the referencing file and,
// when it lands inside the source root, marks it referenced. CSS
// targets are scanned recursively before the copy decision is needed.
func (t *Tracker) record(referencing, ref string) {
	target, ok := t.normalize(referencing, ref)
	if !ok {
		return
	}

	t.mu.Lock()
	alreadySeen := t.referenced.Has(target)
	t.referenced.Add(target)
	if t.referrers[target] == nil {
		t.referrers[target] = sets.New[string]()
	}
	t.referrers[target].Add(referencing)
	t.mu.Unlock()

	if !alreadySeen && strings.EqualFold(filepath.Ext(target), ".css") {
		t.scanStylesheet(target)
	}
}

// normalize resolves a raw URL to an absolute source path. External
// URLs, fragments, and data URIs are ignored; anything resolving
// outside the source root is dropped rather than recorded.
func (t *Tracker) normalize(referencing, ref string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}

	var target string
	if strings.HasPrefix(u.Path, "/") {
		target = filepath.Join(t.sourceRoot, filepath.FromSlash(u.Path))
	} else {
		target = filepath.Join(filepath.Dir(referencing), filepath.FromSlash(u.Path))
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(t.sourceRoot, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}

// scanStylesheet reads a CSS file and records its url()/@import
// targets, so an asset referenced only indirectly through a stylesheet
// is still copied. Recursion through record handles nested @imports;
// the alreadySeen check terminates cycles.
func (t *Tracker) scanStylesheet(cssPath string) {
	data, err := t.reader.ReadFile(cssPath)
	if err != nil {
		return
	}
	for _, ref := range extractCSSRefs(string(data)) {
		t.record(cssPath, ref)
	}
}

// extractHTMLRefs tokenizes HTML and collects candidate references
// from src/href-style attributes, inline <style> blocks, and style
// attributes.
func extractHTMLRefs(doc []byte) []string {
	var refs []string
	tz := html.NewTokenizer(strings.NewReader(string(doc)))
	inStyle := false

	for {
		switch tz.Next() {
		case html.ErrorToken:
			return refs
		case html.TextToken:
			if inStyle {
				refs = append(refs, extractCSSRefs(string(tz.Text()))...)
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tz.TagName()
			tag := strings.ToLower(string(name))
			inStyle = tag == "style"
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = tz.TagAttr()
				k := strings.ToLower(string(key))
				switch {
				case urlAttrs.Has(k):
					refs = append(refs, string(val))
				case k == "srcset":
					refs = append(refs, parseSrcset(string(val))...)
				case k == "style":
					refs = append(refs, extractCSSRefs(string(val))...)
				}
			}
		case html.EndTagToken:
			inStyle = false
		}
	}
}

// parseSrcset splits a srcset attribute into its URL components.
func parseSrcset(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		fields := strings.Fields(part)
		if len(fields) > 0 {
			out = append(out, fields[0])
		}
	}
	return out
}

package assets

import (
	"regexp"
	"strings"
)

var (
	cssURLRe    = regexp.MustCompile(`url\(\s*(?:"([^"]*)"|'([^']*)'|([^'")][^)]*))\s*\)`)
	cssImportRe = regexp.MustCompile(`@import\s+(?:"([^"]*)"|'([^']*)')`)
)

// extractCSSRefs collects url() and @import targets from a stylesheet
// fragment.
func extractCSSRefs(css string) []string {
	var refs []string
	for _, m := range cssURLRe.FindAllStringSubmatch(css, -1) {
		refs = append(refs, firstNonEmpty(m[1], m[2], m[3]))
	}
	for _, m := range cssImportRe.FindAllStringSubmatch(css, -1) {
		refs = append(refs, firstNonEmpty(m[1], m[2]))
	}
	return refs
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

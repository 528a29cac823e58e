package resolve

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dompile/cli/internal/deps"
	dmerrors "github.com/dompile/cli/internal/errors"
	"github.com/dompile/cli/internal/markdown"
	"github.com/dompile/cli/internal/util/sets"
)

var (
	// includeDirectiveRe matches the SSI comment form. The attribute
	// body is parsed separately so a recognizable-but-broken directive
	// yields a malformed-directive marker instead of passing through.
	includeDirectiveRe = regexp.MustCompile(`<!--#include\s+([^>]*?)\s*-->`)
	includeAttrRe      = regexp.MustCompile(`\b(virtual|file)\s*=\s*"([^"]*)"`)
)

// ExpandIncludes rewrites every include directive in content, left to
// right, recursively. Non-directive content passes through unchanged.
func (res *Resolution) ExpandIncludes(content string) string {
	return res.expand(content, res.page, sets.New(res.page), 0)
}

// expand processes one file's content. ancestors is the active
// resolution stack (the file itself included); depth counts recursion
// levels below the root content file.
func (res *Resolution) expand(content, file string, ancestors sets.Set[string], depth int) string {
	if !strings.Contains(content, "<!--#include") {
		return content
	}
	dir := filepath.Dir(file)

	return includeDirectiveRe.ReplaceAllStringFunc(content, func(directive string) string {
		attrs := includeDirectiveRe.FindStringSubmatch(directive)[1]
		m := includeAttrRe.FindStringSubmatch(attrs)
		if m == nil {
			res.warn(dmerrors.NewMalformedDirectiveError(directive).WithContext("file", file))
			return markerMalformed()
		}
		kind, ref := m[1], m[2]

		var target string
		var err error
		if kind == "virtual" {
			target, err = ResolveVirtual(ref, res.r.opts.SourceRoot)
		} else {
			target, err = ResolveRelative(ref, dir, res.r.opts.SourceRoot)
		}
		if err != nil {
			res.warn(asBuildError(err).WithContext("file", file))
			return markerSecurity(ref)
		}

		if !IncludeExtensionAllowed(target) {
			res.warn((&dmerrors.BuildError{
				Category: dmerrors.CategoryValidation,
				Severity: dmerrors.SeverityWarning,
				Message:  "include target has a disallowed extension: " + ref,
			}).WithContext("file", file))
			return markerUnsupportedType(ref)
		}

		if depth >= res.r.opts.MaxDepth {
			res.warn(dmerrors.NewDepthExceededError(ref, res.r.opts.MaxDepth).WithContext("file", file))
			return markerDepthExceeded(ref)
		}

		// Cycle detection happens before the file is read a second time.
		if ancestors.Has(target) {
			res.warn(dmerrors.NewCircularDependencyError(target).WithContext("file", file))
			return markerCircular(ref)
		}

		data, err := res.r.opts.Reader.ReadFile(target)
		if err != nil {
			res.warn(dmerrors.NewNotFoundError(ref, err).WithContext("file", file))
			return markerNotFound(ref)
		}

		// Edges are recorded from the top-level page at every depth, so
		// the reverse index carries the transitive closure directly.
		res.recordEdge(target, deps.KindInclude)

		next := ancestors.Clone()
		next.Add(target)
		expanded := res.expand(string(data), target, next, depth+1)

		if isMarkdownPath(target) {
			html, err := markdown.ConvertBody([]byte(expanded))
			if err != nil {
				// degrade to the raw fragment rather than dropping it
				res.warn(asBuildError(err).WithContext("file", target))
				return expanded
			}
			expanded = html
		}
		return expanded
	})
}

func isMarkdownPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// asBuildError normalizes an error into a *BuildError for the warning
// list.
func asBuildError(err error) *dmerrors.BuildError {
	if be, ok := err.(*dmerrors.BuildError); ok {
		return be
	}
	return dmerrors.WrapError(err, dmerrors.CategoryInternal, "resolution failure")
}

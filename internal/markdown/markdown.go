// Package markdown converts markdown sources to HTML and extracts
// frontmatter, titles, and excerpts. The produced HTML is handed to
// the resolve package exactly like any other page content.
package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"

	dmerrors "github.com/dompile/cli/internal/errors"
)

// Document is the result of converting one markdown source.
type Document struct {
	HTML        string
	FrontMatter map[string]any
	Title       string
	Excerpt     string
	Layout      string // frontmatter "layout" key, empty when unset
}

// WithUnsafe is required: include directives are HTML comments and
// must survive conversion verbatim.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(ghtml.WithUnsafe()),
)

var frontMatterDelim = []byte("---")

// Convert converts raw markdown (with optional YAML frontmatter) to a
// Document. name is used for title derivation when neither frontmatter
// nor a leading heading supplies one.
func Convert(raw []byte, name string) (*Document, error) {
	fm, body, err := SplitFrontMatter(raw)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return nil, dmerrors.WrapError(err, dmerrors.CategoryBuild, "markdown conversion failed")
	}

	doc := &Document{
		HTML:        buf.String(),
		FrontMatter: fm,
	}
	if v, ok := fm["layout"].(string); ok {
		doc.Layout = v
	}
	doc.Title = deriveTitle(fm, body, name)
	doc.Excerpt = deriveExcerpt(fm, body)
	return doc, nil
}

// ConvertBody converts a markdown fragment to HTML, ignoring any
// frontmatter block. Used for markdown include targets, whose
// frontmatter is metadata for the partial itself, not content.
func ConvertBody(raw []byte) (string, error) {
	_, body, err := SplitFrontMatter(raw)
	if err != nil {
		// A broken frontmatter block in a partial degrades to treating
		// the whole file as body.
		body = raw
	}
	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return "", dmerrors.WrapError(err, dmerrors.CategoryBuild, "markdown conversion failed")
	}
	return buf.String(), nil
}

// SplitFrontMatter separates a leading YAML frontmatter block
// (delimited by --- lines) from the markdown body. Content without a
// frontmatter block is returned unchanged with an empty map.
func SplitFrontMatter(raw []byte) (map[string]any, []byte, error) {
	fm := map[string]any{}
	trimmed := bytes.TrimPrefix(raw, []byte("\uFEFF"))
	if !bytes.HasPrefix(trimmed, frontMatterDelim) {
		return fm, raw, nil
	}

	rest := trimmed[len(frontMatterDelim):]
	// delimiter must be a full line
	if len(rest) > 0 && rest[0] != '\n' && rest[0] != '\r' {
		return fm, raw, nil
	}

	idx := bytes.Index(rest, []byte("\n---"))
	if idx < 0 {
		return fm, raw, nil
	}
	block := rest[:idx]
	body := rest[idx+len("\n---"):]
	if nl := bytes.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = nil
	}

	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil, nil, dmerrors.WrapError(err, dmerrors.CategoryValidation, "invalid frontmatter")
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return fm, body, nil
}

var leadingHeadingRe = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// deriveTitle resolves the page title: frontmatter, first H1, then the
// file name.
func deriveTitle(fm map[string]any, body []byte, name string) string {
	if v, ok := fm["title"].(string); ok && v != "" {
		return v
	}
	if m := leadingHeadingRe.FindSubmatch(body); m != nil {
		return strings.TrimSpace(string(m[1]))
	}
	return TitleFromName(name)
}

// TitleFromName converts a kebab or snake case file name to Title
// Case: getting-started -> Getting Started.
func TitleFromName(name string) string {
	base := strings.ReplaceAll(name, "_", "-")
	parts := strings.Split(base, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	return strings.Join(parts, " ")
}

// deriveExcerpt resolves the page excerpt: frontmatter description,
// else the first paragraph of body text with inline markup stripped.
func deriveExcerpt(fm map[string]any, body []byte) string {
	if v, ok := fm["description"].(string); ok && v != "" {
		return v
	}
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "<") {
			continue
		}
		line = strings.NewReplacer("**", "", "*", "", "`", "", "_", "").Replace(line)
		return line
	}
	return ""
}

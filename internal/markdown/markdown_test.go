package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertWithFrontMatter(t *testing.T) {
	raw := []byte(`---
title: Getting Started
layout: docs.html
description: How to begin.
---

# Getting Started

First paragraph here.
`)
	doc, err := Convert(raw, "getting-started")
	require.NoError(t, err)

	assert.Equal(t, "Getting Started", doc.Title)
	assert.Equal(t, "docs.html", doc.Layout)
	assert.Equal(t, "How to begin.", doc.Excerpt)
	assert.Contains(t, doc.HTML, "<h1")
	assert.Contains(t, doc.HTML, "First paragraph here.")
}

func TestConvertWithoutFrontMatter(t *testing.T) {
	doc, err := Convert([]byte("# Hello\n\nBody *text*.\n"), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", doc.Title)
	assert.Empty(t, doc.Layout)
	assert.Equal(t, "Body text.", doc.Excerpt)
}

func TestTitleFallsBackToFileName(t *testing.T) {
	doc, err := Convert([]byte("plain text only\n"), "release-notes")
	require.NoError(t, err)
	assert.Equal(t, "Release Notes", doc.Title)
}

func TestIncludeDirectivesSurviveConversion(t *testing.T) {
	raw := []byte("before\n\n<!--#include virtual=\"/nav.html\" -->\n\nafter\n")
	doc, err := Convert(raw, "page")
	require.NoError(t, err)
	assert.Contains(t, doc.HTML, `<!--#include virtual="/nav.html" -->`)
}

func TestSplitFrontMatterEdgeCases(t *testing.T) {
	t.Run("unterminated block is treated as body", func(t *testing.T) {
		fm, body, err := SplitFrontMatter([]byte("---\ntitle: x\nno terminator"))
		require.NoError(t, err)
		assert.Empty(t, fm)
		assert.Contains(t, string(body), "no terminator")
	})

	t.Run("invalid yaml is an error", func(t *testing.T) {
		_, _, err := SplitFrontMatter([]byte("---\ntitle: [broken\n---\nbody"))
		require.Error(t, err)
	})

	t.Run("horizontal rule mid-document is not frontmatter", func(t *testing.T) {
		fm, body, err := SplitFrontMatter([]byte("text\n\n---\n\nmore"))
		require.NoError(t, err)
		assert.Empty(t, fm)
		assert.Equal(t, "text\n\n---\n\nmore", string(body))
	})

	t.Run("leading byte-order mark is ignored", func(t *testing.T) {
		fm, body, err := SplitFrontMatter([]byte("\ufeff---\ntitle: BOM Page\n---\nbody text\n"))
		require.NoError(t, err)
		assert.Equal(t, "BOM Page", fm["title"])
		assert.Equal(t, "body text\n", string(body))
	})
}

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Getting Started", "getting-started"},
		{"Résumé", "resume"},
		{"Hello, World!", "hello-world"},
		{"already-slugged", "already-slugged"},
		{"file.name.html", "file.name.html"},
		{"  spaced  out  ", "spaced-out"},
		{"100% Done", "100-done"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), "Slugify(%q)", tc.in)
	}
}

package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreprocess_FrontmatterBecomesHeadAndLayoutRef(t *testing.T) {
	src := []byte(`---
title: Getting Started
description: the guide
layout: layouts/docs.html
author: team
---
# Hello

Some *text*.
`)

	page, err := Preprocess(src, "docs/start.md")
	require.NoError(t, err)

	require.Contains(t, page.HTML, `<html data-unify="layouts/docs.html">`)
	require.Contains(t, page.HTML, "<title>Getting Started</title>")
	require.Contains(t, page.HTML, `<meta name="description" content="the guide">`)
	require.Contains(t, page.HTML, `<meta name="author" content="team">`)
	require.Contains(t, page.HTML, "<h1>Hello</h1>")
	require.Contains(t, page.HTML, "<em>text</em>")
	require.Equal(t, "layouts/docs.html", page.Meta.Layout)
}

func TestPreprocess_NoFrontmatter_PlainPage(t *testing.T) {
	page, err := Preprocess([]byte("# Title\n"), "a.md")
	require.NoError(t, err)

	require.Contains(t, page.HTML, "<html>")
	require.NotContains(t, page.HTML, "data-unify")
	require.Contains(t, page.HTML, "<h1>Title</h1>")
}

func TestPreprocess_TitleEscaped(t *testing.T) {
	page, err := Preprocess([]byte("---\ntitle: a < b\n---\nx\n"), "a.md")
	require.NoError(t, err)
	require.Contains(t, page.HTML, "<title>a &lt; b</title>")
}

func TestPreprocess_BadFrontmatter_FailsWithSourcePath(t *testing.T) {
	_, err := Preprocess([]byte("---\ntitle: Home\nno closing\n"), "bad.md")
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad.md")
}

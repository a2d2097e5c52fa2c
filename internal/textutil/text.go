// Package textutil cleans resident-supplied text and renders descriptions
// for display.
package textutil

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	strict = bluemonday.StrictPolicy()
	ugc    = bluemonday.UGCPolicy()
	md     = goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
)

// Clean strips all markup and surrounding whitespace from a plain-text field.
func Clean(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// RenderDescription converts a markdown description to sanitised HTML.
func RenderDescription(s string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(s), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return ugc.Sanitize(buf.String()), nil
}

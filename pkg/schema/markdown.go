package schema

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in user content is dropped, goldmark's default.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderMarkdown converts markdown source to HTML.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// RenderRow fills the markdown target column of row when the source column is
// present. Rows of tables without markdown are left alone.
func (t *Table) RenderRow(row map[string]interface{}) error {
	if t.Markdown == nil {
		return nil
	}
	v, ok := row[t.Markdown.Source]
	if !ok {
		return nil
	}
	src, _ := v.(string)
	if v == nil {
		row[t.Markdown.Target] = nil
		return nil
	}
	out, err := RenderMarkdown(src)
	if err != nil {
		return err
	}
	row[t.Markdown.Target] = out
	return nil
}

package markdown

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

var engine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Strikethrough,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
	),
)

// Render converts GFM markdown to HTML. On parse failure the input is returned
// escaped rather than dropped.
func Render(markdownText string) string {
	if markdownText == "" {
		return ""
	}
	var out bytes.Buffer
	if err := engine.Convert([]byte(markdownText), &out); err != nil {
		return template.HTMLEscapeString(markdownText)
	}
	return out.String()
}

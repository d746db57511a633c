// Package htmltomarkdown converts post content to Markdown using
// html-to-markdown.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/postmap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Ensure Converter implements postmap.Converter at compile time.
var _ postmap.Converter = (*Converter)(nil)

// Converter wraps html-to-markdown to convert post content to Markdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms post content into Markdown. Empty content converts to
// an empty string.
func (c *Converter) Convert(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil
	}

	result, err := c.conv.ConvertString(WrapParagraphs(content))
	if err != nil {
		return "", err
	}

	return result, nil
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Ul: true, atom.Ol: true,
	atom.Li: true, atom.Dl: true, atom.Dt: true, atom.Dd: true, atom.Table: true,
	atom.Pre: true, atom.Blockquote: true, atom.Figure: true, atom.Figcaption: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Aside: true, atom.Nav: true, atom.Main: true, atom.Hr: true,
}

// WrapParagraphs wraps top-level text and inline elements in <p>, one
// paragraph per line, so values joined with newlines stay separate
// paragraphs. Block-level elements are kept whole, including any newlines
// inside them. Content that cannot be parsed is returned unchanged.
func WrapParagraphs(content string) string {
	nodes, err := html.ParseFragment(strings.NewReader(content), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return content
	}

	var out []string
	var para strings.Builder
	flush := func() {
		if text := strings.TrimSpace(para.String()); text != "" {
			out = append(out, "<p>"+text+"</p>")
		}
		para.Reset()
	}

	for _, n := range nodes {
		switch {
		case n.Type == html.TextNode:
			for i, line := range strings.Split(n.Data, "\n") {
				if i > 0 {
					flush()
				}
				para.WriteString(html.EscapeString(line))
			}
		case n.Type == html.ElementNode && blockElements[n.DataAtom]:
			flush()
			var b strings.Builder
			if err := html.Render(&b, n); err != nil {
				return content
			}
			out = append(out, b.String())
		default:
			if err := html.Render(&para, n); err != nil {
				return content
			}
		}
	}
	flush()

	return strings.Join(out, "\n")
}

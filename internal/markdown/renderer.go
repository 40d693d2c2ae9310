// Package markdown renders indexed markdown files to HTML with GFM extensions,
// syntax highlighting, and a table of contents.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// DefaultStyle is the chroma style used for fenced code blocks.
const DefaultStyle = "monokai"

// Heading is one table of contents entry.
type Heading struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// Document is a rendered markdown file.
type Document struct {
	HTML  string    `json:"html"`
	TOC   []Heading `json:"toc"`
	Title string    `json:"title"`
}

// Renderer converts markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a renderer highlighting code with the given chroma style.
func NewRenderer(style string) *Renderer {
	if style == "" {
		style = DefaultStyle
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	return &Renderer{md: md}
}

// Render parses source once and returns its HTML and headings. Heading
// anchors in the TOC match the id attributes in the HTML.
func (r *Renderer) Render(source []byte) (*Document, error) {
	pc := parser.NewContext(parser.WithIDs(newSlugIDs()))
	doc := r.md.Parser().Parse(text.NewReader(source), parser.WithContext(pc))

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, doc); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	toc := headings(doc, source)
	title := ""
	if len(toc) > 0 {
		title = toc[0].Title
	}

	return &Document{
		HTML:  buf.String(),
		TOC:   toc,
		Title: title,
	}, nil
}

func headings(doc ast.Node, source []byte) []Heading {
	toc := []Heading{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		anchor := ""
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				anchor = string(b)
			}
		}
		toc = append(toc, Heading{
			Level:  h.Level,
			Title:  plainText(h, source),
			Anchor: anchor,
		})
		return ast.WalkSkipChildren, nil
	})
	return toc
}

// plainText concatenates the text segments below n, dropping inline markup.
func plainText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			continue
		}
		buf.WriteString(plainText(child, source))
	}
	return buf.String()
}

var (
	anchorStrip    = regexp.MustCompile(`[^a-z0-9\-\p{Han}\p{Hiragana}\p{Katakana}]`)
	anchorHyphens  = regexp.MustCompile(`-+`)
	anchorFallback = "heading"
)

// generateAnchor creates a URL-safe anchor from heading text.
func generateAnchor(s string) string {
	anchor := strings.ToLower(s)
	anchor = strings.ReplaceAll(anchor, " ", "-")
	anchor = anchorStrip.ReplaceAllString(anchor, "")
	anchor = anchorHyphens.ReplaceAllString(anchor, "-")
	return strings.Trim(anchor, "-")
}

// slugIDs implements parser.IDs with generateAnchor, de-duplicating repeats
// within one document with a numeric suffix.
type slugIDs struct {
	seen map[string]bool
}

func newSlugIDs() *slugIDs {
	return &slugIDs{seen: make(map[string]bool)}
}

func (s *slugIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	base := generateAnchor(string(value))
	if base == "" {
		base = anchorFallback
	}
	id := base
	for i := 1; s.seen[id]; i++ {
		id = fmt.Sprintf("%s-%d", base, i)
	}
	s.seen[id] = true
	return []byte(id)
}

func (s *slugIDs) Put(value []byte) {
	s.seen[string(value)] = true
}

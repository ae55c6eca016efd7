package manuscript

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// MarkdownBuilder handles markdown manuscripts using goldmark.
//
// Structural vocabulary beyond plain markdown:
//   - `{#id}` heading attributes assign explicit anchors
//   - `<!-- toc -->` marks the TOC placeholder
//   - `<!-- break: editorial-blank -->` (and part-separator, chapter-end)
//     place deliberate page-break markers
//   - thematic breaks (`---`) become rule markers
type MarkdownBuilder struct{}

var (
	breakDirective = regexp.MustCompile(`<!--\s*break:\s*([a-z_-]+)\s*-->`)
	tocDirective   = regexp.MustCompile(`<!--\s*toc\s*-->`)
)

func (b *MarkdownBuilder) Build(r io.Reader, filename string) (*Tree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithParserOptions(gparser.WithAttribute()))
	doc := md.Parser().Parse(text.NewReader(src))

	tree := &Tree{Title: titleFromFilename(filename, ".md", ".markdown")}
	anchors := newAnchorAllocator()

	var bodyText bytes.Buffer
	flushBody := func() {
		t := strings.TrimSpace(bodyText.String())
		if t != "" {
			tree.Nodes = append(tree.Nodes, &Node{Kind: KindBody, Text: t})
		}
		bodyText.Reset()
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			flushBody()
			title := string(node.Text(src))
			anchor := ""
			if v, ok := node.AttributeString("id"); ok {
				if id, ok := v.([]byte); ok {
					anchor = anchors.Claim(string(id))
				}
			}
			if anchor == "" {
				anchor = anchors.Derive(title)
			}
			tree.Nodes = append(tree.Nodes, &Node{
				Kind:   KindHeading,
				Level:  node.Level,
				Anchor: anchor,
				Title:  title,
			})

		case *ast.ThematicBreak:
			flushBody()
			tree.Nodes = append(tree.Nodes, &Node{Kind: KindMarker, Marker: MarkerRule})

		case *ast.HTMLBlock:
			raw := rawBlockText(node, src)
			if tocDirective.MatchString(raw) {
				flushBody()
				tree.Nodes = append(tree.Nodes, &Node{Kind: KindTOC})
				continue
			}
			if m := breakDirective.FindStringSubmatch(raw); m != nil {
				if kind, ok := markerForToken(m[1]); ok {
					flushBody()
					tree.Nodes = append(tree.Nodes, &Node{Kind: KindMarker, Marker: kind})
					continue
				}
			}
			// Other raw HTML is ignored; the skeleton only tracks structure.

		default:
			t := inlineText(n, src)
			if t != "" {
				if bodyText.Len() > 0 {
					bodyText.WriteString("\n\n")
				}
				bodyText.WriteString(t)
			}
		}
	}
	flushBody()

	return tree, nil
}

// rawBlockText returns the raw source lines of a block node.
func rawBlockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return buf.String()
}

// inlineText gets the text content of a goldmark AST node.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(inlineText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}

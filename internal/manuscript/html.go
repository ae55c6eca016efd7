package manuscript

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLBuilder handles HTML manuscripts. Headings carry their anchors as id
// attributes; deliberate breaks are the editorial CSS classes the editor
// emits (editorial-break, part-separator, chapter-end); a <nav class="toc">
// element or a `<!-- toc -->` comment is the TOC placeholder.
type HTMLBuilder struct{}

func (b *HTMLBuilder) Build(r io.Reader, filename string) (*Tree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tree := &Tree{Title: titleFromFilename(filename, ".html", ".htm")}
	if title := findTitle(doc); title != "" {
		tree.Title = title
	}

	anchors := newAnchorAllocator()
	var bodyText strings.Builder

	flushBody := func() {
		t := strings.TrimSpace(bodyText.String())
		if t != "" {
			tree.Nodes = append(tree.Nodes, &Node{Kind: KindBody, Text: t})
		}
		bodyText.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.CommentNode {
			if tocDirective.MatchString("<!--" + n.Data + "-->") {
				flushBody()
				tree.Nodes = append(tree.Nodes, &Node{Kind: KindTOC})
				return
			}
			if m := breakDirective.FindStringSubmatch("<!--" + n.Data + "-->"); m != nil {
				if kind, ok := markerForToken(m[1]); ok {
					flushBody()
					tree.Nodes = append(tree.Nodes, &Node{Kind: KindMarker, Marker: kind})
				}
			}
			return
		}

		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				flushBody()
				title := textContent(n)
				anchor := attrValue(n, "id")
				if anchor != "" {
					anchor = anchors.Claim(anchor)
				} else {
					anchor = anchors.Derive(title)
				}
				tree.Nodes = append(tree.Nodes, &Node{
					Kind:   KindHeading,
					Level:  level,
					Anchor: anchor,
					Title:  title,
				})
				return
			}

			if n.Data == "hr" {
				flushBody()
				tree.Nodes = append(tree.Nodes, &Node{Kind: KindMarker, Marker: MarkerRule})
				return
			}

			if n.Data == "nav" && hasClass(n, "toc") {
				flushBody()
				tree.Nodes = append(tree.Nodes, &Node{Kind: KindTOC})
				return
			}

			if kind, ok := markerClass(n); ok {
				flushBody()
				tree.Nodes = append(tree.Nodes, &Node{Kind: KindMarker, Marker: kind})
				return
			}

			switch n.Data {
			case "script", "style", "footer", "header":
				return
			case "p", "li", "td", "blockquote":
				t := textContent(n)
				if t != "" {
					if bodyText.Len() > 0 {
						bodyText.WriteString("\n\n")
					}
					bodyText.WriteString(t)
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	body := findBody(doc)
	if body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	flushBody()

	return tree, nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

// markerClass maps the editor's break classes to marker kinds.
func markerClass(n *html.Node) (MarkerKind, bool) {
	switch {
	case hasClass(n, "editorial-break"):
		return MarkerEditorialBlank, true
	case hasClass(n, "part-separator"):
		return MarkerPartSeparator, true
	case hasClass(n, "chapter-end"):
		return MarkerChapterEnd, true
	}
	return "", false
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrValue(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			title = strings.TrimSpace(textContent(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

func findBody(doc *html.Node) *html.Node {
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return body
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

package manuscript

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXBuilder handles .docx manuscripts. Headings come from Word heading
// styles; a paragraph consisting solely of "[TOC]" is the TOC placeholder
// and one of "***" is a rule marker. Word manuscripts have no editorial
// break vocabulary, so deliberate page markers must be added in the editor.
type DOCXBuilder struct{}

func (b *DOCXBuilder) Build(r io.Reader, filename string) (*Tree, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "pageproof-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, int64(size))
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	tree := &Tree{Title: titleFromFilename(filename, ".docx")}
	anchors := newAnchorAllocator()
	var bodyText strings.Builder

	flushBody := func() {
		t := strings.TrimSpace(bodyText.String())
		if t != "" {
			tree.Nodes = append(tree.Nodes, &Node{Kind: KindBody, Text: t})
		}
		bodyText.Reset()
	}

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}

		level := docxHeadingLevel(para)
		text := docxParagraphText(para)

		switch {
		case level > 0 && text != "":
			flushBody()
			tree.Nodes = append(tree.Nodes, &Node{
				Kind:   KindHeading,
				Level:  level,
				Anchor: anchors.Derive(text),
				Title:  text,
			})
		case strings.EqualFold(text, "[TOC]"):
			flushBody()
			tree.Nodes = append(tree.Nodes, &Node{Kind: KindTOC})
		case text == "***":
			flushBody()
			tree.Nodes = append(tree.Nodes, &Node{Kind: KindMarker, Marker: MarkerRule})
		case text != "":
			if bodyText.Len() > 0 {
				bodyText.WriteString("\n\n")
			}
			bodyText.WriteString(text)
		}
	}
	flushBody()

	return tree, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := para.Properties.Style.Val
	for lvl := 1; lvl <= 6; lvl++ {
		if strings.EqualFold(style, fmt.Sprintf("Heading%d", lvl)) ||
			strings.EqualFold(style, fmt.Sprintf("heading %d", lvl)) {
			return lvl
		}
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

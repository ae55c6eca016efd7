package manuscript

import (
	"bufio"
	"io"
	"strings"
)

// TextBuilder handles plain text manuscripts. Paragraphs are separated by
// blank lines; a line of "***" or "---" on its own is a rule marker and a
// line of "[TOC]" is the TOC placeholder. Plain text has no headings.
type TextBuilder struct{}

func (b *TextBuilder) Build(r io.Reader, filename string) (*Tree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tree := &Tree{Title: titleFromFilename(filename, ".txt")}
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tree.Nodes = append(tree.Nodes, &Node{Kind: KindBody, Text: current.String()})
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case trimmed == "***" || trimmed == "---":
			flush()
			tree.Nodes = append(tree.Nodes, &Node{Kind: KindMarker, Marker: MarkerRule})
		case strings.EqualFold(trimmed, "[TOC]"):
			flush()
			tree.Nodes = append(tree.Nodes, &Node{Kind: KindTOC})
		default:
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tree, nil
}

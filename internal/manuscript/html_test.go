package manuscript

import (
	"strings"
	"testing"
)

func TestHTMLBuilder_FullDocument(t *testing.T) {
	input := `<!DOCTYPE html>
<html>
<head><title>The Long Winter</title></head>
<body>
<nav class="toc"></nav>
<h1 id="ch1">Chapter One</h1>
<p>First paragraph.</p>
<hr>
<p>After the scene break.</p>
<div class="editorial-break"></div>
<h1>Chapter Two</h1>
<h2 id="s1">A Section</h2>
<p>Section text.</p>
</body>
</html>`
	b := &HTMLBuilder{}
	tree, err := b.Build(strings.NewReader(input), "winter.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.Title != "The Long Winter" {
		t.Errorf("expected title from <title>, got %q", tree.Title)
	}
	if !tree.HasTOCPlaceholder() {
		t.Error("expected TOC placeholder from nav.toc")
	}

	headings := tree.Headings()
	if len(headings) != 3 {
		t.Fatalf("expected 3 headings, got %d", len(headings))
	}
	if headings[0].Anchor != "ch1" {
		t.Errorf("expected explicit anchor %q, got %q", "ch1", headings[0].Anchor)
	}
	if headings[1].Anchor != "chapter-two" {
		t.Errorf("expected derived anchor %q, got %q", "chapter-two", headings[1].Anchor)
	}
	if headings[2].Level != 2 || headings[2].Anchor != "s1" {
		t.Errorf("unexpected h2: %+v", headings[2])
	}

	if len(tree.MarkersOfKind(MarkerRule)) != 1 {
		t.Errorf("expected 1 rule marker from <hr>, got %d", len(tree.MarkersOfKind(MarkerRule)))
	}
	if len(tree.MarkersOfKind(MarkerEditorialBlank)) != 1 {
		t.Errorf("expected 1 editorial blank from div.editorial-break, got %d",
			len(tree.MarkersOfKind(MarkerEditorialBlank)))
	}
}

func TestHTMLBuilder_CommentDirectives(t *testing.T) {
	input := `<html><body>
<h1>One</h1>
<p>text</p>
<!-- break: chapter-end -->
<!-- toc -->
</body></html>`
	b := &HTMLBuilder{}
	tree, err := b.Build(strings.NewReader(input), "c.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.MarkersOfKind(MarkerChapterEnd)) != 1 {
		t.Errorf("expected chapter-end marker from comment directive")
	}
	if !tree.HasTOCPlaceholder() {
		t.Error("expected TOC placeholder from comment directive")
	}
}

func TestHTMLBuilder_SkipsScriptAndStyle(t *testing.T) {
	input := `<html><body>
<p>Real content.</p>
<script>var x = "not content";</script>
<style>p { margin: 0 }</style>
</body></html>`
	b := &HTMLBuilder{}
	tree, err := b.Build(strings.NewReader(input), "s.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, n := range tree.Nodes {
		if n.Kind == KindBody && strings.Contains(n.Text, "not content") {
			t.Errorf("script content leaked into body: %q", n.Text)
		}
	}
}

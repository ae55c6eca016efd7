package manuscript

import (
	"strings"
	"testing"
)

func buildMarkdown(t *testing.T, input, filename string) *Tree {
	t.Helper()
	b := &MarkdownBuilder{}
	tree, err := b.Build(strings.NewReader(input), filename)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tree
}

func TestMarkdownBuilder_HeadingHierarchy(t *testing.T) {
	input := `# The Voyage

Intro text.

## Departure

Departure content.

### The Harbor

Harbor content.

## Arrival

Arrival content.
`
	tree := buildMarkdown(t, input, "voyage.md")

	if tree.Title != "voyage" {
		t.Errorf("expected title %q, got %q", "voyage", tree.Title)
	}

	headings := tree.Headings()
	if len(headings) != 4 {
		t.Fatalf("expected 4 headings, got %d", len(headings))
	}

	wantLevels := []int{1, 2, 3, 2}
	wantTitles := []string{"The Voyage", "Departure", "The Harbor", "Arrival"}
	for i, h := range headings {
		if h.Level != wantLevels[i] {
			t.Errorf("heading %d: expected level %d, got %d", i, wantLevels[i], h.Level)
		}
		if h.Title != wantTitles[i] {
			t.Errorf("heading %d: expected title %q, got %q", i, wantTitles[i], h.Title)
		}
	}

	// Body text between headings is captured.
	if tree.Nodes[1].Kind != KindBody || !strings.Contains(tree.Nodes[1].Text, "Intro text.") {
		t.Errorf("expected body node after h1, got %+v", tree.Nodes[1])
	}
}

func TestMarkdownBuilder_ExplicitAnchors(t *testing.T) {
	input := `# Chapter One {#ch1}

Text.

## Section {#s1}

More text.
`
	tree := buildMarkdown(t, input, "book.md")
	headings := tree.Headings()
	if len(headings) != 2 {
		t.Fatalf("expected 2 headings, got %d", len(headings))
	}
	if headings[0].Anchor != "ch1" {
		t.Errorf("expected anchor %q, got %q", "ch1", headings[0].Anchor)
	}
	if headings[1].Anchor != "s1" {
		t.Errorf("expected anchor %q, got %q", "s1", headings[1].Anchor)
	}
}

func TestMarkdownBuilder_DerivedAnchorsDeduplicate(t *testing.T) {
	input := `# Notes

## Background

text

## Background

text

## Background

text
`
	tree := buildMarkdown(t, input, "notes.md")
	headings := tree.Headings()
	if len(headings) != 4 {
		t.Fatalf("expected 4 headings, got %d", len(headings))
	}
	want := []string{"notes", "background", "background-2", "background-3"}
	for i, h := range headings {
		if h.Anchor != want[i] {
			t.Errorf("heading %d: expected anchor %q, got %q", i, want[i], h.Anchor)
		}
	}
}

func TestMarkdownBuilder_DerivedAnchorsAreDeterministic(t *testing.T) {
	input := "# One\n\n## Same\n\ntext\n\n## Same\n\ntext\n"
	a := buildMarkdown(t, input, "a.md")
	b := buildMarkdown(t, input, "a.md")
	for i := range a.Headings() {
		if a.Headings()[i].Anchor != b.Headings()[i].Anchor {
			t.Errorf("heading %d: anchors differ between runs: %q vs %q",
				i, a.Headings()[i].Anchor, b.Headings()[i].Anchor)
		}
	}
}

func TestMarkdownBuilder_BreakDirectives(t *testing.T) {
	input := `# Part One

Ending text.

<!-- break: editorial-blank -->

# Part Two

<!-- break: part-separator -->

# Part Three

<!-- break: chapter-end -->
`
	tree := buildMarkdown(t, input, "parts.md")

	wantKinds := []MarkerKind{MarkerEditorialBlank, MarkerPartSeparator, MarkerChapterEnd}
	var got []MarkerKind
	for _, n := range tree.Nodes {
		if n.Kind == KindMarker {
			got = append(got, n.Marker)
		}
	}
	if len(got) != len(wantKinds) {
		t.Fatalf("expected %d markers, got %d", len(wantKinds), len(got))
	}
	for i := range wantKinds {
		if got[i] != wantKinds[i] {
			t.Errorf("marker %d: expected %q, got %q", i, wantKinds[i], got[i])
		}
	}
}

func TestMarkdownBuilder_TOCDirective(t *testing.T) {
	input := `# Title

<!-- toc -->

## First

text
`
	tree := buildMarkdown(t, input, "book.md")
	if !tree.HasTOCPlaceholder() {
		t.Fatal("expected TOC placeholder node")
	}
	if tree.Nodes[1].Kind != KindTOC {
		t.Errorf("expected TOC node right after the title, got %q", tree.Nodes[1].Kind)
	}
}

func TestMarkdownBuilder_ThematicBreakIsRuleMarker(t *testing.T) {
	input := `# Scene

First scene.

---

Second scene.
`
	tree := buildMarkdown(t, input, "scenes.md")
	rules := tree.MarkersOfKind(MarkerRule)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule marker, got %d", len(rules))
	}
}

func TestMarkdownBuilder_UnknownDirectiveIgnored(t *testing.T) {
	input := `# Title

<!-- break: coffee-break -->

text
`
	tree := buildMarkdown(t, input, "t.md")
	for _, n := range tree.Nodes {
		if n.Kind == KindMarker {
			t.Errorf("expected unknown directive to be ignored, got marker %q", n.Marker)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Chapter One", "chapter-one"},
		{"  The   End!  ", "the-end"},
		{"Déjà Vu", "d-j-vu"},
		{"---", ""},
		{"UPPER case", "upper-case"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}

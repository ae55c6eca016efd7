package manuscript

import (
	"fmt"
)

// Kind distinguishes the structural node types a manuscript can contain.
type Kind string

const (
	KindHeading Kind = "heading"
	KindBody    Kind = "body"
	KindMarker  Kind = "marker"
	KindTOC     Kind = "toc"
)

// MarkerKind names the deliberate structural markers an author can place.
type MarkerKind string

const (
	MarkerEditorialBlank MarkerKind = "editorial_blank"
	MarkerPartSeparator  MarkerKind = "part_separator"
	MarkerChapterEnd     MarkerKind = "chapter_end"
	// MarkerRule is a horizontal-rule scene break. It is never rendered as a
	// bare line; the stylesheet substitutes a decorative separator.
	MarkerRule MarkerKind = "rule"
)

// Node is one structural element of the manuscript skeleton, in document order.
type Node struct {
	Kind   Kind       `json:"kind"`
	Level  int        `json:"level,omitempty"`  // heading level, 1-based
	Anchor string     `json:"anchor,omitempty"` // stable heading identity
	Title  string     `json:"title,omitempty"`
	Text   string     `json:"text,omitempty"` // body content
	Marker MarkerKind `json:"marker,omitempty"`
}

// Tree is the structural skeleton of one manuscript. It is built once per
// render request and read-only afterwards.
type Tree struct {
	Title string  `json:"title"`
	Nodes []*Node `json:"nodes"`
}

// MalformedStructureError reports manuscript content the engine cannot
// render: a heading without a title, colliding anchors, or a missing TOC
// placeholder when a TOC was requested.
type MalformedStructureError struct {
	Reason string
	Anchor string
}

func (e *MalformedStructureError) Error() string {
	if e.Anchor != "" {
		return fmt.Sprintf("malformed manuscript: %s (anchor %q)", e.Reason, e.Anchor)
	}
	return "malformed manuscript: " + e.Reason
}

// ValidateOptions controls structural validation.
type ValidateOptions struct {
	// RequireTOC demands a TOC placeholder node somewhere in the manuscript.
	RequireTOC bool
}

// Validate checks the structural invariants: every heading has a non-empty
// title and a document-unique anchor, and a TOC placeholder exists when one
// is required.
func (t *Tree) Validate(opts ValidateOptions) error {
	seen := make(map[string]bool)
	hasTOC := false
	for i, n := range t.Nodes {
		switch n.Kind {
		case KindHeading:
			if n.Title == "" {
				return &MalformedStructureError{Reason: fmt.Sprintf("heading at position %d has no title", i), Anchor: n.Anchor}
			}
			if n.Anchor == "" {
				return &MalformedStructureError{Reason: fmt.Sprintf("heading %q has no anchor", n.Title)}
			}
			if n.Level < 1 {
				return &MalformedStructureError{Reason: fmt.Sprintf("heading %q has invalid level %d", n.Title, n.Level), Anchor: n.Anchor}
			}
			if seen[n.Anchor] {
				return &MalformedStructureError{Reason: "duplicate anchor", Anchor: n.Anchor}
			}
			seen[n.Anchor] = true
		case KindTOC:
			hasTOC = true
		}
	}
	if opts.RequireTOC && !hasTOC {
		return &MalformedStructureError{Reason: "table of contents requested but manuscript has no placeholder"}
	}
	return nil
}

// Headings returns all heading nodes in document order.
func (t *Tree) Headings() []*Node {
	var out []*Node
	for _, n := range t.Nodes {
		if n.Kind == KindHeading {
			out = append(out, n)
		}
	}
	return out
}

// MarkersOfKind returns all markers of the given kind in document order.
func (t *Tree) MarkersOfKind(kind MarkerKind) []*Node {
	var out []*Node
	for _, n := range t.Nodes {
		if n.Kind == KindMarker && n.Marker == kind {
			out = append(out, n)
		}
	}
	return out
}

// HasTOCPlaceholder reports whether the manuscript contains a TOC placeholder.
func (t *Tree) HasTOCPlaceholder() bool {
	for _, n := range t.Nodes {
		if n.Kind == KindTOC {
			return true
		}
	}
	return false
}

// markerForToken maps an author-written break token to a MarkerKind.
func markerForToken(token string) (MarkerKind, bool) {
	switch token {
	case "editorial-blank", "editorial_blank":
		return MarkerEditorialBlank, true
	case "part-separator", "part_separator":
		return MarkerPartSeparator, true
	case "chapter-end", "chapter_end":
		return MarkerChapterEnd, true
	}
	return "", false
}

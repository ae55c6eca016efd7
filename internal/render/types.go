package render

import (
	"github.com/mlarcher/pageproof/internal/manuscript"
)

// ElementKind identifies what kind of content element closed a page.
type ElementKind string

const (
	ElementNone      ElementKind = "none"
	ElementHeading   ElementKind = "heading"
	ElementParagraph ElementKind = "paragraph"
	ElementMarker    ElementKind = "marker"
	ElementSeparator ElementKind = "separator"
	ElementTOC       ElementKind = "toc"
)

// Page is one rendered page of a paginated artifact. Page indices are
// 1-based and stable within one artifact.
type Page struct {
	Index          int                   `json:"index"`
	AnchorsHere    []string              `json:"anchors_here,omitempty"`
	VisuallyEmpty  bool                  `json:"visually_empty"`
	Trailing       ElementKind           `json:"trailing"`
	TrailingAnchor string                `json:"trailing_anchor,omitempty"`
	TrailingMarker manuscript.MarkerKind `json:"trailing_marker,omitempty"`
	// RawRules counts horizontal rules rendered as bare visible lines on
	// this page (zero when the rule-suppression substitute is active).
	RawRules int `json:"raw_rules,omitempty"`
}

// Artifact is the result of one rendering pass. It is owned by the pass
// that produced it and only ever inspected, never mutated.
type Artifact struct {
	Pages []Page `json:"pages"`
}

// PageCount returns the number of rendered pages.
func (a *Artifact) PageCount() int {
	return len(a.Pages)
}

// PageOf returns the 1-based page on which the given anchor starts.
func (a *Artifact) PageOf(anchor string) (int, bool) {
	for _, p := range a.Pages {
		for _, an := range p.AnchorsHere {
			if an == anchor {
				return p.Index, true
			}
		}
	}
	return 0, false
}

// AnchorPages returns the full anchor to page mapping for the artifact.
func (a *Artifact) AnchorPages() map[string]int {
	m := make(map[string]int)
	for _, p := range a.Pages {
		for _, an := range p.AnchorsHere {
			if _, seen := m[an]; !seen {
				m[an] = p.Index
			}
		}
	}
	return m
}

// TOCLine is one TOC entry as submitted for rendering. PageLabel is a
// fixed-width placeholder in pass 1 and the real page number in pass 2.
type TOCLine struct {
	Anchor    string `json:"anchor"`
	Title     string `json:"title"`
	Level     int    `json:"level"`
	PageLabel string `json:"page_label"`
}

// TOCContent is the rendered-TOC block substituted at the manuscript's
// placeholder position.
type TOCContent struct {
	Style   string    `json:"style"`
	Entries []TOCLine `json:"entries"`
}

// Input is one rendering submission: the manuscript skeleton, the TOC block
// to substitute at the placeholder (nil when no TOC is requested), and the
// composed stylesheet.
type Input struct {
	Tree *manuscript.Tree `json:"tree"`
	TOC  *TOCContent      `json:"toc,omitempty"`
	CSS  string           `json:"css"`
}

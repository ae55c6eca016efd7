package resolve

import (
	"strconv"

	"github.com/mlarcher/pageproof/internal/manuscript"
	"github.com/mlarcher/pageproof/internal/render"
	"github.com/mlarcher/pageproof/internal/stylesheet"
)

// placeholderLabel stands in for every page number during pass 1. It is
// fixed-width so the placeholder TOC paginates like the resolved one.
const placeholderLabel = "000"

// Entry is one resolved TOC entry. Page is zero until pass 1 completes and
// is set exactly once per render cycle.
type Entry struct {
	Anchor string `json:"anchor"`
	Title  string `json:"title"`
	Level  int    `json:"level"`
	Page   int    `json:"page"`
}

// buildEntries derives TOC entries from the manuscript in document order,
// filtered to headings at or above the configured depth. Document order is
// authoritative: even when two anchors land on the same page, entries keep
// manuscript order.
func buildEntries(tree *manuscript.Tree, depth int) []Entry {
	var entries []Entry
	for _, h := range tree.Headings() {
		if h.Level > depth {
			continue
		}
		entries = append(entries, Entry{
			Anchor: h.Anchor,
			Title:  h.Title,
			Level:  h.Level,
		})
	}
	return entries
}

// tocContent renders entries into the block submitted to the oracle.
// Unresolved entries (Page == 0) get the fixed-width placeholder.
func tocContent(style stylesheet.TOCStyle, entries []Entry) *render.TOCContent {
	lines := make([]render.TOCLine, len(entries))
	for i, e := range entries {
		lines[i] = render.TOCLine{
			Anchor:    e.Anchor,
			Title:     e.Title,
			Level:     e.Level,
			PageLabel: pageLabel(style, e.Page),
		}
	}
	return &render.TOCContent{Style: string(style), Entries: lines}
}

func pageLabel(style stylesheet.TOCStyle, page int) string {
	if style == stylesheet.TOCSimple {
		return ""
	}
	if page == 0 {
		return placeholderLabel
	}
	return strconv.Itoa(page)
}

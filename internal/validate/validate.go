package validate

import (
	"fmt"
	"strings"

	"github.com/mlarcher/pageproof/internal/manuscript"
	"github.com/mlarcher/pageproof/internal/render"
	"github.com/mlarcher/pageproof/internal/resolve"
	"github.com/mlarcher/pageproof/internal/stylesheet"
)

// Minimum hyphenation thresholds below which justified text is prone to
// rivers. Matches the quality floor of the book stylesheet set.
const (
	minHyphenChars = 5
	minHyphenLeft  = 3
	minHyphenRight = 2
)

// Run evaluates the six structural invariants against a finished artifact.
// Checks are independent and never short-circuit one another.
func Run(tree *manuscript.Tree, artifact *render.Artifact, sheet stylesheet.Stylesheet, entries []resolve.Entry) Report {
	return Report{
		Results: map[CheckID]CheckResult{
			CheckBlankPages:      checkBlankPages(artifact),
			CheckTextRivers:      checkTextRivers(sheet),
			CheckTOCSync:         checkTOCSync(artifact, entries),
			CheckHierarchy:       checkHierarchy(tree, artifact),
			CheckRuleSuppression: checkRuleSuppression(artifact, sheet),
			CheckOrphanTitles:    checkOrphanTitles(artifact),
		},
	}
}

// checkBlankPages verifies that every visually empty page immediately
// follows a deliberate break marker. Anything else is a parasite.
func checkBlankPages(artifact *render.Artifact) CheckResult {
	var parasites []string
	for i, p := range artifact.Pages {
		if !p.VisuallyEmpty {
			continue
		}
		if i > 0 && deliberateBreak(artifact.Pages[i-1]) {
			continue
		}
		if len(artifact.Pages) == 1 {
			// An empty manuscript renders one empty page; nothing parasitic.
			continue
		}
		parasites = append(parasites, fmt.Sprintf("page %d", p.Index))
	}
	if len(parasites) > 0 {
		return fail("parasitic blank " + strings.Join(parasites, ", ") + ": no preceding editorial marker")
	}
	return pass()
}

func deliberateBreak(p render.Page) bool {
	if p.Trailing != render.ElementMarker {
		return false
	}
	switch p.TrailingMarker {
	case manuscript.MarkerEditorialBlank, manuscript.MarkerPartSeparator, manuscript.MarkerChapterEnd:
		return true
	}
	return false
}

// checkTextRivers is a delegated proxy check: river detection in rendered
// glyphs is the renderer's concern, so the invariant here is that the
// hyphenation module is active with thresholds strict enough to keep
// justified spacing under control.
func checkTextRivers(sheet stylesheet.Stylesheet) CheckResult {
	if !sheet.HasModule(stylesheet.ModHyphenation) {
		return fail("hyphenation module absent from composed stylesheet")
	}
	h := sheet.Hyphenation
	if !h.Enabled {
		return fail("hyphenation disabled: justified text is prone to rivers")
	}
	if h.MinChars < minHyphenChars || h.MinLeft < minHyphenLeft || h.MinRight < minHyphenRight {
		return fail(fmt.Sprintf("hyphenation thresholds %d %d %d below the quality floor %d %d %d",
			h.MinChars, h.MinLeft, h.MinRight, minHyphenChars, minHyphenLeft, minHyphenRight))
	}
	return pass()
}

// checkTOCSync verifies that every TOC entry's declared page equals the
// anchor's actual starting page in the finished artifact.
func checkTOCSync(artifact *render.Artifact, entries []resolve.Entry) CheckResult {
	var mismatches []string
	for _, e := range entries {
		actual, ok := artifact.PageOf(e.Anchor)
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("anchor %q missing from artifact", e.Anchor))
			continue
		}
		if actual != e.Page {
			mismatches = append(mismatches, fmt.Sprintf("anchor %q declares page %d but starts on page %d", e.Anchor, e.Page, actual))
		}
	}
	if len(mismatches) > 0 {
		return fail(strings.Join(mismatches, "; "))
	}
	return pass()
}

// checkHierarchy verifies heading counters: a level-n counter resets when a
// lower level occurs before it and increments by exactly one otherwise.
// Skipped levels and artifact page order contradicting document order both
// break the numbering contract.
func checkHierarchy(tree *manuscript.Tree, artifact *render.Artifact) CheckResult {
	prevLevel := 0
	prevPage := 0
	for _, h := range tree.Headings() {
		if h.Level > prevLevel+1 {
			return fail(fmt.Sprintf("anchor %q skips from level %d to level %d: counter would increment from nothing", h.Anchor, prevLevel, h.Level))
		}
		prevLevel = h.Level

		if page, ok := artifact.PageOf(h.Anchor); ok {
			if page < prevPage {
				return fail(fmt.Sprintf("anchor %q on page %d renders before its predecessor on page %d", h.Anchor, page, prevPage))
			}
			prevPage = page
		}
	}
	return pass()
}

// HierarchyNumbers computes the displayed counter string for every heading
// in document order (1, 1.1, 2, 2.1, ...).
func HierarchyNumbers(tree *manuscript.Tree) []string {
	var counters []int
	var out []string
	for _, h := range tree.Headings() {
		if h.Level > len(counters) {
			for len(counters) < h.Level {
				counters = append(counters, 0)
			}
		} else {
			counters = counters[:h.Level]
		}
		counters[h.Level-1]++

		parts := make([]string, len(counters))
		for i, c := range counters {
			parts[i] = fmt.Sprintf("%d", c)
		}
		out = append(out, strings.Join(parts, "."))
	}
	return out
}

// checkRuleSuppression verifies that no horizontal rule rendered as a bare
// visible line: the module must be composed in and every page clean.
func checkRuleSuppression(artifact *render.Artifact, sheet stylesheet.Stylesheet) CheckResult {
	if !sheet.HasModule(stylesheet.ModRuleSuppression) {
		return fail("rule suppression module absent from composed stylesheet")
	}
	var dirty []string
	for _, p := range artifact.Pages {
		if p.RawRules > 0 {
			dirty = append(dirty, fmt.Sprintf("page %d (%d bare rule(s))", p.Index, p.RawRules))
		}
	}
	if len(dirty) > 0 {
		return fail("bare horizontal rules rendered on " + strings.Join(dirty, ", "))
	}
	return pass()
}

// checkOrphanTitles verifies that no heading is the last rendered element
// on a page, unless that page is immediately followed by a deliberate
// marker page.
func checkOrphanTitles(artifact *render.Artifact) CheckResult {
	var orphans []string
	for i, p := range artifact.Pages {
		if p.Trailing != render.ElementHeading {
			continue
		}
		if i+1 < len(artifact.Pages) && artifact.Pages[i+1].VisuallyEmpty {
			continue
		}
		orphans = append(orphans, fmt.Sprintf("page %d anchor %q", p.Index, p.TrailingAnchor))
	}
	if len(orphans) > 0 {
		return fail("orphan heading on " + strings.Join(orphans, ", ") + ": no content follows on the page")
	}
	return pass()
}

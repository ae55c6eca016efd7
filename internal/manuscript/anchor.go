package manuscript

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]`)
	dashRuns     = regexp.MustCompile(`-+`)
)

// Slugify converts a heading title to an anchor-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = dashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// anchorAllocator hands out document-unique anchors. Explicit anchors
// (author-assigned ids) always win; derived anchors are slugs of the title,
// deduplicated with a deterministic numeric suffix so the same source always
// yields the same anchors.
type anchorAllocator struct {
	used map[string]int
}

func newAnchorAllocator() *anchorAllocator {
	return &anchorAllocator{used: make(map[string]int)}
}

// Claim registers an explicit anchor verbatim. Duplicates are left in place
// and surface later through Tree.Validate.
func (a *anchorAllocator) Claim(anchor string) string {
	a.used[anchor]++
	return anchor
}

// Derive produces an anchor from a title, appending -2, -3, ... on collision.
func (a *anchorAllocator) Derive(title string) string {
	slug := Slugify(title)
	if slug == "" {
		slug = "section"
	}
	n := a.used[slug]
	a.used[slug] = n + 1
	if n == 0 {
		return slug
	}
	candidate := fmt.Sprintf("%s-%d", slug, n+1)
	for a.used[candidate] > 0 {
		n++
		candidate = fmt.Sprintf("%s-%d", slug, n+1)
	}
	a.used[candidate]++
	return candidate
}

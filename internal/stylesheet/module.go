package stylesheet

import "strings"

// Prop is a single CSS declaration.
type Prop struct {
	Key   string
	Value string
}

// Rule is an ordered block of declarations for a selector. Raw, when set,
// is emitted verbatim (used for at-rules with nested blocks).
type Rule struct {
	Selector string
	Props    []Prop
	Raw      string
}

// Module is a named, immutable bundle of layout rules. Structural modules
// encode the pagination correctness invariants and are never overridable.
type Module struct {
	Name        string
	Overridable bool
	Rules       []Rule
}

// Fixed module names, applied in this order.
const (
	ModPagination      = "pagination"
	ModTypography      = "typography"
	ModHyphenation     = "hyphenation"
	ModHierarchy       = "hierarchy_numbering"
	ModBlankPages      = "blank_page_handling"
	ModRuleSuppression = "rule_suppression"
	ModWidowOrphan     = "widow_orphan_protection"
	ModTOCLayout       = "toc_layout"
)

// moduleOrder is the fixed emission order of the base module set.
var moduleOrder = []string{
	ModPagination,
	ModTypography,
	ModHyphenation,
	ModHierarchy,
	ModBlankPages,
	ModRuleSuppression,
	ModWidowOrphan,
	ModTOCLayout,
}

// baseModules returns a fresh copy of the base module set (book trim
// 156x234mm, serif body, protective structural rules).
func baseModules() map[string]Module {
	return map[string]Module{
		ModPagination: {
			Name:        ModPagination,
			Overridable: true,
			Rules: []Rule{
				{Raw: "@page{size:156mm 234mm;margin:20mm 15mm;@bottom-center{content:counter(page);font-size:10pt;color:#666}}"},
				{Selector: "*", Props: []Prop{{"box-sizing", "border-box"}}},
				{Selector: "html,body", Props: []Prop{{"margin", "0"}, {"padding", "0"}}},
			},
		},
		ModTypography: {
			Name:        ModTypography,
			Overridable: true,
			Rules: []Rule{
				{Selector: "body", Props: []Prop{
					{"font-family", "Georgia, serif"},
					{"font-size", "12pt"},
					{"line-height", "1.6"},
					{"text-align", "justify"},
					{"word-spacing", "0.16em"},
					{"letter-spacing", "0.01em"},
					{"color", "#2c3e50"},
				}},
				{Selector: "p", Props: []Prop{
					{"text-indent", "1.2em"},
					{"margin", "0 0 0.8em 0"},
					{"text-justify", "inter-word"},
				}},
				{Selector: "p.first-paragraph", Props: []Prop{{"text-indent", "0"}}},
			},
		},
		ModHyphenation: {
			Name:        ModHyphenation,
			Overridable: true,
			Rules: []Rule{
				{Selector: "body", Props: []Prop{
					{"hyphens", "auto"},
					{"hyphenate-language", `"fr"`},
					{"hyphenate-limit-chars", "6 3 3"},
					{"hyphenate-limit-lines", "2"},
					{"hyphenate-limit-zone", "3em"},
				}},
			},
		},
		ModHierarchy: {
			Name: ModHierarchy,
			Rules: []Rule{
				{Selector: "body", Props: []Prop{{"counter-reset", "chapter section subsection"}}},
				{Selector: "h1", Props: []Prop{{"counter-increment", "chapter"}, {"counter-reset", "section subsection"}}},
				{Selector: "h1::before", Props: []Prop{{"content", `counter(chapter) " "`}, {"font-weight", "normal"}}},
				{Selector: "h2", Props: []Prop{{"counter-increment", "section"}, {"counter-reset", "subsection"}}},
				{Selector: "h2::before", Props: []Prop{{"content", `counter(chapter) "." counter(section) " "`}, {"font-weight", "normal"}}},
				{Selector: "h3", Props: []Prop{{"counter-increment", "subsection"}}},
				{Selector: "h3::before", Props: []Prop{{"content", `counter(chapter) "." counter(section) "." counter(subsection) " "`}, {"font-weight", "normal"}}},
			},
		},
		ModBlankPages: {
			Name: ModBlankPages,
			Rules: []Rule{
				{Selector: ".chapter-end", Props: []Prop{{"page-break-after", "right"}}},
				{Selector: ".part-separator", Props: []Prop{{"page-break-before", "right"}, {"page-break-after", "always"}}},
				{Selector: ".editorial-break", Props: []Prop{{"page-break-after", "right"}}},
			},
		},
		ModRuleSuppression: {
			Name: ModRuleSuppression,
			Rules: []Rule{
				{Selector: "hr", Props: []Prop{{"display", "none"}}},
				{Selector: ".scene-separator", Props: []Prop{{"border", "none"}, {"margin", "3em 0"}, {"text-align", "center"}}},
				{Selector: ".scene-separator::after", Props: []Prop{{"content", `"* * *"`}, {"font-size", "18pt"}, {"color", "#666"}, {"display", "block"}}},
			},
		},
		ModWidowOrphan: {
			Name: ModWidowOrphan,
			Rules: []Rule{
				{Selector: "h1,h2,h3,h4,h5,h6", Props: []Prop{
					{"page-break-after", "avoid"},
					{"page-break-inside", "avoid"},
					{"orphans", "4"},
					{"widows", "4"},
					{"min-height", "2.5em"},
				}},
				{Selector: "p", Props: []Prop{{"orphans", "4"}, {"widows", "4"}}},
				{Selector: "img,table,pre,blockquote", Props: []Prop{{"page-break-inside", "avoid"}, {"max-width", "100%"}}},
			},
		},
		ModTOCLayout: {
			Name:        ModTOCLayout,
			Overridable: true,
			Rules: []Rule{
				{Selector: ".table-of-contents", Props: []Prop{{"page-break-before", "always"}, {"page-break-after", "always"}}},
				{Selector: ".toc-entry", Props: []Prop{
					{"display", "flex"},
					{"justify-content", "space-between"},
					{"align-items", "baseline"},
					{"margin-bottom", "0.6em"},
					{"page-break-inside", "avoid"},
				}},
				{Selector: ".toc-title", Props: []Prop{{"flex", "1"}, {"padding-right", "1em"}, {"overflow", "hidden"}}},
				{Selector: ".toc-dots", Props: []Prop{
					{"flex", "0 1 auto"},
					{"border-bottom", "1px dotted #999"},
					{"margin", "0 0.3em"},
					{"min-width", "2em"},
					{"height", "1px"},
				}},
				{Selector: ".toc-page", Props: []Prop{
					{"flex", "0 0 auto"},
					{"font-weight", "bold"},
					{"min-width", "2em"},
					{"text-align", "right"},
				}},
			},
		},
	}
}

// render emits the module's rules as CSS text, in declaration order.
func (m Module) render(sb *strings.Builder) {
	for _, r := range m.Rules {
		if r.Raw != "" {
			sb.WriteString(r.Raw)
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(r.Selector)
		sb.WriteString("{")
		for i, p := range r.Props {
			if i > 0 {
				sb.WriteString(";")
			}
			sb.WriteString(p.Key)
			sb.WriteString(":")
			sb.WriteString(p.Value)
		}
		sb.WriteString("}\n")
	}
}

// clone returns a deep copy so override application never mutates the base set.
func (m Module) clone() Module {
	out := m
	out.Rules = make([]Rule, len(m.Rules))
	for i, r := range m.Rules {
		nr := r
		nr.Props = append([]Prop(nil), r.Props...)
		out.Rules[i] = nr
	}
	return out
}

package stylesheet

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tdewolff/minify/v2"
	mincss "github.com/tdewolff/minify/v2/css"
)

// TOCStyle selects how TOC entries are rendered.
type TOCStyle string

const (
	TOCSimple  TOCStyle = "simple"  // title only
	TOCDots    TOCStyle = "dots"    // title + leader dots + page number
	TOCAligned TOCStyle = "aligned" // title + right-flush page number
)

// TOCPosition selects where the TOC placeholder is expected.
type TOCPosition string

const (
	TOCFront TOCPosition = "front"
	TOCBack  TOCPosition = "back"
)

// TOCOptions is the resolved TOC configuration carried by a composed
// stylesheet for the resolver to consume.
type TOCOptions struct {
	Style    TOCStyle    `json:"style"`
	Depth    int         `json:"depth"`
	Position TOCPosition `json:"position"`
}

// Hyphenation is the justification-quality parameter set, extracted from the
// composed hyphenation module for validator inspection.
type Hyphenation struct {
	Enabled  bool   `json:"enabled"`
	Language string `json:"language"`
	MinChars int    `json:"min_chars"`
	MinLeft  int    `json:"min_left"`
	MinRight int    `json:"min_right"`
}

// Overrides are the user-level scalar adjustments applied last during
// composition. Modules maps module name to declaration overrides and is
// only honored for modules that declare themselves overridable.
type Overrides struct {
	FontFamily  string                       `json:"font_family,omitempty"`
	FontSize    string                       `json:"font_size,omitempty"`
	LineHeight  string                       `json:"line_height,omitempty"`
	TOCStyle    TOCStyle                     `json:"toc_style,omitempty"`
	TOCDepth    int                          `json:"toc_depth,omitempty"`
	TOCPosition TOCPosition                  `json:"toc_position,omitempty"`
	Modules     map[string]map[string]string `json:"modules,omitempty"`
}

// Stylesheet is the immutable result of one composition. Same inputs always
// produce a byte-identical CSS payload.
type Stylesheet struct {
	Key            string      `json:"key"`
	Specialization string      `json:"specialization"`
	CSS            string      `json:"css"`
	Modules        []string    `json:"modules"`
	Hyphenation    Hyphenation `json:"hyphenation"`
	TOC            TOCOptions  `json:"toc"`
}

// HasModule reports whether a named module was part of the composition.
func (s Stylesheet) HasModule(name string) bool {
	for _, m := range s.Modules {
		if m == name {
			return true
		}
	}
	return false
}

// UnknownSpecializationError reports a specialization name outside the
// registered set.
type UnknownSpecializationError struct {
	Name string
}

func (e *UnknownSpecializationError) Error() string {
	return fmt.Sprintf("unknown template specialization %q", e.Name)
}

// UnknownOverrideError reports an override that references a module or
// declaration the base set does not define.
type UnknownOverrideError struct {
	Module string
	Prop   string
}

func (e *UnknownOverrideError) Error() string {
	if e.Prop != "" {
		return fmt.Sprintf("unknown override: module %q has no declaration %q", e.Module, e.Prop)
	}
	return fmt.Sprintf("unknown override: no module %q", e.Module)
}

// ModuleNotOverridableError reports an attempt to override a structural
// module that encodes a correctness invariant.
type ModuleNotOverridableError struct {
	Module string
}

func (e *ModuleNotOverridableError) Error() string {
	return fmt.Sprintf("module %q is structural and cannot be overridden", e.Module)
}

// specializations holds the registered module replacements. Replacement is
// whole-module substitution, never rule-level merging.
var specializations = map[string]map[string]Module{
	"roman": {
		ModTypography: {
			Name:        ModTypography,
			Overridable: true,
			Rules: []Rule{
				{Selector: "body", Props: []Prop{
					{"font-family", "'Crimson Text', Georgia, serif"},
					{"font-size", "11pt"},
					{"line-height", "1.7"},
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
				{Selector: "h1", Props: []Prop{
					{"font-size", "24pt"},
					{"font-weight", "600"},
					{"text-align", "center"},
					{"text-transform", "uppercase"},
					{"letter-spacing", "2px"},
					{"margin", "60mm 0 30mm 0"},
				}},
				{Selector: "h2", Props: []Prop{{"font-size", "18pt"}, {"font-weight", "600"}, {"margin", "25mm 0 15mm 0"}}},
				{Selector: "h3", Props: []Prop{{"font-size", "14pt"}, {"font-weight", "600"}, {"margin", "20mm 0 10mm 0"}}},
			},
		},
	},
	"technical": {
		ModPagination: {
			Name:        ModPagination,
			Overridable: true,
			Rules: []Rule{
				{Raw: "@page{size:156mm 234mm;margin:18mm 12mm;@bottom-center{content:counter(page);font-size:10pt;color:#666}}"},
				{Selector: "*", Props: []Prop{{"box-sizing", "border-box"}}},
				{Selector: "html,body", Props: []Prop{{"margin", "0"}, {"padding", "0"}}},
			},
		},
		ModTypography: {
			Name:        ModTypography,
			Overridable: true,
			Rules: []Rule{
				{Selector: "body", Props: []Prop{
					{"font-family", "'Source Sans Pro', Arial, sans-serif"},
					{"font-size", "10.5pt"},
					{"line-height", "1.4"},
					{"text-align", "left"},
					{"color", "#2c3e50"},
				}},
				{Selector: "p", Props: []Prop{{"text-indent", "0"}, {"margin", "0 0 0.6em 0"}}},
				{Selector: "h1", Props: []Prop{
					{"font-size", "20pt"},
					{"font-weight", "700"},
					{"margin", "40mm 0 20mm 0"},
					{"border-bottom", "2px solid #3498db"},
				}},
				{Selector: "h2", Props: []Prop{{"font-size", "16pt"}, {"font-weight", "600"}, {"color", "#2980b9"}, {"margin", "20mm 0 10mm 0"}}},
				{Selector: "pre,code", Props: []Prop{{"font-family", "'Fira Code', monospace"}, {"background-color", "#f8f9fa"}}},
			},
		},
	},
	"academic": {
		ModPagination: {
			Name:        ModPagination,
			Overridable: true,
			Rules: []Rule{
				{Raw: "@page{size:156mm 234mm;margin:25mm 25mm;@bottom-center{content:counter(page);font-size:10pt;color:#666}}"},
				{Selector: "*", Props: []Prop{{"box-sizing", "border-box"}}},
				{Selector: "html,body", Props: []Prop{{"margin", "0"}, {"padding", "0"}}},
			},
		},
		ModTypography: {
			Name:        ModTypography,
			Overridable: true,
			Rules: []Rule{
				{Selector: "body", Props: []Prop{
					{"font-family", "'Times New Roman', serif"},
					{"font-size", "12pt"},
					{"line-height", "2.0"},
					{"text-align", "justify"},
					{"color", "#000"},
				}},
				{Selector: "p", Props: []Prop{{"text-indent", "0.5in"}, {"margin", "0"}}},
				{Selector: "h1", Props: []Prop{{"font-size", "16pt"}, {"font-weight", "bold"}, {"text-align", "center"}, {"margin", "24pt 0 12pt 0"}}},
				{Selector: "h2", Props: []Prop{{"font-size", "14pt"}, {"font-weight", "bold"}, {"margin", "18pt 0 6pt 0"}}},
			},
		},
	},
}

// Specializations returns the registered specialization names, sorted.
func Specializations() []string {
	names := make([]string, 0, len(specializations))
	for name := range specializations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// scalar override sugar, mapped onto the typography module.
var scalarProps = map[string]string{
	"font_family": "font-family",
	"font_size":   "font-size",
	"line_height": "line-height",
}

// Compose builds the final stylesheet for (specialization, overrides).
// Precedence is fixed: base modules, then the specialization's whole-module
// replacements, then scalar user overrides on overridable modules only.
func Compose(specialization string, ov Overrides) (Stylesheet, error) {
	repl, ok := specializations[specialization]
	if !ok {
		return Stylesheet{}, &UnknownSpecializationError{Name: specialization}
	}

	modules := baseModules()
	for name, m := range repl {
		modules[name] = m
	}

	// Fold scalar sugar into module-level overrides.
	effective := make(map[string]map[string]string)
	for name, props := range ov.Modules {
		pm := make(map[string]string, len(props))
		for k, v := range props {
			pm[k] = v
		}
		effective[name] = pm
	}
	addScalar := func(key, value string) {
		if value == "" {
			return
		}
		if effective[ModTypography] == nil {
			effective[ModTypography] = make(map[string]string)
		}
		effective[ModTypography][scalarProps[key]] = value
	}
	addScalar("font_family", ov.FontFamily)
	addScalar("font_size", ov.FontSize)
	addScalar("line_height", ov.LineHeight)

	// Deterministic application order.
	overridden := make([]string, 0, len(effective))
	for name := range effective {
		overridden = append(overridden, name)
	}
	sort.Strings(overridden)

	for _, name := range overridden {
		mod, ok := modules[name]
		if !ok {
			return Stylesheet{}, &UnknownOverrideError{Module: name}
		}
		if !mod.Overridable {
			return Stylesheet{}, &ModuleNotOverridableError{Module: name}
		}
		mod = mod.clone()
		props := effective[name]
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if !setProp(&mod, key, props[key]) {
				return Stylesheet{}, &UnknownOverrideError{Module: name, Prop: key}
			}
		}
		modules[name] = mod
	}

	toc := TOCOptions{Style: TOCDots, Depth: 3, Position: TOCFront}
	if ov.TOCStyle != "" {
		toc.Style = ov.TOCStyle
	}
	if ov.TOCDepth > 0 {
		toc.Depth = ov.TOCDepth
	}
	if ov.TOCPosition != "" {
		toc.Position = ov.TOCPosition
	}
	modules[ModTOCLayout] = applyTOCStyle(modules[ModTOCLayout], toc.Style)

	var raw strings.Builder
	names := make([]string, 0, len(moduleOrder))
	for _, name := range moduleOrder {
		modules[name].render(&raw)
		names = append(names, name)
	}

	m := minify.New()
	m.AddFunc("text/css", mincss.Minify)
	minified, err := m.String("text/css", raw.String())
	if err != nil {
		return Stylesheet{}, fmt.Errorf("minify stylesheet: %w", err)
	}

	return Stylesheet{
		Key:            compositionKey(specialization, ov, toc),
		Specialization: specialization,
		CSS:            minified,
		Modules:        names,
		Hyphenation:    extractHyphenation(modules[ModHyphenation]),
		TOC:            toc,
	}, nil
}

// applyTOCStyle narrows the TOC layout module to the chosen entry style.
func applyTOCStyle(mod Module, style TOCStyle) Module {
	mod = mod.clone()
	hide := func(selector string) {
		mod.Rules = append(mod.Rules, Rule{Selector: selector, Props: []Prop{{"display", "none"}}})
	}
	switch style {
	case TOCSimple:
		hide(".toc-dots")
		hide(".toc-page")
	case TOCAligned:
		hide(".toc-dots")
	}
	return mod
}

// setProp replaces the value of every declaration with the given key.
// Returns false if no rule in the module declares that key.
func setProp(mod *Module, key, value string) bool {
	found := false
	for ri := range mod.Rules {
		for pi := range mod.Rules[ri].Props {
			if mod.Rules[ri].Props[pi].Key == key {
				mod.Rules[ri].Props[pi].Value = value
				found = true
			}
		}
	}
	return found
}

func extractHyphenation(mod Module) Hyphenation {
	h := Hyphenation{}
	for _, r := range mod.Rules {
		for _, p := range r.Props {
			switch p.Key {
			case "hyphens":
				h.Enabled = p.Value == "auto"
			case "hyphenate-language":
				h.Language = strings.Trim(p.Value, `"`)
			case "hyphenate-limit-chars":
				fields := strings.Fields(p.Value)
				if len(fields) == 3 {
					h.MinChars, _ = strconv.Atoi(fields[0])
					h.MinLeft, _ = strconv.Atoi(fields[1])
					h.MinRight, _ = strconv.Atoi(fields[2])
				}
			}
		}
	}
	return h
}

// compositionKey is the deterministic cache key for a composition.
func compositionKey(specialization string, ov Overrides, toc TOCOptions) string {
	var sb strings.Builder
	sb.WriteString(specialization)
	sb.WriteString("|")
	sb.WriteString(string(toc.Style))
	sb.WriteString("|")
	sb.WriteString(strconv.Itoa(toc.Depth))
	sb.WriteString("|")
	sb.WriteString(string(toc.Position))
	sb.WriteString("|")
	sb.WriteString(ov.FontFamily)
	sb.WriteString("|")
	sb.WriteString(ov.FontSize)
	sb.WriteString("|")
	sb.WriteString(ov.LineHeight)

	mods := make([]string, 0, len(ov.Modules))
	for name := range ov.Modules {
		mods = append(mods, name)
	}
	sort.Strings(mods)
	for _, name := range mods {
		props := ov.Modules[name]
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString("|")
			sb.WriteString(name)
			sb.WriteString(".")
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(props[k])
		}
	}
	return sb.String()
}

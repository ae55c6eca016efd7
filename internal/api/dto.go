package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mlarcher/pageproof/internal/stylesheet"
)

// layoutParams is the caller-supplied layout configuration, submitted as
// JSON (preview) or as a JSON form field alongside the manuscript upload
// (generate).
type layoutParams struct {
	Template      string                       `json:"template"`
	Title         string                       `json:"title,omitempty"`
	TOC           bool                         `json:"toc"`
	TOCStyle      string                       `json:"toc_style,omitempty"`
	TOCDepth      int                          `json:"toc_depth,omitempty"`
	TOCPosition   string                       `json:"toc_position,omitempty"`
	MaxIterations int                          `json:"max_iterations,omitempty"`
	FontFamily    string                       `json:"font_family,omitempty"`
	FontSize      string                       `json:"font_size,omitempty"`
	LineHeight    string                       `json:"line_height,omitempty"`
	Modules       map[string]map[string]string `json:"modules,omitempty"`
}

func (p layoutParams) Validate() error {
	templates := stylesheet.Specializations()
	templateRule := make([]any, len(templates))
	for i, t := range templates {
		templateRule[i] = t
	}
	return validation.ValidateStruct(&p,
		validation.Field(&p.Template, validation.Required, validation.In(templateRule...)),
		validation.Field(&p.TOCStyle, validation.In("simple", "dots", "aligned")),
		validation.Field(&p.TOCPosition, validation.In("front", "back")),
		validation.Field(&p.TOCDepth, validation.Min(0), validation.Max(6)),
		validation.Field(&p.MaxIterations, validation.Min(0), validation.Max(5)),
	)
}

// overrides converts the DTO into the composition override set.
func (p layoutParams) overrides() stylesheet.Overrides {
	return stylesheet.Overrides{
		FontFamily:  p.FontFamily,
		FontSize:    p.FontSize,
		LineHeight:  p.LineHeight,
		TOCStyle:    stylesheet.TOCStyle(p.TOCStyle),
		TOCDepth:    p.TOCDepth,
		TOCPosition: stylesheet.TOCPosition(p.TOCPosition),
		Modules:     p.Modules,
	}
}

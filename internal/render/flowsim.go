package render

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/mlarcher/pageproof/internal/manuscript"
)

// FlowConfig sizes the simulated page grid.
type FlowConfig struct {
	LinesPerPage   int // usable text lines per page
	CharsPerLine   int // characters per justified line
	HeadingLines   int // lines a heading consumes, including its margin
	MinFollowLines int // content lines required below a heading when break protection is on
}

func (c FlowConfig) withDefaults() FlowConfig {
	if c.LinesPerPage <= 0 {
		c.LinesPerPage = 36
	}
	if c.CharsPerLine <= 0 {
		c.CharsPerLine = 72
	}
	if c.HeadingLines <= 0 {
		c.HeadingLines = 3
	}
	if c.MinFollowLines <= 0 {
		c.MinFollowLines = 2
	}
	return c
}

// FlowOracle is a deterministic in-process paginator. It flows the
// manuscript onto a fixed line grid, honoring the break semantics of the
// composed stylesheet: level-1 headings open a new page, deliberate markers
// break to a fresh recto (emitting one blank filler page), heading break
// protection moves bottom-of-page headings forward, and horizontal rules
// render as a separator glyph when the suppression module is active.
//
// It backs stylesheet previews and tests; production deployments point the
// engine at an external renderer through HTTPOracle instead.
type FlowOracle struct {
	cfg FlowConfig
}

func NewFlowOracle(cfg FlowConfig) *FlowOracle {
	return &FlowOracle{cfg: cfg.withDefaults()}
}

type flowState struct {
	cfg   FlowConfig
	pages []Page
	cur   Page
	used  int
}

func (s *flowState) remaining() int {
	return s.cfg.LinesPerPage - s.used
}

func (s *flowState) hasContent() bool {
	return s.used > 0 || len(s.cur.AnchorsHere) > 0 || s.cur.Trailing != ""
}

// closePage finalizes the current page and starts a fresh one.
func (s *flowState) closePage() {
	p := s.cur
	p.Index = len(s.pages) + 1
	if p.Trailing == "" {
		p.Trailing = ElementNone
	}
	p.VisuallyEmpty = s.used == 0 && len(p.AnchorsHere) == 0
	s.pages = append(s.pages, p)
	s.cur = Page{}
	s.used = 0
}

// breakPage closes the current page only if it carries content.
func (s *flowState) breakPage() {
	if s.hasContent() {
		s.closePage()
	}
}

// blankPage emits one deliberately empty filler page.
func (s *flowState) blankPage() {
	s.pages = append(s.pages, Page{
		Index:         len(s.pages) + 1,
		VisuallyEmpty: true,
		Trailing:      ElementNone,
	})
}

func (o *FlowOracle) Render(ctx context.Context, in Input) (*Artifact, error) {
	if in.Tree == nil {
		return nil, &OracleError{Message: "no manuscript content"}
	}
	suppressRules := strings.Contains(in.CSS, "hr{display:none")
	protectHeadings := strings.Contains(in.CSS, "page-break-after:avoid")

	s := &flowState{cfg: o.cfg}

	for _, node := range in.Tree.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch node.Kind {
		case manuscript.KindTOC:
			if in.TOC == nil {
				continue
			}
			s.breakPage()
			s.used += o.cfg.HeadingLines
			s.cur.Trailing = ElementTOC
			for _, entry := range in.TOC.Entries {
				if s.remaining() <= 0 {
					s.closePage()
				}
				s.used++
				s.cur.Trailing = ElementTOC
				_ = entry
			}
			s.breakPage()

		case manuscript.KindHeading:
			if node.Level == 1 {
				s.breakPage()
			}
			need := o.cfg.HeadingLines
			if protectHeadings {
				need += o.cfg.MinFollowLines
			}
			if s.remaining() < need {
				s.breakPage()
			}
			s.cur.AnchorsHere = append(s.cur.AnchorsHere, node.Anchor)
			s.used += o.cfg.HeadingLines
			s.cur.Trailing = ElementHeading
			s.cur.TrailingAnchor = node.Anchor
			s.cur.TrailingMarker = ""

		case manuscript.KindBody:
			for _, para := range strings.Split(node.Text, "\n\n") {
				lines := (utf8.RuneCountInString(para) + o.cfg.CharsPerLine - 1) / o.cfg.CharsPerLine
				if lines < 1 {
					lines = 1
				}
				for i := 0; i < lines; i++ {
					if s.remaining() <= 0 {
						s.closePage()
					}
					s.used++
				}
				s.cur.Trailing = ElementParagraph
				s.cur.TrailingAnchor = ""
				s.cur.TrailingMarker = ""
			}

		case manuscript.KindMarker:
			switch node.Marker {
			case manuscript.MarkerEditorialBlank, manuscript.MarkerPartSeparator, manuscript.MarkerChapterEnd:
				// A deliberate break attaches to the page before it and
				// forces the next content onto a recto via a blank filler.
				if !s.hasContent() && len(s.pages) > 0 {
					s.pages[len(s.pages)-1].Trailing = ElementMarker
					s.pages[len(s.pages)-1].TrailingAnchor = ""
					s.pages[len(s.pages)-1].TrailingMarker = node.Marker
				} else {
					s.cur.Trailing = ElementMarker
					s.cur.TrailingAnchor = ""
					s.cur.TrailingMarker = node.Marker
					s.closePage()
				}
				s.blankPage()

			case manuscript.MarkerRule:
				if s.remaining() <= 0 {
					s.closePage()
				}
				s.used++
				s.cur.Trailing = ElementSeparator
				s.cur.TrailingAnchor = ""
				s.cur.TrailingMarker = manuscript.MarkerRule
				if !suppressRules {
					s.cur.RawRules++
				}
			}
		}
	}

	s.breakPage()
	if len(s.pages) == 0 {
		s.blankPage()
	}

	return &Artifact{Pages: s.pages}, nil
}

package manuscript

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Builder converts raw manuscript bytes into a structural Tree.
type Builder interface {
	Build(r io.Reader, filename string) (*Tree, error)
}

// SupportedExtensions lists manuscript formats this service can handle.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// ForFile returns the appropriate builder for a filename.
func ForFile(filename string) (Builder, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &MarkdownBuilder{}, nil
	case ".txt":
		return &TextBuilder{}, nil
	case ".html", ".htm":
		return &HTMLBuilder{}, nil
	case ".docx":
		return &DOCXBuilder{}, nil
	default:
		return nil, fmt.Errorf("unsupported manuscript format: %s", ext)
	}
}

// IsSupportedExtension checks if a manuscript file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func titleFromFilename(filename string, exts ...string) string {
	for _, ext := range exts {
		filename = strings.TrimSuffix(filename, ext)
	}
	return filename
}

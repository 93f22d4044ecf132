package export

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format enumerates supported export formats.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// Dataset defines tabular export content: one header row and flat records keyed by header.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Renderer turns a dataset into file bytes.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Format() Format
}

// ParseFormat normalises a user supplied format, falling back to def when empty.
func ParseFormat(raw string, def Format) (Format, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return def, nil
	}
	switch Format(raw) {
	case FormatXLSX, FormatCSV, FormatPDF:
		return Format(raw), nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Filename sanitises name and enforces the extension of format.
func Filename(name string, format Format) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "reports"
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '/', '\n', '\r':
			return '_'
		}
		return r
	}, name)
	ext := "." + string(format)
	if strings.EqualFold(filepath.Ext(name), ext) {
		return strings.TrimSuffix(name, filepath.Ext(name)) + ext
	}
	return name + ext
}

// Package export renders tabular reports to text, CSV and PDF.
package export

import (
	"fmt"
	"strings"
)

// Format names a rendering target.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// ParseFormat normalises user input; empty means text.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatText, "txt":
		return FormatText, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type of the rendered output.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// Field is one labelled metadata line.
type Field struct {
	Label string
	Value string
}

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Section groups the labelled detail of one record, rendered in text reports.
type Section struct {
	Heading string
	Fields  []Field
}

// Report is a titled document: header metadata, a table, per-record sections
// and closing statements. Renderers preserve the order of every slice.
type Report struct {
	Title    string
	Subtitle string
	Metadata []Field
	Table    Dataset
	Sections []Section
	Footer   []string
}

// Render dispatches to the exporter for format.
func Render(report Report, format Format) ([]byte, error) {
	switch format {
	case FormatText:
		return NewTextExporter().Render(report)
	case FormatCSV:
		return NewCSVExporter().Render(report)
	case FormatPDF:
		return NewPDFExporter().Render(report)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

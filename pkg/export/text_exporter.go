package export

import (
	"bytes"
	"fmt"
	"strings"
)

// TextExporter renders a Report as plain text with stable layout.
type TextExporter struct {
	width int
}

// NewTextExporter builds a text exporter with an 72 column rule.
func NewTextExporter() *TextExporter {
	return &TextExporter{width: 72}
}

// Render writes title, metadata, sections and footer in order.
func (e *TextExporter) Render(report Report) ([]byte, error) {
	if report.Title == "" {
		return nil, fmt.Errorf("text report requires a title")
	}
	rule := strings.Repeat("=", e.width)
	buf := &bytes.Buffer{}

	fmt.Fprintln(buf, rule)
	fmt.Fprintln(buf, strings.ToUpper(report.Title))
	if report.Subtitle != "" {
		fmt.Fprintln(buf, report.Subtitle)
	}
	fmt.Fprintln(buf, rule)
	writeFields(buf, report.Metadata)

	for _, section := range report.Sections {
		fmt.Fprintln(buf)
		fmt.Fprintln(buf, section.Heading)
		fmt.Fprintln(buf, strings.Repeat("-", len(section.Heading)))
		writeFields(buf, section.Fields)
	}

	if len(report.Footer) > 0 {
		fmt.Fprintln(buf)
		fmt.Fprintln(buf, rule)
		for _, line := range report.Footer {
			fmt.Fprintln(buf, line)
		}
		fmt.Fprintln(buf, rule)
	}
	return buf.Bytes(), nil
}

func writeFields(buf *bytes.Buffer, fields []Field) {
	width := 0
	for _, f := range fields {
		if len(f.Label) > width {
			width = len(f.Label)
		}
	}
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		fmt.Fprintf(buf, "%-*s : %s\n", width, f.Label, f.Value)
	}
}

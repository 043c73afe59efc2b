package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// CSVExporter renders a Report as CSV. The title, metadata and footer travel
// as comment lines around the table, so a csv.Reader with Comment set to the
// exporter's marker reads back exactly the header and rows.
type CSVExporter struct {
	comment rune
}

// NewCSVExporter builds a CSV exporter using '#' comment lines.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{comment: '#'}
}

// Render writes the preamble, the header row, one record per row with
// missing cells left empty, then the footer.
func (e *CSVExporter) Render(report Report) ([]byte, error) {
	data := report.Table
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	e.writeComment(buf, report.Title)
	e.writeComment(buf, report.Subtitle)
	for _, field := range report.Metadata {
		if field.Value != "" {
			e.writeComment(buf, field.Label+": "+field.Value)
		}
	}

	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	for _, line := range report.Footer {
		e.writeComment(buf, line)
	}
	return buf.Bytes(), nil
}

// writeComment emits one comment line; embedded line breaks are flattened so
// the marker always leads the physical line.
func (e *CSVExporter) writeComment(buf *bytes.Buffer, text string) {
	if text == "" {
		return
	}
	text = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)
	fmt.Fprintf(buf, "%c %s\n", e.comment, text)
}

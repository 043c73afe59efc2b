package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleReport() Report {
	return Report{
		Title:    "Chain of custody",
		Subtitle: "Forensic Laboratory",
		Metadata: []Field{{Label: "Exhibit", Value: "CYB/LAB/2026/0001/A"}, {Label: "Brand", Value: ""}},
		Table: Dataset{
			Headers: []string{"seq", "event"},
			Rows:    []map[string]string{{"seq": "1", "event": "received"}, {"seq": "2"}},
		},
		Sections: []Section{{Heading: "Event 1", Fields: []Field{{Label: "Type", Value: "received"}}}},
		Footer:   []string{"Integrity verified"},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatText, f)

	f, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	require.Equal(t, FormatPDF, f)
	require.Equal(t, "application/pdf", f.ContentType())
	require.Equal(t, "txt", FormatText.Extension())

	_, err = ParseFormat("xlsx")
	require.Error(t, err)
}

func TestTextExporterIsDeterministic(t *testing.T) {
	first, err := Render(sampleReport(), FormatText)
	require.NoError(t, err)
	second, err := Render(sampleReport(), FormatText)
	require.NoError(t, err)
	require.Equal(t, first, second)

	out := string(first)
	require.Contains(t, out, "CHAIN OF CUSTODY")
	require.Contains(t, out, "Exhibit : CYB/LAB/2026/0001/A")
	require.NotContains(t, out, "Brand")
	require.Less(t, strings.Index(out, "Event 1"), strings.Index(out, "Integrity verified"))
}

func TestCSVExporterFillsMissingCells(t *testing.T) {
	out, err := Render(sampleReport(), FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "# Chain of custody\n# Forensic Laboratory\n# Exhibit: CYB/LAB/2026/0001/A\n"+
		"seq,event\n1,received\n2,\n# Integrity verified\n", string(out))

	reader := csv.NewReader(bytes.NewReader(out))
	reader.Comment = '#'
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{{"seq", "event"}, {"1", "received"}, {"2", ""}}, records)

	_, err = NewCSVExporter().Render(Report{Title: "empty"})
	require.Error(t, err)
}

func TestCSVExporterFlattensMultilineComments(t *testing.T) {
	report := sampleReport()
	report.Footer = []string{"first\nsecond"}
	out, err := Render(report, FormatCSV)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(out), "# first second\n"))
}

func TestPDFExporterProducesDocument(t *testing.T) {
	out, err := Render(sampleReport(), FormatPDF)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

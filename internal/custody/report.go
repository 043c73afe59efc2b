package custody

import (
	"fmt"
	"strconv"
	"time"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/export"
)

// ReportInput carries everything a custody report shows.
type ReportInput struct {
	UnitName   string
	CaseNumber string
	LabNumber  string
	CaseTitle  string
	Exhibit    *models.Exhibit
}

var reportHeaders = []string{
	"sequence", "timestamp", "event_type", "description", "officer", "badge",
	"location", "previous_status", "new_status", "notes", "hash",
}

// BuildReport projects an exhibit ledger into a report. The output depends
// only on the input, so the same ledger always renders identically.
func BuildReport(in ReportInput) export.Report {
	ex := in.Exhibit
	report := export.Report{
		Title:    "Chain of Custody Report",
		Subtitle: in.UnitName,
		Metadata: []export.Field{
			{Label: "Exhibit number", Value: ex.ExhibitNumber},
			{Label: "Lab number", Value: in.LabNumber},
			{Label: "Case number", Value: in.CaseNumber},
			{Label: "Case title", Value: in.CaseTitle},
			{Label: "Exhibit type", Value: string(ex.ExhibitType)},
			{Label: "Current status", Value: string(ex.Status)},
			{Label: "Device name", Value: ex.DeviceName},
			{Label: "Brand", Value: ex.Brand},
			{Label: "Model", Value: ex.Model},
			{Label: "Serial number", Value: ex.SerialNumber},
			{Label: "IMEI", Value: ex.IMEI},
			{Label: "MAC address", Value: ex.MACAddress},
			{Label: "Storage capacity", Value: ex.StorageCapacity},
			{Label: "Description", Value: ex.Description},
			{Label: "Current location", Value: ex.CurrentLocation},
			{Label: "Received at", Value: formatTime(ex.ReceivedAt)},
			{Label: "Events recorded", Value: strconv.Itoa(len(ex.ChainOfCustody))},
		},
		Table: export.Dataset{Headers: reportHeaders},
	}

	for _, ev := range ex.ChainOfCustody {
		row := map[string]string{
			"sequence":        strconv.Itoa(ev.Sequence),
			"timestamp":       formatTime(ev.Timestamp),
			"event_type":      string(ev.EventType),
			"description":     ev.Description,
			"officer":         ev.Officer.Name,
			"badge":           ev.Officer.Badge,
			"location":        ev.Location,
			"previous_status": statusString(ev.PreviousStatus),
			"new_status":      statusString(ev.NewStatus),
			"notes":           ev.Notes,
			"hash":            ev.Hash,
		}
		report.Table.Rows = append(report.Table.Rows, row)

		transition := ""
		if ev.PreviousStatus != nil || ev.NewStatus != nil {
			transition = fmt.Sprintf("%s -> %s", orDash(statusString(ev.PreviousStatus)), orDash(statusString(ev.NewStatus)))
		}
		report.Sections = append(report.Sections, export.Section{
			Heading: fmt.Sprintf("Event %d: %s", ev.Sequence, ev.EventType),
			Fields: []export.Field{
				{Label: "Timestamp", Value: formatTime(ev.Timestamp)},
				{Label: "Description", Value: ev.Description},
				{Label: "Officer", Value: officerLine(ev.Officer)},
				{Label: "Location", Value: ev.Location},
				{Label: "Status", Value: transition},
				{Label: "Notes", Value: ev.Notes},
				{Label: "Hash", Value: ev.Hash},
			},
		})
	}

	report.Footer = IntegrityStatement(Verify(ex.ID, ex.ChainOfCustody))
	return report
}

// IntegrityStatement renders the closing lines of a report.
func IntegrityStatement(v Verification) []string {
	if v.Intact {
		return []string{
			fmt.Sprintf("INTEGRITY STATEMENT: all %d custody events verified; the ledger is complete and unaltered.", v.Events),
			"Head hash: " + v.HeadHash,
		}
	}
	return []string{
		fmt.Sprintf("INTEGRITY STATEMENT: verification FAILED at event %d (%s).", v.BrokenAt, v.Reason),
		"Head hash: " + v.HeadHash,
	}
}

func officerLine(o models.Officer) string {
	if o.Badge == "" {
		return o.Name
	}
	return fmt.Sprintf("%s (badge %s)", o.Name, o.Badge)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

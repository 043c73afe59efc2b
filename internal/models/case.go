package models

import "time"

// CaseStatus is the single authoritative case lifecycle vocabulary.
type CaseStatus string

const (
	CaseStatusOpen               CaseStatus = "open"
	CaseStatusUnderInvestigation CaseStatus = "under_investigation"
	CaseStatusPendingReview      CaseStatus = "pending_review"
	CaseStatusAnalysisComplete   CaseStatus = "analysis_complete"
	CaseStatusReportSubmitted    CaseStatus = "report_submitted"
	CaseStatusReportApproved     CaseStatus = "report_approved"
	CaseStatusEvidenceReturned   CaseStatus = "evidence_returned"
	CaseStatusClosed             CaseStatus = "closed"
	CaseStatusArchived           CaseStatus = "archived"
)

// CaseStatuses lists every case status in lifecycle order.
var CaseStatuses = []CaseStatus{
	CaseStatusOpen,
	CaseStatusUnderInvestigation,
	CaseStatusPendingReview,
	CaseStatusAnalysisComplete,
	CaseStatusReportSubmitted,
	CaseStatusReportApproved,
	CaseStatusEvidenceReturned,
	CaseStatusClosed,
	CaseStatusArchived,
}

// Valid reports whether s is a known status.
func (s CaseStatus) Valid() bool {
	for _, known := range CaseStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// AcceptsExhibits reports whether new exhibits may be registered.
func (s CaseStatus) AcceptsExhibits() bool {
	return s != CaseStatusClosed && s != CaseStatusArchived
}

// Priority ranks case urgency.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// AnalystStatus is the analyst's own workload marker.
type AnalystStatus string

const (
	AnalystStatusPending    AnalystStatus = "pending"
	AnalystStatusInAnalysis AnalystStatus = "in_analysis"
	AnalystStatusComplete   AnalystStatus = "complete"
)

// Case is an investigation record.
type Case struct {
	ID                     string        `db:"id" json:"id"`
	CaseNumber             string        `db:"case_number" json:"case_number"`
	LabNumber              string        `db:"lab_number" json:"lab_number"`
	Title                  string        `db:"title" json:"title"`
	Description            string        `db:"description" json:"description"`
	Status                 CaseStatus    `db:"status" json:"status"`
	Priority               Priority      `db:"priority" json:"priority"`
	AnalystStatus          AnalystStatus `db:"analyst_status" json:"analyst_status"`
	AssignedInvestigatorID *string       `db:"assigned_investigator_id" json:"assigned_investigator_id,omitempty"`
	SupervisorID           *string       `db:"supervisor_id" json:"supervisor_id,omitempty"`
	AnalystID              *string       `db:"analyst_id" json:"analyst_id,omitempty"`
	ExhibitOfficerID       *string       `db:"exhibit_officer_id" json:"exhibit_officer_id,omitempty"`
	OpenedDate             time.Time     `db:"opened_date" json:"opened_date"`
	ClosedDate             *time.Time    `db:"closed_date" json:"closed_date,omitempty"`
	CaseNotes              string        `db:"case_notes" json:"case_notes"`
	CreatedBy              string        `db:"created_by" json:"created_by"`
	CreatedAt              time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time     `db:"updated_at" json:"updated_at"`
}

// IsAnalyst reports whether userID is the case's assigned analyst.
func (c *Case) IsAnalyst(userID string) bool {
	return c.AnalystID != nil && *c.AnalystID == userID
}

// IsInvestigator reports whether userID is the assigned investigator.
func (c *Case) IsInvestigator(userID string) bool {
	return c.AssignedInvestigatorID != nil && *c.AssignedInvestigatorID == userID
}

// CaseFilter narrows case listings. Visibility fields are set by the service
// from the principal, never from the request.
type CaseFilter struct {
	Status                 CaseStatus
	Priority               Priority
	Search                 string
	AnalystID              string
	AssignedInvestigatorID string
	Page                   int
	PageSize               int
}

package models

import (
	"encoding/json"
	"time"
)

// SubjectType identifies what an activity entry is about.
type SubjectType string

const (
	SubjectCase     SubjectType = "case"
	SubjectExhibit  SubjectType = "exhibit"
	SubjectApproval SubjectType = "approval"
	SubjectDocument SubjectType = "document"
)

// Activity types written by the services.
const (
	ActivityCaseCreated          = "case_created"
	ActivityCaseAssigned         = "case_assigned"
	ActivityCaseStatusChanged    = "case_status_changed"
	ActivityCaseStatusOverridden = "case_status_overridden"
	ActivityCasePriorityChanged  = "case_priority_changed"
	ActivityCaseNotesUpdated     = "case_notes_updated"
	ActivityAnalystStatusChanged = "analyst_status_changed"
	ActivityExhibitRegistered    = "exhibit_registered"
	ActivityExhibitAssigned      = "exhibit_assigned"
	ActivityExhibitStatusChanged = "exhibit_status_changed"
	ActivityExhibitTransferred   = "exhibit_transferred"
	ActivityExhibitReturned      = "exhibit_returned"
	ActivityCustodyPublished     = "custody_report_published"
	ActivityApprovalSubmitted    = "approval_submitted"
	ActivityApprovalResolved     = "approval_resolved"
	ActivityDocumentUploaded     = "document_uploaded"
)

// ActivityLog is one append-only audit entry.
type ActivityLog struct {
	ID           string          `db:"id" json:"id"`
	UserID       string          `db:"user_id" json:"user_id"`
	SubjectID    string          `db:"subject_id" json:"subject_id"`
	SubjectType  SubjectType     `db:"subject_type" json:"subject_type"`
	ActivityType string          `db:"activity_type" json:"activity_type"`
	Description  string          `db:"description" json:"description"`
	Metadata     json.RawMessage `db:"metadata" json:"metadata"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// ActivityFilter narrows audit listings.
type ActivityFilter struct {
	SubjectID    string
	SubjectType  SubjectType
	UserID       string
	ActivityType string
	Since        *time.Time
	Page         int
	PageSize     int
}

// Notification is the record handed to the external notification sink.
type Notification struct {
	SubjectID   string          `json:"subject_id"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata"`
}

package dto

import "github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"

// CreateCaseRequest registers a case together with its first exhibits.
type CreateCaseRequest struct {
	CaseNumber             string                 `json:"case_number" validate:"omitempty,max=64"`
	Title                  string                 `json:"title" validate:"required,max=255"`
	Description            string                 `json:"description"`
	Priority               models.Priority        `json:"priority" validate:"omitempty,priority"`
	AssignedInvestigatorID *string                `json:"assigned_investigator_id"`
	SupervisorID           *string                `json:"supervisor_id"`
	ExhibitOfficerID       *string                `json:"exhibit_officer_id"`
	CaseNotes              string                 `json:"case_notes"`
	Exhibits               []CreateExhibitRequest `json:"exhibits" validate:"required,min=1,dive"`
}

// AssignCaseRequest sets role-bound case assignees. Nil fields are left
// untouched; at least one must be present.
type AssignCaseRequest struct {
	AnalystID              *string `json:"analyst_id" validate:"omitempty,min=1"`
	AssignedInvestigatorID *string `json:"assigned_investigator_id" validate:"omitempty,min=1"`
	SupervisorID           *string `json:"supervisor_id" validate:"omitempty,min=1"`
	ExhibitOfficerID       *string `json:"exhibit_officer_id" validate:"omitempty,min=1"`
}

// Empty reports whether no assignee was supplied.
func (r AssignCaseRequest) Empty() bool {
	return r.AnalystID == nil && r.AssignedInvestigatorID == nil && r.SupervisorID == nil && r.ExhibitOfficerID == nil
}

// UpdateAnalystStatusRequest advances the analyst workload marker.
type UpdateAnalystStatusRequest struct {
	Status models.AnalystStatus `json:"status" validate:"required,analyst_status"`
}

// UpdatePriorityRequest changes case priority.
type UpdatePriorityRequest struct {
	Priority models.Priority `json:"priority" validate:"required,priority"`
}

// UpdateCaseNotesRequest replaces the case notes.
type UpdateCaseNotesRequest struct {
	Notes string `json:"notes" validate:"max=10000"`
}

// OverrideCaseStatusRequest is the administrator escape hatch.
type OverrideCaseStatusRequest struct {
	Status models.CaseStatus `json:"status" validate:"required,case_status"`
	Reason string            `json:"reason" validate:"required,max=1000"`
}

// CaseQuery mirrors supported listing filters.
type CaseQuery struct {
	Status   models.CaseStatus `form:"status" validate:"omitempty,case_status"`
	Priority models.Priority   `form:"priority" validate:"omitempty,priority"`
	Search   string            `form:"q"`
	Page     int               `form:"page"`
	PageSize int               `form:"page_size"`
}

// CaseDetail bundles a case with its exhibits.
type CaseDetail struct {
	models.Case
	Exhibits []models.Exhibit `json:"exhibits"`
}

package models

import "time"

// ApprovalType names the lifecycle gate a request asks to pass.
type ApprovalType string

const (
	ApprovalReportSubmission ApprovalType = "report_submission"
	ApprovalReportApproval   ApprovalType = "report_approval"
	ApprovalEvidenceReturn   ApprovalType = "evidence_return"
	ApprovalFinalClosure     ApprovalType = "final_closure"
)

// ApprovalTypes lists every approval type in lifecycle order.
var ApprovalTypes = []ApprovalType{
	ApprovalReportSubmission,
	ApprovalReportApproval,
	ApprovalEvidenceReturn,
	ApprovalFinalClosure,
}

// Valid reports whether t is a known approval type.
func (t ApprovalType) Valid() bool {
	for _, known := range ApprovalTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ApprovalStatus tracks a request from submission to its single resolution.
type ApprovalStatus string

const (
	ApprovalStatusPending           ApprovalStatus = "pending"
	ApprovalStatusApproved          ApprovalStatus = "approved"
	ApprovalStatusRejected          ApprovalStatus = "rejected"
	ApprovalStatusRevisionRequested ApprovalStatus = "revision_requested"
)

// Valid reports whether s is a known approval status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected, ApprovalStatusRevisionRequested:
		return true
	}
	return false
}

// Decision is a reviewer's resolution of a pending approval.
type Decision string

const (
	DecisionApprove         Decision = "approve"
	DecisionReject          Decision = "reject"
	DecisionRequestRevision Decision = "request_revision"
)

// Status maps a decision to the approval status it produces.
func (d Decision) Status() (ApprovalStatus, bool) {
	switch d {
	case DecisionApprove:
		return ApprovalStatusApproved, true
	case DecisionReject:
		return ApprovalStatusRejected, true
	case DecisionRequestRevision:
		return ApprovalStatusRevisionRequested, true
	}
	return "", false
}

// RequiresComments reports whether the reviewer must explain the decision.
func (d Decision) RequiresComments() bool {
	return d == DecisionReject || d == DecisionRequestRevision
}

// Approval is a gated request to advance a case.
type Approval struct {
	ID             string         `db:"id" json:"id"`
	CaseID         string         `db:"case_id" json:"case_id"`
	ApprovalType   ApprovalType   `db:"approval_type" json:"approval_type"`
	ApprovalStatus ApprovalStatus `db:"approval_status" json:"approval_status"`
	SubmittedBy    string         `db:"submitted_by" json:"submitted_by"`
	ApprovedBy     *string        `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt     *time.Time     `db:"approved_at" json:"approved_at,omitempty"`
	Comments       string         `db:"comments" json:"comments"`
	ReviewComments *string        `db:"review_comments" json:"review_comments,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// ApprovalResolution is the compare-and-swap update applied to a pending
// approval.
type ApprovalResolution struct {
	ApprovalID     string
	Status         ApprovalStatus
	ResolvedBy     string
	ResolvedAt     time.Time
	ReviewComments string
}

// CaseTransition moves a case only while it still holds From.
type CaseTransition struct {
	CaseID    string
	From      CaseStatus
	To        CaseStatus
	UpdatedAt time.Time
}

// ApprovalFilter narrows reviewer queues.
type ApprovalFilter struct {
	CaseID   string
	Status   ApprovalStatus
	Type     ApprovalType
	Page     int
	PageSize int
}

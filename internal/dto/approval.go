package dto

import "github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"

// SubmitApprovalRequest opens an approval for a case.
type SubmitApprovalRequest struct {
	ApprovalType models.ApprovalType `json:"approval_type" validate:"required,approval_type"`
	Comments     string              `json:"comments" validate:"max=5000"`
}

// ResolveApprovalRequest carries a reviewer decision.
type ResolveApprovalRequest struct {
	Decision models.Decision `json:"decision" validate:"required,decision"`
	Comments string          `json:"comments" validate:"max=5000"`
}

// ApprovalQuery mirrors supported listing filters.
type ApprovalQuery struct {
	CaseID   string                `form:"case_id"`
	Status   models.ApprovalStatus `form:"status"`
	Type     models.ApprovalType   `form:"type" validate:"omitempty,approval_type"`
	Page     int                   `form:"page"`
	PageSize int                   `form:"page_size"`
}

package service

import (
	"fmt"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
)

// Action is a mutation or privileged read guarded by role.
type Action string

const (
	ActionCreateCase          Action = "case:create"
	ActionRegisterExhibit     Action = "exhibit:create"
	ActionAssignCase          Action = "case:assign"
	ActionSetPriority         Action = "case:priority"
	ActionSetCriticalPriority Action = "case:priority:critical"
	ActionUpdateNotes         Action = "case:notes"
	ActionOverrideStatus      Action = "case:override"
	ActionAssignExhibit       Action = "exhibit:assign"
	ActionChangeExhibitStatus Action = "exhibit:status"
	ActionTransferExhibit     Action = "exhibit:transfer"
	ActionReturnExhibit       Action = "exhibit:return"
	ActionPublishCustody      Action = "custody:publish"
	ActionReadAllActivity     Action = "activity:read_all"
	ActionUploadDocument      Action = "document:upload"
)

const (
	roleAdmin     = models.RoleAdministrator
	roleCommander = models.RoleCommandingOfficer
	roleSuper     = models.RoleSupervisor
	roleInv       = models.RoleInvestigator
	roleAnalyst   = models.RoleAnalyst
	roleOfficer   = models.RoleExhibitOfficer
)

var actionRoles = map[Action][]models.Role{
	ActionCreateCase:          {roleOfficer, roleAdmin},
	ActionRegisterExhibit:     {roleOfficer, roleAdmin},
	ActionAssignCase:          {roleAdmin, roleCommander, roleSuper},
	ActionSetPriority:         {roleAdmin, roleCommander, roleSuper, roleOfficer},
	ActionSetCriticalPriority: {roleAdmin, roleCommander},
	ActionUpdateNotes:         {roleAdmin, roleCommander, roleSuper, roleOfficer, roleInv, roleAnalyst},
	ActionOverrideStatus:      {roleAdmin},
	ActionAssignExhibit:       {roleAdmin, roleCommander, roleSuper, roleOfficer},
	ActionChangeExhibitStatus: {roleAdmin, roleSuper, roleOfficer, roleAnalyst},
	ActionTransferExhibit:     {roleAdmin, roleSuper, roleOfficer},
	ActionReturnExhibit:       {roleAdmin, roleOfficer},
	ActionPublishCustody:      {roleAdmin, roleCommander, roleSuper, roleOfficer},
	ActionReadAllActivity:     {roleAdmin, roleCommander, roleSuper},
	ActionUploadDocument:      {roleAdmin, roleCommander, roleSuper, roleOfficer, roleInv, roleAnalyst},
}

// submitRoles lists who may open each approval type. The assigned analyst
// may also submit report_submission.
var submitRoles = map[models.ApprovalType][]models.Role{
	models.ApprovalReportSubmission: {roleAdmin},
	models.ApprovalReportApproval:   {roleSuper, roleAdmin},
	models.ApprovalEvidenceReturn:   {roleOfficer, roleAdmin},
	models.ApprovalFinalClosure:     {roleSuper, roleCommander, roleAdmin},
}

// resolveRoles lists the reviewers of each approval type besides the
// administrator.
var resolveRoles = map[models.ApprovalType][]models.Role{
	models.ApprovalReportSubmission: {roleSuper, roleCommander},
	models.ApprovalReportApproval:   {roleCommander},
	models.ApprovalEvidenceReturn:   {roleSuper, roleCommander},
	models.ApprovalFinalClosure:     {roleCommander},
}

// Authorize reports whether the principal's role may perform action.
func Authorize(p models.Principal, action Action) error {
	if !p.Valid() {
		return appErrors.ErrUnauthorized
	}
	if p.Is(actionRoles[action]...) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s may not perform %s", p.Role, action))
}

// PriorityAction is the action guarding a change to priority.
func PriorityAction(priority models.Priority) Action {
	if priority == models.PriorityCritical {
		return ActionSetCriticalPriority
	}
	return ActionSetPriority
}

// CanSee reports whether the principal may read the case. Analysts and
// investigators only see cases they are assigned to.
func CanSee(p models.Principal, c *models.Case) bool {
	switch p.Role {
	case roleAnalyst:
		return c.IsAnalyst(p.ID)
	case roleInv:
		return c.IsInvestigator(p.ID)
	}
	return p.Role.Valid()
}

// SeesAllCases reports whether case listings for p are unrestricted.
func SeesAllCases(p models.Principal) bool {
	return p.Valid() && !p.Is(roleAnalyst, roleInv)
}

// AuthorizeSubmit checks whether the principal may open an approval of
// approvalType on c.
func AuthorizeSubmit(p models.Principal, c *models.Case, approvalType models.ApprovalType) error {
	if !p.Valid() {
		return appErrors.ErrUnauthorized
	}
	if p.Is(submitRoles[approvalType]...) {
		return nil
	}
	if approvalType == models.ApprovalReportSubmission && p.Role == roleAnalyst && c.IsAnalyst(p.ID) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s may not submit %s", p.Role, approvalType))
}

// AuthorizeResolve checks reviewer role and the four-eyes rule.
func AuthorizeResolve(p models.Principal, a *models.Approval) error {
	if !p.Valid() {
		return appErrors.ErrUnauthorized
	}
	if a.SubmittedBy == p.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "submitter may not resolve their own approval")
	}
	if p.Role == roleAdmin || p.Is(resolveRoles[a.ApprovalType]...) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s may not resolve %s", p.Role, a.ApprovalType))
}

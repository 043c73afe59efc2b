package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
)

func TestAuthorize(t *testing.T) {
	cases := []struct {
		name   string
		p      models.Principal
		action Action
		want   error
	}{
		{"officer creates case", officerUser, ActionCreateCase, nil},
		{"analyst cannot create case", analystUser, ActionCreateCase, appErrors.ErrForbidden},
		{"supervisor assigns", supervisorUser, ActionAssignCase, nil},
		{"investigator cannot assign", investigator, ActionAssignCase, appErrors.ErrForbidden},
		{"officer cannot set critical", officerUser, ActionSetCriticalPriority, appErrors.ErrForbidden},
		{"commander sets critical", commanderUser, ActionSetCriticalPriority, nil},
		{"only admin overrides", supervisorUser, ActionOverrideStatus, appErrors.ErrForbidden},
		{"anonymous", models.Principal{}, ActionCreateCase, appErrors.ErrUnauthorized},
		{"unknown role", models.Principal{ID: "x", Role: "janitor"}, ActionUpdateNotes, appErrors.ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.p, tc.action)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCanSee(t *testing.T) {
	c := &models.Case{ID: "case-1", AnalystID: stringPtr(analystUser.ID), AssignedInvestigatorID: stringPtr(investigator.ID)}

	require.True(t, CanSee(analystUser, c))
	require.False(t, CanSee(otherAnalyst, c))
	require.True(t, CanSee(investigator, c))
	require.False(t, CanSee(models.Principal{ID: "inv-2", Role: models.RoleInvestigator}, c))
	require.True(t, CanSee(officerUser, c))
	require.False(t, CanSee(models.Principal{ID: "x", Role: "janitor"}, c))
}

func TestAuthorizeSubmit(t *testing.T) {
	c := &models.Case{ID: "case-1", AnalystID: stringPtr(analystUser.ID)}

	require.NoError(t, AuthorizeSubmit(analystUser, c, models.ApprovalReportSubmission))
	require.ErrorIs(t, AuthorizeSubmit(otherAnalyst, c, models.ApprovalReportSubmission), appErrors.ErrForbidden)
	require.ErrorIs(t, AuthorizeSubmit(analystUser, c, models.ApprovalReportApproval), appErrors.ErrForbidden)
	require.NoError(t, AuthorizeSubmit(supervisorUser, c, models.ApprovalReportApproval))
	require.NoError(t, AuthorizeSubmit(officerUser, c, models.ApprovalEvidenceReturn))
	require.NoError(t, AuthorizeSubmit(commanderUser, c, models.ApprovalFinalClosure))
}

func TestAuthorizeResolve(t *testing.T) {
	a := &models.Approval{ApprovalType: models.ApprovalReportSubmission, SubmittedBy: analystUser.ID}

	require.NoError(t, AuthorizeResolve(supervisorUser, a))
	require.ErrorIs(t, AuthorizeResolve(officerUser, a), appErrors.ErrForbidden)

	a.SubmittedBy = supervisorUser.ID
	require.ErrorIs(t, AuthorizeResolve(supervisorUser, a), appErrors.ErrForbidden)
	require.NoError(t, AuthorizeResolve(adminUser, a))

	closure := &models.Approval{ApprovalType: models.ApprovalFinalClosure, SubmittedBy: supervisorUser.ID}
	require.NoError(t, AuthorizeResolve(commanderUser, closure))
	require.ErrorIs(t, AuthorizeResolve(models.Principal{ID: "sup-2", Role: models.RoleSupervisor}, closure), appErrors.ErrForbidden)
}

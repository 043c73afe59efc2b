package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
)

func submitReport(t *testing.T, env *testEnv, caseID string) *models.Approval {
	t.Helper()
	approval, err := env.approvals.Submit(context.Background(), analystUser, caseID, dto.SubmitApprovalRequest{
		ApprovalType: models.ApprovalReportSubmission,
		Comments:     "report attached",
	})
	require.NoError(t, err)
	return approval
}

func TestApprovalServiceSubmit(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail, err := env.caseAt(ctx, models.CaseStatusUnderInvestigation)
	require.NoError(t, err)

	approval := submitReport(t, env, detail.ID)
	require.Equal(t, models.ApprovalStatusPending, approval.ApprovalStatus)
	require.Equal(t, analystUser.ID, approval.SubmittedBy)
	require.Nil(t, approval.ApprovedBy)

	_, err = env.approvals.Submit(ctx, analystUser, detail.ID, dto.SubmitApprovalRequest{ApprovalType: models.ApprovalReportSubmission})
	require.ErrorIs(t, err, appErrors.ErrConflict)
	require.Contains(t, err.Error(), "already exists")

	_, err = env.approvals.Submit(ctx, supervisorUser, detail.ID, dto.SubmitApprovalRequest{ApprovalType: models.ApprovalReportApproval})
	require.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = env.approvals.Submit(ctx, otherAnalyst, detail.ID, dto.SubmitApprovalRequest{ApprovalType: models.ApprovalReportSubmission})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = env.approvals.Submit(ctx, analystUser, detail.ID, dto.SubmitApprovalRequest{ApprovalType: "sign_off"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = env.approvals.Submit(ctx, analystUser, "missing", dto.SubmitApprovalRequest{ApprovalType: models.ApprovalReportSubmission})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestApprovalServiceRejectThenResubmit(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail, err := env.caseAt(ctx, models.CaseStatusUnderInvestigation)
	require.NoError(t, err)
	first := submitReport(t, env, detail.ID)

	_, err = env.approvals.Resolve(ctx, supervisorUser, first.ID, dto.ResolveApprovalRequest{Decision: models.DecisionReject})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	rejected, err := env.approvals.Resolve(ctx, supervisorUser, first.ID, dto.ResolveApprovalRequest{Decision: models.DecisionReject, Comments: "insufficient detail"})
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusRejected, rejected.ApprovalStatus)
	require.Equal(t, supervisorUser.ID, deref(rejected.ApprovedBy))
	require.Equal(t, "insufficient detail", deref(rejected.ReviewComments))
	require.Equal(t, models.CaseStatusUnderInvestigation, env.store.caseByID(detail.ID).Status)

	second := submitReport(t, env, detail.ID)
	require.NotEqual(t, first.ID, second.ID)

	approved, err := env.approvals.Resolve(ctx, supervisorUser, second.ID, dto.ResolveApprovalRequest{Decision: models.DecisionApprove})
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusApproved, approved.ApprovalStatus)
	require.Equal(t, models.CaseStatusReportApproved, env.store.caseByID(detail.ID).Status)
	require.Contains(t, env.store.activityTypes(), models.ActivityCaseStatusChanged)

	_, err = env.approvals.Resolve(ctx, commanderUser, second.ID, dto.ResolveApprovalRequest{Decision: models.DecisionApprove})
	require.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestApprovalServiceRevisionKeepsCaseStatus(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail, err := env.caseAt(ctx, models.CaseStatusReportApproved)
	require.NoError(t, err)

	approval, err := env.approvals.Submit(ctx, supervisorUser, detail.ID, dto.SubmitApprovalRequest{ApprovalType: models.ApprovalReportApproval})
	require.NoError(t, err)

	_, err = env.approvals.Resolve(ctx, supervisorUser, approval.ID, dto.ResolveApprovalRequest{Decision: models.DecisionApprove})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	got, err := env.approvals.Resolve(ctx, commanderUser, approval.ID, dto.ResolveApprovalRequest{Decision: models.DecisionRequestRevision, Comments: "cite the tool versions"})
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusRevisionRequested, got.ApprovalStatus)
	require.Equal(t, models.CaseStatusReportApproved, env.store.caseByID(detail.ID).Status)
}

func TestApprovalServiceFinalClosureArchives(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail, err := env.caseAt(ctx, models.CaseStatusClosed)
	require.NoError(t, err)

	approval, err := env.approvals.Submit(ctx, supervisorUser, detail.ID, dto.SubmitApprovalRequest{ApprovalType: models.ApprovalFinalClosure})
	require.NoError(t, err)
	_, err = env.approvals.Resolve(ctx, commanderUser, approval.ID, dto.ResolveApprovalRequest{Decision: models.DecisionApprove})
	require.NoError(t, err)
	require.Equal(t, models.CaseStatusArchived, env.store.caseByID(detail.ID).Status)

	_, err = env.approvals.Resolve(ctx, adminUser, approval.ID, dto.ResolveApprovalRequest{Decision: models.DecisionReject, Comments: "filed in error"})
	require.ErrorIs(t, err, appErrors.ErrConflict)
	got, err := env.approvals.Get(ctx, adminUser, approval.ID)
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusApproved, got.ApprovalStatus)
	require.Equal(t, commanderUser.ID, deref(got.ApprovedBy))
	require.Equal(t, models.CaseStatusArchived, env.store.caseByID(detail.ID).Status)
}

func TestApprovalServiceConcurrentResolveHasOneWinner(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail, err := env.caseAt(ctx, models.CaseStatusUnderInvestigation)
	require.NoError(t, err)
	approval := submitReport(t, env, detail.ID)

	reviewers := []models.Principal{supervisorUser, commanderUser, adminUser}
	results := make([]error, len(reviewers))
	var g errgroup.Group
	for i, reviewer := range reviewers {
		i, reviewer := i, reviewer
		g.Go(func() error {
			_, results[i] = env.approvals.Resolve(ctx, reviewer, approval.ID, dto.ResolveApprovalRequest{Decision: models.DecisionApprove})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		require.ErrorIs(t, err, appErrors.ErrConflict)
	}
	require.Equal(t, 1, winners)
	require.Equal(t, models.CaseStatusReportApproved, env.store.caseByID(detail.ID).Status)
}

func TestApprovalServiceResolveDetectsMovedCase(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail, err := env.caseAt(ctx, models.CaseStatusUnderInvestigation)
	require.NoError(t, err)
	approval := submitReport(t, env, detail.ID)

	_, err = env.cases.OverrideStatus(ctx, adminUser, detail.ID, dto.OverrideCaseStatusRequest{Status: models.CaseStatusEvidenceReturned, Reason: "exhibits handed back"})
	require.NoError(t, err)

	_, err = env.approvals.Resolve(ctx, supervisorUser, approval.ID, dto.ResolveApprovalRequest{Decision: models.DecisionApprove})
	require.ErrorIs(t, err, appErrors.ErrConflict)

	stored, err := approvalRepo{env.store}.FindByID(ctx, approval.ID)
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusPending, stored.ApprovalStatus)
}

func TestApprovalServiceFourEyes(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail, err := env.caseAt(ctx, models.CaseStatusUnderInvestigation)
	require.NoError(t, err)

	approval, err := env.approvals.Submit(ctx, adminUser, detail.ID, dto.SubmitApprovalRequest{ApprovalType: models.ApprovalReportSubmission})
	require.NoError(t, err)
	_, err = env.approvals.Resolve(ctx, adminUser, approval.ID, dto.ResolveApprovalRequest{Decision: models.DecisionApprove})
	require.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = env.approvals.Resolve(ctx, officerUser, approval.ID, dto.ResolveApprovalRequest{Decision: models.DecisionApprove})
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestApprovalServiceActivityFailureIsNotFatal(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail, err := env.caseAt(ctx, models.CaseStatusUnderInvestigation)
	require.NoError(t, err)
	before := len(env.notifier.sent)
	env.store.failActivity = errDatabaseDown

	approval := submitReport(t, env, detail.ID)
	require.Equal(t, models.ApprovalStatusPending, approval.ApprovalStatus)
	require.Len(t, env.notifier.sent, before+1)
	require.Equal(t, models.ActivityApprovalSubmitted, env.notifier.sent[before].Type)
}

func TestApprovalServiceList(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail, err := env.caseAt(ctx, models.CaseStatusUnderInvestigation)
	require.NoError(t, err)
	submitReport(t, env, detail.ID)

	_, _, err = env.approvals.List(ctx, analystUser, dto.ApprovalQuery{})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	items, page, err := env.approvals.List(ctx, analystUser, dto.ApprovalQuery{CaseID: detail.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 1, page.TotalCount)

	items, _, err = env.approvals.List(ctx, supervisorUser, dto.ApprovalQuery{Status: models.ApprovalStatusPending})
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, _, err = env.approvals.List(ctx, supervisorUser, dto.ApprovalQuery{Status: "waiting"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	got, err := env.approvals.Get(ctx, analystUser, items[0].ID)
	require.NoError(t, err)
	require.Equal(t, detail.ID, got.CaseID)
	_, err = env.approvals.Get(ctx, otherAnalyst, items[0].ID)
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

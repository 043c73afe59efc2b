package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/custody"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
)

// racingExhibits runs race once just before the next custody append.
type racingExhibits struct {
	exhibitRepo
	race func()
}

func (r *racingExhibits) AppendCustody(ctx context.Context, m models.CustodyMutation) error {
	if race := r.race; race != nil {
		r.race = nil
		race()
	}
	return r.exhibitRepo.AppendCustody(ctx, m)
}

func intakeExhibit(t *testing.T, env *testEnv) *models.Exhibit {
	t.Helper()
	detail, err := env.createCase(context.Background(), 1)
	require.NoError(t, err)
	return &detail.Exhibits[0]
}

func TestExhibitServiceAssignAppendsLinkedEvent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ex := intakeExhibit(t, env)

	got, err := env.exhibits.Assign(ctx, supervisorUser, ex.ID, dto.AssignExhibitRequest{AnalystID: analystUser.ID, AnalystName: analystUser.Name, Location: "Lab 2"})
	require.NoError(t, err)
	require.Equal(t, models.ExhibitStatusInAnalysis, got.Status)
	require.Equal(t, "Lab 2", got.CurrentLocation)
	require.Equal(t, analystUser.ID, deref(got.AssignedAnalystID))

	stored, err := exhibitRepo{env.store}.FindByID(ctx, ex.ID)
	require.NoError(t, err)
	require.Len(t, stored.ChainOfCustody, 2)
	assigned := stored.ChainOfCustody[1]
	require.Equal(t, models.CustodyEventAssigned, assigned.EventType)
	require.Equal(t, 2, assigned.Sequence)
	require.Equal(t, stored.ChainOfCustody[0].Hash, assigned.PrevHash)
	require.Equal(t, models.ExhibitStatusReceived, *assigned.PreviousStatus)
	require.Equal(t, models.ExhibitStatusInAnalysis, *assigned.NewStatus)
	require.Equal(t, supervisorUser.Name, assigned.Officer.Name)
	require.True(t, custody.Verify(ex.ID, stored.ChainOfCustody).Intact)
	require.Contains(t, env.store.activityTypes(), models.ActivityExhibitAssigned)
}

func TestExhibitServiceAssignRejectsClosedCase(t *testing.T) {
	for _, status := range []models.CaseStatus{models.CaseStatusClosed, models.CaseStatusArchived} {
		t.Run(string(status), func(t *testing.T) {
			env := newTestEnv()
			ctx := context.Background()
			detail, err := env.caseAt(ctx, status)
			require.NoError(t, err)
			ex := detail.Exhibits[0]

			_, err = env.exhibits.Assign(ctx, supervisorUser, ex.ID, dto.AssignExhibitRequest{AnalystID: analystUser.ID})
			require.ErrorIs(t, err, appErrors.ErrConflict)

			stored, err := exhibitRepo{env.store}.FindByID(ctx, ex.ID)
			require.NoError(t, err)
			require.Equal(t, models.ExhibitStatusReceived, stored.Status)
			require.Len(t, stored.ChainOfCustody, 1)
		})
	}
}

func TestExhibitServiceChangeStatus(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ex := intakeExhibit(t, env)

	_, err := env.exhibits.Assign(ctx, supervisorUser, ex.ID, dto.AssignExhibitRequest{AnalystID: analystUser.ID})
	require.NoError(t, err)

	_, err = env.exhibits.ChangeStatus(ctx, otherAnalyst, ex.ID, dto.ChangeExhibitStatusRequest{Status: "analysis_complete"})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	got, err := env.exhibits.ChangeStatus(ctx, analystUser, ex.ID, dto.ChangeExhibitStatusRequest{Status: "analyzed", Notes: "image extracted"})
	require.NoError(t, err)
	require.Equal(t, models.ExhibitStatusAnalysisComplete, got.Status)
	require.Len(t, got.ChainOfCustody, 3)

	_, err = env.exhibits.ChangeStatus(ctx, officerUser, ex.ID, dto.ChangeExhibitStatusRequest{Status: "destroyed"})
	require.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = env.exhibits.ChangeStatus(ctx, officerUser, ex.ID, dto.ChangeExhibitStatusRequest{Status: "melted"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = env.exhibits.ChangeStatus(ctx, investigator, ex.ID, dto.ChangeExhibitStatusRequest{Status: "returned"})
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestExhibitServiceReturnAndTransfer(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ex := intakeExhibit(t, env)

	got, err := env.exhibits.Return(ctx, officerUser, ex.ID, dto.ReturnExhibitRequest{ReturnedTo: "Insp. Kweka"})
	require.NoError(t, err)
	require.Equal(t, models.ExhibitStatusReturned, got.Status)
	require.Equal(t, "Returned to Insp. Kweka", got.CurrentLocation)

	_, err = env.exhibits.Return(ctx, officerUser, ex.ID, dto.ReturnExhibitRequest{ReturnedTo: "Insp. Kweka"})
	require.ErrorIs(t, err, appErrors.ErrConflict)

	got, err = env.exhibits.Transfer(ctx, officerUser, ex.ID, dto.TransferExhibitRequest{ToLocation: "Archive room", ReceivedBy: "Cpl. Juma"})
	require.NoError(t, err)
	require.Equal(t, models.ExhibitStatusReturned, got.Status)
	last := got.ChainOfCustody[len(got.ChainOfCustody)-1]
	require.Equal(t, models.CustodyEventTransferred, last.EventType)
	require.Nil(t, last.NewStatus)
	require.Contains(t, last.Description, "Cpl. Juma")

	_, err = env.exhibits.ChangeStatus(ctx, officerUser, ex.ID, dto.ChangeExhibitStatusRequest{Status: "destroyed"})
	require.NoError(t, err)
	_, err = env.exhibits.Transfer(ctx, officerUser, ex.ID, dto.TransferExhibitRequest{ToLocation: "Lab 1"})
	require.ErrorIs(t, err, appErrors.ErrConflict)

	stored, err := exhibitRepo{env.store}.FindByID(ctx, ex.ID)
	require.NoError(t, err)
	require.Len(t, stored.ChainOfCustody, 4)
	require.NoError(t, stored.ChainOfCustody.Validate())
}

func TestExhibitServiceConcurrentChangeConflicts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ex := intakeExhibit(t, env)

	racing := &racingExhibits{exhibitRepo: exhibitRepo{env.store}}
	svc := NewExhibitService(caseRepo{env.store}, racing, env.activity, env.metrics, nil, nil)
	svc.now = fixedClock
	racing.race = func() {
		_, err := env.exhibits.Transfer(ctx, officerUser, ex.ID, dto.TransferExhibitRequest{ToLocation: "Lab 3"})
		require.NoError(t, err)
	}

	_, err := svc.Assign(ctx, supervisorUser, ex.ID, dto.AssignExhibitRequest{AnalystID: analystUser.ID})
	require.ErrorIs(t, err, appErrors.ErrConflict)

	stored, err := exhibitRepo{env.store}.FindByID(ctx, ex.ID)
	require.NoError(t, err)
	require.Len(t, stored.ChainOfCustody, 2)
	require.Equal(t, models.ExhibitStatusReceived, stored.Status)
	require.True(t, custody.Verify(ex.ID, stored.ChainOfCustody).Intact)

	got, err := svc.Assign(ctx, supervisorUser, ex.ID, dto.AssignExhibitRequest{AnalystID: analystUser.ID})
	require.NoError(t, err)
	require.Len(t, got.ChainOfCustody, 3)
}

func TestExhibitServiceVisibility(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ex := intakeExhibit(t, env)

	_, err := env.exhibits.Get(ctx, analystUser, ex.ID)
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = env.exhibits.Assign(ctx, officerUser, ex.ID, dto.AssignExhibitRequest{AnalystID: analystUser.ID})
	require.NoError(t, err)
	got, err := env.exhibits.Get(ctx, analystUser, ex.ID)
	require.NoError(t, err)
	require.Equal(t, ex.ExhibitNumber, got.ExhibitNumber)

	_, err = env.exhibits.Get(ctx, investigator, "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

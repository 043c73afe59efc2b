package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/storage"
)

func newTestBlobs(t *testing.T) *storage.LocalStorage {
	t.Helper()
	blobs, err := storage.NewLocalStorage(t.TempDir(), storage.NewSignedURLSigner("blob-secret", time.Minute), "/api/v1/blobs")
	require.NoError(t, err)
	return blobs
}

func newTestCustodyService(t *testing.T, env *testEnv, blobs storage.BlobStore) *CustodyService {
	t.Helper()
	return NewCustodyService(exhibitRepo{env.store}, caseRepo{env.store}, blobs, env.activity, CustodyServiceConfig{UnitName: "Cyber Crimes Unit"}, nil)
}

func TestCustodyServiceHistoryAndVerify(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ex := intakeExhibit(t, env)
	_, err := env.exhibits.Assign(ctx, supervisorUser, ex.ID, dto.AssignExhibitRequest{AnalystID: analystUser.ID})
	require.NoError(t, err)
	svc := newTestCustodyService(t, env, nil)

	history, err := svc.History(ctx, commanderUser, ex.ID)
	require.NoError(t, err)
	require.Equal(t, ex.ExhibitNumber, history.ExhibitNumber)
	require.Len(t, history.Events, 2)
	require.Equal(t, models.CustodyEventReceived, history.Events[0].EventType)

	v, err := svc.Verify(ctx, analystUser, ex.ID)
	require.NoError(t, err)
	require.True(t, v.Intact)
	require.Equal(t, 2, v.Events)

	env.store.mu.Lock()
	env.store.exhibits[ex.ID].ChainOfCustody[0].Description = "altered"
	env.store.mu.Unlock()
	v, err = svc.Verify(ctx, commanderUser, ex.ID)
	require.NoError(t, err)
	require.False(t, v.Intact)
	require.Equal(t, 1, v.BrokenAt)

	_, err = svc.History(ctx, otherAnalyst, ex.ID)
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestCustodyServiceExportIsDeterministic(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ex := intakeExhibit(t, env)
	svc := newTestCustodyService(t, env, nil)

	first, err := svc.Export(ctx, commanderUser, ex.ID, "text")
	require.NoError(t, err)
	second, err := svc.Export(ctx, commanderUser, ex.ID, "txt")
	require.NoError(t, err)
	require.Equal(t, first.Body, second.Body)
	require.Equal(t, "CYB-LAB-2026-0001-A-custody.txt", first.FileName)
	require.Contains(t, string(first.Body), "Cyber Crimes Unit")
	require.Contains(t, string(first.Body), ex.ExhibitNumber)

	csv, err := svc.Export(ctx, commanderUser, ex.ID, "csv")
	require.NoError(t, err)
	require.Equal(t, "text/csv", csv.ContentType)

	_, err = svc.Export(ctx, commanderUser, ex.ID, "docx")
	require.ErrorIs(t, err, appErrors.ErrUnsupportedFormat)
}

func TestCustodyServicePublish(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	ex := intakeExhibit(t, env)
	blobs := newTestBlobs(t)
	svc := newTestCustodyService(t, env, blobs)

	link, err := svc.Publish(ctx, officerUser, ex.ID, dto.PublishCustodyRequest{Format: "csv"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link.Path, "custody-reports/2026-0001/CYB-LAB-2026-0001-A-"))
	require.True(t, strings.HasSuffix(link.Path, ".csv"))
	require.True(t, strings.HasPrefix(link.URL, "/api/v1/blobs/"))
	require.Contains(t, env.store.activityTypes(), models.ActivityCustodyPublished)

	again, err := svc.Publish(ctx, officerUser, ex.ID, dto.PublishCustodyRequest{Format: "csv"})
	require.NoError(t, err)
	require.Equal(t, link.Path, again.Path)

	token := strings.TrimPrefix(link.URL, "/api/v1/blobs/")
	rc, obj, err := blobs.OpenSigned(ctx, token)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, link.Path, obj.Key)
	require.Contains(t, string(body), ex.ChainOfCustody[0].Hash)

	_, err = svc.Publish(ctx, analystUser, ex.ID, dto.PublishCustodyRequest{})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = newTestCustodyService(t, env, nil).Publish(ctx, officerUser, ex.ID, dto.PublishCustodyRequest{})
	require.ErrorIs(t, err, appErrors.ErrDependency)
}

package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
)

func newTestDocumentService(t *testing.T, env *testEnv) *DocumentService {
	t.Helper()
	svc := NewDocumentService(caseRepo{env.store}, newTestBlobs(t), env.activity, DocumentConfig{
		MaxBytes:     64,
		AllowedMIMEs: []string{"application/pdf", "image/jpeg"},
	}, nil, nil)
	svc.now = fixedClock
	return svc
}

func upload(kind models.DocumentKind, name, contentType, body string) dto.UploadDocumentRequest {
	return dto.UploadDocumentRequest{
		Kind:        kind,
		FileName:    name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func TestDocumentServiceUploadListPreview(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail, err := env.createCase(ctx, 1)
	require.NoError(t, err)
	svc := newTestDocumentService(t, env)

	doc, err := svc.Upload(ctx, investigator, detail.ID, upload(models.DocumentReferenceLetter, `..\..\Letter of ref.pdf`, "application/pdf; charset=binary", "%PDF-1.4 letter"))
	require.NoError(t, err)
	require.Equal(t, "reference-letters/2026-0001/1772443800-Letter_of_ref.pdf", doc.Path)
	require.Equal(t, "application/pdf", doc.ContentType)
	require.Contains(t, env.store.activityTypes(), models.ActivityDocumentUploaded)

	docs, err := svc.List(ctx, investigator, detail.ID, "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, doc.Path, docs[0].Path)
	require.Equal(t, models.DocumentReferenceLetter, docs[0].Kind)

	docs, err = svc.List(ctx, investigator, detail.ID, models.DocumentExhibitPhoto)
	require.NoError(t, err)
	require.Empty(t, docs)

	link, err := svc.Preview(ctx, supervisorUser, detail.ID, doc.Path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link.URL, "/api/v1/blobs/"))

	_, err = svc.Preview(ctx, supervisorUser, detail.ID, "reference-letters/2026-0002/1-other.pdf")
	require.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = svc.Preview(ctx, supervisorUser, detail.ID, "../reference-letters/2026-0001/x.pdf")
	require.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.Preview(ctx, supervisorUser, detail.ID, "reference-letters/2026-0001/missing.pdf")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDocumentServiceUploadRejections(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	detail, err := env.createCase(ctx, 1)
	require.NoError(t, err)
	svc := newTestDocumentService(t, env)

	_, err = svc.Upload(ctx, officerUser, detail.ID, upload(models.DocumentExhibitPhoto, "photo.jpg", "image/jpeg", strings.Repeat("x", 65)))
	require.ErrorIs(t, err, appErrors.ErrPayloadTooLarge)

	_, err = svc.Upload(ctx, officerUser, detail.ID, upload(models.DocumentExhibitPhoto, "tool.exe", "application/x-msdownload", "MZ"))
	require.ErrorIs(t, err, appErrors.ErrUnsupportedFormat)

	_, err = svc.Upload(ctx, officerUser, detail.ID, upload(models.DocumentCustodyReport, "report.pdf", "application/pdf", "%PDF"))
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Upload(ctx, otherAnalyst, detail.ID, upload(models.DocumentAnalysisReport, "report.pdf", "application/pdf", "%PDF"))
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Upload(ctx, officerUser, "missing", upload(models.DocumentAnalysisReport, "report.pdf", "application/pdf", "%PDF"))
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

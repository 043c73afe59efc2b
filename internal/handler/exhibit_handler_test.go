package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/custody"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/service"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
)

type exhibitServiceMock struct {
	resp       *models.Exhibit
	err        error
	lastID     string
	lastStatus dto.ChangeExhibitStatusRequest
	lastMove   dto.TransferExhibitRequest
}

func (m *exhibitServiceMock) Get(ctx context.Context, p models.Principal, id string) (*models.Exhibit, error) {
	m.lastID = id
	return m.resp, m.err
}

func (m *exhibitServiceMock) Assign(ctx context.Context, p models.Principal, id string, req dto.AssignExhibitRequest) (*models.Exhibit, error) {
	m.lastID = id
	return m.resp, m.err
}

func (m *exhibitServiceMock) ChangeStatus(ctx context.Context, p models.Principal, id string, req dto.ChangeExhibitStatusRequest) (*models.Exhibit, error) {
	m.lastID = id
	m.lastStatus = req
	return m.resp, m.err
}

func (m *exhibitServiceMock) Transfer(ctx context.Context, p models.Principal, id string, req dto.TransferExhibitRequest) (*models.Exhibit, error) {
	m.lastID = id
	m.lastMove = req
	return m.resp, m.err
}

func (m *exhibitServiceMock) Return(ctx context.Context, p models.Principal, id string, req dto.ReturnExhibitRequest) (*models.Exhibit, error) {
	m.lastID = id
	return m.resp, m.err
}

type custodyServiceMock struct {
	history *dto.CustodyHistory
	verify  *custody.Verification
	export  *service.CustodyExport
	link    *models.SignedLink
	err     error

	lastFormat  string
	lastPublish dto.PublishCustodyRequest
}

func (m *custodyServiceMock) History(ctx context.Context, p models.Principal, exhibitID string) (*dto.CustodyHistory, error) {
	return m.history, m.err
}

func (m *custodyServiceMock) Verify(ctx context.Context, p models.Principal, exhibitID string) (*custody.Verification, error) {
	return m.verify, m.err
}

func (m *custodyServiceMock) Export(ctx context.Context, p models.Principal, exhibitID, format string) (*service.CustodyExport, error) {
	m.lastFormat = format
	return m.export, m.err
}

func (m *custodyServiceMock) Publish(ctx context.Context, p models.Principal, exhibitID string, req dto.PublishCustodyRequest) (*models.SignedLink, error) {
	m.lastPublish = req
	return m.link, m.err
}

var analystClaims = &models.JWTClaims{UserID: "an-1", Role: models.RoleAnalyst, Name: "Analyst One", BadgeNumber: "N-001"}

func TestExhibitHandlerChangeStatus(t *testing.T) {
	mockSvc := &exhibitServiceMock{resp: &models.Exhibit{ID: "ex-1", Status: models.ExhibitStatusAnalysisComplete}}
	handler := NewExhibitHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/exhibits/ex-1/status", []byte(`{"status":"analyzed","notes":"imaging done"}`), analystClaims)
	c.Params = gin.Params{{Key: "id", Value: "ex-1"}}
	handler.ChangeStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ex-1", mockSvc.lastID)
	assert.Equal(t, "analyzed", mockSvc.lastStatus.Status)
	assert.Contains(t, w.Body.String(), `"analysis_complete"`)
}

func TestExhibitHandlerTransferConflict(t *testing.T) {
	mockSvc := &exhibitServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "exhibit changed concurrently")}
	handler := NewExhibitHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/exhibits/ex-1/transfer", []byte(`{"to_location":"Vault 2"}`), officerClaims)
	c.Params = gin.Params{{Key: "id", Value: "ex-1"}}
	handler.Transfer(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Vault 2", mockSvc.lastMove.ToLocation)
}

func TestExhibitHandlerReturnInvalidBody(t *testing.T) {
	mockSvc := &exhibitServiceMock{}
	handler := NewExhibitHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/exhibits/ex-1/return", []byte(`[`), officerClaims)
	handler.Return(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mockSvc.lastID)
}

func TestCustodyHandlerExportDownload(t *testing.T) {
	mockSvc := &custodyServiceMock{export: &service.CustodyExport{
		FileName:    "CYB-LAB-2026-0001-A-custody.csv",
		ContentType: "text/csv",
		Body:        []byte("sequence,timestamp\n1,2026-03-02T09:30:00Z\n"),
	}}
	handler := NewCustodyHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/exhibits/ex-1/custody/export?format=csv", nil, officerClaims)
	c.Params = gin.Params{{Key: "id", Value: "ex-1"}}
	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mockSvc.lastFormat)
	assert.Equal(t, "attachment; filename=CYB-LAB-2026-0001-A-custody.csv", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "1,2026-03-02T09:30:00Z")
}

func TestCustodyHandlerExportDefaultsToText(t *testing.T) {
	mockSvc := &custodyServiceMock{err: appErrors.ErrForbidden}
	handler := NewCustodyHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/exhibits/ex-1/custody/export", nil, analystClaims)
	handler.Export(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "text", mockSvc.lastFormat)
}

func TestCustodyHandlerVerify(t *testing.T) {
	mockSvc := &custodyServiceMock{verify: &custody.Verification{ExhibitID: "ex-1", Intact: false, Events: 3, BrokenAt: 2}}
	handler := NewCustodyHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/exhibits/ex-1/custody/verify", nil, officerClaims)
	handler.Verify(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"broken_at":2`)
}

func TestCustodyHandlerPublish(t *testing.T) {
	mockSvc := &custodyServiceMock{link: &models.SignedLink{Path: "custody-reports/2026-0001/x.pdf", URL: "/api/v1/blobs/tok"}}
	handler := NewCustodyHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/exhibits/ex-1/custody/publish", []byte(`{"format":"pdf"}`), officerClaims)
	handler.Publish(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "pdf", mockSvc.lastPublish.Format)

	c, w = newTestContext(http.MethodPost, "/exhibits/ex-1/custody/publish", nil, officerClaims)
	handler.Publish(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, mockSvc.lastPublish.Format)
}

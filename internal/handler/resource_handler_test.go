package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhive/resource-api/internal/dto"
	"github.com/studyhive/resource-api/internal/middleware"
	"github.com/studyhive/resource-api/internal/models"
	"github.com/studyhive/resource-api/internal/service"
	appErrors "github.com/studyhive/resource-api/pkg/errors"
)

const testResourceID = "3f0c8e1a-9d2b-4c5e-8f7a-1b2c3d4e5f60"

type resourceServiceMock struct {
	listResp   *dto.ListResourcesResponse
	getResp    *models.Resource
	getErr     error
	createResp *models.Resource
	createErr  error
	updateResp *models.Resource
	updateErr  error
	deleteErr  error
	mediaResp  *models.Resource
	mediaErr   error

	gotCategory string
	gotIndex    int
	gotUploads  []service.FileUpload
	gotLinks    []dto.LinkInput
	gotCreate   dto.CreateResourceRequest
	gotPatch    dto.UpdateMediaEntryRequest
}

func (m *resourceServiceMock) List(ctx context.Context, caller *models.Claims, q dto.ListQuery) (*dto.ListResourcesResponse, error) {
	if m.listResp != nil {
		return m.listResp, nil
	}
	return &dto.ListResourcesResponse{Success: true, Filter: "all", Resources: []models.Resource{}}, nil
}

func (m *resourceServiceMock) Get(ctx context.Context, id string) (*models.Resource, error) {
	return m.getResp, m.getErr
}

func (m *resourceServiceMock) Create(ctx context.Context, caller *models.Claims, req dto.CreateResourceRequest, uploads []service.FileUpload, links []dto.LinkInput) (*models.Resource, error) {
	m.gotUploads = uploads
	m.gotLinks = links
	m.gotCreate = req
	return m.createResp, m.createErr
}

func (m *resourceServiceMock) Update(ctx context.Context, caller *models.Claims, id string, req *dto.UpdateResourceRequest, uploads []service.FileUpload, links []dto.LinkInput) (*models.Resource, error) {
	return m.updateResp, m.updateErr
}

func (m *resourceServiceMock) Delete(ctx context.Context, caller *models.Claims, id string) error {
	return m.deleteErr
}

func (m *resourceServiceMock) RemoveMediaEntry(ctx context.Context, caller *models.Claims, resourceID, category string, index int) (*models.Resource, models.MediaEntry, error) {
	m.gotCategory = category
	m.gotIndex = index
	if m.mediaErr != nil {
		return nil, models.MediaEntry{}, m.mediaErr
	}
	return m.mediaResp, models.MediaEntry{ID: 1}, nil
}

func (m *resourceServiceMock) UpdateMediaEntry(ctx context.Context, caller *models.Claims, resourceID, category string, index int, updates dto.UpdateMediaEntryRequest) (*models.Resource, error) {
	m.gotCategory = category
	m.gotIndex = index
	m.gotPatch = updates
	return m.mediaResp, m.mediaErr
}

type uploadServiceMock struct {
	file *dto.UploadedFile
	err  error
}

func (m *uploadServiceMock) Upload(ctx context.Context, upload service.FileUpload) (*dto.UploadedFile, error) {
	return m.file, m.err
}

func newTestHandler(resources *resourceServiceMock) *ResourceHandler {
	return NewResourceHandler(resources, &uploadServiceMock{}, ResourceHandlerConfig{})
}

func decodeErrorCode(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body.Bytes(), &envelope))
	return envelope.Error.Code
}

func testContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestResourceHandlerGetInvalidUUID(t *testing.T) {
	handler := newTestHandler(&resourceServiceMock{})
	c, w := testContext(t, http.MethodGet, "/api/resources/not-a-uuid", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	handler.Get(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_UUID", decodeErrorCode(t, w.Body))
}

func TestResourceHandlerGetNotFound(t *testing.T) {
	handler := newTestHandler(&resourceServiceMock{getErr: appErrors.ErrResourceNotFound})
	c, w := testContext(t, http.MethodGet, "/api/resources/"+testResourceID, nil)
	c.Params = gin.Params{{Key: "id", Value: testResourceID}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", decodeErrorCode(t, w.Body))
}

func TestResourceHandlerGetSuccess(t *testing.T) {
	handler := newTestHandler(&resourceServiceMock{getResp: &models.Resource{ID: testResourceID, Title: "Notes"}})
	c, w := testContext(t, http.MethodGet, "/api/resources/"+testResourceID, nil)
	c.Params = gin.Params{{Key: "id", Value: testResourceID}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.ResourceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, testResourceID, resp.Resource.ID)
}

func TestResourceHandlerCreateRequiresAuth(t *testing.T) {
	handler := newTestHandler(&resourceServiceMock{})
	c, w := testContext(t, http.MethodPost, "/api/resources", []byte(`{"title":"x"}`))

	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTHENTICATION_REQUIRED", decodeErrorCode(t, w.Body))
}

func TestResourceHandlerCreateJSON(t *testing.T) {
	mock := &resourceServiceMock{createResp: &models.Resource{ID: testResourceID, Title: "Notes"}}
	handler := newTestHandler(mock)
	body, _ := json.Marshal(dto.CreateResourceRequest{
		Title:        "Notes",
		ResourceType: "URL",
		Media:        &models.MediaAggregate{URLs: []models.MediaEntry{{URL: "https://example.com"}}},
	})
	c, w := testContext(t, http.MethodPost, "/api/resources", body)
	c.Set(middleware.ContextUserKey, &models.Claims{UserID: "owner-1"})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp dto.MutationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, testResourceID, resp.Resource.ID)
}

func TestResourceHandlerCreateMultipart(t *testing.T) {
	mock := &resourceServiceMock{createResp: &models.Resource{ID: testResourceID, Title: "Slides"}}
	handler := newTestHandler(mock)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Slides"))
	require.NoError(t, mw.WriteField("hashtags", `["week1"]`))
	fw, err := mw.CreateFormFile("files", "slides.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/api/resources", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.Claims{UserID: "owner-1"})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, mock.gotUploads, 1)
	require.Equal(t, "slides.pdf", mock.gotUploads[0].OriginalName)
	// form creates carry no media aggregate and are forced to DOCUMENT
	require.Nil(t, mock.gotCreate.Media)
	require.Equal(t, string(models.ResourceTypeDocument), mock.gotCreate.ResourceType)
	require.Equal(t, []string{"week1"}, mock.gotCreate.Hashtags)
}

func TestResourceHandlerCreateInvalidJSON(t *testing.T) {
	handler := newTestHandler(&resourceServiceMock{})
	c, w := testContext(t, http.MethodPost, "/api/resources", []byte(`{invalid`))
	c.Set(middleware.ContextUserKey, &models.Claims{UserID: "owner-1"})

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeErrorCode(t, w.Body))
}

func TestResourceHandlerUpdateEmptyBody(t *testing.T) {
	handler := newTestHandler(&resourceServiceMock{})
	c, w := testContext(t, http.MethodPut, "/api/resources/"+testResourceID, []byte("   "))
	c.Params = gin.Params{{Key: "id", Value: testResourceID}}
	c.Set(middleware.ContextUserKey, &models.Claims{UserID: "owner-1"})

	handler.Update(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_REQUEST_BODY", decodeErrorCode(t, w.Body))
}

func TestResourceHandlerUpdateDisallowedField(t *testing.T) {
	handler := newTestHandler(&resourceServiceMock{})
	c, w := testContext(t, http.MethodPut, "/api/resources/"+testResourceID, []byte(`{"owner_id":"someone-else"}`))
	c.Params = gin.Params{{Key: "id", Value: testResourceID}}
	c.Set(middleware.ContextUserKey, &models.Claims{UserID: "owner-1"})

	handler.Update(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeErrorCode(t, w.Body))
}

func TestResourceHandlerDeleteForbidden(t *testing.T) {
	handler := newTestHandler(&resourceServiceMock{deleteErr: appErrors.ErrForbidden})
	c, w := testContext(t, http.MethodDelete, "/api/resources/"+testResourceID, nil)
	c.Params = gin.Params{{Key: "id", Value: testResourceID}}
	c.Set(middleware.ContextUserKey, &models.Claims{UserID: "intruder"})

	handler.Delete(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decodeErrorCode(t, w.Body))
}

func TestResourceHandlerUploadFileMissing(t *testing.T) {
	handler := newTestHandler(&resourceServiceMock{})
	c, w := testContext(t, http.MethodPost, "/api/resources/upload", nil)
	c.Request.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	c.Set(middleware.ContextUserKey, &models.Claims{UserID: "owner-1"})

	handler.UploadFile(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NO_FILE_PROVIDED", decodeErrorCode(t, w.Body))
}

func TestResourceHandlerDeleteMediaEntryInvalidIndex(t *testing.T) {
	handler := newTestHandler(&resourceServiceMock{})

	for _, raw := range []string{"-1", "abc", "1.5"} {
		c, w := testContext(t, http.MethodDelete, "/api/resources/"+testResourceID+"/files/"+raw, nil)
		c.Params = gin.Params{
			{Key: "id", Value: testResourceID},
			{Key: "type", Value: "files"},
			{Key: "index", Value: raw},
		}
		c.Set(middleware.ContextUserKey, &models.Claims{UserID: "owner-1"})

		handler.DeleteMediaEntry(c)
		require.Equal(t, http.StatusBadRequest, w.Code, "index %q", raw)
		assert.Equal(t, "INVALID_INDEX", decodeErrorCode(t, w.Body))
	}
}

func TestResourceHandlerDeleteMediaEntry(t *testing.T) {
	mock := &resourceServiceMock{mediaResp: &models.Resource{ID: testResourceID}}
	handler := newTestHandler(mock)
	c, w := testContext(t, http.MethodDelete, "/api/resources/"+testResourceID+"/images/2", nil)
	c.Params = gin.Params{
		{Key: "id", Value: testResourceID},
		{Key: "type", Value: "images"},
		{Key: "index", Value: "2"},
	}
	c.Set(middleware.ContextUserKey, &models.Claims{UserID: "owner-1"})

	handler.DeleteMediaEntry(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "images", mock.gotCategory)
	require.Equal(t, 2, mock.gotIndex)
}

func TestResourceHandlerUpdateMediaEntryEmptyBody(t *testing.T) {
	handler := newTestHandler(&resourceServiceMock{})
	c, w := testContext(t, http.MethodPatch, "/api/resources/"+testResourceID+"/files/0", []byte(`{}`))
	c.Params = gin.Params{
		{Key: "id", Value: testResourceID},
		{Key: "type", Value: "files"},
		{Key: "index", Value: "0"},
	}
	c.Set(middleware.ContextUserKey, &models.Claims{UserID: "owner-1"})

	handler.UpdateMediaEntry(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_REQUEST_BODY", decodeErrorCode(t, w.Body))
}

func TestResourceHandlerUpdateMediaEntryNullCaption(t *testing.T) {
	mock := &resourceServiceMock{mediaResp: &models.Resource{ID: testResourceID}}
	handler := newTestHandler(mock)
	c, w := testContext(t, http.MethodPatch, "/api/resources/"+testResourceID+"/files/0", []byte(`{"caption":null}`))
	c.Params = gin.Params{
		{Key: "id", Value: testResourceID},
		{Key: "type", Value: "files"},
		{Key: "index", Value: "0"},
	}
	c.Set(middleware.ContextUserKey, &models.Claims{UserID: "owner-1"})

	handler.UpdateMediaEntry(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, mock.gotPatch.Caption.Present)
	require.Nil(t, mock.gotPatch.Caption.Value)
}

func TestResourceHandlerUpdateMediaEntry(t *testing.T) {
	mock := &resourceServiceMock{mediaResp: &models.Resource{ID: testResourceID}}
	handler := newTestHandler(mock)
	c, w := testContext(t, http.MethodPatch, "/api/resources/"+testResourceID+"/files/0", []byte(`{"caption":"week 3"}`))
	c.Params = gin.Params{
		{Key: "id", Value: testResourceID},
		{Key: "type", Value: "files"},
		{Key: "index", Value: "0"},
	}
	c.Set(middleware.ContextUserKey, &models.Claims{UserID: "owner-1"})

	handler.UpdateMediaEntry(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "files", mock.gotCategory)

	var resp dto.MutationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
}

func TestResourceHandlerList(t *testing.T) {
	handler := newTestHandler(&resourceServiceMock{listResp: &dto.ListResourcesResponse{
		Success: true, Count: 1, Filter: "all",
		Resources: []models.Resource{{ID: testResourceID}},
	}})
	c, w := testContext(t, http.MethodGet, "/api/resources?filter=all", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.ListResourcesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
}

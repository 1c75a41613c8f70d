package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studyhive/resource-api/internal/dto"
	"github.com/studyhive/resource-api/internal/models"
	"github.com/studyhive/resource-api/internal/service"
	appErrors "github.com/studyhive/resource-api/pkg/errors"
	"github.com/studyhive/resource-api/pkg/response"
)

var uuidPattern = regexp.MustCompile(`^(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

type resourceService interface {
	List(ctx context.Context, caller *models.Claims, q dto.ListQuery) (*dto.ListResourcesResponse, error)
	Get(ctx context.Context, id string) (*models.Resource, error)
	Create(ctx context.Context, caller *models.Claims, req dto.CreateResourceRequest, uploads []service.FileUpload, links []dto.LinkInput) (*models.Resource, error)
	Update(ctx context.Context, caller *models.Claims, id string, req *dto.UpdateResourceRequest, uploads []service.FileUpload, links []dto.LinkInput) (*models.Resource, error)
	Delete(ctx context.Context, caller *models.Claims, id string) error
	RemoveMediaEntry(ctx context.Context, caller *models.Claims, resourceID, category string, index int) (*models.Resource, models.MediaEntry, error)
	UpdateMediaEntry(ctx context.Context, caller *models.Claims, resourceID, category string, index int, updates dto.UpdateMediaEntryRequest) (*models.Resource, error)
}

type uploadService interface {
	Upload(ctx context.Context, upload service.FileUpload) (*dto.UploadedFile, error)
}

// ResourceHandlerConfig bounds multipart ingestion at the HTTP edge.
type ResourceHandlerConfig struct {
	MaxFileSizeBytes int64
	MaxFilesPerBatch int
}

// ResourceHandler manages the /api/resources endpoints.
type ResourceHandler struct {
	resources resourceService
	uploads   uploadService
	cfg       ResourceHandlerConfig
}

// NewResourceHandler constructs the handler.
func NewResourceHandler(resources resourceService, uploads uploadService, cfg ResourceHandlerConfig) *ResourceHandler {
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 10 * 1024 * 1024
	}
	if cfg.MaxFilesPerBatch <= 0 {
		cfg.MaxFilesPerBatch = 10
	}
	return &ResourceHandler{resources: resources, uploads: uploads, cfg: cfg}
}

// List godoc
// @Summary List resources
// @Tags Resources
// @Produce json
// @Param filter query string false "Scope filter (all, my, following)"
// @Param course_code query string false "Exact course code"
// @Param hashtag query string false "Hashtag containment"
// @Param search query string false "Substring match over title or description"
// @Success 200 {object} dto.ListResourcesResponse
// @Router /api/resources [get]
func (h *ResourceHandler) List(c *gin.Context) {
	q := dto.ListQuery{
		Filter:     c.Query("filter"),
		CourseCode: c.Query("course_code"),
		Hashtag:    c.Query("hashtag"),
		Search:     c.Query("search"),
	}
	result, err := h.resources.List(c.Request.Context(), claimsFromContext(c), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Get godoc
// @Summary Get one resource
// @Tags Resources
// @Produce json
// @Param id path string true "Resource ID (UUID)"
// @Success 200 {object} dto.ResourceResponse
// @Failure 404 {object} response.ErrorEnvelope
// @Router /api/resources/{id} [get]
func (h *ResourceHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !uuidPattern.MatchString(id) {
		response.Error(c, appErrors.ErrInvalidUUID)
		return
	}
	res, err := h.resources.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ResourceResponse{Success: true, Resource: res})
}

// Create godoc
// @Summary Create a resource
// @Tags Resources
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} dto.MutationResponse
// @Failure 400 {object} response.ErrorEnvelope
// @Router /api/resources [post]
func (h *ResourceHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrAuthRequired, "authentication required to create resource"))
		return
	}

	var req dto.CreateResourceRequest
	var uploads []service.FileUpload
	var links []dto.LinkInput

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			response.Error(c, appErrors.WithDetails(appErrors.ErrValidation, "invalid multipart form"))
			return
		}
		uploads, err = h.readBatch(form.File["files"])
		if err != nil {
			response.Error(c, err)
			return
		}
		req = dto.CreateResourceRequest{
			Title:        c.PostForm("title"),
			Description:  optionalForm(form, "description"),
			CourseCode:   optionalForm(form, "course_code"),
			ResourceType: string(models.ResourceTypeDocument),
		}
		if req.Hashtags, err = parseHashtagsField(c.PostForm("hashtags")); err != nil {
			response.Error(c, err)
			return
		}
		if links, err = parseLinksField(c.PostForm("links")); err != nil {
			response.Error(c, err)
			return
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.WithDetails(appErrors.ErrValidation, err.Error()))
			return
		}
	}

	res, err := h.resources.Create(c.Request.Context(), claims, req, uploads, links)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.MutationResponse{Success: true, Message: "Resource created successfully", Resource: res})
}

// Update godoc
// @Summary Update a resource
// @Tags Resources
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Resource ID (UUID)"
// @Success 200 {object} dto.MutationResponse
// @Failure 403 {object} response.ErrorEnvelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /api/resources/{id} [put]
func (h *ResourceHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if !uuidPattern.MatchString(id) {
		response.Error(c, appErrors.ErrInvalidUUID)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrAuthRequired, "authentication required to update resource"))
		return
	}

	req := &dto.UpdateResourceRequest{}
	var uploads []service.FileUpload
	var links []dto.LinkInput

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			response.Error(c, appErrors.WithDetails(appErrors.ErrValidation, "invalid multipart form"))
			return
		}
		uploads, err = h.readBatch(form.File["files"])
		if err != nil {
			response.Error(c, err)
			return
		}
		req, links, err = updateRequestFromForm(form)
		if err != nil {
			response.Error(c, err)
			return
		}
	} else {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read request body"))
			return
		}
		if len(strings.TrimSpace(string(body))) == 0 {
			response.Error(c, appErrors.ErrEmptyRequestBody)
			return
		}
		req, err = dto.ParseUpdateResourceRequest(body)
		if err != nil {
			response.Error(c, appErrors.WithDetails(appErrors.ErrValidation, err.Error()))
			return
		}
	}

	res, err := h.resources.Update(c.Request.Context(), claims, id, req, uploads, links)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.MutationResponse{Success: true, Message: "Resource updated successfully", Resource: res})
}

// Delete godoc
// @Summary Delete a resource
// @Tags Resources
// @Produce json
// @Param id path string true "Resource ID (UUID)"
// @Success 200 {object} dto.MutationResponse
// @Failure 403 {object} response.ErrorEnvelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /api/resources/{id} [delete]
func (h *ResourceHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !uuidPattern.MatchString(id) {
		response.Error(c, appErrors.ErrInvalidUUID)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrAuthRequired, "authentication required to delete resource"))
		return
	}
	if err := h.resources.Delete(c.Request.Context(), claims, id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.MutationResponse{Success: true, Message: "Resource deleted successfully"})
}

// UploadFile godoc
// @Summary Upload a single file
// @Tags Resources
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File (max 10MB)"
// @Success 200 {object} dto.UploadResponse
// @Failure 400 {object} response.ErrorEnvelope
// @Router /api/resources/upload [post]
func (h *ResourceHandler) UploadFile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrAuthRequired, "authentication required to upload file"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.ErrNoFileProvided)
		return
	}
	upload, err := h.readFile(fileHeader)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.uploads.Upload(c.Request.Context(), upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.UploadResponse{Success: true, Message: "File uploaded successfully", File: file})
}

// DeleteMediaEntry godoc
// @Summary Delete one media entry from a resource
// @Tags Resources
// @Produce json
// @Param resourceId path string true "Resource ID (UUID)"
// @Param type path string true "Media category (files, images, videos, urls)"
// @Param index path int true "Position within the category"
// @Success 200 {object} dto.MutationResponse
// @Failure 404 {object} response.ErrorEnvelope
// @Router /api/resources/{resourceId}/{type}/{index} [delete]
func (h *ResourceHandler) DeleteMediaEntry(c *gin.Context) {
	resourceID, category, index, err := mediaEntryParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, _, err := h.resources.RemoveMediaEntry(c.Request.Context(), claimsFromContext(c), resourceID, category, index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.MutationResponse{Success: true, Message: "File deleted successfully", Resource: res})
}

// UpdateMediaEntry godoc
// @Summary Update caption or original name of one media entry
// @Tags Resources
// @Accept json
// @Produce json
// @Param resourceId path string true "Resource ID (UUID)"
// @Param type path string true "Media category (files, images, videos, urls)"
// @Param index path int true "Position within the category"
// @Success 200 {object} dto.MutationResponse
// @Failure 404 {object} response.ErrorEnvelope
// @Router /api/resources/{resourceId}/{type}/{index} [patch]
func (h *ResourceHandler) UpdateMediaEntry(c *gin.Context) {
	resourceID, category, index, err := mediaEntryParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read request body"))
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		response.Error(c, appErrors.ErrEmptyRequestBody)
		return
	}
	updates, err := dto.ParseUpdateMediaEntryRequest(body)
	if err != nil {
		response.Error(c, appErrors.WithDetails(appErrors.ErrValidation, err.Error()))
		return
	}
	if updates.IsEmpty() {
		response.Error(c, appErrors.ErrEmptyRequestBody)
		return
	}
	res, err := h.resources.UpdateMediaEntry(c.Request.Context(), claimsFromContext(c), resourceID, category, index, *updates)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.MutationResponse{Success: true, Message: "File updated successfully", Resource: res})
}

func mediaEntryParams(c *gin.Context) (string, string, int, error) {
	resourceID := c.Param("id")
	if !uuidPattern.MatchString(resourceID) {
		return "", "", 0, appErrors.ErrInvalidUUID
	}
	rawIndex := c.Param("index")
	index, err := strconv.Atoi(rawIndex)
	if err != nil || index < 0 {
		return "", "", 0, appErrors.ErrInvalidIndex
	}
	return resourceID, c.Param("type"), index, nil
}

func (h *ResourceHandler) readBatch(headers []*multipart.FileHeader) ([]service.FileUpload, error) {
	if len(headers) > h.cfg.MaxFilesPerBatch {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, fmt.Sprintf("at most %d files per request", h.cfg.MaxFilesPerBatch))
	}
	uploads := make([]service.FileUpload, 0, len(headers))
	for _, header := range headers {
		upload, err := h.readFile(header)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

func (h *ResourceHandler) readFile(header *multipart.FileHeader) (service.FileUpload, error) {
	if header.Size > h.cfg.MaxFileSizeBytes {
		return service.FileUpload{}, appErrors.WithDetails(appErrors.ErrValidation,
			fmt.Sprintf("file %s exceeds %d bytes limit", header.Filename, h.cfg.MaxFileSizeBytes))
	}
	src, err := header.Open()
	if err != nil {
		return service.FileUpload{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	defer src.Close()
	content, err := io.ReadAll(src)
	if err != nil {
		return service.FileUpload{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file")
	}
	return service.FileUpload{OriginalName: header.Filename, Content: content}, nil
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

func optionalForm(form *multipart.Form, key string) *string {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

func parseHashtagsField(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "hashtags must be a JSON array of strings")
	}
	return tags, nil
}

func parseLinksField(raw string) ([]dto.LinkInput, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var links []dto.LinkInput
	if err := json.Unmarshal([]byte(raw), &links); err != nil {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "links must be a JSON array of objects")
	}
	return links, nil
}

func updateRequestFromForm(form *multipart.Form) (*dto.UpdateResourceRequest, []dto.LinkInput, error) {
	req := &dto.UpdateResourceRequest{}
	if title := optionalForm(form, "title"); title != nil {
		req.Title = title
	}
	if desc := optionalForm(form, "description"); desc != nil {
		req.Description = dto.OptionalString{Present: true, Value: desc}
	}
	if code := optionalForm(form, "course_code"); code != nil {
		req.CourseCode = dto.OptionalString{Present: true, Value: code}
	}
	if rt := optionalForm(form, "resource_type"); rt != nil {
		req.ResourceType = rt
	}
	if raw := optionalForm(form, "hashtags"); raw != nil {
		tags, err := parseHashtagsField(*raw)
		if err != nil {
			return nil, nil, err
		}
		req.Hashtags = &tags
	}
	var links []dto.LinkInput
	if raw := optionalForm(form, "links"); raw != nil {
		parsed, err := parseLinksField(*raw)
		if err != nil {
			return nil, nil, err
		}
		links = parsed
	}
	return req, links, nil
}

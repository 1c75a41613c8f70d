package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/studyhive/resource-api/internal/dto"
	"github.com/studyhive/resource-api/internal/models"
	appErrors "github.com/studyhive/resource-api/pkg/errors"
)

type resourceStore interface {
	Create(ctx context.Context, res *models.Resource) error
	GetByID(ctx context.Context, id string) (*models.Resource, error)
	GetOwnerID(ctx context.Context, id string) (string, error)
	List(ctx context.Context, filter models.ResourceFilter) ([]models.Resource, error)
	Update(ctx context.Context, res *models.Resource) error
	Delete(ctx context.Context, id string) error
}

type followingLister interface {
	ListFollowingIDs(ctx context.Context, followerID string) ([]string, error)
}

type fileUploader interface {
	UploadBatch(ctx context.Context, uploads []FileUpload) ([]*dto.UploadedFile, error)
}

// ResourceService coordinates resource mutations under ownership control.
type ResourceService struct {
	repo      resourceStore
	followers followingLister
	files     fileUploader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResourceService constructs the service.
func NewResourceService(repo resourceStore, followers followingLister, files fileUploader, validate *validator.Validate, logger *zap.Logger) *ResourceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceService{repo: repo, followers: followers, files: files, validator: validate, logger: logger}
}

// authorizeOwner is the single ownership predicate guarding mutations.
// A caller with no resolved identity is unauthenticated, never merely
// non-owner.
func (s *ResourceService) authorizeOwner(caller *models.Claims, ownerID string) error {
	if caller.CallerID() == "" {
		return appErrors.ErrAuthRequired
	}
	if caller.CallerID() != ownerID {
		return appErrors.ErrForbidden
	}
	return nil
}

// List returns resources visible under the requested scope and filters.
func (s *ResourceService) List(ctx context.Context, caller *models.Claims, q dto.ListQuery) (*dto.ListResourcesResponse, error) {
	scope := models.ListScope(q.Filter)
	echo := q.Filter
	if echo == "" {
		echo = string(models.ScopeAll)
	}

	filter := models.ResourceFilter{
		CourseCode: strings.TrimSpace(q.CourseCode),
		Hashtag:    strings.TrimSpace(q.Hashtag),
		Search:     strings.TrimSpace(q.Search),
	}

	switch scope {
	case models.ScopeMy:
		if caller.CallerID() == "" {
			return nil, appErrors.Clone(appErrors.ErrAuthRequired, "authentication required to view your resources")
		}
		filter.OwnerIDs = []string{caller.CallerID()}
	case models.ScopeFollowing:
		if caller.CallerID() == "" {
			return emptyList(echo), nil
		}
		ids, err := s.followers.ListFollowingIDs(ctx, caller.CallerID())
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve following")
		}
		// following nobody is an empty result, not an error
		if len(ids) == 0 {
			return emptyList(echo), nil
		}
		filter.OwnerIDs = ids
	}

	resources, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch resources")
	}

	return &dto.ListResourcesResponse{
		Success:   true,
		Count:     len(resources),
		Filter:    echo,
		Resources: resources,
	}, nil
}

func emptyList(filter string) *dto.ListResourcesResponse {
	return &dto.ListResourcesResponse{Success: true, Count: 0, Filter: filter, Resources: []models.Resource{}}
}

// Get fetches one resource by id.
func (s *ResourceService) Get(ctx context.Context, id string) (*models.Resource, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrResourceNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch resource")
	}
	return res, nil
}

// Create validates and persists a new resource. Uploads, when present, are
// pushed to the object store only after validation passes, then folded into
// the media aggregate.
func (s *ResourceService) Create(ctx context.Context, caller *models.Claims, req dto.CreateResourceRequest, uploads []FileUpload, links []dto.LinkInput) (*models.Resource, error) {
	if caller.CallerID() == "" {
		return nil, appErrors.Clone(appErrors.ErrAuthRequired, "authentication required to create resource")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, err.Error())
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "title is required and must be a non-empty string")
	}
	resourceType, ok := models.ParseResourceType(req.ResourceType)
	if !ok {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "resource_type must be either URL or DOCUMENT")
	}

	media := models.MediaAggregate{}
	if req.Media != nil {
		media = *req.Media
	}
	if err := validateMedia(&media); err != nil {
		return nil, err
	}
	if media.IsEmpty() && len(uploads) == 0 && len(links) == 0 {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidMedia, "media must contain at least one file, image, video, or url")
	}
	assignMissingIDs(&media)

	if err := s.foldNewEntries(ctx, &media, uploads, links); err != nil {
		return nil, err
	}

	res := &models.Resource{
		OwnerID:      caller.CallerID(),
		Title:        title,
		Description:  trimOptional(req.Description),
		CourseCode:   trimOptional(req.CourseCode),
		ResourceType: resourceType,
		Media:        media,
		Hashtags:     pq.StringArray(req.Hashtags),
		UpvoteCount:  0,
	}

	if err := s.repo.Create(ctx, res); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create resource")
	}

	created, err := s.repo.GetByID(ctx, res.ID)
	if err != nil {
		s.logger.Warn("created resource re-read failed", zap.String("id", res.ID), zap.Error(err))
		return res, nil
	}
	return created, nil
}

// Update applies a partial update to an owned resource. A supplied media
// aggregate replaces the stored one wholesale; new uploads append afterwards.
func (s *ResourceService) Update(ctx context.Context, caller *models.Claims, id string, req *dto.UpdateResourceRequest, uploads []FileUpload, links []dto.LinkInput) (*models.Resource, error) {
	if caller.CallerID() == "" {
		return nil, appErrors.Clone(appErrors.ErrAuthRequired, "authentication required to update resource")
	}
	if req.IsEmpty() && len(uploads) == 0 && len(links) == 0 {
		return nil, appErrors.ErrEmptyRequestBody
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrResourceNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check resource existence")
	}
	if err := s.authorizeOwner(caller, existing.OwnerID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, appErrors.WithDetails(appErrors.ErrValidation, "title must be a non-empty string")
		}
		if len(title) > 255 {
			return nil, appErrors.WithDetails(appErrors.ErrValidation, "title must not exceed 255 characters")
		}
		existing.Title = title
	}
	if req.Description.Present {
		desc, err := boundedOptional(req.Description.Value, 5000, "description")
		if err != nil {
			return nil, err
		}
		existing.Description = desc
	}
	if req.CourseCode.Present {
		code, err := boundedOptional(req.CourseCode.Value, 20, "course_code")
		if err != nil {
			return nil, err
		}
		existing.CourseCode = code
	}
	if req.ResourceType != nil {
		resourceType, ok := models.ParseResourceType(*req.ResourceType)
		if !ok {
			return nil, appErrors.WithDetails(appErrors.ErrValidation, "resource_type must be either URL or DOCUMENT")
		}
		existing.ResourceType = resourceType
	}
	if req.Hashtags != nil {
		for _, tag := range *req.Hashtags {
			if len(tag) > 50 {
				return nil, appErrors.WithDetails(appErrors.ErrValidation, "each hashtag must not exceed 50 characters")
			}
		}
		existing.Hashtags = pq.StringArray(*req.Hashtags)
	}
	if req.Media != nil {
		// full replacement, no deep merge
		if err := validateMedia(req.Media); err != nil {
			return nil, err
		}
		existing.Media = *req.Media
		assignMissingIDs(&existing.Media)
	}

	if err := s.foldNewEntries(ctx, &existing.Media, uploads, links); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrResourceNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update resource")
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("updated resource re-read failed", zap.String("id", id), zap.Error(err))
		return existing, nil
	}
	return updated, nil
}

// Delete removes an owned resource permanently. Remote binaries referenced by
// its media stay in the object store.
func (s *ResourceService) Delete(ctx context.Context, caller *models.Claims, id string) error {
	if caller.CallerID() == "" {
		return appErrors.Clone(appErrors.ErrAuthRequired, "authentication required to delete resource")
	}

	ownerID, err := s.repo.GetOwnerID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrResourceNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check resource existence")
	}
	if err := s.authorizeOwner(caller, ownerID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrResourceNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete resource")
	}
	return nil
}

// RemoveMediaEntry drops one entry from a category by position and persists
// the shrunk aggregate. The remote binary is not deleted.
func (s *ResourceService) RemoveMediaEntry(ctx context.Context, caller *models.Claims, resourceID, category string, index int) (*models.Resource, models.MediaEntry, error) {
	res, err := s.ownedResource(ctx, caller, resourceID)
	if err != nil {
		return nil, models.MediaEntry{}, err
	}

	cat, ok := models.ParseMediaCategory(category)
	if !ok {
		return nil, models.MediaEntry{}, appErrors.ErrInvalidType
	}

	removed, err := removeMediaEntry(&res.Media, cat, index)
	if err != nil {
		return nil, models.MediaEntry{}, err
	}

	if err := s.repo.Update(ctx, res); err != nil {
		return nil, models.MediaEntry{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist media removal")
	}
	s.logger.Info("media entry removed",
		zap.String("resource_id", resourceID),
		zap.String("category", string(cat)),
		zap.Int("index", index),
		zap.String("public_id", removed.PublicID),
	)
	return res, removed, nil
}

// UpdateMediaEntry patches caption/originalName on one entry by position.
func (s *ResourceService) UpdateMediaEntry(ctx context.Context, caller *models.Claims, resourceID, category string, index int, updates dto.UpdateMediaEntryRequest) (*models.Resource, error) {
	res, err := s.ownedResource(ctx, caller, resourceID)
	if err != nil {
		return nil, err
	}

	cat, ok := models.ParseMediaCategory(category)
	if !ok {
		return nil, appErrors.ErrInvalidType
	}

	if _, err := updateMediaEntry(&res.Media, cat, index, updates); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, res); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist media update")
	}
	return res, nil
}

// foldNewEntries appends freshly uploaded binaries and caller-supplied links
// to the aggregate, after any wholesale override has been applied. Links are
// checked before the uploader runs so a bad link never strands stored objects.
func (s *ResourceService) foldNewEntries(ctx context.Context, media *models.MediaAggregate, uploads []FileUpload, links []dto.LinkInput) error {
	for _, link := range links {
		if strings.TrimSpace(link.URL) == "" {
			return appErrors.WithDetails(appErrors.ErrInvalidMedia, "link url is required")
		}
	}
	if len(uploads) > 0 {
		files, err := s.files.UploadBatch(ctx, uploads)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		for i, file := range files {
			appendUpload(media, file, uploads[i].OriginalName, now)
		}
	}
	for _, link := range links {
		appendLink(media, link.URL, link.Description)
	}
	return nil
}

func (s *ResourceService) ownedResource(ctx context.Context, caller *models.Claims, id string) (*models.Resource, error) {
	if caller.CallerID() == "" {
		return nil, appErrors.ErrAuthRequired
	}
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrResourceNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check resource existence")
	}
	if err := s.authorizeOwner(caller, res.OwnerID); err != nil {
		return nil, err
	}
	return res, nil
}

// validateMedia checks the caller-supplied aggregate shape: every entry in
// every category needs a url.
func validateMedia(m *models.MediaAggregate) error {
	for _, cat := range []models.MediaCategory{models.MediaFiles, models.MediaImages, models.MediaVideos, models.MediaURLs} {
		for i, entry := range m.Category(cat) {
			if strings.TrimSpace(entry.URL) == "" {
				return appErrors.WithDetails(appErrors.ErrInvalidMedia, fmt.Sprintf("media.%s[%d].url is required", cat, i))
			}
		}
	}
	return nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func boundedOptional(value *string, max int, field string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > max {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, fmt.Sprintf("%s must not exceed %d characters", field, max))
	}
	return &trimmed, nil
}

package dto

import (
	"encoding/json"
	"fmt"

	"github.com/studyhive/resource-api/internal/models"
)

// CreateResourceRequest is the JSON body of POST /api/resources. Media may be
// absent when the request carries uploads or links instead; the service
// rejects a create that ends up with no media at all.
type CreateResourceRequest struct {
	Title        string                 `json:"title" validate:"required,max=255"`
	Description  *string                `json:"description" validate:"omitempty,max=5000"`
	CourseCode   *string                `json:"course_code" validate:"omitempty,max=20"`
	ResourceType string                 `json:"resource_type" validate:"required"`
	Media        *models.MediaAggregate `json:"media"`
	Hashtags     []string               `json:"hashtags" validate:"omitempty,dive,max=50"`
}

// OptionalString distinguishes "absent" from "explicitly null" in a partial
// update. Present && Value == nil means the caller asked to clear the field.
type OptionalString struct {
	Present bool
	Value   *string
}

// UpdateResourceRequest is the decoded body of PUT /api/resources/:id.
// Absent fields leave the record unchanged.
type UpdateResourceRequest struct {
	Title        *string
	Description  OptionalString
	CourseCode   OptionalString
	ResourceType *string
	Media        *models.MediaAggregate
	Hashtags     *[]string
}

// IsEmpty reports whether the update carries no field at all.
func (r *UpdateResourceRequest) IsEmpty() bool {
	return r.Title == nil && !r.Description.Present && !r.CourseCode.Present &&
		r.ResourceType == nil && r.Media == nil && r.Hashtags == nil
}

// immutable columns a client may never touch
var disallowedUpdateFields = []string{"id", "owner_id", "created_at", "upvote_count"}

// ParseUpdateResourceRequest decodes a partial update, keeping track of which
// keys were present so explicit nulls can clear nullable columns.
func ParseUpdateResourceRequest(raw []byte) (*UpdateResourceRequest, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid update payload: %w", err)
	}

	for _, field := range disallowedUpdateFields {
		if _, ok := payload[field]; ok {
			return nil, fmt.Errorf("cannot update field: %s", field)
		}
	}

	req := &UpdateResourceRequest{}

	if title, present, err := readString(payload, "title"); err != nil {
		return nil, fmt.Errorf("title must be a string")
	} else if present {
		if title == nil {
			return nil, fmt.Errorf("title cannot be null")
		}
		req.Title = title
	}

	if desc, present, err := readString(payload, "description"); err != nil {
		return nil, fmt.Errorf("description must be a string")
	} else if present {
		req.Description = OptionalString{Present: true, Value: desc}
	}

	if code, present, err := readString(payload, "course_code"); err != nil {
		return nil, fmt.Errorf("course_code must be a string")
	} else if present {
		req.CourseCode = OptionalString{Present: true, Value: code}
	}

	if rt, present, err := readString(payload, "resource_type"); err != nil {
		return nil, fmt.Errorf("resource_type must be a string")
	} else if present {
		if rt == nil {
			return nil, fmt.Errorf("resource_type cannot be null")
		}
		req.ResourceType = rt
	}

	if rawMedia, ok := payload["media"]; ok && !isJSONNull(rawMedia) {
		var media models.MediaAggregate
		if err := json.Unmarshal(rawMedia, &media); err != nil {
			return nil, fmt.Errorf("media must be an object")
		}
		req.Media = &media
	}

	if rawTags, ok := payload["hashtags"]; ok && !isJSONNull(rawTags) {
		var tags []string
		if err := json.Unmarshal(rawTags, &tags); err != nil {
			return nil, fmt.Errorf("hashtags must be an array of strings")
		}
		req.Hashtags = &tags
	}

	return req, nil
}

func readString(payload map[string]json.RawMessage, key string) (*string, bool, error) {
	raw, ok := payload[key]
	if !ok {
		return nil, false, nil
	}
	if isJSONNull(raw) {
		return nil, true, nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, true, err
	}
	return &value, true, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

// UpdateMediaEntryRequest is the decoded body of
// PATCH /api/resources/:id/:type/:index. Only caption and originalName are
// mutable. Caption carries present/null semantics: an explicit JSON null
// clears it. originalName may be replaced but never nulled.
type UpdateMediaEntryRequest struct {
	Caption      OptionalString
	OriginalName *string
}

// IsEmpty reports whether the patch carries no mutable field.
func (r *UpdateMediaEntryRequest) IsEmpty() bool {
	return !r.Caption.Present && r.OriginalName == nil
}

// ParseUpdateMediaEntryRequest decodes a media entry patch, keeping track of
// whether caption was present so an explicit null can clear it.
func ParseUpdateMediaEntryRequest(raw []byte) (*UpdateMediaEntryRequest, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid media update payload: %w", err)
	}

	req := &UpdateMediaEntryRequest{}

	if caption, present, err := readString(payload, "caption"); err != nil {
		return nil, fmt.Errorf("caption must be a string")
	} else if present {
		req.Caption = OptionalString{Present: true, Value: caption}
	}

	if name, present, err := readString(payload, "originalName"); err != nil {
		return nil, fmt.Errorf("originalName must be a string")
	} else if present {
		if name == nil {
			return nil, fmt.Errorf("originalName cannot be null")
		}
		req.OriginalName = name
	}

	return req, nil
}

// LinkInput is one caller-supplied link reference; links are never uploaded.
type LinkInput struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// ListQuery carries the query parameters of GET /api/resources.
type ListQuery struct {
	Filter     string
	CourseCode string
	Hashtag    string
	Search     string
}

// UploadedFile describes one stored binary as returned to clients.
type UploadedFile struct {
	URL          string `json:"url"`
	PublicID     string `json:"publicId"`
	ResourceType string `json:"resourceType"`
	Format       string `json:"format"`
	Size         int64  `json:"size"`
}

// ListResourcesResponse is the body of GET /api/resources.
type ListResourcesResponse struct {
	Success   bool              `json:"success"`
	Count     int               `json:"count"`
	Filter    string            `json:"filter"`
	Resources []models.Resource `json:"resources"`
}

// ResourceResponse wraps a single resource read.
type ResourceResponse struct {
	Success  bool             `json:"success"`
	Resource *models.Resource `json:"resource"`
}

// MutationResponse wraps create/update/media mutations.
type MutationResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Resource *models.Resource `json:"resource,omitempty"`
}

// UploadResponse is the body of POST /api/resources/upload.
type UploadResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	File    *UploadedFile `json:"file"`
}

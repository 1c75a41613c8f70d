package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// ResourceType distinguishes link-only resources from uploaded documents.
type ResourceType string

const (
	ResourceTypeURL      ResourceType = "URL"
	ResourceTypeDocument ResourceType = "DOCUMENT"
)

// ParseResourceType normalises a raw type to uppercase.
func ParseResourceType(raw string) (ResourceType, bool) {
	switch rt := ResourceType(strings.ToUpper(strings.TrimSpace(raw))); rt {
	case ResourceTypeURL, ResourceTypeDocument:
		return rt, true
	}
	return "", false
}

// Owner is the denormalised owner row joined onto resource reads.
type Owner struct {
	ID          string  `json:"id"`
	StudentCode *string `json:"student_code,omitempty"`
	Email       *string `json:"email,omitempty"`
}

// Resource is one user-owned study-material record.
type Resource struct {
	ID           string         `db:"id" json:"id"`
	OwnerID      string         `db:"owner_id" json:"owner_id"`
	Title        string         `db:"title" json:"title"`
	Description  *string        `db:"description" json:"description"`
	CourseCode   *string        `db:"course_code" json:"course_code"`
	ResourceType ResourceType   `db:"resource_type" json:"resource_type"`
	Media        MediaAggregate `db:"media" json:"media"`
	Hashtags     pq.StringArray `db:"hashtags" json:"hashtags"`
	UpvoteCount  int            `db:"upvote_count" json:"upvote_count"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	Owner        *Owner         `db:"-" json:"owner,omitempty"`
}

// ListScope selects which owners' resources a listing covers.
type ListScope string

const (
	ScopeAll       ListScope = "all"
	ScopeMy        ListScope = "my"
	ScopeFollowing ListScope = "following"
)

// ResourceFilter narrows listing queries.
type ResourceFilter struct {
	CourseCode string
	Hashtag    string
	Search     string
	OwnerIDs   []string
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MediaCategory names one sub-collection of the media aggregate.
type MediaCategory string

const (
	MediaFiles  MediaCategory = "files"
	MediaImages MediaCategory = "images"
	MediaVideos MediaCategory = "videos"
	MediaURLs   MediaCategory = "urls"
)

// ParseMediaCategory normalises a raw category name. "link" is accepted as an
// alias for "urls" for compatibility with older clients.
func ParseMediaCategory(raw string) (MediaCategory, bool) {
	switch MediaCategory(raw) {
	case MediaFiles, MediaImages, MediaVideos, MediaURLs:
		return MediaCategory(raw), true
	case "link":
		return MediaURLs, true
	}
	return "", false
}

// MediaEntry is one addressable item inside a media category. IDs are
// category-local integers starting at 1; each category keeps its own counter.
type MediaEntry struct {
	ID           int        `json:"id,omitempty"`
	URL          string     `json:"url"`
	PublicID     string     `json:"publicId,omitempty"`
	Format       string     `json:"format,omitempty"`
	Size         int64      `json:"size,omitempty"`
	Caption      *string    `json:"caption"`
	OriginalName string     `json:"originalName,omitempty"`
	Description  string     `json:"description,omitempty"`
	UploadedAt   *time.Time `json:"uploadedAt,omitempty"`
}

// MediaAggregate groups the categorized media entries of one resource.
// It persists as a single JSONB column.
type MediaAggregate struct {
	Files  []MediaEntry `json:"files,omitempty"`
	Images []MediaEntry `json:"images,omitempty"`
	Videos []MediaEntry `json:"videos,omitempty"`
	URLs   []MediaEntry `json:"urls,omitempty"`
}

// Category returns the slice backing the named category.
func (m *MediaAggregate) Category(cat MediaCategory) []MediaEntry {
	switch cat {
	case MediaFiles:
		return m.Files
	case MediaImages:
		return m.Images
	case MediaVideos:
		return m.Videos
	case MediaURLs:
		return m.URLs
	}
	return nil
}

// SetCategory replaces the slice backing the named category.
func (m *MediaAggregate) SetCategory(cat MediaCategory, entries []MediaEntry) {
	switch cat {
	case MediaFiles:
		m.Files = entries
	case MediaImages:
		m.Images = entries
	case MediaVideos:
		m.Videos = entries
	case MediaURLs:
		m.URLs = entries
	}
}

// IsEmpty reports whether no category holds any entry.
func (m *MediaAggregate) IsEmpty() bool {
	return m == nil || len(m.Files)+len(m.Images)+len(m.Videos)+len(m.URLs) == 0
}

// NextID returns the next category-local identifier. Counters are independent
// per category and survive removals (max existing id + 1, never below 1).
func (m *MediaAggregate) NextID(cat MediaCategory) int {
	max := 0
	for _, e := range m.Category(cat) {
		if e.ID > max {
			max = e.ID
		}
	}
	return max + 1
}

// UnmarshalJSON accepts "link" as an alias for the "urls" key.
func (m *MediaAggregate) UnmarshalJSON(data []byte) error {
	type alias struct {
		Files  []MediaEntry `json:"files"`
		Images []MediaEntry `json:"images"`
		Videos []MediaEntry `json:"videos"`
		URLs   []MediaEntry `json:"urls"`
		Link   []MediaEntry `json:"link"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	m.Files = a.Files
	m.Images = a.Images
	m.Videos = a.Videos
	m.URLs = a.URLs
	if len(m.URLs) == 0 && len(a.Link) > 0 {
		m.URLs = a.Link
	}
	return nil
}

// Value serialises the aggregate for the JSONB column.
func (m MediaAggregate) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan loads the aggregate from the JSONB column.
func (m *MediaAggregate) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = MediaAggregate{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("cannot scan %T into MediaAggregate", src)
}

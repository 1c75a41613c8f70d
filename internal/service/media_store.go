package service

import (
	"time"

	"github.com/studyhive/resource-api/internal/dto"
	"github.com/studyhive/resource-api/internal/models"
	appErrors "github.com/studyhive/resource-api/pkg/errors"
)

// Media aggregate mutation helpers. Entries carry stable category-local ids
// assigned here; the HTTP contract addresses entries positionally, so removal
// shifts later positions while ids stay untouched.

// appendUpload folds one stored binary into the aggregate. Every upload lands
// in files; images and videos are additionally mirrored into their own
// category under that category's own counter.
func appendUpload(m *models.MediaAggregate, file *dto.UploadedFile, originalName string, now time.Time) models.MediaEntry {
	entry := models.MediaEntry{
		ID:           m.NextID(models.MediaFiles),
		URL:          file.URL,
		PublicID:     file.PublicID,
		Format:       file.Format,
		Size:         file.Size,
		Caption:      nil,
		OriginalName: originalName,
		UploadedAt:   &now,
	}
	m.Files = append(m.Files, entry)

	var mirror models.MediaCategory
	switch file.ResourceType {
	case "image":
		mirror = models.MediaImages
	case "video":
		mirror = models.MediaVideos
	default:
		return entry
	}

	copy := entry
	copy.ID = m.NextID(mirror)
	m.SetCategory(mirror, append(m.Category(mirror), copy))
	return entry
}

// appendLink adds one caller-supplied URL entry. Links are never uploaded.
func appendLink(m *models.MediaAggregate, url, description string) models.MediaEntry {
	entry := models.MediaEntry{
		ID:          m.NextID(models.MediaURLs),
		URL:         url,
		Description: description,
	}
	m.URLs = append(m.URLs, entry)
	return entry
}

// removeMediaEntry drops the entry at index from the category and returns it.
// The remote binary is left in place: removal only forgets the pointer.
func removeMediaEntry(m *models.MediaAggregate, cat models.MediaCategory, index int) (models.MediaEntry, error) {
	entries := m.Category(cat)
	if index < 0 || index >= len(entries) {
		return models.MediaEntry{}, appErrors.ErrIndexOutOfRange
	}
	removed := entries[index]
	m.SetCategory(cat, append(entries[:index], entries[index+1:]...))
	return removed, nil
}

// updateMediaEntry patches caption and originalName on the entry at index.
// An explicitly null caption clears it; all other fields are immutable and
// silently ignored.
func updateMediaEntry(m *models.MediaAggregate, cat models.MediaCategory, index int, updates dto.UpdateMediaEntryRequest) (*models.MediaEntry, error) {
	entries := m.Category(cat)
	if index < 0 || index >= len(entries) {
		return nil, appErrors.ErrIndexOutOfRange
	}
	entry := &entries[index]
	if updates.Caption.Present {
		entry.Caption = updates.Caption.Value
	}
	if updates.OriginalName != nil {
		entry.OriginalName = *updates.OriginalName
	}
	return entry, nil
}

// findMediaByID scans all categories for an id-addressed entry. Kept for
// id-stable internal lookups; the public routes resolve positionally.
func findMediaByID(m *models.MediaAggregate, cat models.MediaCategory, id int) (*models.MediaEntry, int, bool) {
	entries := m.Category(cat)
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], i, true
		}
	}
	return nil, -1, false
}

// assignMissingIDs gives counter-based ids to caller-supplied entries that
// arrived without one, per category.
func assignMissingIDs(m *models.MediaAggregate) {
	for _, cat := range []models.MediaCategory{models.MediaFiles, models.MediaImages, models.MediaVideos, models.MediaURLs} {
		entries := m.Category(cat)
		for i := range entries {
			if entries[i].ID == 0 {
				entries[i].ID = m.NextID(cat)
			}
		}
	}
}

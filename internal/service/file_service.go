package service

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhive/resource-api/internal/dto"
	appErrors "github.com/studyhive/resource-api/pkg/errors"
	"github.com/studyhive/resource-api/pkg/storage"
)

var imageExtensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {}, "svg": {}, "bmp": {}, "ico": {},
}

var videoExtensions = map[string]struct{}{
	"mp4": {}, "avi": {}, "mov": {}, "wmv": {}, "flv": {}, "webm": {}, "mkv": {}, "m4v": {},
}

var objectKeyUnsafe = regexp.MustCompile(`[^a-zA-Z0-9.]+`)

// FileUpload carries one raw payload handed to the object store.
type FileUpload struct {
	OriginalName string
	Content      []byte
}

// FileServiceConfig bounds ingestion behaviour.
type FileServiceConfig struct {
	Folder         string
	RequestTimeout time.Duration
}

// FileService pushes binaries to the external object store and classifies the
// result into a media category.
type FileService struct {
	store   storage.ObjectStore
	cfg     FileServiceConfig
	metrics *MetricsService
	logger  *zap.Logger
}

// NewFileService constructs the service. metrics may be nil.
func NewFileService(store storage.ObjectStore, cfg FileServiceConfig, metrics *MetricsService, logger *zap.Logger) *FileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Folder == "" {
		cfg.Folder = "resources"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return &FileService{store: store, cfg: cfg, metrics: metrics, logger: logger}
}

// Upload stores one payload and returns its stable reference.
func (s *FileService) Upload(ctx context.Context, upload FileUpload) (*dto.UploadedFile, error) {
	if len(upload.Content) == 0 {
		return nil, appErrors.ErrNoFileProvided
	}

	format := fileExtension(upload.OriginalName)
	key := s.objectKey(upload.OriginalName)

	putCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	publicURL, err := s.store.Put(putCtx, key, contentTypeFor(format), upload.Content)
	if s.metrics != nil {
		s.metrics.ObserveUpload(int64(len(upload.Content)), err)
	}
	if err != nil {
		s.logger.Error("object store put failed",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, appErrors.Wrap(err, appErrors.ErrFileUploadFailed.Code, appErrors.ErrFileUploadFailed.Status, appErrors.ErrFileUploadFailed.Message)
	}

	return &dto.UploadedFile{
		URL:          publicURL,
		PublicID:     key,
		ResourceType: classifyExtension(format),
		Format:       format,
		Size:         int64(len(upload.Content)),
	}, nil
}

// UploadBatch stores payloads sequentially. The first failure aborts the whole
// batch with a single FILE_UPLOAD_FAILED; objects already stored in the batch
// stay orphaned in the remote store, which the error details call out.
func (s *FileService) UploadBatch(ctx context.Context, uploads []FileUpload) ([]*dto.UploadedFile, error) {
	results := make([]*dto.UploadedFile, 0, len(uploads))
	for i, upload := range uploads {
		file, err := s.Upload(ctx, upload)
		if err != nil {
			details := fmt.Sprintf("upload %d of %d (%s) failed: %v", i+1, len(uploads), upload.OriginalName, err)
			if i > 0 {
				details += fmt.Sprintf("; %d earlier upload(s) were not retracted", i)
			}
			return nil, appErrors.WithDetails(appErrors.ErrFileUploadFailed, details)
		}
		results = append(results, file)
	}
	return results, nil
}

func (s *FileService) objectKey(originalName string) string {
	base := path.Base(strings.TrimSpace(originalName))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	base = objectKeyUnsafe.ReplaceAllString(base, "-")
	return fmt.Sprintf("%s/%s-%s", s.cfg.Folder, uuid.NewString(), base)
}

// fileExtension derives the canonical lowercase extension from a client
// filename: percent-escapes decoded first, any query-string tail stripped.
func fileExtension(name string) string {
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	ext := strings.TrimPrefix(path.Ext(name), ".")
	return strings.ToLower(ext)
}

// classifyExtension buckets an extension into image, video or raw.
func classifyExtension(ext string) string {
	if _, ok := imageExtensions[ext]; ok {
		return "image"
	}
	if _, ok := videoExtensions[ext]; ok {
		return "video"
	}
	return "raw"
}

func contentTypeFor(ext string) string {
	if ext == "" {
		return "application/octet-stream"
	}
	if ct := mime.TypeByExtension("." + ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

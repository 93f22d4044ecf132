package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/crm-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/crm-dashboard-api/pkg/errors"
	"github.com/noah-isme/crm-dashboard-api/pkg/storage"
)

type objectStorage interface {
	CreateBucket(bucket string) error
	Upload(bucket, key string, r io.Reader) (string, error)
	PublicURL(bucket, key string) string
	Delete(bucket, key string) error
}

// FileUpload is one file picked by the user.
type FileUpload struct {
	Name    string
	Size    int64
	Content io.Reader
}

// AttachmentResult is the outcome for one file. Exactly one of Attachment and Err is set.
type AttachmentResult struct {
	Name       string
	Attachment *models.Attachment
	Err        error
}

// AttachmentConfig configures the uploader.
type AttachmentConfig struct {
	Bucket      string
	MaxFileSize int64
}

// AttachmentService stores report attachments in the object store.
type AttachmentService struct {
	storage objectStorage
	metrics *MetricsService
	logger  *zap.Logger
	cfg     AttachmentConfig
	now     func() time.Time

	bucketMu    sync.Mutex
	bucketReady bool
}

// NewAttachmentService constructs the uploader.
func NewAttachmentService(store objectStorage, metrics *MetricsService, logger *zap.Logger, cfg AttachmentConfig) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "report_attachments"
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 20 * 1024 * 1024
	}
	return &AttachmentService{storage: store, metrics: metrics, logger: logger, cfg: cfg, now: time.Now}
}

// Upload stores each file under {author}/{report}/{millis}_{name} and returns one result per
// input file in order. No files means no storage calls at all.
func (s *AttachmentService) Upload(ctx context.Context, files []FileUpload, reportID, authorEmail string) []AttachmentResult {
	if len(files) == 0 {
		return []AttachmentResult{}
	}

	s.ensureBucket()

	results := make([]AttachmentResult, 0, len(files))
	for _, file := range files {
		name := cleanFileName(file.Name)
		result := AttachmentResult{Name: name}
		if err := ctx.Err(); err != nil {
			result.Err = err
			results = append(results, result)
			continue
		}

		attachment, err := s.uploadOne(file, name, reportID, authorEmail)
		if err != nil {
			s.logger.Warn("attachment upload failed",
				zap.String("report_id", reportID),
				zap.String("file", name),
				zap.Error(err),
			)
			result.Err = err
		} else {
			result.Attachment = attachment
		}
		s.metrics.RecordUpload(s.cfg.Bucket, err == nil)
		results = append(results, result)
	}
	return results
}

// Succeeded extracts the stored attachments from results, preserving order.
func Succeeded(results []AttachmentResult) []models.Attachment {
	out := make([]models.Attachment, 0, len(results))
	for _, r := range results {
		if r.Err == nil && r.Attachment != nil {
			out = append(out, *r.Attachment)
		}
	}
	return out
}

func (s *AttachmentService) uploadOne(file FileUpload, name, reportID, authorEmail string) (*models.Attachment, error) {
	if file.Content == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file content missing")
	}
	if file.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}

	key := fmt.Sprintf("%s/%s/%d_%s", authorEmail, reportID, s.now().UnixMilli(), name)
	stored, err := s.storage.Upload(s.cfg.Bucket, key, newCappedReader(file.Content, s.cfg.MaxFileSize))
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			if delErr := s.storage.Delete(s.cfg.Bucket, key); delErr != nil {
				s.logger.Warn("partial attachment cleanup failed", zap.String("key", key), zap.Error(delErr))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrPayloadTooLarge.Code, appErrors.ErrPayloadTooLarge.Status, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
		}
		if errors.Is(err, storage.ErrObjectExists) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "file already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upload file")
	}

	return &models.Attachment{
		Path: stored,
		URL:  s.storage.PublicURL(s.cfg.Bucket, stored),
		Name: name,
	}, nil
}

// ensureBucket creates the bucket on first use. Existing buckets and permission failures are
// tolerated: the upload itself reports the real problem.
func (s *AttachmentService) ensureBucket() {
	s.bucketMu.Lock()
	defer s.bucketMu.Unlock()
	if s.bucketReady {
		return
	}

	err := s.storage.CreateBucket(s.cfg.Bucket)
	switch {
	case err == nil:
		s.logger.Info("bucket created", zap.String("bucket", s.cfg.Bucket))
	case errors.Is(err, storage.ErrBucketExists):
		s.logger.Debug("bucket already exists", zap.String("bucket", s.cfg.Bucket))
	case errors.Is(err, fs.ErrPermission):
		s.logger.Warn("bucket creation not permitted", zap.String("bucket", s.cfg.Bucket), zap.Error(err))
	default:
		s.logger.Warn("bucket creation failed", zap.String("bucket", s.cfg.Bucket), zap.Error(err))
		return
	}
	s.bucketReady = true
}

func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/crm-dashboard-api/internal/dto"
	"github.com/noah-isme/crm-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/crm-dashboard-api/pkg/errors"
	"github.com/noah-isme/crm-dashboard-api/pkg/storage"
)

type timetableStorage interface {
	CreateBucket(bucket string) error
	Upload(bucket, key string, r io.Reader) (string, error)
	Open(bucket, key string) (*os.File, error)
	Delete(bucket, key string) error
}

type timetableSigner interface {
	Generate(bucket, key string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (bucket, key string, expiresAt time.Time, err error)
}

// TimetableConfig configures timetable storage.
type TimetableConfig struct {
	Bucket      string
	MaxFileSize int64
	APIPrefix   string
}

// TimetableDownload is an opened timetable ready to stream.
type TimetableDownload struct {
	File     *os.File
	Filename string
	MimeType string
}

// TimetableService uploads branch timetables to a private bucket and resolves signed links.
type TimetableService struct {
	storage timetableStorage
	signer  timetableSigner
	metrics *MetricsService
	logger  *zap.Logger
	cfg     TimetableConfig
	now     func() time.Time
}

// NewTimetableService constructs the service.
func NewTimetableService(store timetableStorage, signer timetableSigner, metrics *MetricsService, logger *zap.Logger, cfg TimetableConfig) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "timetables"
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &TimetableService{storage: store, signer: signer, metrics: metrics, logger: logger, cfg: cfg, now: time.Now}
}

// Upload stores a timetable for branch and returns a signed download link.
func (s *TimetableService) Upload(ctx context.Context, principal models.Principal, branch string, file FileUpload) (*dto.TimetableUploadResponse, error) {
	if !principal.Role.IsPrivileged() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can upload timetables")
	}
	branch = strings.TrimSpace(branch)
	if branch == "" || branch == models.FilterAll || strings.ContainsAny(branch, `/\`) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a specific branch is required")
	}
	if file.Content == nil || file.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if file.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}

	if err := s.storage.CreateBucket(s.cfg.Bucket); err != nil && !errors.Is(err, storage.ErrBucketExists) {
		s.logger.Warn("timetable bucket creation failed", zap.String("bucket", s.cfg.Bucket), zap.Error(err))
	}

	name := cleanFileName(file.Name)
	key := fmt.Sprintf("%s/%d_%s", branch, s.now().UnixMilli(), name)
	stored, err := s.storage.Upload(s.cfg.Bucket, key, newCappedReader(file.Content, s.cfg.MaxFileSize))
	s.metrics.RecordUpload(s.cfg.Bucket, err == nil)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			if delErr := s.storage.Delete(s.cfg.Bucket, key); delErr != nil {
				s.logger.Warn("partial timetable cleanup failed", zap.String("key", key), zap.Error(delErr))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrPayloadTooLarge.Code, appErrors.ErrPayloadTooLarge.Status, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
		}
		if errors.Is(err, storage.ErrObjectExists) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "timetable already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable")
	}

	token, expiresAt, err := s.signer.Generate(s.cfg.Bucket, stored)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	s.logger.Info("timetable uploaded", zap.String("branch", branch), zap.String("key", stored), zap.String("by", principal.Email))

	return &dto.TimetableUploadResponse{
		Key:         stored,
		Name:        name,
		DownloadURL: fmt.Sprintf("%s/timetables/download?token=%s", s.cfg.APIPrefix, url.QueryEscape(token)),
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// Download resolves a signed token to the stored timetable.
func (s *TimetableService) Download(ctx context.Context, token string) (*TimetableDownload, error) {
	if strings.TrimSpace(token) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "token is required")
	}
	bucket, key, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download link")
	}
	if bucket != s.cfg.Bucket {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download link does not match timetable storage")
	}

	file, err := s.storage.Open(bucket, key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open timetable")
	}

	filename := path.Base(key)
	if idx := strings.Index(filename, "_"); idx >= 0 {
		filename = filename[idx+1:]
	}
	mimeType := mime.TypeByExtension(path.Ext(filename))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &TimetableDownload{File: file, Filename: filename, MimeType: mimeType}, nil
}

package storage

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrObjectExists is returned when an upload targets an occupied path.
	ErrObjectExists = errors.New("object already exists")
	// ErrBucketExists is returned by CreateBucket for an existing bucket.
	ErrBucketExists = errors.New("bucket already exists")
	// ErrBucketNotFound is returned when writing into a bucket that was never created.
	ErrBucketNotFound = errors.New("bucket not found")
	// ErrInvalidPath rejects object keys escaping their bucket.
	ErrInvalidPath = errors.New("invalid object path")
)

// LocalStorage is a bucket-oriented object store on the local filesystem.
// Each bucket is a directory under baseDir; objects are addressed by slash-separated keys.
type LocalStorage struct {
	baseDir       string
	publicBaseURL string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir, publicBaseURL string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./storage"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// CreateBucket creates the bucket directory, failing with ErrBucketExists when present.
func (s *LocalStorage) CreateBucket(bucket string) error {
	dir, err := s.bucketDir(bucket)
	if err != nil {
		return err
	}
	if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
		return ErrBucketExists
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

// Upload writes r to bucket/key. Existing objects are never overwritten.
func (s *LocalStorage) Upload(bucket, key string, r io.Reader) (string, error) {
	dir, err := s.bucketDir(bucket)
	if err != nil {
		return "", err
	}
	if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
		return "", ErrBucketNotFound
	}
	target, err := s.objectPath(bucket, key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare object directory: %w", err)
	}
	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", ErrObjectExists
		}
		return "", fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close() //nolint:errcheck
		_ = os.Remove(target)
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close object: %w", err)
	}
	return normalizeKey(key), nil
}

// PublicURL returns the URL the object is served under.
func (s *LocalStorage) PublicURL(bucket, key string) string {
	segments := strings.Split(strings.Trim(key, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.publicBaseURL + "/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

// Open returns a read-only handle for the stored object.
func (s *LocalStorage) Open(bucket, key string) (*os.File, error) {
	target, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return file, nil
}

// Delete removes an object if present.
func (s *LocalStorage) Delete(bucket, key string) error {
	target, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// BucketDir exposes the bucket directory for static serving.
func (s *LocalStorage) BucketDir(bucket string) string {
	dir, err := s.bucketDir(bucket)
	if err != nil {
		return filepath.Join(s.baseDir, "_invalid")
	}
	return dir
}

func (s *LocalStorage) bucketDir(bucket string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.baseDir, bucket), nil
}

func (s *LocalStorage) objectPath(bucket, key string) (string, error) {
	dir, err := s.bucketDir(bucket)
	if err != nil {
		return "", err
	}
	clean := normalizeKey(key)
	if clean == "" || strings.Contains(key, `\`) {
		return "", ErrInvalidPath
	}
	return filepath.Join(dir, filepath.FromSlash(clean)), nil
}

func normalizeKey(key string) string {
	return strings.TrimPrefix(path.Clean("/"+key), "/")
}

package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"
)

// ViewURLTTL is the lifetime of the presigned URLs handed to clients and to
// the AI provider. Seven days covers the full lead follow-up window.
const ViewURLTTL = 7 * 24 * time.Hour

// ProjectImageStore stores project photos and renders in a single bucket and
// returns presigned view URLs. It implements the projects module's image
// store port.
type ProjectImageStore struct {
	svc    StorageService
	bucket string
}

// NewProjectImageStore creates the store and makes sure the bucket exists.
func NewProjectImageStore(ctx context.Context, svc StorageService, bucket string) (*ProjectImageStore, error) {
	if err := svc.EnsureBucketExists(ctx, bucket); err != nil {
		return nil, err
	}
	return &ProjectImageStore{svc: svc, bucket: bucket}, nil
}

// Upload validates and stores an image and returns a presigned view URL.
func (s *ProjectImageStore) Upload(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	if err := s.svc.ValidateContentType(contentType); err != nil {
		return "", err
	}
	if err := s.svc.ValidateFileSize(int64(len(data))); err != nil {
		return "", err
	}

	fileKey, err := s.svc.UploadFile(ctx, s.bucket, "projects", fileName, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	presigned, err := s.svc.GenerateDownloadURL(ctx, s.bucket, fileKey, ViewURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", fileKey, err)
	}
	return presigned.URL, nil
}

package gcsuploader

import "context"

// ObjectStore is the subset of object storage used for reports and snapshots.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, object string, data []byte, contentType string) error
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// GCSStorageService is the ObjectStore backed by Google Cloud Storage.
type GCSStorageService struct{}

// NewGCSStorageService creates a new instance of GCSStorageService.
func NewGCSStorageService() *GCSStorageService {
	return &GCSStorageService{}
}

// Upload delegates to UploadBytes.
func (s *GCSStorageService) Upload(ctx context.Context, bucket, object string, data []byte, contentType string) error {
	return UploadBytes(ctx, bucket, object, data, contentType)
}

// Fetch delegates to FetchFromGCS.
func (s *GCSStorageService) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return FetchFromGCS(ctx, uri)
}

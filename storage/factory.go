package storage

import (
	"fmt"

	"epubx/config"
)

// NewAdapter creates storage adapter according to publishing configuration.
func NewAdapter(cfg *config.PublishConfig) (Adapter, error) {
	switch cfg.Kind {
	case config.StorageKindLocal:
		return NewLocalAdapter(cfg.Local.BasePath)
	case config.StorageKindS3:
		if cfg.S3 == nil {
			return nil, fmt.Errorf("s3 storage is not configured")
		}
		return NewS3Adapter(S3Options{
			Endpoint:     cfg.S3.Endpoint,
			Region:       cfg.S3.Region,
			Bucket:       cfg.S3.Bucket,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey.Expose(),
			UsePathStyle: cfg.S3.UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported storage kind: %s", cfg.Kind)
	}
}

package snapshot

import (
	"fmt"

	"github.com/stacklok/usb-ids-registry/internal/config"
)

// NewStore creates the snapshot store selected by cfg. An empty
// configuration selects the default file location.
func NewStore(cfg config.SnapshotConfig) (Store, error) {
	if cfg.S3 == nil {
		path := cfg.Path
		if path == "" {
			path = config.DefaultSnapshotPath
		}
		return NewFileStore(path), nil
	}

	accessKey, err := cfg.S3.GetAccessKey()
	if err != nil {
		return nil, fmt.Errorf("s3 access key: %w", err)
	}
	secretKey, err := cfg.S3.GetSecretKey()
	if err != nil {
		return nil, fmt.Errorf("s3 secret key: %w", err)
	}

	return NewS3Store(S3Options{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Bucket:    cfg.S3.Bucket,
		Key:       cfg.S3.Key,
		UseSSL:    cfg.S3.UseSSL,
	})
}

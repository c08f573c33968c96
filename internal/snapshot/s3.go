package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/stacklok/usb-ids-registry/internal/registry"
)

const (
	// DefaultS3Key is the object key used when none is configured
	DefaultS3Key = "usb.ids.json"

	// DefaultS3Region is the region used when none is configured
	DefaultS3Region = "us-east-1"
)

// S3Options configures an S3-compatible snapshot store
type S3Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Key       string
	UseSSL    bool
}

// s3Store implements Store on an S3-compatible object store. A single PUT
// replaces the object, so readers never observe a partial snapshot.
type s3Store struct {
	client *minio.Client
	bucket string
	key    string
	region string

	// bucketReady is only set once the bucket is known to exist, so a
	// failed check is retried on the next save
	mu          sync.Mutex
	bucketReady bool
}

// NewS3Store creates a snapshot store backed by one S3 object
func NewS3Store(opts S3Options) (Store, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(opts.AccessKey)
	secret := strings.TrimSpace(opts.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	key := strings.TrimLeft(strings.TrimSpace(opts.Key), "/")
	if key == "" {
		key = DefaultS3Key
	}
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = DefaultS3Region
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: opts.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &s3Store{
		client: client,
		bucket: bucket,
		key:    key,
		region: region,
	}, nil
}

// Location returns the object location as s3://bucket/key
func (s *s3Store) Location() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

// ensureBucket creates the bucket if it does not exist. Only success is
// remembered.
func (s *s3Store) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bucketReady {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return err
		}
	}
	s.bucketReady = true
	return nil
}

// Load downloads and decodes the snapshot object
func (s *s3Store) Load(ctx context.Context) (registry.Registry, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, notFound(fmt.Errorf("failed to get snapshot %s: %w", s.Location(), err))
	}
	defer func() {
		_ = obj.Close()
	}()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, notFound(fmt.Errorf("snapshot %s does not exist: %w", s.Location(), err))
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, notFound(fmt.Errorf("failed to read snapshot %s: %w", s.Location(), err))
	}

	var reg registry.Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, notFound(fmt.Errorf("failed to decode snapshot %s: %w", s.Location(), err))
	}

	return registry.Normalize(reg), nil
}

// Save uploads the registry as a single object
func (s *s3Store) Save(ctx context.Context, reg registry.Registry) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	data, err := json.MarshalIndent(registry.Normalize(reg), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry data: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, s.key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to put snapshot %s: %w", s.Location(), err)
	}
	return nil
}

package minio

import (
	"bytes"
	"context"
	"fmt"

	"github.com/CleanExpo/LocalLift-sub000/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("minio.store", fx.Provide(NewStore))

// Store puts rendered artifacts into the configured bucket.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

type store struct {
	client *minio.Client
	bucket string
}

// NewStore returns a nil Store when no endpoint is configured.
func NewStore(c *config.Config) (Store, error) {
	if c.Minio.Endpoint == "" {
		zap.L().Info("object storage disabled")
		return nil, nil
	}

	client, err := minio.New(c.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Minio.AccessKey, c.Minio.SecretKey, ""),
		Secure: c.Minio.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, c.Minio.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", c.Minio.BucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, c.Minio.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", c.Minio.BucketName, err)
		}
	}

	zap.L().Info("MinIO client initialized",
		zap.String("endpoint", c.Minio.Endpoint),
		zap.String("bucket", c.Minio.BucketName),
		zap.Bool("bucket_existed", exists),
	)
	return &store{client: client, bucket: c.Minio.BucketName}, nil
}

func (s *store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

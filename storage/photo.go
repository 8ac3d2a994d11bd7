// Package storage keeps report photos in object storage.
package storage

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	minioSDK "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

var ErrPhotosDisabled = errors.New("photo uploads are not configured")

//go:generate mockgen -destination=mock_storage/mock_photo.go -package=mock_storage mytown-issues/storage PhotoStore

// PhotoStore saves uploaded photos and returns the URL they are served from.
type PhotoStore interface {
	Put(ctx context.Context, objectName, contentType string, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, objectName string) error
}

// Disabled rejects every upload. It is used when no object store is configured.
type Disabled struct{}

func (Disabled) Put(context.Context, string, string, io.Reader, int64) (string, error) {
	return "", ErrPhotosDisabled
}

func (Disabled) Delete(context.Context, string) error { return nil }

type MinioConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	Insecure   bool
	PublicBase string
}

// MinioPhotoStore stores photos in a single bucket.
type MinioPhotoStore struct {
	client     *minioSDK.Client
	bucket     string
	publicBase string
}

// NewMinioPhotoStore connects to the object store and creates the bucket if
// it does not exist yet.
func NewMinioPhotoStore(ctx context.Context, cfg MinioConfig, logger *zap.Logger) (*MinioPhotoStore, error) {
	opts := &minioSDK.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	}
	if cfg.Insecure {
		transport, err := insecureTransport(cfg.UseSSL)
		if err != nil {
			return nil, fmt.Errorf("create minio transport: %w", err)
		}
		opts.Transport = transport
	}

	client, err := minioSDK.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minioSDK.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("Bucket created", zap.String("bucket", cfg.Bucket))
	}

	base := cfg.PublicBase
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}

	return &MinioPhotoStore{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: strings.TrimRight(base, "/"),
	}, nil
}

// insecureTransport is the client's default transport with certificate
// verification turned off, for self-signed development endpoints.
func insecureTransport(secure bool) (*http.Transport, error) {
	transport, err := minioSDK.DefaultTransport(secure)
	if err != nil {
		return nil, err
	}
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	}
	transport.TLSClientConfig.InsecureSkipVerify = true
	return transport, nil
}

func (s *MinioPhotoStore) Put(ctx context.Context, objectName, contentType string, r io.Reader, size int64) (string, error) {
	if strings.TrimSpace(objectName) == "" {
		return "", fmt.Errorf("object name cannot be empty")
	}
	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minioSDK.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	return s.publicBase + "/" + s.bucket + "/" + objectName, nil
}

func (s *MinioPhotoStore) Delete(ctx context.Context, objectName string) error {
	return s.client.RemoveObject(ctx, s.bucket, objectName, minioSDK.RemoveObjectOptions{})
}

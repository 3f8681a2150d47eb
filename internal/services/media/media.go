// Package media is the object-storage collaborator for meme uploads. The
// HTTP layer hands it the binary part of a multipart request and gets back a
// public URL to store on the post.
package media

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/memestream/memestream-service/internal/config"
)

type Service struct {
	client     *minio.Client
	bucketName string
	config     *config.Media
	useSSL     bool
}

func NewService(cfg *config.Config) (*Service, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKeyID, cfg.MinIO.SecretAccessKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	service := &Service{
		client:     client,
		bucketName: cfg.MinIO.BucketName,
		config:     &cfg.Media,
		useSSL:     cfg.MinIO.UseSSL,
	}

	if err := service.ensureBucket(); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return service, nil
}

func (s *Service) ensureBucket() error {
	ctx := context.Background()

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// ValidateContentType checks the type against the configured allowlist.
func (s *Service) ValidateContentType(contentType string) bool {
	for _, allowed := range s.config.AllowedMimeTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}

// GenerateObjectKey builds a unique key under uploads/, keeping the original
// file extension.
func (s *Service) GenerateObjectKey(originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("uploads/%s_%d%s", uuid.New().String(), time.Now().Unix(), ext)
}

// Upload streams the file into the bucket and returns its public URL.
func (s *Service) Upload(ctx context.Context, reader io.Reader, size int64, originalFilename string) (string, error) {
	contentType := ContentTypeForFilename(originalFilename)
	if !s.ValidateContentType(contentType) {
		return "", fmt.Errorf("content type %s is not allowed", contentType)
	}

	objectKey := s.GenerateObjectKey(originalFilename)

	_, err := s.client.PutObject(ctx, s.bucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	return s.MediaURL(objectKey), nil
}

// MediaURL returns the public URL for an object (assumes a public-read
// bucket; fronting with a CDN changes only this function).
func (s *Service) MediaURL(objectKey string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}

	endpoint := strings.TrimPrefix(s.client.EndpointURL().String(), scheme+"://")
	return fmt.Sprintf("%s://%s/%s/%s", scheme, endpoint, s.bucketName, objectKey)
}

// Delete removes the object a previously returned URL points at.
func (s *Service) Delete(ctx context.Context, mediaURL string) error {
	prefix := fmt.Sprintf("/%s/", s.bucketName)
	idx := strings.Index(mediaURL, prefix)
	if idx < 0 {
		return fmt.Errorf("url %s does not belong to bucket %s", mediaURL, s.bucketName)
	}
	objectKey := mediaURL[idx+len(prefix):]

	return s.client.RemoveObject(ctx, s.bucketName, objectKey, minio.RemoveObjectOptions{})
}

// ContentTypeForFilename maps a filename extension to its MIME type.
func ContentTypeForFilename(filename string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

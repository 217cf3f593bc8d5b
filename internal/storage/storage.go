// Package storage keeps the uploaded resumes in an S3 compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lws-dev/hiring/backend/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
	MimeBin  = "application/octet-stream"
)

type Client struct {
	client  *minio.Client
	bucket  string
	region  string
	timeout time.Duration
}

func NewClient(cfg *config.Config) (*Client, error) {
	client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
		Region: cfg.Storage.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &Client{
		client:  client,
		bucket:  cfg.Storage.Bucket,
		region:  cfg.Storage.Region,
		timeout: time.Duration(cfg.Storage.Timeout) * time.Second,
	}, nil
}

// EnsureBucket creates the bucket unless it already exists.
func (c *Client) EnsureBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}
	if exists {
		return nil
	}

	if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", c.bucket, err)
	}

	return nil
}

func (c *Client) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.client.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	return nil
}

// Retrieve returns the object bytes and the content type it was stored with.
func (c *Client) Retrieve(ctx context.Context, key string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	object, err := c.client.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("retrieve %s: %w", key, err)
	}
	defer object.Close()

	info, err := object.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("stat %s: %w", key, err)
	}

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", key, err)
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = ContentType(key)
	}

	return data, contentType, nil
}

func (c *Client) Remove(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}

	return nil
}

// Extension returns the lower-cased extension of a file name without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
}

func ContentType(filename string) string {
	switch Extension(filename) {
	case "pdf":
		return MimePDF
	case "doc":
		return MimeDOC
	case "docx":
		return MimeDOCX
	case "txt":
		return MimeText
	default:
		return MimeBin
	}
}

// StoredName is the unique name a resume is stored under: <original>-<uuid>.<ext>.
func StoredName(originalFilename string) string {
	ext := Extension(originalFilename)
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s-%s.%s", originalFilename, uuid.NewString(), ext)
}

// ObjectKey places a stored file under the directory of its evaluation.
func ObjectKey(evaluationName string, storedName string) string {
	return fmt.Sprintf("uploads/%s/%s", evaluationName, storedName)
}

package s3infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/succession-vault/internal/config"
	"github.com/succession-vault/internal/domain"
	"github.com/succession-vault/internal/pkg/id"
)

// Key prefixes for stored documents.
const (
	PrefixAssets   = "assets"
	PrefixEvidence = "evidence"
)

// Store keeps asset payloads and claim evidence in S3. Every document is addressed
// by an opaque key generated here; failures are reported as domain.ErrStorage.
type Store struct {
	client *s3.Client
	bucket string
}

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(awsCfg aws.Config, cfg *config.Config) *s3.Client {
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
			o.UsePathStyle = true
		}
	})
}

// NewStore creates a Store with the given S3 client and bucket name.
func NewStore(client *s3.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Save writes data under a fresh key below prefix and returns the key once the
// object is durable. An empty contentType is inferred from fileName.
func (s *Store) Save(ctx context.Context, prefix, fileName string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = detectContentType(fileName)
	}
	key := objectKey(prefix, fileName)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w: %v", domain.ErrStorage, err)
	}
	return key, nil
}

// Fetch reads a stored document fully.
func (s *Store) Fetch(ctx context.Context, key string) ([]byte, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("s3 get object: %w: %v", domain.ErrStorage, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("s3 read object: %w: %v", domain.ErrStorage, err)
	}
	return data, aws.ToString(out.ContentType), nil
}

// PresignedURL generates a time-limited presigned GET URL for the given key.
func (s *Store) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	presigner := s3.NewPresignClient(s.client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign get object: %w: %v", domain.ErrStorage, err)
	}
	return req.URL, nil
}

// Delete removes a document. Deleting a missing key succeeds.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object: %w: %v", domain.ErrStorage, err)
	}
	return nil
}

// objectKey keeps the file extension so downloads open with the right handler.
func objectKey(prefix, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return prefix + "/" + id.New() + ext
}

func detectContentType(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(lower, ".txt"):
		return "text/plain"
	case strings.HasSuffix(lower, ".doc") || strings.HasSuffix(lower, ".docx"):
		return "application/msword"
	default:
		return "application/octet-stream"
	}
}

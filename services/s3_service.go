package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	neturl "net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// Retry policy for uploads: base 1s, doubled per attempt, 3 attempts,
// transient/network failures only. Everything else fails fast.
const (
	uploadMaxAttempts = 3
	uploadBaseDelay   = time.Second
)

// s3API is the slice of the S3 client MediaService uses; tests inject a
// fake to exercise the retry path.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// MediaService is the object-storage boundary: bytes in, URL out.
type MediaService struct {
	Client    s3API
	Presigner *s3.PresignClient
	Bucket    string

	// baseDelay is overridable in tests to avoid real sleeps.
	baseDelay time.Duration
}

func NewMediaService() *MediaService {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	client := s3.NewFromConfig(cfg)
	return &MediaService{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Bucket:    os.Getenv("S3_BUCKET_NAME"),
		baseDelay: uploadBaseDelay,
	}
}

// Upload stores data at path and returns the object URL.
func (ms *MediaService) Upload(ctx context.Context, data []byte, path string) (string, error) {
	err := ms.withRetry(ctx, "upload "+path, func() error {
		_, err := ms.Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(ms.Bucket),
			Key:    aws.String(path),
			Body:   bytes.NewReader(data),
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", ms.Bucket, path), nil
}

// Delete removes the object a previous Upload returned.
func (ms *MediaService) Delete(ctx context.Context, url string) error {
	parsed, err := neturl.Parse(url)
	if err != nil {
		return fmt.Errorf("invalid media URL %q: %w", url, err)
	}
	key := strings.TrimPrefix(parsed.Path, "/")
	if key == "" {
		return fmt.Errorf("media URL %q has no object key", url)
	}

	err = ms.withRetry(ctx, "delete "+key, func() error {
		_, err := ms.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(ms.Bucket),
			Key:    aws.String(key),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (ms *MediaService) withRetry(ctx context.Context, op string, fn func() error) error {
	delay := ms.baseDelay
	if delay == 0 {
		delay = uploadBaseDelay
	}

	var err error
	for attempt := 1; attempt <= uploadMaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isTransient(err) || attempt == uploadMaxAttempts {
			return err
		}

		log.Printf("⚠️ Transient failure on %s (attempt %d/%d), retrying in %s: %v", op, attempt, uploadMaxAttempts, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}

// isTransient classifies network timeouts and throttling-style service
// responses as retryable. Cancellation and logical errors are not.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "RequestTimeout", "SlowDown", "InternalError", "ServiceUnavailable":
			return true
		}
	}
	return false
}

// GenerateUploadURL generates a presigned URL for uploading a file
func (ms *MediaService) GenerateUploadURL(fileName, fileType string) (string, string, error) {
	key := "profile-media/" + time.Now().Format("20060102150405") + "-" + fileName
	params := &s3.PutObjectInput{
		Bucket:      aws.String(ms.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(fileType),
	}
	presignedURL, err := ms.Presigner.PresignPutObject(context.TODO(), params, s3.WithPresignExpires(5*time.Minute))
	if err != nil {
		return "", "", err
	}
	return presignedURL.URL, key, nil
}

// GenerateReadURL generates a presigned URL for reading a file
func (ms *MediaService) GenerateReadURL(key string) (string, error) {
	params := &s3.GetObjectInput{
		Bucket: aws.String(ms.Bucket),
		Key:    aws.String(key),
	}
	presignedURL, err := ms.Presigner.PresignGetObject(context.TODO(), params, s3.WithPresignExpires(5*time.Minute))
	if err != nil {
		return "", err
	}
	return presignedURL.URL, nil
}

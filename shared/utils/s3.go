package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
)

// S3Uploader stores listing images under a tenant-prefixed key so one tenant's
// objects never collide with another's.
type S3Uploader struct {
	uploader *s3manager.Uploader
	bucket   string
	baseURL  string
}

// NewS3Uploader builds an uploader from AWS_REGION and S3_BUCKET.
func NewS3Uploader() (*S3Uploader, error) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is not configured")
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	baseURL := os.Getenv("S3_BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}

	return &S3Uploader{
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// Store uploads one file and returns its public URL. The object key is
// <tenant>/<uuid><ext>; the original filename is discarded apart from its
// extension so user input never reaches the key.
func (u *S3Uploader) Store(tenantID, originalName string, contentType string, body io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	key := fmt.Sprintf("%s/%s%s", tenantID, uuid.New().String(), ext)

	_, err := u.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return u.baseURL + "/" + key, nil
}

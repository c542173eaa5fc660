// Package storage keeps uploaded applicant documents in S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"zakatdesk/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type DocumentStorage struct {
	client S3API
	bucket string
}

func NewDocumentStorage(client S3API, bucket string) *DocumentStorage {
	return &DocumentStorage{client: client, bucket: bucket}
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ObjectKey places a request's upload under its case. A random segment keeps
// re-uploads from overwriting the previous object.
func ObjectKey(caseID, requestID, fileName string) string {
	name := unsafeFileChars.ReplaceAllString(path.Base(strings.TrimSpace(fileName)), "_")
	if name == "" || name == "." || name == "_" {
		name = "upload"
	}
	return fmt.Sprintf("%s%s-%s", KeyPrefix(caseID, requestID), utils.NanoIDSize(8), name)
}

// KeyPrefix is the folder every upload for a request lives under.
func KeyPrefix(caseID, requestID string) string {
	return fmt.Sprintf("cases/%s/requests/%s/", caseID, requestID)
}

// OwnsKey reports whether key names an object directly under the request's
// folder.
func OwnsKey(caseID, requestID, key string) bool {
	prefix := KeyPrefix(caseID, requestID)
	rest, ok := strings.CutPrefix(key, prefix)
	return ok && rest != "" && !strings.Contains(rest, "/") && path.Clean(key) == key
}

// Upload stores body and returns the object key.
func (s *DocumentStorage) Upload(ctx context.Context, caseID, requestID, fileName, contentType string, body io.Reader) (string, error) {
	key := ObjectKey(caseID, requestID, fileName)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload document to s3://%s/%s: %w", s.bucket, key, err)
	}

	return key, nil
}

func (s *DocumentStorage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// Package fsxs3 implements fsx.FileSystem on top of AWS S3.
package fsxs3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hirelens/hirelens/pkg/fsx"
)

type S3FileSystem struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3FileSystem creates an S3-backed file system rooted at prefix within
// the given bucket.
func NewS3FileSystem(client *s3.Client, bucket, prefix string) fsx.FileSystem {
	return &S3FileSystem{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *S3FileSystem) key(p string) string {
	if s.prefix == "" {
		return p
	}
	return path.Join(s.prefix, p)
}

func (s *S3FileSystem) ReadFile(ctx context.Context, filePath string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(filePath)),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", filePath, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body %s: %w", filePath, err)
	}
	return data, nil
}

func (s *S3FileSystem) WriteFile(ctx context.Context, filePath string, data []byte) error {
	return s.WriteFileStream(ctx, filePath, bytes.NewReader(data))
}

func (s *S3FileSystem) WriteFileStream(ctx context.Context, filePath string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(filePath)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", filePath, err)
	}
	return nil
}

func (s *S3FileSystem) DeleteFile(ctx context.Context, filePath string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(filePath)),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", filePath, err)
	}
	return nil
}

func (s *S3FileSystem) Join(parts ...string) string {
	return path.Join(parts...)
}

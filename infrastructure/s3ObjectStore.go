package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3ObjectAPI is the subset of the S3 client the store needs.
type S3ObjectAPI interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3ObjectStore reads and publishes extract files on S3. Publish deletes
// the key first so the extract is replaced whole, never appended to or
// partially overwritten.
type S3ObjectStore struct {
	client   S3ObjectAPI
	uploader *manager.Uploader
	bucket   string
}

func NewS3ObjectStore(client S3ObjectAPI, bucket string) (S3ObjectStore, error) {
	if client == nil {
		return S3ObjectStore{}, errors.New("s3 client nil")
	}
	if bucket == "" {
		return S3ObjectStore{}, errors.New("bucket is empty")
	}
	return S3ObjectStore{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
	}, nil
}

func (s S3ObjectStore) Publish(ctx context.Context, key string, body *bytes.Buffer) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete failed key=[%s], bucket=[%s]: %w", key, s.bucket, err)
	}
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("upload failed key=[%s], bucket=[%s]: %w", key, s.bucket, err)
	}
	return nil
}

func (s S3ObjectStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get failed key=[%s], bucket=[%s]: %w", key, s.bucket, err)
	}
	defer out.Body.Close()
	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read failed key=[%s], bucket=[%s]: %w", key, s.bucket, err)
	}
	return body, nil
}

package image

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/clubworks/core/internal/config"
)

// ObjectStore persists image binaries and answers with a public URL.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// s3Store uploads to an S3-compatible bucket.
type s3Store struct {
	client *s3.Client
	opts   config.S3Options
}

// NewS3Store builds an ObjectStore backed by the configured bucket.
func NewS3Store(opts config.S3Options) ObjectStore {
	s3opts := s3.Options{
		Region: opts.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		),
		UsePathStyle: opts.PathStyleAccess,
	}
	if strings.TrimSpace(opts.Endpoint) != "" {
		s3opts.BaseEndpoint = aws.String(opts.Endpoint)
	}
	return &s3Store{client: s3.New(s3opts), opts: opts}
}

func (s *s3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return s.publicURL(key), nil
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *s3Store) publicURL(key string) string {
	if domain := strings.TrimSpace(s.opts.CustomDomain); domain != "" {
		return strings.TrimRight(domain, "/") + "/" + key
	}
	if endpoint := strings.TrimSpace(s.opts.Endpoint); endpoint != "" {
		return strings.TrimRight(endpoint, "/") + "/" + s.opts.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, s.opts.Region, key)
}

// localStore writes under the static directory and serves via the app's
// /static route.
type localStore struct {
	dir     string
	baseURL string
}

// NewLocalStore builds an ObjectStore rooted at dir. baseURL is the public
// prefix the static dir is served from.
func NewLocalStore(dir, baseURL string) ObjectStore {
	return &localStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *localStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	path := filepath.Join(l.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return l.baseURL + "/" + key, nil
}

func (l *localStore) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(l.dir, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Package s3 implements the object store port on an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Strob0t/showcase/internal/config"
	"github.com/Strob0t/showcase/internal/port/objectstore"
)

// Client captures the subset of the AWS SDK client used by Store.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store stores uploaded project files in a bucket.
type Store struct {
	client    Client
	bucket    string
	publicURL string
}

// New creates a Store. publicURL is the base under which object keys are
// served; when empty, virtual-hosted AWS URLs are assumed.
func New(client Client, bucket, publicURL string) *Store {
	return &Store{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

// NewFromConfig builds an SDK client from storage configuration. creds,
// when non-nil, supplies the credentials; otherwise static credentials are
// used when an access key is set. A custom endpoint switches to path-style
// addressing for S3-compatible servers.
func NewFromConfig(cfg config.Storage, creds aws.CredentialsProvider) *Store {
	awsCfg := aws.Config{Region: cfg.Region}
	switch {
	case creds != nil:
		awsCfg.Credentials = creds
	case cfg.AccessKey != "":
		static := aws.Credentials{AccessKeyID: cfg.AccessKey, SecretAccessKey: cfg.SecretKey, Source: "showcase-config"}
		awsCfg.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return static, nil },
		))
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		if cfg.Endpoint != "" {
			publicURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	return New(client, cfg.Bucket, publicURL)
}

// Names under which RotatingCredentials looks up the key pair.
const (
	AccessKeyName = "AWS_ACCESS_KEY_ID"
	SecretKeyName = "AWS_SECRET_ACCESS_KEY"
)

// SecretSource returns the current value of a named secret.
type SecretSource interface {
	Get(key string) string
}

// RotatingCredentials reads the key pair from src and lets the SDK cache
// it for refresh, so a rotated pair is picked up without a restart.
func RotatingCredentials(src SecretSource, refresh time.Duration) aws.CredentialsProvider {
	return aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		id, secret := src.Get(AccessKeyName), src.Get(SecretKeyName)
		if id == "" || secret == "" {
			return aws.Credentials{}, errors.New("s3 credentials missing from secret source")
		}
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			Source:          "showcase-secrets",
			CanExpire:       true,
			Expires:         time.Now().Add(refresh),
		}, nil
	}))
}

// Put uploads data under key.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

// Get downloads the object stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("s3 get %s: %w", key, objectstore.ErrNotFound)
		}
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the object stored under key. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	var notFound *types.NoSuchKey
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL of key.
func (s *Store) URL(key string) string {
	return s.publicURL + "/" + strings.TrimLeft(key, "/")
}

var _ objectstore.Store = (*Store)(nil)

// Package storage keeps ticket receipts in an S3-compatible bucket (Cloudflare R2).
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// objectAPI is the part of the S3 client used by R2Storage.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// presignAPI signs GET requests for private objects.
type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// R2Config holds the bucket credentials and addresses.
type R2Config struct {
	AccountID       string // Cloudflare account; builds the default endpoint
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string // Public base URL; defaults to https://<bucket>.r2.dev
	Endpoint        string // Overrides https://<account>.r2.cloudflarestorage.com
}

// endpoint returns the S3 API endpoint of the bucket.
func (c R2Config) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

// R2Storage uploads, signs and deletes objects in one bucket.
type R2Storage struct {
	client    objectAPI
	presigner presignAPI
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewR2Storage creates an R2Storage from cfg.
// Returns an error if a credential is missing or the SDK config cannot be loaded.
func NewR2Storage(ctx context.Context, cfg R2Config) (*R2Storage, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		return nil, errors.New("r2 storage: access key, secret and bucket are required")
	}
	if cfg.AccountID == "" && cfg.Endpoint == "" {
		return nil, errors.New("r2 storage: account id or endpoint is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := cfg.endpoint()
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
		// R2 does not accept the SDK's default trailing checksums on every upload.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.r2.dev", cfg.Bucket)
	}

	logrus.Infof("R2 storage configured for bucket %s at %s", cfg.Bucket, endpoint)
	return &R2Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		now:       time.Now,
	}, nil
}

// Upload stores data under folder/<unix-ms>-<name>.
// Returns the public URL and the object key.
func (s *R2Storage) Upload(ctx context.Context, folder, name, contentType string, data []byte) (string, string, error) {
	key := s.objectKey(folder, name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to put object %q: %w", key, err)
	}

	logrus.WithField("filename", key).Info("File uploaded successfully")
	return s.publicURL + "/" + key, key, nil
}

// SignedURL returns a presigned GET URL for key valid for ttl.
func (s *R2Storage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign object %q: %w", key, err)
	}
	return req.URL, nil
}

// Delete removes key from the bucket.
func (s *R2Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}

	logrus.WithField("filename", key).Info("File deleted successfully")
	return nil
}

// objectKey builds the key of a new object. Directory parts of name are dropped.
func (s *R2Storage) objectKey(folder, name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		base = "file"
	}
	return folder + "/" + strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + base
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
)

// S3Config configures an S3-compatible store (AWS S3, MinIO, R2, Supabase).
type S3Config struct {
	Region          string
	Endpoint        string // optional custom endpoint
	AccessKeyID     string // optional; falls back to the default credential chain
	SecretAccessKey string
	PathStyle       bool
	PublicURL       string
}

// S3 stores objects in S3 buckets named after the logical bucket.
type S3 struct {
	client    *s3.Client
	publicURL string
}

// NewS3 creates an S3 store. optFns are applied to the client options
// after cfg.
func NewS3(ctx context.Context, cfg S3Config, optFns ...func(*s3.Options)) (*S3, error) {
	if cfg.PublicURL == "" {
		return nil, fmt.Errorf("s3 storage requires a public URL")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		// S3-compatible backends reject the SDK's default trailing checksums.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		for _, fn := range optFns {
			fn(o)
		}
	})

	return &S3{client: client, publicURL: cfg.PublicURL}, nil
}

func (s *S3) Upload(ctx context.Context, bucket, key, contentType string, data []byte) error {
	if err := validateKey(bucket, key); err != nil {
		return err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &bucket, Key: &key})
	if err == nil {
		return domainerrors.Conflictf("object %s/%s already exists", bucket, key)
	}
	var notFound *s3types.NotFound
	if !errors.As(err, &notFound) {
		return domainerrors.Storage(err, "failed to check object")
	}

	input := &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String("public, max-age=3600"),
	}
	if contentType != "" {
		input.ContentType = &contentType
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return domainerrors.Storage(err, "failed to upload object")
	}
	return nil
}

func (s *S3) Remove(ctx context.Context, bucket string, keys ...string) error {
	var errs []error
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &bucket, Key: &key}); err != nil {
			errs = append(errs, domainerrors.Storage(err, fmt.Sprintf("failed to delete %s/%s", bucket, key)))
		}
	}
	return errors.Join(errs...)
}

func (s *S3) PublicURL(bucket, key string) string {
	return publicURL(s.publicURL, bucket, key)
}

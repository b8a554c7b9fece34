package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrDisabled is returned when publishing is requested without a bucket.
var ErrDisabled = errors.New("publishing is not configured")

// Config describes an S3-compatible bucket (AWS or MinIO)
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
}

// Enabled reports whether a bucket is configured
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

// Object is a file to upload
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

type s3API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads tiles and archives to a bucket
type Publisher struct {
	client s3API
	bucket string
	prefix string
	logger *log.Logger
}

// NewPublisher builds an S3 client from cfg. A custom endpoint switches to
// path-style addressing, which MinIO requires.
func NewPublisher(ctx context.Context, cfg Config, logger *log.Logger) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newPublisher(client, cfg, logger), nil
}

func newPublisher(client s3API, cfg Config, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Publisher{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger,
	}
}

// Publish uploads objects under <prefix>/<dir>/ and returns the keys that
// were written. Every object is attempted; failures are joined.
func (p *Publisher) Publish(ctx context.Context, dir string, objects []Object) ([]string, error) {
	if err := p.ensureBucket(ctx); err != nil {
		return nil, err
	}

	var (
		keys []string
		errs []error
	)
	for _, obj := range objects {
		key := path.Join(p.prefix, dir, obj.Key)

		_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(p.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(obj.Data),
			ContentLength: aws.Int64(int64(len(obj.Data))),
			ContentType:   aws.String(obj.ContentType),
		})
		if err != nil {
			p.logger.Printf("failed to upload %s: %v", key, err)
			errs = append(errs, fmt.Errorf("upload %s: %w", key, err))
			continue
		}
		p.logger.Printf("uploaded: %s", key)
		keys = append(keys, key)
	}

	return keys, errors.Join(errs...)
}

// ensureBucket creates the bucket if it does not exist yet
func (p *Publisher) ensureBucket(ctx context.Context) error {
	_, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(p.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = p.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(p.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", p.bucket, err)
	}
	p.logger.Printf("Created bucket: %s", p.bucket)
	return nil
}

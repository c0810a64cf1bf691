package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/richxcame/fleet-analytics/pkg/config"
)

// Archive stores generated report files
type Archive interface {
	Store(ctx context.Context, filename, contentType string, data []byte) (location string, err error)
}

// LocalArchive writes reports under a directory
type LocalArchive struct {
	dir string
}

// NewLocalArchive creates a directory archive
func NewLocalArchive(dir string) *LocalArchive {
	return &LocalArchive{dir: dir}
}

// Store writes data to dir/filename and returns the file path.
func (a *LocalArchive) Store(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	target := filepath.Join(a.dir, filepath.Base(filename))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return target, nil
}

// S3API is the subset of the S3 client used by S3Archive
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive uploads reports to a bucket
type S3Archive struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Archive wraps an S3 client
func NewS3Archive(client S3API, bucket, prefix string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: prefix}
}

// NewS3ArchiveFromConfig builds the S3 client from the reports configuration.
// Static credentials are used when both keys are set; otherwise the default
// AWS credential chain applies.
func NewS3ArchiveFromConfig(ctx context.Context, cfg config.ReportsConfig) (*S3Archive, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Archive(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

// Store uploads data and returns its s3:// location.
func (a *S3Archive) Store(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	key := path.Join(strings.Trim(a.prefix, "/"), path.Base(filename))
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("upload report to s3: %w", err)
	}
	return "s3://" + a.bucket + "/" + key, nil
}

// NewArchive picks the archive backend named in the configuration.
func NewArchive(ctx context.Context, cfg config.ReportsConfig) (Archive, error) {
	if cfg.Archive == "s3" {
		return NewS3ArchiveFromConfig(ctx, cfg)
	}
	return NewLocalArchive(cfg.OutputDir), nil
}

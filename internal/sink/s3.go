package sink

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"specgen/internal/domain"
	"specgen/pkg/config"
	"specgen/pkg/logger"
)

// putObjectAPI is the part of *s3.Client the sink uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectSink uploads artifacts to an S3 bucket.
type ObjectSink struct {
	client putObjectAPI
	bucket string
	prefix string
	logger *logger.Logger
}

// NewObjectSink builds an S3 client from cfg. It does not contact S3.
func NewObjectSink(ctx context.Context, cfg config.S3Config, log *logger.Logger) (*ObjectSink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newObjectSink(client, cfg.Bucket, cfg.Prefix, log), nil
}

func newObjectSink(client putObjectAPI, bucket, prefix string, log *logger.Logger) *ObjectSink {
	if log == nil {
		log = logger.New()
	}
	return &ObjectSink{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: log.WithFields("component", "s3-sink", "bucket", bucket),
	}
}

func buildAWSConfig(ctx context.Context, cfg config.S3Config) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	return awsconfig.LoadDefaultConfig(ctx, optFns...)
}

// Save puts result at <prefix><filename> and returns its s3:// URI.
func (s *ObjectSink) Save(ctx context.Context, result *domain.DownloadResult) (string, error) {
	name, err := SafeName(result.Filename)
	if err != nil {
		return "", err
	}
	key := s.prefix + name

	contentType := result.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(result.Data),
		ContentLength: aws.Int64(result.Size()),
		ContentType:   aws.String(contentType),
	}
	if result.RequestID != "" {
		input.Metadata = map[string]string{"request-id": result.RequestID}
	}

	start := time.Now()
	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error("failed to put object", "key", key, "error", err)
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.logger.Info("artifact uploaded",
		"key", key,
		"bytes", result.Size(),
		"duration_ms", time.Since(start).Milliseconds())

	return location, nil
}

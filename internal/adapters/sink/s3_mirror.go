package sink

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mikey/rfq-workflow/internal/config"
	"github.com/mikey/rfq-workflow/internal/ports"
	"go.uber.org/zap"
)

// objectPutter is the part of the S3 client used here
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror uploads every file written by a local sink to a bucket. Upload
// failures are logged and the local location is kept.
type S3Mirror struct {
	next   ports.Sink
	client objectPutter
	bucket string
	prefix string
	stamp  string
	logger *zap.Logger
}

// NewS3Client creates an S3 client from the mirror configuration
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewS3Mirror wraps next so that its files are mirrored under <prefix>/<stamp>/
func NewS3Mirror(next ports.Sink, client objectPutter, bucket, prefix, stamp string, logger *zap.Logger) *S3Mirror {
	return &S3Mirror{
		next:   next,
		client: client,
		bucket: bucket,
		prefix: prefix,
		stamp:  stamp,
		logger: logger,
	}
}

// Write writes through to the wrapped sink, then uploads the result
func (m *S3Mirror) Write(ctx context.Context, channel ports.Channel, table ports.Table) (string, error) {
	loc, err := m.next.Write(ctx, channel, table)
	if err != nil {
		return "", err
	}

	key := path.Join(m.prefix, m.stamp, filepath.Base(loc))
	if err := m.upload(ctx, loc, key); err != nil {
		m.logger.Warn("Failed to mirror output to S3",
			zap.String("bucket", m.bucket),
			zap.String("key", key),
			zap.Error(err))
		return loc, nil
	}

	m.logger.Info("Mirrored output to S3",
		zap.String("channel", string(channel)),
		zap.String("uri", fmt.Sprintf("s3://%s/%s", m.bucket, key)))
	return loc, nil
}

func (m *S3Mirror) upload(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

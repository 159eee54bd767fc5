// File: internal/catalog/source/s3/s3.go
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"replisync/internal/catalog/source/registry"
	"replisync/internal/config"
)

func init() {
	registry.RegisterSource("s3", registry.SourceRegistration{
		Initializer: initialize,
	})
}

func initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) (registry.Source, error) {
	return NewS3Source(ctx, cfg.Catalog.Region, cfg.Catalog.Endpoint, logger)
}

type S3Source struct {
	client *s3.Client
	logger *slog.Logger
}

var _ registry.Source = (*S3Source)(nil)

// Creates an S3 source from the default credential chain. A custom endpoint
// (MinIO, LocalStack) switches the client to path-style addressing.
func NewS3Source(ctx context.Context, region, endpoint string, logger *slog.Logger) (*S3Source, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Source{
		client: client,
		logger: logger,
	}, nil
}

func (s *S3Source) Open(ctx context.Context, loc registry.Location) (io.ReadCloser, error) {
	s.logger.Debug("Reading catalog object from S3", "bucket", loc.Bucket, "key", loc.Key)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("catalog object s3://%s/%s does not exist", loc.Bucket, loc.Key)
		}
		return nil, fmt.Errorf("error reading catalog object: %w", err)
	}
	return out.Body, nil
}

func (s *S3Source) Close() error {
	return nil
}

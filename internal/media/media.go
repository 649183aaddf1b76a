// Package media removes product media and invoice blobs from object storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// maxDeleteBatch is the S3 limit on keys per DeleteObjects request.
const maxDeleteBatch = 1000

// Store deletes blobs by key.
type Store interface {
	Delete(ctx context.Context, keys ...string) error
}

// s3API is the subset of the S3 client used by the store.
type s3API interface {
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type s3Store struct {
	client s3API
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Store creates an S3-backed store. Keys without the prefix get it prepended.
func NewS3Store(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "s3-media-store").Logger()

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 media store initialised")

	return newS3Store(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

func newS3Store(client s3API, bucket, prefix string, logger zerolog.Logger) *s3Store {
	return &s3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

// Delete removes keys from the bucket in batches. Missing objects are not an error.
func (s *s3Store) Delete(ctx context.Context, keys ...string) error {
	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		if key = strings.TrimSpace(key); key == "" {
			continue
		}
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(s.objectKey(key))})
	}

	var errs []error
	for start := 0; start < len(objects); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(objects))

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{
				Objects: objects[start:end],
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("bucket", s.bucket).
				Int("count", end-start).
				Msg("failed to delete objects from S3")
			errs = append(errs, fmt.Errorf("failed to delete objects from S3 (bucket=%s): %w", s.bucket, err))
			continue
		}

		for _, e := range out.Errors {
			errs = append(errs, fmt.Errorf("failed to delete %s: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	s.logger.Debug().
		Str("bucket", s.bucket).
		Int("count", len(objects)).
		Msg("objects deleted from S3")

	return nil
}

func (s *s3Store) objectKey(key string) string {
	if s.prefix == "" || strings.HasPrefix(key, s.prefix) {
		return key
	}
	return s.prefix + key
}

// noopStore is used when object storage is disabled.
type noopStore struct {
	logger zerolog.Logger
}

// NewNoopStore returns a store that only logs the keys it was asked to delete.
func NewNoopStore(logger zerolog.Logger) Store {
	return &noopStore{logger: logger.With().Str("component", "noop-media-store").Logger()}
}

func (n *noopStore) Delete(_ context.Context, keys ...string) error {
	if len(keys) > 0 {
		n.logger.Debug().Strs("keys", keys).Msg("object storage disabled, skipping blob deletion")
	}
	return nil
}

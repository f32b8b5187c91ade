// Package storage provides object-storage sync for static site deploys
package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"github.com/shepherdjerred/conductor/pkg/interfaces"
	"github.com/shepherdjerred/conductor/pkg/logger"
)

// S3API is the subset of the S3 client used by the syncer
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Syncer implements interfaces.StorageSyncer over the AWS SDK
type S3Syncer struct {
	client S3API
	logger logger.Logger
}

// New creates an S3Syncer from the ambient AWS configuration
func New(ctx context.Context, log logger.Logger) (*S3Syncer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Syncer{
		client: s3.NewFromConfig(cfg),
		logger: log,
	}, nil
}

// NewWithClient creates an S3Syncer with an explicit client (for testing)
func NewWithClient(client S3API, log logger.Logger) *S3Syncer {
	return &S3Syncer{client: client, logger: log}
}

// Sync uploads every file under dir to the bucket and, when DeleteRemoved is
// set, removes remote objects with no local counterpart.
func (s *S3Syncer) Sync(ctx context.Context, dir, bucket string, opts interfaces.SyncOptions) (string, error) {
	localKeys := make(map[string]bool)
	uploaded := 0

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if opts.Prefix != "" {
			key = strings.TrimSuffix(opts.Prefix, "/") + "/" + key
		}
		localKeys[key] = true

		if err := s.putFile(ctx, bucket, key, path); err != nil {
			return fmt.Errorf("failed to upload %s: %w", key, err)
		}
		uploaded++
		return nil
	})
	if err != nil {
		return "", err
	}

	deleted := 0
	if opts.DeleteRemoved {
		deleted, err = s.deleteRemoved(ctx, bucket, opts.Prefix, localKeys)
		if err != nil {
			return "", err
		}
	}

	summary := fmt.Sprintf("uploaded %d file(s) to s3://%s", uploaded, bucket)
	if opts.DeleteRemoved {
		summary += fmt.Sprintf(", deleted %d removed file(s)", deleted)
	}
	s.logger.Info(summary)
	return summary, nil
}

func (s *S3Syncer) putFile(ctx context.Context, bucket, key, path string) error {
	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(path); err == nil {
		contentType = mt.String()
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	return err
}

func (s *S3Syncer) deleteRemoved(ctx context.Context, bucket, prefix string, localKeys map[string]bool) (int, error) {
	deleted := 0
	var continuation *string

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to list bucket %s: %w", bucket, err)
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if localKeys[key] {
				continue
			}
			_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return deleted, fmt.Errorf("failed to delete %s: %w", key, err)
			}
			s.logger.Debug("Deleted removed object", logger.WithField("key", key))
			deleted++
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			return deleted, nil
		}
		continuation = out.NextContinuationToken
	}
}

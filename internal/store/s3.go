package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store keeps each document as a JSON object under a key prefix.
type S3Store struct {
	snapshots
	bucket string
	prefix string
	client *s3.Client
}

var _ Backend = (*S3Store)(nil)

// NewS3Store creates a client from config and uploads empty documents for
// objects that do not exist yet.
func NewS3Store(ctx context.Context, bucket, prefix string, config aws.Config, optFns ...func(*s3.Options)) (*S3Store, error) {
	s := &S3Store{
		bucket: bucket,
		prefix: prefix,
		client: s3.NewFromConfig(config, optFns...),
	}
	s.snapshots = snapshots{io: s}

	for _, name := range documentNames {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(name)),
		})
		if err == nil {
			continue
		}
		var notFound *types.NotFound
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("head %s: %w", s.key(name), err)
		}
		if err := s.writeDocument(ctx, name, emptyDocument(name)); err != nil {
			return nil, fmt.Errorf("initialise %s: %w", s.key(name), err)
		}
	}
	return s, nil
}

func (s *S3Store) key(name string) string {
	return path.Join(s.prefix, name+".json")
}

func (s *S3Store) readDocument(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("object %q does not exist", s.key(name))
		}
		return nil, err
	}
	defer obj.Body.Close()

	return io.ReadAll(obj.Body)
}

func (s *S3Store) writeDocument(ctx context.Context, name string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	return err
}

func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

func (s *S3Store) Close() error {
	return nil
}

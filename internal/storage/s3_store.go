package storage

import (
	"blogpress/internal/config"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// S3Store serves markdown sources from an S3 compatible bucket.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
	tracer trace.Tracer
}

var _ Provider = (*S3Store)(nil)

func NewS3Store(cfg config.S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket cannot be empty")
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		),
		UsePathStyle: true,
	})

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		tracer: otel.Tracer("blogpress/storage/s3"),
	}, nil
}

func (s *S3Store) objectKey(key string) string {
	key = strings.TrimSpace(key)
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	ctx, span := s.tracer.Start(ctx, "S3.Open", trace.WithAttributes(attribute.String("s3.key", key)))

	objOutput, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get object failed")
		span.End()
		return nil, fmt.Errorf("cannot open %q: %w", key, err)
	}

	return &spanClosingReader{
		ReadCloser: objOutput.Body,
		span:       span,
	}, nil
}

func (s *S3Store) Exists(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	return err == nil
}

// List pages through the bucket under the configured prefix. Returned keys
// are relative to the prefix.
func (s *S3Store) List(ctx context.Context, suffix string) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "S3.List", trace.WithAttributes(attribute.String("s3.suffix", suffix)))
	defer span.End()

	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix + "/")
	}

	var keys []string
	pages := s3.NewListObjectsV2Paginator(s.client, input)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("cannot list bucket %q: %w", s.bucket, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if s.prefix != "" {
				key = strings.TrimPrefix(key, s.prefix+"/")
			}
			if strings.HasSuffix(key, suffix) {
				keys = append(keys, key)
			}
		}
	}

	slices.Sort(keys)
	span.SetAttributes(attribute.Int("s3.keys", len(keys)))
	return keys, nil
}

func (s *S3Store) Save(ctx context.Context, key string, body io.ReadSeeker) error {
	ctx, span := s.tracer.Start(ctx, "S3.Save", trace.WithAttributes(attribute.String("s3.key", key)))
	defer span.End()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   body,
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	return err
}

type spanClosingReader struct {
	io.ReadCloser
	span trace.Span
}

func (r *spanClosingReader) Close() error {
	r.span.End()
	return r.ReadCloser.Close()
}

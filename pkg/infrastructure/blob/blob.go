// Package blob writes export files to a local directory, an S3 bucket or a
// Cloud Storage bucket, chosen by the target URL scheme.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"google.golang.org/api/option"
)

// Sink receives named export files
type Sink interface {
	Put(ctx context.Context, name string, body []byte) error
	Close() error
	String() string
}

// Target is a parsed export destination
type Target struct {
	Scheme string // "file", "s3" or "gs"
	Bucket string
	Prefix string
	Dir    string
}

// ParseTarget accepts a plain directory, file://dir, s3://bucket/prefix or gs://bucket/prefix
func ParseTarget(raw string) (Target, error) {
	if raw == "" {
		return Target{}, fmt.Errorf("export target is required")
	}
	if !strings.Contains(raw, "://") {
		return Target{Scheme: "file", Dir: raw}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("invalid export target %q: %w", raw, err)
	}
	switch u.Scheme {
	case "file":
		return Target{Scheme: "file", Dir: u.Host + u.Path}, nil
	case "s3", "gs":
		if u.Host == "" {
			return Target{}, fmt.Errorf("export target %q has no bucket", raw)
		}
		return Target{Scheme: u.Scheme, Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
	default:
		return Target{}, fmt.Errorf("unsupported export scheme: %s (expected: file, s3 or gs)", u.Scheme)
	}
}

// Key joins the target prefix and an object name
func (t Target) Key(name string) string {
	if t.Prefix == "" {
		return name
	}
	return path.Join(t.Prefix, name)
}

func (t Target) String() string {
	if t.Scheme == "file" {
		return t.Dir
	}
	return fmt.Sprintf("%s://%s/%s", t.Scheme, t.Bucket, t.Prefix)
}

// Open creates the sink for raw. region applies to S3; opts apply to Cloud Storage.
func Open(ctx context.Context, raw, region string, opts ...option.ClientOption) (Sink, error) {
	target, err := ParseTarget(raw)
	if err != nil {
		return nil, err
	}
	switch target.Scheme {
	case "s3":
		return NewS3Sink(ctx, target, region)
	case "gs":
		return NewGCSSink(ctx, target, opts...)
	default:
		return NewDirSink(target.Dir)
	}
}

// DirSink writes files into a local directory
type DirSink struct {
	dir string
}

func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

func (s *DirSink) Put(_ context.Context, name string, body []byte) error {
	return os.WriteFile(filepath.Join(s.dir, name), body, 0o644)
}

func (s *DirSink) Close() error   { return nil }
func (s *DirSink) String() string { return s.dir }

// putObjectAPI is the part of *s3.Client the sink calls
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads files as objects under the target prefix
type S3Sink struct {
	client putObjectAPI
	target Target
}

func NewS3Sink(ctx context.Context, target Target, region string) (*S3Sink, error) {
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Sink{client: s3.NewFromConfig(awsCfg), target: target}, nil
}

func (s *S3Sink) Put(ctx context.Context, name string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.target.Bucket),
		Key:         aws.String(s.target.Key(name)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.target.Bucket, s.target.Key(name), err)
	}
	return nil
}

func (s *S3Sink) Close() error   { return nil }
func (s *S3Sink) String() string { return s.target.String() }

// GCSSink uploads files to a Cloud Storage bucket
type GCSSink struct {
	client *storage.Client
	target Target
}

func NewGCSSink(ctx context.Context, target Target, opts ...option.ClientOption) (*GCSSink, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient failed: %w", err)
	}
	return &GCSSink{client: client, target: target}, nil
}

func (s *GCSSink) Put(ctx context.Context, name string, body []byte) error {
	key := s.target.Key(name)
	w := s.client.Bucket(s.target.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = "text/csv"
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", s.target.Bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("write gs://%s/%s: %w", s.target.Bucket, key, err)
	}
	return nil
}

func (s *GCSSink) Close() error   { return s.client.Close() }
func (s *GCSSink) String() string { return s.target.String() }

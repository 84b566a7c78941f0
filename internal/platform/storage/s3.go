// Package storage はS3互換オブジェクトストレージ（AWS S3 / MinIO）へのゲートウェイを提供します。
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	httpclient "linker/internal/platform/http"
)

const (
	// DefaultTimeout bounds every call to the object store.
	DefaultTimeout = 15 * time.Second
	// DefaultPresignTTL is how long a presigned read URL stays usable.
	DefaultPresignTTL = 15 * time.Minute
	// DefaultMaxObjectSize guards GetObject against unbounded reads.
	DefaultMaxObjectSize = 32 << 20
)

var (
	// ErrStorageUnavailable wraps any transport or service failure.
	ErrStorageUnavailable = errors.New("object storage unavailable")
	// ErrObjectNotFound is returned when a key has no object.
	ErrObjectNotFound = errors.New("object not found")
	// ErrObjectTooLarge is returned when a stored object exceeds the read limit.
	ErrObjectTooLarge = errors.New("object too large")
)

// Object is a stored blob together with its content type.
type Object struct {
	Key         string
	Data        []byte
	ContentType string
}

// Config describes how to reach the bucket.
type Config struct {
	Endpoint     string // 空ならAWSの標準エンドポイント
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UsePathStyle bool // MinIOではtrue
	Timeout      time.Duration
	PresignTTL   time.Duration
}

// s3API is the subset of *s3.Client the gateway uses.
type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// presignAPI is the subset of *s3.PresignClient the gateway uses.
type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// テスト時に差し替え可能
var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// S3Store is safe for concurrent use.
type S3Store struct {
	client     s3API
	presigner  presignAPI
	bucket     string
	region     string
	timeout    time.Duration
	presignTTL time.Duration
	maxObject  int64

	ensured atomic.Bool
	mu      sync.Mutex
}

// NewS3Store builds the S3 client from cfg. It does not contact the service.
func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithHTTPClient(httpclient.NewHTTPClient(cfg.Timeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3Store(client, s3.NewPresignClient(client), cfg), nil
}

func newS3Store(client s3API, presigner presignAPI, cfg Config) *S3Store {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = DefaultPresignTTL
	}
	return &S3Store{
		client:     client,
		presigner:  presigner,
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		timeout:    cfg.Timeout,
		presignTTL: cfg.PresignTTL,
		maxObject:  DefaultMaxObjectSize,
	}
}

// Bucket returns the configured bucket name.
func (s *S3Store) Bucket() string {
	return s.bucket
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}

// isAPIError reports whether err carries one of the given S3 error codes.
func isAPIError(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.ErrorCode() == c {
			return true
		}
	}
	return false
}

// EnsureBucket creates the bucket if it does not exist. A bucket we already
// own (created concurrently by another caller) counts as success; a name taken
// by another account does not. After the first success no further network
// calls are made.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	if s.ensured.Load() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured.Load() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		s.ensured.Store(true)
		return nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) && !isAPIError(err, "NotFound", "NoSuchBucket") {
		return unavailable("head bucket", err)
	}

	in := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if s.region != "" && s.region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}
	if _, err := s.client.CreateBucket(ctx, in); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if !errors.As(err, &owned) && !isAPIError(err, "BucketAlreadyOwnedByYou") {
			return unavailable("create bucket", err)
		}
	} else {
		slog.Info("bucket created", "bucket", s.bucket)
	}

	s.ensured.Store(true)
	return nil
}

// PutObject stores payload under key.
func (s *S3Store) PutObject(ctx context.Context, key string, payload []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(payload),
		ContentLength: aws.Int64(int64(len(payload))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return unavailable("put object "+key, err)
	}
	return nil
}

// GetObject fetches the object stored under key.
func (s *S3Store) GetObject(ctx context.Context, key string) (*Object, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) || isAPIError(err, "NoSuchKey", "NotFound") {
			return nil, ErrObjectNotFound
		}
		return nil, unavailable("get object "+key, err)
	}
	defer func() {
		if err := out.Body.Close(); err != nil {
			slog.Warn("failed to close object body", "key", key, "error", err)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(out.Body, s.maxObject+1))
	if err != nil {
		return nil, unavailable("read object "+key, err)
	}
	if int64(len(data)) > s.maxObject {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrObjectTooLarge, key, s.maxObject)
	}

	return &Object{Key: key, Data: data, ContentType: aws.ToString(out.ContentType)}, nil
}

// PresignGet returns a time-limited read URL for key.
func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", unavailable("presign "+key, err)
	}
	return req.URL, nil
}

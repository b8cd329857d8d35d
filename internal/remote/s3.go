package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"fitsync/internal/config"
	"fitsync/internal/fit"
)

// S3API is the subset of the S3 client the record store uses.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	s3.ListObjectsV2APIClient
	manager.UploadAPIClient
}

// S3RecordStore stores each record as an object:
//
//	s3://<bucket>/<prefix>/<collection>/<key>.json
type S3RecordStore struct {
	client   S3API
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

var _ RecordStore = (*S3RecordStore)(nil)

// NewS3RecordStoreFromConfig builds an S3 client from the remote config.
func NewS3RecordStoreFromConfig(ctx context.Context, cfg config.RemoteConfig) (*S3RecordStore, error) {
	if cfg.S3Bucket == "" {
		return nil, errors.New("s3 remote requires s3_bucket to be set")
	}
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.S3AccessKeyID != "" && cfg.S3SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})
	return NewS3RecordStore(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

func NewS3RecordStore(client S3API, bucket, prefix string) *S3RecordStore {
	return &S3RecordStore{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}
}

func (s *S3RecordStore) collectionPrefix(collection string) string {
	if s.prefix == "" {
		return collection + "/"
	}
	return s.prefix + "/" + collection + "/"
}

func (s *S3RecordStore) objectKey(collection, key string) string {
	return s.collectionPrefix(collection) + key + ".json"
}

func (s *S3RecordStore) Put(ctx context.Context, collection, key string, body []byte) error {
	if !validKey(key) {
		return fmt.Errorf("invalid record key %q: %w", key, fit.ErrRemoteFailure)
	}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(collection, key)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return classifyS3("put", collection, key, err)
	}
	return nil
}

func (s *S3RecordStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(collection, key)),
	})
	if err != nil {
		return nil, classifyS3("get", collection, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w: %v", collection, key, fit.ErrUnreachable, err)
	}
	return data, nil
}

func (s *S3RecordStore) List(ctx context.Context, collection, prefix string) ([]string, error) {
	base := s.collectionPrefix(collection)
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(base + prefix),
	})

	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, classifyS3("list", collection, prefix, err)
		}
		for _, obj := range page.Contents {
			name := aws.ToString(obj.Key)
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			keys = append(keys, strings.TrimSuffix(strings.TrimPrefix(name, base), ".json"))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *S3RecordStore) Delete(ctx context.Context, collection, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(collection, key)),
	})
	if err != nil {
		cerr := classifyS3("delete", collection, key, err)
		if errors.Is(cerr, fit.ErrNotFound) {
			return nil
		}
		return cerr
	}
	return nil
}

func (s *S3RecordStore) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return classifyS3("ping", "", s.bucket, err)
	}
	return nil
}

// classifyS3 maps SDK errors onto the fit error taxonomy. Any error carrying
// an HTTP response means the service was reached.
func classifyS3(op, collection, key string, err error) error {
	var noSuchKey *s3types.NoSuchKey
	var notFound *s3types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return fmt.Errorf("%s %s/%s: %w", op, collection, key, fit.ErrNotFound)
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		if respErr.HTTPStatusCode() == 404 {
			return fmt.Errorf("%s %s/%s: %w", op, collection, key, fit.ErrNotFound)
		}
		return fmt.Errorf("%s %s/%s: %w: %v", op, collection, key, fit.ErrRemoteFailure, err)
	}
	return fmt.Errorf("%s %s/%s: %w: %v", op, collection, key, fit.ErrUnreachable, err)
}

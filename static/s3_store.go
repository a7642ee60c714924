package static

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
	"github.com/pkg/errors"
)

// ObjectGetter is the part of the S3 client the store needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Settings locates the bucket holding the site.
type S3Settings struct {
	Bucket    string
	Region    string
	Endpoint  string // Optional, e.g. a MinIO URL
	Prefix    string // Key prefix without slashes
	AccessKey string
	SecretKey string
}

// S3Store serves files from an S3 compatible bucket.
type S3Store struct {
	client ObjectGetter
	bucket string
	prefix string
}

var _ Store = (*S3Store)(nil)

// NewS3Store builds an AWS client from settings.
func NewS3Store(ctx context.Context, settings S3Settings) (*S3Store, error) {
	if settings.Bucket == "" {
		return nil, errors.New("[NewS3Store] bucket is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(settings.Region)}
	if settings.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AccessKey, settings.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "[NewS3Store] loading AWS config")
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if settings.Endpoint != "" {
			o.BaseEndpoint = aws.String(settings.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3StoreWithClient(client, settings.Bucket, settings.Prefix), nil
}

func NewS3StoreWithClient(client ObjectGetter, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) ReadFile(ctx context.Context, name string) ([]byte, error) {
	name, ok := cleanName(name)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "file %q", name)
	}
	key := name
	if s.prefix != "" {
		key = s.prefix + "/" + name
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if apperrors.As(err, &noSuchKey) {
			return nil, apperrors.Wrapf(apperrors.ErrNotFound, "object %q", key)
		}
		return nil, apperrors.Upstream(err, "getting object %q", key)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, apperrors.Upstream(err, "reading object %q", key)
	}
	return data, nil
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// ErrNotFound is returned by Get when the key does not exist in the bucket.
var ErrNotFound = errors.New("storage: key not found")

// ErrPreconditionFailed is returned by PutIf when the object changed since
// the version stamp was read.
var ErrPreconditionFailed = errors.New("storage: precondition failed")

// ErrUnavailable wraps every other backend failure. Callers must not assume
// a failed write left the object untouched.
var ErrUnavailable = errors.New("storage: backend unavailable")

type Config struct {
	Endpoint  string // optional, for S3-compatible backends (R2, MinIO)
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Client is an explicit object store handle, passed into the repositories
// that need it. No package-level client exists.
type Client struct {
	s3     *s3.Client
	bucket string
	region string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("loading object store config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{s3: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// Get fetches a blob and its version stamp (ETag). A missing key is
// ErrNotFound; anything else wraps ErrUnavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, string, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read %s: %v", ErrUnavailable, key, err)
	}
	return body, aws.ToString(out.ETag), nil
}

// Put overwrites the blob unconditionally.
func (c *Client) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// PutIf writes the blob only if the object still carries the given version
// stamp. An empty stamp is a create-only write: it succeeds only if the key
// does not exist yet. A lost race returns ErrPreconditionFailed either way.
func (c *Client) PutIf(ctx context.Context, key string, body []byte, contentType, etag string) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}
	if etag == "" {
		in.IfNoneMatch = aws.String("*")
	} else {
		in.IfMatch = aws.String(etag)
	}

	_, err := c.s3.PutObject(ctx, in)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			// S3 reports a failed If-None-Match racing an in-flight write
			// as ConditionalRequestConflict rather than PreconditionFailed.
			case "PreconditionFailed", "ConditionalRequestConflict":
				return ErrPreconditionFailed
			}
		}
		return fmt.Errorf("%w: put %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Upload streams an uploaded file into the bucket and returns its public URL.
func (c *Client) Upload(ctx context.Context, file multipart.File, key string, contentType string) (string, error) {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload %s: %v", ErrUnavailable, key, err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key), nil
}

// Delete removes a blob. Used for best-effort cleanup of orphaned media.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Package storage issues time-limited upload URLs for recipe
// attachments held in the object store.
package storage

import (
	"context"
	"fmt"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Attachments produces presigned upload URLs and the public object
// URLs that get stored on recipe records. Objects are keyed by
// recipe identifier.
type Attachments struct {
	presigner *s3.PresignClient
	bucket    string
	expiry    time.Duration
}

// Options configures the object-store connection.
type Options struct {
	Region string
	// Endpoint overrides the service endpoint, for local development
	// against an S3-compatible store. Empty means the default AWS
	// endpoint.
	Endpoint string
	// Static credentials for local development. Empty means the
	// default credential chain.
	AccessKeyID     string
	SecretAccessKey string

	Bucket string
	// Expiry bounds the lifetime of issued upload URLs.
	Expiry time.Duration
}

// New creates an Attachments client for the configured bucket.
func New(ctx context.Context, opts Options) (*Attachments, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = awsv2.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Attachments{
		presigner: s3.NewPresignClient(client),
		bucket:    opts.Bucket,
		expiry:    opts.Expiry,
	}, nil
}

// UploadURL issues a time-limited write URL for the recipe's
// attachment object.
func (a *Attachments) UploadURL(ctx context.Context, recipeID string) (string, error) {
	req, err := a.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: awsv2.String(a.bucket),
		Key:    awsv2.String(recipeID),
	}, s3.WithPresignExpires(a.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign upload: %w", err)
	}

	return req.URL, nil
}

// ObjectURL returns the public location the attachment will have once
// uploaded. This is the value stored on the record.
func (a *Attachments) ObjectURL(recipeID string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", a.bucket, recipeID)
}

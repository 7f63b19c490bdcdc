// Package repository provides the record-store access layer.
package repository

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Repository provides record-store access methods. Every operation is
// keyed by the (userId, recipeId) primary key, so a recipe can never
// be read or written without its owner constraint.
type Repository struct {
	client    *dynamodb.Client
	table     string
	ownerIdx  string
}

// Options configures the record-store connection.
type Options struct {
	Region string
	// Endpoint overrides the service endpoint, for local development
	// against dynamodb-local. Empty means the default AWS endpoint.
	Endpoint string
	// Static credentials for local development. Empty means the
	// default credential chain.
	AccessKeyID     string
	SecretAccessKey string

	Table    string
	OwnerIdx string
}

// New creates a Repository connected to the record store.
func New(ctx context.Context, opts Options) (*Repository, error) {
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

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = awsv2.String(opts.Endpoint)
		}
	})

	return &Repository{
		client:   client,
		table:    opts.Table,
		ownerIdx: opts.OwnerIdx,
	}, nil
}

// Ping checks record-store connectivity by describing the table.
func (r *Repository) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: awsv2.String(r.table),
	})
	return err
}

// Client returns the underlying store client.
// Use sparingly - prefer adding methods to Repository.
func (r *Repository) Client() *dynamodb.Client {
	return r.client
}

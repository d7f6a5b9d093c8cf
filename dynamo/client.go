// Package dynamo stores miniql statements in Amazon DynamoDB. Each entity is
// a table keyed by a string or number attribute; conditions run as scan
// filter expressions.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/logging"
	"github.com/truora/miniql/types"
)

const (
	batchRequestsLimit = 25
	// batchWriteAttempts bounds how many times unprocessed items are resent
	batchWriteAttempts = 5
)

// Client the subset of the DynamoDB API used by the managers
type Client interface {
	Scan(ctx context.Context, input *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	GetItem(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, input *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, input *dynamodb.BatchWriteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Config connection settings, empty values fall back to the default AWS chain
type Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	TablePrefix     string `yaml:"table_prefix"`
	KeyField        string `yaml:"key_field"`
	TTLAttribute    string `yaml:"ttl_attribute"`
	BucketTable     string `yaml:"bucket_table"`
}

// NewClient builds a DynamoDB client, logging SDK messages through logger
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*dynamodb.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []func(*config.LoadOptions) error{
		config.WithLogger(sdkLogger(logger)),
	}

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID:     cfg.AccessKeyID,
				SecretAccessKey: cfg.SecretAccessKey,
				Source:          "miniql",
			},
		}))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

func sdkLogger(logger *slog.Logger) logging.Logger {
	return logging.LoggerFunc(func(classification logging.Classification, format string, v ...interface{}) {
		level := slog.LevelDebug
		if classification == logging.Warn {
			level = slog.LevelWarn
		}

		logger.Log(context.Background(), level, fmt.Sprintf(format, v...), slog.String("source", "aws-sdk"))
	})
}

// mapKnownError turns the API errors a statement can cause into the query
// error taxonomy, keeping the original error wrapped
func mapKnownError(err error) error {
	var oe smithy.APIError
	if !errors.As(err, &oe) {
		return err
	}

	switch oe.ErrorCode() {
	case "ValidationException":
		return types.NewError(types.CodeInvalidArgument, oe.ErrorMessage(), err)
	case "ResourceNotFoundException":
		return types.NewError(types.CodeQuery, oe.ErrorMessage(), err)
	}

	return err
}

package dynamo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/truora/miniql/types"
)

// DefaultBucketTable table used by the key-value bucket when none is configured
const DefaultBucketTable = "miniql_bucket"

// entry is one key-value pair as stored in the bucket table. The value keeps
// its tagged JSON form so enums and instants survive the round trip.
type entry struct {
	Key       string `dynamodbav:"key"`
	Value     string `dynamodbav:"value"`
	ExpiresAt int64  `dynamodbav:"expires_at,omitempty"`
}

// Bucket query.KeyValueManager over a single DynamoDB table with a string
// partition key named "key"
type Bucket struct {
	client   Client
	table    string
	settings settings
}

// NewBucket creates a bucket stored in table
func NewBucket(client Client, table string, opts ...Option) *Bucket {
	if table == "" {
		table = DefaultBucketTable
	}

	return &Bucket{client: client, table: table, settings: newSettings(opts)}
}

func (b *Bucket) key(k types.Value) (map[string]ddbtypes.AttributeValue, error) {
	return attributevalue.MarshalMap(struct {
		Key string `dynamodbav:"key"`
	}{Key: k.Key()})
}

// Get reads the live value of key
func (b *Bucket) Get(ctx context.Context, key types.Value) (types.Value, bool, error) {
	k, err := b.key(key)
	if err != nil {
		return types.Value{}, false, err
	}

	out, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(b.table),
		Key:            k,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return types.Value{}, false, mapKnownError(err)
	}

	if len(out.Item) == 0 {
		return types.Value{}, false, nil
	}

	var e entry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return types.Value{}, false, err
	}

	if e.ExpiresAt > 0 && e.ExpiresAt <= b.settings.now().Unix() {
		return types.Value{}, false, nil
	}

	var v types.Value
	if err := json.Unmarshal([]byte(e.Value), &v); err != nil {
		return types.Value{}, false, err
	}

	return v, true, nil
}

// Put stores value under key, a zero ttl never expires
func (b *Bucket) Put(ctx context.Context, key, value types.Value, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	e := entry{Key: key.Key(), Value: string(data)}
	if ttl > 0 {
		e.ExpiresAt = b.settings.now().Add(ttl).Unix()
	}

	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return err
	}

	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(b.table),
		Item:      item,
	})

	return mapKnownError(err)
}

// Delete removes every key in batches of 25. Repeated keys are sent once,
// DynamoDB rejects batches with duplicates.
func (b *Bucket) Delete(ctx context.Context, keys []types.Value) error {
	items := make([]map[string]ddbtypes.AttributeValue, 0, len(keys))
	seen := map[string]bool{}

	for _, key := range keys {
		if seen[key.Key()] {
			continue
		}

		seen[key.Key()] = true

		k, err := b.key(key)
		if err != nil {
			return err
		}

		items = append(items, k)
	}

	return batchDelete(ctx, b.client, b.table, items)
}

package dynamo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/truora/miniql/condition"
	"github.com/truora/miniql/query"
	"github.com/truora/miniql/types"
)

const (
	// DefaultKeyField attribute holding the row key when none is configured
	DefaultKeyField = "id"
	// DefaultTTLAttribute epoch seconds attribute configured as the table TTL
	DefaultTTLAttribute = "expires_at"
)

// Option configures a Manager or a Bucket
type Option func(*settings)

type settings struct {
	prefix       string
	keyField     string
	ttlAttribute string
	now          func() time.Time
	newKey       func() string
}

func newSettings(opts []Option) settings {
	s := settings{
		keyField:     DefaultKeyField,
		ttlAttribute: DefaultTTLAttribute,
		now:          time.Now,
		newKey:       uuid.NewString,
	}

	for _, opt := range opts {
		opt(&s)
	}

	return s
}

// WithTablePrefix prepends prefix to every entity to get its table name
func WithTablePrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = prefix
	}
}

// WithKeyField sets the partition key attribute
func WithKeyField(field string) Option {
	return func(s *settings) {
		s.keyField = field
	}
}

// WithTTLAttribute sets the attribute holding the expiry epoch
func WithTTLAttribute(attribute string) Option {
	return func(s *settings) {
		s.ttlAttribute = attribute
	}
}

// WithClock sets the clock used for time to live
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

// WithKeyGenerator sets the generator of keys for rows inserted without one
func WithKeyGenerator(newKey func() string) Option {
	return func(s *settings) {
		s.newKey = newKey
	}
}

// FromConfig returns the options described by cfg
func FromConfig(cfg Config) []Option {
	opts := []Option{WithTablePrefix(cfg.TablePrefix)}

	if cfg.KeyField != "" {
		opts = append(opts, WithKeyField(cfg.KeyField))
	}

	if cfg.TTLAttribute != "" {
		opts = append(opts, WithTTLAttribute(cfg.TTLAttribute))
	}

	return opts
}

// Manager query.DocumentManager over DynamoDB tables
type Manager struct {
	client   Client
	settings settings
}

// NewManager creates a manager using client
func NewManager(client Client, opts ...Option) *Manager {
	return &Manager{client: client, settings: newSettings(opts)}
}

func (m *Manager) table(entity string) *string {
	return aws.String(m.settings.prefix + entity)
}

func (m *Manager) scanInput(entity string, where *condition.Condition) (*dynamodb.ScanInput, error) {
	expr := newExpression()

	filter, err := expr.filter(where, m.settings.ttlAttribute, m.settings.now().Unix())
	if err != nil {
		return nil, err
	}

	return &dynamodb.ScanInput{
		TableName:                 m.table(entity),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeNames:  expr.attributeNames(),
		ExpressionAttributeValues: expr.attributeValues(),
	}, nil
}

func (m *Manager) scan(ctx context.Context, entity string, where *condition.Condition) ([]map[string]ddbtypes.AttributeValue, error) {
	input, err := m.scanInput(entity, where)
	if err != nil {
		return nil, err
	}

	items := []map[string]ddbtypes.AttributeValue{}
	paginator := dynamodb.NewScanPaginator(m.client, input)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapKnownError(err)
		}

		items = append(items, page.Items...)
	}

	return items, nil
}

func (m *Manager) row(item map[string]ddbtypes.AttributeValue) (types.Value, error) {
	row, err := fromItem(item, m.settings.keyField)
	if err != nil {
		return types.Value{}, err
	}

	return row.Without(m.settings.ttlAttribute), nil
}

// Select scans the table of the entity and returns the matching rows
// sorted, paged and projected
func (m *Manager) Select(ctx context.Context, q *query.Select) ([]types.Value, error) {
	items, err := m.scan(ctx, q.Entity, q.Where)
	if err != nil {
		return nil, err
	}

	rows := make([]types.Value, 0, len(items))

	for _, item := range items {
		row, err := m.row(item)
		if err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}

	// scan order follows the partition hash
	query.SortRows(rows, []query.Sort{{Field: m.settings.keyField, Direction: query.ASC}})

	return query.Shape(rows, q), nil
}

// Count returns the number of matching rows, skip and limit are ignored
func (m *Manager) Count(ctx context.Context, q *query.Select) (int64, error) {
	input, err := m.scanInput(q.Entity, q.Where)
	if err != nil {
		return 0, err
	}

	input.Select = ddbtypes.SelectCount

	var total int64

	paginator := dynamodb.NewScanPaginator(m.client, input)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, mapKnownError(err)
		}

		total += int64(page.Count)
	}

	return total, nil
}

// Insert puts the row, generating the key when it is missing. Inserting an
// existing key replaces the row.
func (m *Manager) Insert(ctx context.Context, q *query.Insert) (types.Value, error) {
	row := types.Map(q.Fields...)

	if _, ok := row.Get(m.settings.keyField); !ok {
		row = types.Map(slices.Concat([]types.Pair{{Key: m.settings.keyField, Value: types.String(m.settings.newKey())}}, q.Fields)...)
	}

	if err := m.checkKey(row); err != nil {
		return types.Value{}, err
	}

	item, err := toItem(row)
	if err != nil {
		return types.Value{}, err
	}

	if q.TTL > 0 {
		item[m.settings.ttlAttribute] = expiresAt(m.settings.now(), q.TTL)
	}

	_, err = m.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: m.table(q.Entity),
		Item:      item,
	})
	if err != nil {
		return types.Value{}, mapKnownError(err)
	}

	return row, nil
}

func (m *Manager) checkKey(row types.Value) error {
	v, _ := row.Get(m.settings.keyField)

	switch v.Kind() {
	case types.KindString, types.KindNumber, types.KindEnum:
		return nil
	}

	return types.NewInvalidArgumentError("key %q must be a string or a number, got %s", m.settings.keyField, v.Kind())
}

func (m *Manager) key(item map[string]ddbtypes.AttributeValue) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{m.settings.keyField: item[m.settings.keyField]}
}

// Update sets the fields on every matching row and returns the updated rows
func (m *Manager) Update(ctx context.Context, q *query.Update) ([]types.Value, error) {
	for _, f := range q.Fields {
		if f.Key == m.settings.keyField {
			return nil, types.NewInvalidArgumentError("the key field %q of %s cannot be updated", m.settings.keyField, q.Entity)
		}
	}

	items, err := m.scan(ctx, q.Entity, q.Where)
	if err != nil {
		return nil, err
	}

	updated := make([]types.Value, 0, len(items))

	for _, item := range items {
		expr := newExpression()

		set, err := expr.set(q.Fields)
		if err != nil {
			return nil, err
		}

		out, err := m.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 m.table(q.Entity),
			Key:                       m.key(item),
			UpdateExpression:          aws.String(set),
			ExpressionAttributeNames:  expr.attributeNames(),
			ExpressionAttributeValues: expr.attributeValues(),
			ReturnValues:              ddbtypes.ReturnValueAllNew,
		})
		if err != nil {
			return nil, mapKnownError(err)
		}

		row, err := m.row(out.Attributes)
		if err != nil {
			return nil, err
		}

		updated = append(updated, row)
	}

	return updated, nil
}

// Delete removes the matching rows in batches, or only the listed fields of them
func (m *Manager) Delete(ctx context.Context, q *query.Delete) error {
	if slices.Contains(q.Fields, m.settings.keyField) {
		return types.NewInvalidArgumentError("the key field %q of %s cannot be deleted", m.settings.keyField, q.Entity)
	}

	items, err := m.scan(ctx, q.Entity, q.Where)
	if err != nil {
		return err
	}

	if len(q.Fields) == 0 {
		keys := make([]map[string]ddbtypes.AttributeValue, 0, len(items))
		for _, item := range items {
			keys = append(keys, m.key(item))
		}

		return batchDelete(ctx, m.client, *m.table(q.Entity), keys)
	}

	for _, item := range items {
		expr := newExpression()
		remove := expr.remove(q.Fields)

		_, err := m.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                m.table(q.Entity),
			Key:                      m.key(item),
			UpdateExpression:         aws.String(remove),
			ExpressionAttributeNames: expr.attributeNames(),
		})
		if err != nil {
			return mapKnownError(err)
		}
	}

	return nil
}

func expiresAt(now time.Time, ttl time.Duration) ddbtypes.AttributeValue {
	return &ddbtypes.AttributeValueMemberN{Value: types.Int(now.Add(ttl).Unix()).String()}
}

// batchDelete issues BatchWriteItem requests of at most 25 keys, resending
// unprocessed items up to batchWriteAttempts times. Requests still unprocessed
// after that are reported together as a BatchedErrors.
func batchDelete(ctx context.Context, client Client, table string, keys []map[string]ddbtypes.AttributeValue) error {
	leftover := []ddbtypes.WriteRequest{}

	for chunk := range slices.Chunk(keys, batchRequestsLimit) {
		requests := make([]ddbtypes.WriteRequest, 0, len(chunk))
		for _, key := range chunk {
			requests = append(requests, ddbtypes.WriteRequest{DeleteRequest: &ddbtypes.DeleteRequest{Key: key}})
		}

		pending := map[string][]ddbtypes.WriteRequest{table: requests}

		for attempt := 0; attempt < batchWriteAttempts && len(pending) > 0; attempt++ {
			out, err := client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return mapKnownError(err)
			}

			pending = out.UnprocessedItems
		}

		leftover = append(leftover, pending[table]...)
	}

	if len(leftover) == 0 {
		return nil
	}

	errs := make([]error, 0, len(leftover))

	for _, r := range leftover {
		key, err := fromItem(r.DeleteRequest.Key, "")
		if err != nil {
			errs = append(errs, err)
			continue
		}

		errs = append(errs, types.NewQueryError("delete of %s was not processed", key))
	}

	msg := fmt.Sprintf("%d delete requests to %s were not processed after %d attempts", len(leftover), table, batchWriteAttempts)

	return types.NewBatchError(types.CodeQuery, msg, errs)
}

//go:build integration

package dynamo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/truora/miniql/condition"
	"github.com/truora/miniql/query"
	"github.com/truora/miniql/types"
)

func startDynamoDBLocal(t *testing.T) *dynamodb.Client {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "amazon/dynamodb-local:latest",
			ExposedPorts: []string{"8000/tcp"},
			WaitingFor:   wait.ForListeningPort("8000/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	endpoint, err := container.PortEndpoint(ctx, "8000/tcp", "http")
	require.NoError(t, err)

	client, err := NewClient(ctx, Config{
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	}, nil)
	require.NoError(t, err)

	return client
}

func createTable(t *testing.T, client *dynamodb.Client, name, key string) {
	t.Helper()

	_, err := client.CreateTable(context.Background(), &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		KeySchema: []ddbtypes.KeySchemaElement{
			{AttributeName: aws.String(key), KeyType: ddbtypes.KeyTypeHash},
		},
		AttributeDefinitions: []ddbtypes.AttributeDefinition{
			{AttributeName: aws.String(key), AttributeType: ddbtypes.ScalarAttributeTypeS},
		},
		BillingMode: ddbtypes.BillingModePayPerRequest,
	})
	require.NoError(t, err)
}

func TestDynamoDBLocal(t *testing.T) {
	c := require.New(t)
	ctx := context.Background()

	client := startDynamoDBLocal(t)
	createTable(t, client, "gods", DefaultKeyField)
	createTable(t, client, DefaultBucketTable, "key")

	m := NewManager(client)

	for i, name := range []string{"Diana", "Apollo", "Zeus"} {
		_, err := m.Insert(ctx, &query.Insert{Entity: "gods", Fields: pairs("id", fmt.Sprintf("g%d", i), "name", name, "age", 20+i*10)})
		c.NoError(err)
	}

	where := condition.Like("name", types.String("%po%")).Or(condition.Gte("age", types.Int(40)))

	rows, err := m.Select(ctx, &query.Select{Entity: "gods", Where: &where, Fields: []string{"name"}})
	c.NoError(err)
	c.Len(rows, 2)
	c.Equal(`{"name": "Apollo"}`, rows[0].String())

	n, err := m.Count(ctx, &query.Select{Entity: "gods"})
	c.NoError(err)
	c.EqualValues(3, n)

	updated, err := m.Update(ctx, &query.Update{Entity: "gods", Fields: pairs("olympian", true), Where: &where})
	c.NoError(err)
	c.Len(updated, 2)

	c.NoError(m.Delete(ctx, &query.Delete{Entity: "gods"}))

	n, err = m.Count(ctx, &query.Select{Entity: "gods"})
	c.NoError(err)
	c.Zero(n)

	b := NewBucket(client, "")
	c.NoError(b.Put(ctx, types.String("Diana"), types.String("Hunt"), time.Hour))

	v, found, err := b.Get(ctx, types.String("Diana"))
	c.NoError(err)
	c.True(found)
	c.Equal(`"Hunt"`, v.String())

	c.NoError(b.Delete(ctx, []types.Value{types.String("Diana")}))

	_, found, err = b.Get(ctx, types.String("Diana"))
	c.NoError(err)
	c.False(found)
}

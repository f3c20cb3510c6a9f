/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/cleardata/datastore"
	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/partitionkey"
	"github.com/suparena/cleardata/storagemodels"
)

var _ datastore.DocumentClient = (*Client)(nil)

// fakeAPI keeps items in memory and records the inputs of read queries.
type fakeAPI struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	lastQuery     *sdk.QueryInput
	lastScan      *sdk.ScanInput
	lastStatement *sdk.ExecuteStatementInput
	queryOut      *sdk.QueryOutput
	transactErr   error
	transactCalls int
	createErr     error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{items: make(map[string]map[string]types.AttributeValue)}
}

func itemKey(key map[string]types.AttributeValue) string {
	return key[PartitionKeyName].(*types.AttributeValueMemberS).Value + "|" + key[SortKeyName].(*types.AttributeValueMemberS).Value
}

func (f *fakeAPI) GetItem(_ context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &sdk.GetItemOutput{
		Item:             f.items[itemKey(in.Key)],
		ConsumedCapacity: &types.ConsumedCapacity{CapacityUnits: aws.Float64(0.5)},
	}, nil
}

func (f *fakeAPI) PutItem(_ context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := itemKey(in.Item)
	existing, ok := f.items[k]
	cond := aws.ToString(in.ConditionExpression)
	switch {
	case strings.HasPrefix(cond, "attribute_not_exists") && ok:
		return nil, &types.ConditionalCheckFailedException{Item: existing}
	case strings.HasPrefix(cond, "attribute_exists") && !ok:
		return nil, &types.ConditionalCheckFailedException{}
	case strings.Contains(cond, ":etag"):
		want := in.ExpressionAttributeValues[":etag"].(*types.AttributeValueMemberS).Value
		if existing["_etag"].(*types.AttributeValueMemberS).Value != want {
			return nil, &types.ConditionalCheckFailedException{Item: existing}
		}
	}
	f.items[k] = in.Item
	return &sdk.PutItemOutput{ConsumedCapacity: &types.ConsumedCapacity{CapacityUnits: aws.Float64(1)}}, nil
}

func (f *fakeAPI) DeleteItem(_ context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := itemKey(in.Key)
	if _, ok := f.items[k]; !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	delete(f.items, k)
	return &sdk.DeleteItemOutput{}, nil
}

func (f *fakeAPI) Query(_ context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.lastQuery = in
	if f.queryOut != nil {
		return f.queryOut, nil
	}
	return &sdk.QueryOutput{}, nil
}

func (f *fakeAPI) Scan(_ context.Context, in *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	f.lastScan = in
	return &sdk.ScanOutput{}, nil
}

func (f *fakeAPI) ExecuteStatement(_ context.Context, in *sdk.ExecuteStatementInput, _ ...func(*sdk.Options)) (*sdk.ExecuteStatementOutput, error) {
	f.lastStatement = in
	return &sdk.ExecuteStatementOutput{NextToken: aws.String("next-page")}, nil
}

func (f *fakeAPI) TransactWriteItems(_ context.Context, in *sdk.TransactWriteItemsInput, _ ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactCalls++
	if f.transactErr != nil {
		return nil, f.transactErr
	}
	for _, w := range in.TransactItems {
		f.items[itemKey(w.Put.Item)] = w.Put.Item
	}
	return &sdk.TransactWriteItemsOutput{
		ConsumedCapacity: []types.ConsumedCapacity{{CapacityUnits: aws.Float64(float64(len(in.TransactItems)))}},
	}, nil
}

func (f *fakeAPI) CreateTable(context.Context, *sdk.CreateTableInput, ...func(*sdk.Options)) (*sdk.CreateTableOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &sdk.CreateTableOutput{}, nil
}

func (f *fakeAPI) DescribeTable(context.Context, *sdk.DescribeTableInput, ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error) {
	return &sdk.DescribeTableOutput{Table: &types.TableDescription{TableStatus: types.TableStatusActive}}, nil
}

func newTestClient(t *testing.T, opts ...Option) (*Client, *fakeAPI) {
	t.Helper()
	api := newFakeAPI()
	opts = append([]Option{WithClock(func() time.Time { return time.Unix(1700000000, 0) })}, opts...)
	c, err := New(api, "cleardata", opts...)
	require.NoError(t, err)
	return c, api
}

const productDoc = `{"id":"p1","entityType":"Product","partitionKey":"t1","data":{"name":"lamp","price":120}}`

func TestNew(t *testing.T) {
	_, err := New(nil, "table")
	assert.True(t, errors.IsConfiguration(err))

	_, err = New(newFakeAPI(), " ")
	assert.True(t, errors.IsConfiguration(err))
}

func TestClientItemLifecycle(t *testing.T) {
	ctx := context.Background()
	c, api := newTestClient(t)
	key := partitionkey.MustNew("t1")

	created, err := c.CreateItem(ctx, "products", key, "p1", []byte(productDoc))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, created.StatusCode)
	assert.NotEmpty(t, created.ETag)
	assert.Equal(t, 1.0, created.RequestCharge)

	stored := api.items[`products#["t1"]|p1`]
	require.NotNil(t, stored)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "products#Product"}, stored["GSI1PK"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "p1"}, stored["GSI1SK"])

	t.Run("read strips table keys", func(t *testing.T) {
		resp, err := c.ReadItem(ctx, "products", key, "p1")
		require.NoError(t, err)
		assert.Equal(t, created.ETag, resp.ETag)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(resp.Body, &doc))
		assert.Equal(t, "p1", doc["id"])
		assert.Equal(t, float64(1700000000), doc["_ts"])
		for _, attr := range []string{"PK", "SK", "GSI1PK", "GSI1SK"} {
			assert.NotContains(t, doc, attr)
		}
	})

	t.Run("create conflicts", func(t *testing.T) {
		_, err := c.CreateItem(ctx, "products", key, "p1", []byte(productDoc))
		assert.True(t, errors.IsAlreadyExists(err))
		assert.Equal(t, http.StatusConflict, errors.StatusCode(err))
	})

	t.Run("replace checks etag", func(t *testing.T) {
		_, err := c.ReplaceItem(ctx, "products", key, "p1", []byte(productDoc), storagemodels.WriteOptions{IfMatch: `"stale"`})
		assert.True(t, errors.IsConditionFailed(err))

		resp, err := c.ReplaceItem(ctx, "products", key, "p1", []byte(productDoc), storagemodels.WriteOptions{IfMatch: created.ETag})
		require.NoError(t, err)
		assert.NotEqual(t, created.ETag, resp.ETag)
	})

	t.Run("replace missing", func(t *testing.T) {
		_, err := c.ReplaceItem(ctx, "products", key, "nope", []byte(`{"id":"nope"}`), storagemodels.WriteOptions{})
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("delete", func(t *testing.T) {
		_, err := c.DeleteItem(ctx, "products", key, "p1")
		require.NoError(t, err)

		_, err = c.DeleteItem(ctx, "products", key, "p1")
		assert.True(t, errors.IsNotFound(err))

		_, err = c.ReadItem(ctx, "products", key, "p1")
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestClientValidation(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	_, err := c.ReadItem(ctx, "", partitionkey.MustNew("t1"), "p1")
	assert.True(t, errors.IsConfiguration(err))

	_, err = c.ReadItem(ctx, "products", partitionkey.Key{}, "p1")
	assert.True(t, errors.IsValidationError(err))

	_, err = c.UpsertItem(ctx, "products", partitionkey.MustNew("t1"), "p1", []byte("not json"))
	assert.True(t, errors.IsValidationError(err))
}

func TestClientIndexDisabled(t *testing.T) {
	c, api := newTestClient(t, WithEntityTypeIndex(GSIConfig{}))

	_, err := c.UpsertItem(context.Background(), "products", partitionkey.MustNew("t1"), "p1", []byte(productDoc))
	require.NoError(t, err)
	assert.NotContains(t, api.items[`products#["t1"]|p1`], "GSI1PK")
	assert.Empty(t, c.TableDefinition().GlobalSecondaryIndexes)
}

func TestClientExecuteBatch(t *testing.T) {
	ctx := context.Background()
	key := partitionkey.MustNew("t1")
	items := func(n int) []storagemodels.BatchItem {
		out := make([]storagemodels.BatchItem, n)
		for i := range out {
			out[i] = storagemodels.BatchItem{ID: "p1", Body: []byte(productDoc)}
		}
		return out
	}

	t.Run("success", func(t *testing.T) {
		c, api := newTestClient(t)
		resp, err := c.ExecuteBatch(ctx, "products", key, items(3))
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, 3.0, resp.RequestCharge)
		assert.Equal(t, 1, api.transactCalls)
	})

	t.Run("size limits", func(t *testing.T) {
		c, api := newTestClient(t)
		_, err := c.ExecuteBatch(ctx, "products", key, nil)
		assert.Equal(t, http.StatusBadRequest, errors.StatusCode(err))

		_, err = c.ExecuteBatch(ctx, "products", key, items(101))
		assert.Equal(t, http.StatusBadRequest, errors.StatusCode(err))
		assert.Zero(t, api.transactCalls)
	})

	t.Run("cancelled transaction", func(t *testing.T) {
		c, api := newTestClient(t)
		api.transactErr = &types.TransactionCanceledException{
			CancellationReasons: []types.CancellationReason{
				{Code: aws.String("None")},
				{Code: aws.String("ThrottlingError"), Message: aws.String("slow down")},
			},
		}
		resp, err := c.ExecuteBatch(ctx, "products", key, items(2))
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Contains(t, resp.Message, "operation 1")
	})
}

func TestEnsureTable(t *testing.T) {
	ctx := context.Background()

	c, _ := newTestClient(t)
	created, err := c.EnsureTable(ctx, time.Second)
	require.NoError(t, err)
	assert.True(t, created)

	def := c.TableDefinition()
	require.Len(t, def.GlobalSecondaryIndexes, 1)
	assert.Equal(t, "GSI1", aws.ToString(def.GlobalSecondaryIndexes[0].IndexName))

	c, api := newTestClient(t)
	api.createErr = &types.ResourceInUseException{}
	created, err = c.EnsureTable(ctx, time.Second)
	require.NoError(t, err)
	assert.False(t, created)
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/suparena/cleardata/batch"
	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/logger"
	"github.com/suparena/cleardata/partitionkey"
	"github.com/suparena/cleardata/storagemodels"
)

const (
	// PartitionKeyName and SortKeyName are the table's primary key
	// attributes.
	PartitionKeyName = "PK"
	SortKeyName      = "SK"

	keySeparator = "#"
)

// API is the subset of the DynamoDB client used by Client.
type API interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error)
	ExecuteStatement(ctx context.Context, params *sdk.ExecuteStatementInput, optFns ...func(*sdk.Options)) (*sdk.ExecuteStatementOutput, error)
	TransactWriteItems(ctx context.Context, params *sdk.TransactWriteItemsInput, optFns ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error)
	CreateTable(ctx context.Context, params *sdk.CreateTableInput, optFns ...func(*sdk.Options)) (*sdk.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *sdk.DescribeTableInput, optFns ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error)
}

var _ API = (*sdk.Client)(nil)

// Client implements datastore.DocumentClient on a single DynamoDB table.
//
// Every container shares the table. A document is stored under
// PK = "<container>#<partition key>" and SK = id, with its JSON fields as
// top level attributes.
type Client struct {
	api       API
	tableName string
	index     GSIConfig
	log       logger.Logger
	clock     func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithEntityTypeIndex sets the index used for cross-partition typed
// queries. Pass a zero GSIConfig to scan instead.
func WithEntityTypeIndex(g GSIConfig) Option {
	return func(c *Client) {
		c.index = g
	}
}

// WithClock sets the time source used for _ts
func WithClock(clock func() time.Time) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// Config holds the connection settings for NewDynamoDBClient.
type Config struct {
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint overrides the service endpoint, e.g. DynamoDB Local.
	Endpoint string
}

// NewDynamoDBClient initializes a DynamoDB client. Static credentials are
// used when an access key is given, otherwise the default chain.
func NewDynamoDBClient(ctx context.Context, cfg Config) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// New creates a Client over tableName.
func New(api API, tableName string, opts ...Option) (*Client, error) {
	if api == nil {
		return nil, errors.NewConfigurationError("client", "a DynamoDB client is required")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.NewConfigurationError("table", "name is required")
	}
	c := &Client{
		api:       api,
		tableName: tableName,
		index:     DefaultEntityTypeIndex,
		log:       logger.Nop(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log.Info("DynamoDB client initialized", "table", tableName, "index", c.index.IndexName)
	return c, nil
}

func partitionValue(container string, key partitionkey.Key) string {
	return container + keySeparator + key.NativeString()
}

func (c *Client) primaryKey(container string, key partitionkey.Key, id string) (map[string]types.AttributeValue, error) {
	if strings.TrimSpace(container) == "" {
		return nil, errors.NewConfigurationError("container", "name is required")
	}
	if key.IsZero() {
		return nil, errors.NewValidationError("partitionKey", "a partition key is required")
	}
	if id == "" {
		return nil, errors.NewValidationError("id", "is required")
	}
	return map[string]types.AttributeValue{
		PartitionKeyName: &types.AttributeValueMemberS{Value: partitionValue(container, key)},
		SortKeyName:      &types.AttributeValueMemberS{Value: id},
	}, nil
}

// toItem converts a JSON document to a table item and stamps the keys and
// store metadata.
func (c *Client) toItem(container string, key partitionkey.Key, id string, body []byte) (map[string]types.AttributeValue, string, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, "", errors.NewValidationError("body", err.Error())
	}
	etag := strconv.Quote(uuid.NewString())
	doc["_etag"] = etag
	doc["_ts"] = c.clock().Unix()

	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal document: %w", err)
	}
	pk, err := c.primaryKey(container, key, id)
	if err != nil {
		return nil, "", err
	}
	for k, v := range pk {
		item[k] = v
	}
	if et, ok := doc["entityType"].(string); ok && et != "" && c.index.enabled() {
		item[c.index.PartitionKeyName] = &types.AttributeValueMemberS{Value: entityTypeIndexKey(container, et)}
		item[c.index.SortKeyName] = &types.AttributeValueMemberS{Value: id}
	}
	return item, etag, nil
}

// fromItem strips the table's key attributes and returns the document.
func (c *Client) fromItem(item map[string]types.AttributeValue) ([]byte, string, error) {
	var doc map[string]any
	if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal item: %w", err)
	}
	delete(doc, PartitionKeyName)
	delete(doc, SortKeyName)
	if c.index.enabled() {
		delete(doc, c.index.PartitionKeyName)
		delete(doc, c.index.SortKeyName)
	}
	etag, _ := doc["_etag"].(string)
	body, err := json.Marshal(doc)
	return body, etag, err
}

func (c *Client) ReadItem(ctx context.Context, container string, key partitionkey.Key, id string) (storagemodels.ItemResponse, error) {
	pk, err := c.primaryKey(container, key, id)
	if err != nil {
		return storagemodels.ItemResponse{}, err
	}
	out, err := c.api.GetItem(ctx, &sdk.GetItemInput{
		TableName:              &c.tableName,
		Key:                    pk,
		ConsistentRead:         aws.Bool(true),
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	})
	if err != nil {
		return storagemodels.ItemResponse{}, convertError("ReadItem", err)
	}
	if out.Item == nil {
		return storagemodels.ItemResponse{}, notFound("ReadItem", id)
	}
	body, etag, err := c.fromItem(out.Item)
	if err != nil {
		return storagemodels.ItemResponse{}, err
	}
	return storagemodels.ItemResponse{
		Body:          body,
		ETag:          etag,
		StatusCode:    http.StatusOK,
		RequestCharge: capacity(out.ConsumedCapacity),
	}, nil
}

func (c *Client) CreateItem(ctx context.Context, container string, key partitionkey.Key, id string, body []byte) (storagemodels.ItemResponse, error) {
	return c.put(ctx, "CreateItem", container, key, id, body, "attribute_not_exists(#pk)", nil, http.StatusCreated)
}

func (c *Client) UpsertItem(ctx context.Context, container string, key partitionkey.Key, id string, body []byte) (storagemodels.ItemResponse, error) {
	return c.put(ctx, "UpsertItem", container, key, id, body, "", nil, http.StatusOK)
}

// ReplaceItem overwrites an existing document, conditionally on its ETag
// when opts.IfMatch is set.
func (c *Client) ReplaceItem(ctx context.Context, container string, key partitionkey.Key, id string, body []byte, opts storagemodels.WriteOptions) (storagemodels.ItemResponse, error) {
	cond := "attribute_exists(#pk)"
	var values map[string]types.AttributeValue
	if opts.IfMatch != "" {
		cond += " AND #etag = :etag"
		values = map[string]types.AttributeValue{":etag": &types.AttributeValueMemberS{Value: opts.IfMatch}}
	}
	return c.put(ctx, "ReplaceItem", container, key, id, body, cond, values, http.StatusOK)
}

func (c *Client) put(ctx context.Context, op, container string, key partitionkey.Key, id string, body []byte, cond string, values map[string]types.AttributeValue, status int) (storagemodels.ItemResponse, error) {
	item, etag, err := c.toItem(container, key, id, body)
	if err != nil {
		return storagemodels.ItemResponse{}, err
	}

	input := &sdk.PutItemInput{
		TableName:              &c.tableName,
		Item:                   item,
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	}
	if cond != "" {
		input.ConditionExpression = aws.String(cond)
		input.ExpressionAttributeNames = map[string]string{"#pk": PartitionKeyName}
		if values != nil {
			input.ExpressionAttributeNames["#etag"] = "_etag"
			input.ExpressionAttributeValues = values
		}
		input.ReturnValuesOnConditionCheckFailure = types.ReturnValuesOnConditionCheckFailureAllOld
	}

	out, err := c.api.PutItem(ctx, input)
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			switch {
			case op == "CreateItem":
				return storagemodels.ItemResponse{}, errors.NewStoreError(op, http.StatusConflict, errors.NewAlreadyExistsError("document", id))
			case cfe.Item == nil:
				return storagemodels.ItemResponse{}, notFound(op, id)
			default:
				return storagemodels.ItemResponse{}, errors.NewStoreError(op, http.StatusPreconditionFailed, errors.NewConditionFailedError(op, "etag mismatch"))
			}
		}
		return storagemodels.ItemResponse{}, convertError(op, err)
	}

	stored, _, err := c.fromItem(item)
	if err != nil {
		return storagemodels.ItemResponse{}, err
	}
	return storagemodels.ItemResponse{
		Body:          stored,
		ETag:          etag,
		StatusCode:    status,
		RequestCharge: capacity(out.ConsumedCapacity),
	}, nil
}

func (c *Client) DeleteItem(ctx context.Context, container string, key partitionkey.Key, id string) (storagemodels.ItemResponse, error) {
	pk, err := c.primaryKey(container, key, id)
	if err != nil {
		return storagemodels.ItemResponse{}, err
	}
	out, err := c.api.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:                &c.tableName,
		Key:                      pk,
		ConditionExpression:      aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": PartitionKeyName},
		ReturnConsumedCapacity:   types.ReturnConsumedCapacityTotal,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return storagemodels.ItemResponse{}, notFound("DeleteItem", id)
		}
		return storagemodels.ItemResponse{}, convertError("DeleteItem", err)
	}
	return storagemodels.ItemResponse{
		StatusCode:    http.StatusNoContent,
		RequestCharge: capacity(out.ConsumedCapacity),
	}, nil
}

// ExecuteBatch writes items in one TransactWriteItems call. A cancelled
// transaction is reported in the response, not as an error.
func (c *Client) ExecuteBatch(ctx context.Context, container string, key partitionkey.Key, items []storagemodels.BatchItem) (storagemodels.BatchResponse, error) {
	if len(items) == 0 || len(items) > batch.MaxOperations {
		return storagemodels.BatchResponse{}, errors.NewStoreError("ExecuteBatch", http.StatusBadRequest,
			fmt.Errorf("a batch holds 1 to %d operations, got %d", batch.MaxOperations, len(items)))
	}

	writes := make([]types.TransactWriteItem, len(items))
	for i, it := range items {
		item, _, err := c.toItem(container, key, it.ID, it.Body)
		if err != nil {
			return storagemodels.BatchResponse{}, err
		}
		writes[i] = types.TransactWriteItem{Put: &types.Put{TableName: &c.tableName, Item: item}}
	}

	out, err := c.api.TransactWriteItems(ctx, &sdk.TransactWriteItemsInput{
		TransactItems:          writes,
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if stderrors.As(err, &tce) {
			return cancelledBatch(tce), nil
		}
		return storagemodels.BatchResponse{}, convertError("ExecuteBatch", err)
	}

	var charge float64
	for _, cc := range out.ConsumedCapacity {
		charge += capacity(&cc)
	}
	return storagemodels.BatchResponse{Success: true, StatusCode: http.StatusOK, RequestCharge: charge}, nil
}

func cancelledBatch(tce *types.TransactionCanceledException) storagemodels.BatchResponse {
	resp := storagemodels.BatchResponse{StatusCode: http.StatusConflict, Message: "transaction cancelled"}
	for i, r := range tce.CancellationReasons {
		code := aws.ToString(r.Code)
		if code == "" || code == "None" {
			continue
		}
		resp.StatusCode = reasonStatus(code)
		resp.Message = fmt.Sprintf("operation %d: %s %s", i, code, aws.ToString(r.Message))
		break
	}
	return resp
}

func reasonStatus(code string) int {
	switch code {
	case "ConditionalCheckFailed":
		return http.StatusPreconditionFailed
	case "ThrottlingError", "ProvisionedThroughputExceeded", "RequestLimitExceeded":
		return http.StatusTooManyRequests
	case "ValidationError", "ItemCollectionSizeLimitExceeded":
		return http.StatusBadRequest
	}
	return http.StatusConflict
}

func capacity(cc *types.ConsumedCapacity) float64 {
	if cc == nil {
		return 0
	}
	return aws.ToFloat64(cc.CapacityUnits)
}

func notFound(op, id string) error {
	return errors.NewStoreError(op, http.StatusNotFound, errors.NewNotFoundError("document", id))
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cosmos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"

	"github.com/suparena/cleardata/batch"
	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/logger"
	"github.com/suparena/cleardata/partitionkey"
	"github.com/suparena/cleardata/storagemodels"
)

// containerAPI is the subset of *azcosmos.ContainerClient the client uses.
type containerAPI interface {
	ReadItem(ctx context.Context, partitionKey azcosmos.PartitionKey, itemId string, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	CreateItem(ctx context.Context, partitionKey azcosmos.PartitionKey, item []byte, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	UpsertItem(ctx context.Context, partitionKey azcosmos.PartitionKey, item []byte, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	ReplaceItem(ctx context.Context, partitionKey azcosmos.PartitionKey, itemId string, item []byte, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	DeleteItem(ctx context.Context, partitionKey azcosmos.PartitionKey, itemId string, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	NewQueryItemsPager(query string, partitionKey azcosmos.PartitionKey, o *azcosmos.QueryOptions) *runtime.Pager[azcosmos.QueryItemsResponse]
	NewTransactionalBatch(partitionKey azcosmos.PartitionKey) azcosmos.TransactionalBatch
	ExecuteTransactionalBatch(ctx context.Context, b azcosmos.TransactionalBatch, o *azcosmos.TransactionalBatchOptions) (azcosmos.TransactionalBatchResponse, error)
}

var _ containerAPI = (*azcosmos.ContainerClient)(nil)

// Client is a datastore.DocumentClient backed by one Cosmos DB database.
// It is safe for concurrent use.
type Client struct {
	client   *azcosmos.Client
	database string
	log      logger.Logger

	mu         sync.RWMutex
	infos      map[string]partitionkey.ContainerInfo
	containers map[string]containerAPI
	open       func(name string) (containerAPI, error)
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

// WithContainers registers the partition key layout of containers. An
// unregistered container is assumed to be partitioned on
// partitionkey.DefaultPath.
func WithContainers(infos ...partitionkey.ContainerInfo) Option {
	return func(c *Client) {
		for _, info := range infos {
			c.infos[info.Name] = info
		}
	}
}

// New wraps an existing SDK client for database.
func New(client *azcosmos.Client, database string, opts ...Option) (*Client, error) {
	if client == nil {
		return nil, errors.NewConfigurationError("client", "a Cosmos DB client is required")
	}
	if strings.TrimSpace(database) == "" {
		return nil, errors.NewConfigurationError("database", "name is required")
	}
	c := newClient(database, opts...)
	c.client = client
	c.open = func(name string) (containerAPI, error) {
		return client.NewContainer(database, name)
	}
	for name, info := range c.infos {
		if err := info.Validate(); err != nil {
			return nil, fmt.Errorf("container %s: %w", name, err)
		}
	}
	c.log.Info("cosmos client ready", "endpoint", client.Endpoint(), "database", database)
	return c, nil
}

// NewClientFromConnectionString connects with an account connection string.
func NewClientFromConnectionString(connectionString, database string, opts ...Option) (*Client, error) {
	client, err := azcosmos.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, errors.NewConfigurationError("connectionString", err.Error())
	}
	return New(client, database, opts...)
}

// NewClientWithKey connects with an endpoint and account key.
func NewClientWithKey(endpoint, key, database string, opts ...Option) (*Client, error) {
	cred, err := azcosmos.NewKeyCredential(key)
	if err != nil {
		return nil, errors.NewConfigurationError("key", err.Error())
	}
	client, err := azcosmos.NewClientWithKey(endpoint, cred, nil)
	if err != nil {
		return nil, errors.NewConfigurationError("endpoint", err.Error())
	}
	return New(client, database, opts...)
}

func newClient(database string, opts ...Option) *Client {
	c := &Client{
		database:   database,
		log:        logger.Nop(),
		infos:      make(map[string]partitionkey.ContainerInfo),
		containers: make(map[string]containerAPI),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) container(name string) (containerAPI, error) {
	c.mu.RLock()
	ct, ok := c.containers[name]
	c.mu.RUnlock()
	if ok {
		return ct, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ct, ok := c.containers[name]; ok {
		return ct, nil
	}
	ct, err := c.open(name)
	if err != nil {
		return nil, errors.NewConfigurationError("container", fmt.Sprintf("%s: %v", name, err))
	}
	c.containers[name] = ct
	return ct, nil
}

func (c *Client) paths(name string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if info, ok := c.infos[name]; ok {
		return info.Paths()
	}
	return []string{partitionkey.DefaultPath}
}

// target resolves the container and the physical partition key for key.
// With the default layout the key's projection is the physical key. With
// registered paths the key must have one level per path, and stamp writes
// the segments into a document body.
func (c *Client) target(name string, key partitionkey.Key) (containerAPI, azcosmos.PartitionKey, func([]byte) ([]byte, error), error) {
	ct, err := c.container(name)
	if err != nil {
		return nil, azcosmos.PartitionKey{}, nil, err
	}
	if key.IsZero() {
		return nil, azcosmos.PartitionKey{}, nil, errors.NewValidationError("partitionKey", "a partition key is required")
	}

	paths := c.paths(name)
	if len(paths) == 1 && paths[0] == partitionkey.DefaultPath {
		noop := func(b []byte) ([]byte, error) { return b, nil }
		return ct, azcosmos.NewPartitionKeyString(key.Projection()), noop, nil
	}
	if len(paths) != key.Levels() {
		return nil, azcosmos.PartitionKey{}, nil, errors.NewConfigurationError("partitionKey",
			fmt.Sprintf("container %s has %d partition key paths, key %s has %d levels", name, len(paths), key, key.Levels()))
	}
	stamp := func(body []byte) ([]byte, error) {
		return stampKeyPaths(body, paths, key)
	}
	return ct, key.ToNative(), stamp, nil
}

// stampKeyPaths writes the key's segments into body at paths.
func stampKeyPaths(body []byte, paths []string, key partitionkey.Key) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.NewValidationError("body", err.Error())
	}
	values := key.Values()
	for i, p := range paths {
		segs := strings.Split(strings.TrimPrefix(p, "/"), "/")
		node := doc
		for _, s := range segs[:len(segs)-1] {
			child, ok := node[s].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[s] = child
			}
			node = child
		}
		node[segs[len(segs)-1]] = values[i]
	}
	return json.Marshal(doc)
}

func (c *Client) ReadItem(ctx context.Context, container string, key partitionkey.Key, id string) (storagemodels.ItemResponse, error) {
	ct, pk, _, err := c.target(container, key)
	if err != nil {
		return storagemodels.ItemResponse{}, err
	}
	resp, err := ct.ReadItem(ctx, pk, id, nil)
	if err != nil {
		return storagemodels.ItemResponse{}, convertError("ReadItem", err)
	}
	return itemResponse(resp, http.StatusOK), nil
}

func (c *Client) CreateItem(ctx context.Context, container string, key partitionkey.Key, id string, body []byte) (storagemodels.ItemResponse, error) {
	return c.write(ctx, "CreateItem", container, key, body, func(ct containerAPI, pk azcosmos.PartitionKey, b []byte) (azcosmos.ItemResponse, error) {
		return ct.CreateItem(ctx, pk, b, writeOptions(""))
	}, http.StatusCreated)
}

func (c *Client) UpsertItem(ctx context.Context, container string, key partitionkey.Key, id string, body []byte) (storagemodels.ItemResponse, error) {
	return c.write(ctx, "UpsertItem", container, key, body, func(ct containerAPI, pk azcosmos.PartitionKey, b []byte) (azcosmos.ItemResponse, error) {
		return ct.UpsertItem(ctx, pk, b, writeOptions(""))
	}, http.StatusOK)
}

func (c *Client) ReplaceItem(ctx context.Context, container string, key partitionkey.Key, id string, body []byte, opts storagemodels.WriteOptions) (storagemodels.ItemResponse, error) {
	return c.write(ctx, "ReplaceItem", container, key, body, func(ct containerAPI, pk azcosmos.PartitionKey, b []byte) (azcosmos.ItemResponse, error) {
		return ct.ReplaceItem(ctx, pk, id, b, writeOptions(opts.IfMatch))
	}, http.StatusOK)
}

type writeFunc func(ct containerAPI, pk azcosmos.PartitionKey, body []byte) (azcosmos.ItemResponse, error)

func (c *Client) write(ctx context.Context, op, container string, key partitionkey.Key, body []byte, fn writeFunc, status int) (storagemodels.ItemResponse, error) {
	ct, pk, stamp, err := c.target(container, key)
	if err != nil {
		return storagemodels.ItemResponse{}, err
	}
	body, err = stamp(body)
	if err != nil {
		return storagemodels.ItemResponse{}, err
	}
	resp, err := fn(ct, pk, body)
	if err != nil {
		return storagemodels.ItemResponse{}, convertError(op, err)
	}
	return itemResponse(resp, status), nil
}

func (c *Client) DeleteItem(ctx context.Context, container string, key partitionkey.Key, id string) (storagemodels.ItemResponse, error) {
	ct, pk, _, err := c.target(container, key)
	if err != nil {
		return storagemodels.ItemResponse{}, err
	}
	resp, err := ct.DeleteItem(ctx, pk, id, nil)
	if err != nil {
		return storagemodels.ItemResponse{}, convertError("DeleteItem", err)
	}
	return itemResponse(resp, http.StatusNoContent), nil
}

// QueryPage fetches one page. The continuation token is handed to the
// service as is.
func (c *Client) QueryPage(ctx context.Context, container string, key *partitionkey.Key, spec storagemodels.QuerySpec, pageSize int, token string) (storagemodels.Page, error) {
	if pageSize <= 0 {
		return storagemodels.Page{}, errors.NewValidationError("pageSize", "must be positive")
	}
	text, params, err := BuildQuery(spec)
	if err != nil {
		return storagemodels.Page{}, err
	}

	var (
		ct containerAPI
		pk azcosmos.PartitionKey
	)
	if key == nil {
		if ct, err = c.container(container); err != nil {
			return storagemodels.Page{}, err
		}
		pk = azcosmos.NewPartitionKey()
	} else if ct, pk, _, err = c.target(container, *key); err != nil {
		return storagemodels.Page{}, err
	}

	opts := &azcosmos.QueryOptions{
		PageSizeHint:    int32(pageSize),
		QueryParameters: params,
	}
	if token != "" {
		opts.ContinuationToken = &token
	}

	c.log.Debug("cosmos query", "container", container, "query", text, "pageSize", pageSize)
	resp, err := ct.NewQueryItemsPager(text, pk, opts).NextPage(ctx)
	if err != nil {
		return storagemodels.Page{}, convertError("QueryPage", err)
	}

	page := storagemodels.Page{
		Items:         resp.Items,
		RequestCharge: float64(resp.RequestCharge),
	}
	if resp.ContinuationToken != nil {
		page.ContinuationToken = *resp.ContinuationToken
	}
	return page, nil
}

// ExecuteBatch upserts items in one transactional batch.
func (c *Client) ExecuteBatch(ctx context.Context, container string, key partitionkey.Key, items []storagemodels.BatchItem) (storagemodels.BatchResponse, error) {
	if len(items) == 0 || len(items) > batch.MaxOperations {
		return storagemodels.BatchResponse{}, errors.NewStoreError("ExecuteBatch", http.StatusBadRequest,
			fmt.Errorf("a batch holds 1 to %d operations, got %d", batch.MaxOperations, len(items)))
	}
	ct, pk, stamp, err := c.target(container, key)
	if err != nil {
		return storagemodels.BatchResponse{}, err
	}

	b := ct.NewTransactionalBatch(pk)
	for _, it := range items {
		body, err := stamp(it.Body)
		if err != nil {
			return storagemodels.BatchResponse{}, err
		}
		b.UpsertItem(body, nil)
	}

	resp, err := ct.ExecuteTransactionalBatch(ctx, b, nil)
	if err != nil {
		return storagemodels.BatchResponse{}, convertError("ExecuteBatch", err)
	}
	return batchResponse(resp), nil
}

func writeOptions(ifMatch string) *azcosmos.ItemOptions {
	o := &azcosmos.ItemOptions{EnableContentResponseOnWrite: true}
	if ifMatch != "" {
		etag := azcore.ETag(ifMatch)
		o.IfMatchEtag = &etag
	}
	return o
}

func itemResponse(resp azcosmos.ItemResponse, fallback int) storagemodels.ItemResponse {
	status := fallback
	if resp.RawResponse != nil {
		status = resp.RawResponse.StatusCode
	}
	return storagemodels.ItemResponse{
		Body:          resp.Value,
		ETag:          string(resp.ETag),
		StatusCode:    status,
		RequestCharge: float64(resp.RequestCharge),
	}
}

// batchResponse summarizes a transactional batch. On failure the message
// names the operation that caused the rollback; the others report 424.
func batchResponse(resp azcosmos.TransactionalBatchResponse) storagemodels.BatchResponse {
	out := storagemodels.BatchResponse{
		Success:       resp.Success,
		StatusCode:    http.StatusOK,
		RequestCharge: float64(resp.RequestCharge),
	}
	if resp.Success {
		return out
	}

	out.StatusCode = http.StatusFailedDependency
	for i, r := range resp.OperationResults {
		if r.StatusCode != http.StatusFailedDependency {
			out.StatusCode = int(r.StatusCode)
			out.Message = fmt.Sprintf("operation %d failed with status %d", i, r.StatusCode)
			break
		}
	}
	if out.Message == "" {
		out.Message = "transactional batch failed"
	}
	return out
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of the DocumentClient interface for testing
package mock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/suparena/cleardata/batch"
	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/partitionkey"
	"github.com/suparena/cleardata/query"
	"github.com/suparena/cleardata/storagemodels"
)

type item struct {
	id  string
	key partitionkey.Key
	doc map[string]any
	seq int64
}

// BatchHook inspects a transactional batch before it is applied. A non-nil
// error fails the whole batch and nothing is written. call is 1-based.
type BatchHook func(call int, container string, key partitionkey.Key, items []storagemodels.BatchItem) error

// Client is an in-memory datastore.DocumentClient for testing.
//
// Documents are kept per container and partition key. Queries evaluate
// filters in memory and page with offset tokens that remember the query
// shape, so reusing a token with a different query is reported as an
// argument error.
type Client struct {
	mu         sync.RWMutex
	containers map[string]map[string]*item
	seq        int64
	batchCalls int
	queryCalls int

	clock         func() time.Time
	requestCharge float64
	rawQueries    map[string]query.Expr
	batchHook     BatchHook
	deleteFunc    func(container, id string) error
	putError      error
	readError     error
	queryError    error
}

// New creates a new mock Client
func New() *Client {
	return &Client{
		containers:    make(map[string]map[string]*item),
		clock:         time.Now,
		requestCharge: 1,
		rawQueries:    make(map[string]query.Expr),
	}
}

// WithClock sets the time source used for _ts
func (m *Client) WithClock(clock func() time.Time) *Client {
	m.clock = clock
	return m
}

// WithRequestCharge sets the charge reported by every operation
func (m *Client) WithRequestCharge(ru float64) *Client {
	m.requestCharge = ru
	return m
}

// WithRawQuery teaches the mock how to evaluate a raw where clause. The
// expression must select the same documents the clause would.
func (m *Client) WithRawQuery(where string, expr query.Expr) *Client {
	m.rawQueries[where] = expr
	return m
}

// WithBatchHook sets a hook run before every transactional batch
func (m *Client) WithBatchHook(hook BatchHook) *Client {
	m.batchHook = hook
	return m
}

// WithDeleteFunc makes DeleteItem return f's error when non-nil
func (m *Client) WithDeleteFunc(f func(container, id string) error) *Client {
	m.deleteFunc = f
	return m
}

// WithPutError makes create, upsert and replace operations return an error
func (m *Client) WithPutError(err error) *Client {
	m.putError = err
	return m
}

// WithReadError makes ReadItem return an error
func (m *Client) WithReadError(err error) *Client {
	m.readError = err
	return m
}

// WithQueryError makes QueryPage return an error
func (m *Client) WithQueryError(err error) *Client {
	m.queryError = err
	return m
}

func docKey(key partitionkey.Key, id string) string {
	return key.NativeString() + "\x00" + id
}

// ReadItem returns a stored document
func (m *Client) ReadItem(ctx context.Context, container string, key partitionkey.Key, id string) (storagemodels.ItemResponse, error) {
	if err := ctx.Err(); err != nil {
		return storagemodels.ItemResponse{}, err
	}
	if m.readError != nil {
		return storagemodels.ItemResponse{}, m.readError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.containers[container][docKey(key, id)]
	if !ok {
		return storagemodels.ItemResponse{}, notFound("ReadItem", id)
	}
	return m.response(it, http.StatusOK)
}

// CreateItem stores a new document and fails if the id is taken in the partition
func (m *Client) CreateItem(ctx context.Context, container string, key partitionkey.Key, id string, body []byte) (storagemodels.ItemResponse, error) {
	return m.write(ctx, "CreateItem", container, key, id, body, func(existing *item) error {
		if existing != nil {
			return errors.NewStoreError("CreateItem", http.StatusConflict, errors.NewAlreadyExistsError("document", id))
		}
		return nil
	})
}

// UpsertItem creates or replaces a document
func (m *Client) UpsertItem(ctx context.Context, container string, key partitionkey.Key, id string, body []byte) (storagemodels.ItemResponse, error) {
	return m.write(ctx, "UpsertItem", container, key, id, body, nil)
}

// ReplaceItem replaces an existing document, honouring IfMatch
func (m *Client) ReplaceItem(ctx context.Context, container string, key partitionkey.Key, id string, body []byte, opts storagemodels.WriteOptions) (storagemodels.ItemResponse, error) {
	return m.write(ctx, "ReplaceItem", container, key, id, body, func(existing *item) error {
		if existing == nil {
			return notFound("ReplaceItem", id)
		}
		if opts.IfMatch != "" && existing.doc["_etag"] != opts.IfMatch {
			return errors.NewStoreError("ReplaceItem", http.StatusPreconditionFailed,
				errors.NewConditionFailedError("replace", "etag "+opts.IfMatch+" does not match"))
		}
		return nil
	})
}

func (m *Client) write(ctx context.Context, op, container string, key partitionkey.Key, id string, body []byte, check func(*item) error) (storagemodels.ItemResponse, error) {
	if err := ctx.Err(); err != nil {
		return storagemodels.ItemResponse{}, err
	}
	if m.putError != nil {
		return storagemodels.ItemResponse{}, m.putError
	}

	doc, err := decode(body)
	if err != nil {
		return storagemodels.ItemResponse{}, errors.NewStoreError(op, http.StatusBadRequest, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.containerFor(container)
	existing := docs[docKey(key, id)]
	if check != nil {
		if err := check(existing); err != nil {
			return storagemodels.ItemResponse{}, err
		}
	}
	it := m.store(docs, existing, key, id, doc)
	status := http.StatusOK
	if existing == nil {
		status = http.StatusCreated
	}
	return m.response(it, status)
}

// DeleteItem removes a document
func (m *Client) DeleteItem(ctx context.Context, container string, key partitionkey.Key, id string) (storagemodels.ItemResponse, error) {
	if err := ctx.Err(); err != nil {
		return storagemodels.ItemResponse{}, err
	}
	if m.deleteFunc != nil {
		if err := m.deleteFunc(container, id); err != nil {
			return storagemodels.ItemResponse{}, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.containers[container]
	k := docKey(key, id)
	if _, ok := docs[k]; !ok {
		return storagemodels.ItemResponse{}, notFound("DeleteItem", id)
	}
	delete(docs, k)
	return storagemodels.ItemResponse{StatusCode: http.StatusNoContent, RequestCharge: m.requestCharge}, nil
}

type pageToken struct {
	Offset int    `json:"o"`
	Shape  string `json:"s"`
}

// QueryPage returns one page of matching documents in insertion order, or
// in the order given by spec.Sort
func (m *Client) QueryPage(ctx context.Context, container string, key *partitionkey.Key, spec storagemodels.QuerySpec, pageSize int, token string) (storagemodels.Page, error) {
	if err := ctx.Err(); err != nil {
		return storagemodels.Page{}, err
	}
	if m.queryError != nil {
		return storagemodels.Page{}, m.queryError
	}
	if pageSize <= 0 {
		return storagemodels.Page{}, errors.NewValidationError("pageSize", "must be positive")
	}

	filter := query.AllOf(spec.Filter)
	if spec.EntityType != "" {
		filter = query.AllOf(query.Eq(query.Field("entityType"), spec.EntityType), filter)
	}
	if spec.Where != "" {
		raw, ok := m.rawQueries[spec.Where]
		if !ok {
			return storagemodels.Page{}, errors.NewValidationError("where", fmt.Sprintf("mock has no expression registered for %q", spec.Where))
		}
		filter = query.AllOf(filter, raw)
	}

	shape := spec.Shape()
	if key != nil {
		shape += key.NativeString()
	}
	offset := 0
	if token != "" {
		t, err := decodeToken(token)
		if err != nil || t.Shape != shape {
			return storagemodels.Page{}, errors.NewValidationError("continuationToken", "token does not belong to this query")
		}
		offset = t.Offset
	}

	m.mu.Lock()
	m.queryCalls++
	m.mu.Unlock()

	m.mu.RLock()
	matched := make([]*item, 0)
	for _, it := range m.containers[container] {
		if key != nil && !it.key.Equal(*key) {
			continue
		}
		if filter.Eval(it.doc) {
			matched = append(matched, it)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	docs := make([]map[string]any, len(matched))
	for i, it := range matched {
		docs[i] = it.doc
	}
	docs = spec.Sort.ApplyTo(docs)

	page := storagemodels.Page{RequestCharge: m.requestCharge}
	end := min(offset+pageSize, len(docs))
	for _, d := range docs[min(offset, len(docs)):end] {
		raw, err := json.Marshal(d)
		if err != nil {
			return storagemodels.Page{}, err
		}
		page.Items = append(page.Items, raw)
	}
	if end < len(docs) {
		page.ContinuationToken = encodeToken(pageToken{Offset: end, Shape: shape})
	}
	return page, nil
}

// ExecuteBatch applies every upsert atomically
func (m *Client) ExecuteBatch(ctx context.Context, container string, key partitionkey.Key, items []storagemodels.BatchItem) (storagemodels.BatchResponse, error) {
	if len(items) == 0 || len(items) > batch.MaxOperations {
		return storagemodels.BatchResponse{}, errors.NewStoreError("ExecuteBatch", http.StatusBadRequest,
			fmt.Errorf("a batch holds 1 to %d operations, got %d", batch.MaxOperations, len(items)))
	}

	m.mu.Lock()
	m.batchCalls++
	call := m.batchCalls
	m.mu.Unlock()

	if m.batchHook != nil {
		if err := m.batchHook(call, container, key, items); err != nil {
			return storagemodels.BatchResponse{}, err
		}
	}

	decoded := make([]map[string]any, len(items))
	for i, bi := range items {
		doc, err := decode(bi.Body)
		if err != nil {
			return storagemodels.BatchResponse{
				StatusCode: http.StatusBadRequest,
				Message:    fmt.Sprintf("operation %d: %v", i, err),
			}, nil
		}
		decoded[i] = doc
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	docs := m.containerFor(container)
	for i, bi := range items {
		m.store(docs, docs[docKey(key, bi.ID)], key, bi.ID, decoded[i])
	}
	return storagemodels.BatchResponse{
		Success:       true,
		StatusCode:    http.StatusOK,
		RequestCharge: m.requestCharge * float64(len(items)),
	}, nil
}

// Helper methods for testing

// Count returns the number of documents stored in a container
func (m *Client) Count(container string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.containers[container])
}

// CountPartition returns the number of documents stored under key
func (m *Client) CountPartition(container string, key partitionkey.Key) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, it := range m.containers[container] {
		if it.key.Equal(key) {
			n++
		}
	}
	return n
}

// Document returns a copy of a stored document
func (m *Client) Document(container string, key partitionkey.Key, id string) (map[string]any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.containers[container][docKey(key, id)]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(it.doc))
	for k, v := range it.doc {
		out[k] = v
	}
	return out, true
}

// BatchCalls returns the number of ExecuteBatch calls made
func (m *Client) BatchCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.batchCalls
}

// QueryCalls returns the number of QueryPage calls made
func (m *Client) QueryCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queryCalls
}

// Clear removes all data
func (m *Client) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.containers = make(map[string]map[string]*item)
}

func (m *Client) containerFor(name string) map[string]*item {
	docs, ok := m.containers[name]
	if !ok {
		docs = make(map[string]*item)
		m.containers[name] = docs
	}
	return docs
}

// store stamps store metadata onto doc and saves it. Callers hold m.mu.
func (m *Client) store(docs map[string]*item, existing *item, key partitionkey.Key, id string, doc map[string]any) *item {
	m.seq++
	seq := m.seq
	rid := uuid.NewString()
	if existing != nil {
		seq = existing.seq
		if r, ok := existing.doc["_rid"].(string); ok {
			rid = r
		}
	}
	doc["id"] = id
	doc["_etag"] = fmt.Sprintf("%q", uuid.NewString())
	doc["_rid"] = rid
	doc["_self"] = "dbs/mock/docs/" + rid + "/"
	doc["_ts"] = float64(m.clock().Unix())

	it := &item{id: id, key: key, doc: doc, seq: seq}
	docs[docKey(key, id)] = it
	return it
}

func (m *Client) response(it *item, status int) (storagemodels.ItemResponse, error) {
	body, err := json.Marshal(it.doc)
	if err != nil {
		return storagemodels.ItemResponse{}, err
	}
	etag, _ := it.doc["_etag"].(string)
	return storagemodels.ItemResponse{Body: body, ETag: etag, StatusCode: status, RequestCharge: m.requestCharge}, nil
}

func notFound(op, id string) error {
	return errors.NewStoreError(op, http.StatusNotFound, errors.NewNotFoundError("document", id))
}

func decode(body []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("document is not a JSON object: %w", err)
	}
	return doc, nil
}

func encodeToken(t pageToken) string {
	raw, _ := json.Marshal(t)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeToken(s string) (pageToken, error) {
	var t pageToken
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return t, err
	}
	err = json.Unmarshal(raw, &t)
	return t, err
}
